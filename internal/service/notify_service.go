package service

import (
	"context"

	"github.com/caredraft/draft-sync-service/pkg/code"
	"github.com/caredraft/draft-sync-service/pkg/retryqueue"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// EmailConfig SMTP notification configuration
// EmailConfig 邮件通知配置
type EmailConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// NotifyService 定义邮件通知服务接口
// 发送经过重试队列，SMTP 不可达时延迟重放
type NotifyService interface {
	// Send 发送通知邮件到配置的收件人
	Send(subject, body string) error

	// SendTo 发送通知邮件到指定收件人
	SendTo(to []string, subject, body string) error
}

// notifyService 实现 NotifyService 接口
type notifyService struct {
	config EmailConfig
	queue  *retryqueue.Manager
	logger *zap.Logger
}

// NewNotifyService 创建 NotifyService 实例
func NewNotifyService(config EmailConfig, queue *retryqueue.Manager, logger *zap.Logger) NotifyService {
	return &notifyService{
		config: config,
		queue:  queue,
		logger: logger,
	}
}

// Send 发送通知邮件到配置的收件人
func (s *notifyService) Send(subject, body string) error {
	return s.SendTo(s.config.To, subject, body)
}

// SendTo 发送通知邮件到指定收件人
func (s *notifyService) SendTo(to []string, subject, body string) error {
	if !s.config.Enabled || s.config.Host == "" || len(to) == 0 {
		return nil
	}

	_, err := s.queue.Enqueue(&retryqueue.Action{
		Type: "notify_email",
		Operation: func(ctx context.Context) error {
			m := gomail.NewMessage()
			m.SetHeader("From", s.config.From)
			m.SetHeader("To", to...)
			m.SetHeader("Subject", subject)
			m.SetBody("text/plain", body)

			d := gomail.NewDialer(s.config.Host, s.config.Port, s.config.Username, s.config.Password)
			return d.DialAndSend(m)
		},
		OnFinalFailure: func(err error) {
			s.logger.Error("notification email dropped",
				zap.String("subject", subject),
				zap.Error(err))
		},
	})
	if err != nil {
		if err == retryqueue.ErrQueueFull {
			return code.ErrorQueueFull
		}
		return code.ErrorNotifyFailed.WithDetails(err.Error())
	}
	return nil
}

// 确保 notifyService 实现了 NotifyService 接口
var _ NotifyService = (*notifyService)(nil)
