package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/caredraft/draft-sync-service/pkg/code"
	"github.com/caredraft/draft-sync-service/pkg/netwatch"
	"github.com/caredraft/draft-sync-service/pkg/retryqueue"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// MirrorConfig upstream mirror configuration
// MirrorConfig 上游镜像配置
type MirrorConfig struct {
	Enabled  bool   // Whether mirroring is enabled // 是否启用镜像
	Endpoint string // Upstream webhook endpoint // 上游回调地址
	Token    string // Bearer token for upstream auth // 上游认证令牌
	Timeout  time.Duration
}

// MirrorEvent a single change event pushed upstream
// MirrorEvent 推送到上游的单个变更事件
type MirrorEvent struct {
	Event      string `json:"event"`      // Event name // 事件名
	ProposalID string `json:"proposalId"` // Proposal ID // 提案标识
	SectionID  int64  `json:"sectionId"`  // Section ID // 章节标识
	Version    int64  `json:"version"`             // Version number // 版本号
	CommentID  int64  `json:"commentId,omitempty"` // Comment ID for comment events // 批注事件的批注标识
	UID        int64  `json:"uid"`                 // Acting user // 操作用户
	Timestamp  int64  `json:"timestamp"`           // Event time (ms) // 事件时间戳（毫秒）
}

// MirrorService 定义上游镜像推送服务接口
// 推送经过重试队列，上游不可达时延迟重放
type MirrorService interface {
	// Push 将变更事件入队推送到上游
	Push(event *MirrorEvent) error

	// QueueLen 当前待推送事件数
	QueueLen() int
}

// mirrorService 实现 MirrorService 接口
type mirrorService struct {
	config  MirrorConfig
	queue   *retryqueue.Manager
	monitor *netwatch.Monitor
	notify  NotifyService
	client  *http.Client
	logger  *zap.Logger
}

// NewMirrorService 创建 MirrorService 实例
// monitor 和 notify 可以为 nil，此时跳过连通性上报与告警邮件
func NewMirrorService(config MirrorConfig, queue *retryqueue.Manager, monitor *netwatch.Monitor, notify NotifyService, logger *zap.Logger) MirrorService {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &mirrorService{
		config:  config,
		queue:   queue,
		monitor: monitor,
		notify:  notify,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Push 将变更事件入队推送到上游
// 事件只在内存队列中存活，进程重启后丢弃
func (s *mirrorService) Push(event *MirrorEvent) error {
	if !s.config.Enabled || s.config.Endpoint == "" {
		return nil
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	body, err := sonic.Marshal(event)
	if err != nil {
		return code.ErrorInternal.WithDetails(err.Error())
	}

	_, err = s.queue.Enqueue(&retryqueue.Action{
		Type: "mirror_push",
		Operation: func(ctx context.Context) error {
			return s.send(ctx, body)
		},
		OnFinalFailure: func(err error) {
			s.logger.Error("mirror push dropped",
				zap.String("event", event.Event),
				zap.Int64("sectionID", event.SectionID),
				zap.Error(err))
			if s.notify != nil {
				body := fmt.Sprintf("event %s for section %d (v%d) was dropped after retries: %v",
					event.Event, event.SectionID, event.Version, err)
				if nerr := s.notify.Send("mirror push dropped", body); nerr != nil {
					s.logger.Warn("mirror failure notification skipped", zap.Error(nerr))
				}
			}
		},
	})
	if err != nil {
		if err == retryqueue.ErrQueueFull {
			return code.ErrorQueueFull
		}
		return code.ErrorUpstreamUnavailable.WithDetails(err.Error())
	}
	return nil
}

// send 单次推送尝试
// 4xx 返回不可重试错误，5xx 和网络错误可重试
func (s *mirrorService) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// 传输层失败，标记离线
		if s.monitor != nil {
			s.monitor.SetOnline(false)
		}
		return err
	}
	defer resp.Body.Close()

	// 收到任何响应即说明传输层连通
	if s.monitor != nil {
		s.monitor.SetOnline(true)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("upstream rejected push: authentication failed, status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("upstream rejected push: not_found, status %d", resp.StatusCode)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("upstream rejected push: bad_request, status %d", resp.StatusCode)
	default:
		return fmt.Errorf("upstream push failed with status %d", resp.StatusCode)
	}
}

// QueueLen 当前待推送事件数
func (s *mirrorService) QueueLen() int {
	return s.queue.Len()
}

// 确保 mirrorService 实现了 MirrorService 接口
var _ MirrorService = (*mirrorService)(nil)
