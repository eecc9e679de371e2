// Package task 提供周期性后台任务的注册与调度
package task

import (
	"context"
	"time"

	"github.com/caredraft/draft-sync-service/pkg/safe_close"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task 定义任务接口
type Task interface {
	Name() string                  // 任务名称
	Run(ctx context.Context) error // 执行任务
	CronSpec() string              // cron 表达式，5 字段标准格式
	IsStartupRun() bool            // 是否启动时立即执行一次
}

// Scheduler 任务调度器，基于 cron 表达式触发
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	cron   *cron.Cron
	sc     *safe_close.SafeClose
}

// NewScheduler 创建任务调度器
func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		cron:   cron.New(),
		sc:     sc,
	}
}

// AddTask 添加任务
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start 启动所有任务
func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no tasks to schedule")
		return
	}

	s.logger.Info("tasks starting", zap.Int("count", len(s.tasks)))

	for _, task := range s.tasks {
		if err := s.scheduleTask(task); err != nil {
			s.logger.Error("task schedule failed",
				zap.String("name", task.Name()),
				zap.String("cron", task.CronSpec()),
				zap.Error(err))
		}
	}

	s.cron.Start()

	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal

		// 等待执行中的任务结束
		stopCtx := s.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(30 * time.Second):
			s.logger.Warn("tasks stop timeout")
		}
		s.logger.Info("tasks stopped")
	})
}

// scheduleTask 注册单个任务到 cron
func (s *Scheduler) scheduleTask(task Task) error {
	runner := func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("task run panic",
					zap.String("name", task.Name()),
					zap.Any("panic", r),
					zap.Stack("stack"))
			}
		}()
		s.logger.Info("task running", zap.String("name", task.Name()))
		if err := task.Run(context.Background()); err != nil {
			s.logger.Error("task running error",
				zap.String("name", task.Name()),
				zap.Error(err))
		}
	}

	// 启动时立即执行一次
	if task.IsStartupRun() {
		go runner()
	}

	if task.CronSpec() == "" {
		return nil
	}

	_, err := s.cron.AddFunc(task.CronSpec(), runner)
	return err
}
