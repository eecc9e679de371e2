package task

import (
	"github.com/caredraft/draft-sync-service/internal/app"
	"github.com/caredraft/draft-sync-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器，负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	app       *app.App
	logger    *zap.Logger
}

// NewManager 创建任务管理器
func NewManager(appContainer *app.App, logger *zap.Logger, sc *safe_close.SafeClose) *Manager {
	return &Manager{
		scheduler: NewScheduler(logger, sc),
		app:       appContainer,
		logger:    logger,
	}
}

// RegisterTasks 通过注册表创建并添加所有任务
func (m *Manager) RegisterTasks() error {
	for _, factory := range GetFactories() {
		t, err := factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.Error(err))
			return err
		}
		if t == nil {
			// 该任务在当前配置下被禁用
			continue
		}
		m.scheduler.AddTask(t)
	}
	return nil
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
