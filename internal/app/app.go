// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/caredraft/draft-sync-service/internal/dao"
	"github.com/caredraft/draft-sync-service/internal/domain"
	"github.com/caredraft/draft-sync-service/internal/service"
	pkgapp "github.com/caredraft/draft-sync-service/pkg/app"
	"github.com/caredraft/draft-sync-service/pkg/netwatch"
	"github.com/caredraft/draft-sync-service/pkg/retryqueue"
	"github.com/caredraft/draft-sync-service/pkg/workerpool"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 客户端名称常量
const (
	// WebClientName Web 客户端名称
	WebClientName = "Web"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发与可靠性组件
	workerPool *workerpool.Pool
	retryQueue *retryqueue.Manager
	netMonitor *netwatch.Monitor

	// Repository 层
	UserRepo    domain.UserRepository
	SectionRepo domain.SectionRepository
	VersionRepo domain.SectionVersionRepository
	CommentRepo domain.CommentRepository

	// Service 层
	UserService    service.UserService
	SectionService service.SectionService
	VersionService service.VersionService
	CommentService service.CommentService
	MirrorService  service.MirrorService
	NotifyService  service.NotifyService

	// 基础设施组件
	TokenManager pkgapp.TokenManager

	// StartTime 服务启动时间，用于健康检查上报运行时长
	StartTime time.Time

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		StartTime:  time.Now(),
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化重试队列
	rqConfig := cfg.GetRetryQueueConfig()
	a.retryQueue = retryqueue.New(&rqConfig, logger, a.workerPool)

	// 初始化网络监视器，恢复连通后重放重试队列
	nwConfig := cfg.GetNetwatchConfig()
	a.netMonitor = netwatch.New(&nwConfig, logger)
	a.netMonitor.SetOnRecover(a.retryQueue.FlushAll)
	a.retryQueue.SetConnectedFn(a.netMonitor.IsConnected)

	// 初始化 DAO（使用依赖注入）
	a.Dao = dao.New(db, dao.WithLogger(logger))

	// 初始化 TokenManager
	tokenConfig := pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    "draft-sync-service",
		Expiry:    cfg.GetTokenExpiry(),
	}
	a.TokenManager = pkgapp.NewTokenManager(tokenConfig)

	// 初始化 Repository 层
	a.UserRepo = dao.NewUserRepository(a.Dao)
	a.SectionRepo = dao.NewSectionRepository(a.Dao)
	a.VersionRepo = dao.NewSectionVersionRepository(a.Dao)
	a.CommentRepo = dao.NewCommentRepository(a.Dao)

	// 创建 ServiceConfig（从 AppConfig 提取 Service 层需要的配置）
	svcConfig := &service.ServiceConfig{
		User: service.UserServiceConfig{
			RegisterIsEnable: cfg.User.RegisterIsEnable,
		},
		App: service.AppServiceConfig{
			SoftDeleteRetentionTime: cfg.App.SoftDeleteRetentionTime,
			CommentMaxLength:        cfg.App.CommentMaxLength,
		},
	}

	// 初始化 Service 层（依赖注入）
	a.NotifyService = service.NewNotifyService(service.EmailConfig{
		Enabled:  cfg.Email.Enabled,
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		To:       cfg.Email.To,
	}, a.retryQueue, logger)
	a.UserService = service.NewUserService(a.UserRepo, a.TokenManager, logger, svcConfig)
	a.SectionService = service.NewSectionService(a.SectionRepo, a.VersionRepo, logger, svcConfig)
	a.VersionService = service.NewVersionService(a.VersionRepo, a.SectionRepo, logger, svcConfig)
	a.CommentService = service.NewCommentService(a.CommentRepo, a.SectionRepo, a.UserRepo, a.NotifyService, logger, svcConfig)
	a.MirrorService = service.NewMirrorService(service.MirrorConfig{
		Enabled:  cfg.Upstream.MirrorEnabled,
		Endpoint: cfg.Upstream.Endpoint,
		Token:    cfg.Upstream.Token,
	}, a.retryQueue, a.netMonitor, a.NotifyService, logger)

	// 启动上游连通性探测
	a.netMonitor.Start()

	logger.Info("App container initialized successfully",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("retryQueueMaxPending", rqConfig.MaxPending))

	return a, nil
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// SubmitTask 提交任务到 Worker Pool
// 返回错误如果池已满或已关闭
func (a *App) SubmitTask(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.Submit(ctx, task)
}

// SubmitTaskAsync 异步提交任务到 Worker Pool（不等待结果）
// 返回错误如果池已满或已关闭
func (a *App) SubmitTaskAsync(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.SubmitAsync(ctx, task)
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// IsReturnSuccess 是否返回成功响应
func (a *App) IsReturnSuccess() bool {
	return a.config.App.IsReturnSuccess
}

// GetAuthTokenKey 获取 Token 密钥
func (a *App) GetAuthTokenKey() string {
	return a.config.Security.AuthTokenKey
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// RetryQueue 获取重试队列（用于高级操作）
func (a *App) RetryQueue() *retryqueue.Manager {
	return a.retryQueue
}

// NetMonitor 获取网络监视器
func (a *App) NetMonitor() *netwatch.Monitor {
	return a.netMonitor
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Net Monitor -> Retry Queue -> Worker Pool -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	// 如果没有提供 context，使用默认超时
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 1. 停止网络探测
	if a.netMonitor != nil {
		if err := a.netMonitor.Shutdown(ctx); err != nil {
			a.logger.Warn("Net monitor shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭重试队列（丢弃未完成的动作）
	if a.retryQueue != nil {
		a.logger.Info("Shutting down retry queue...",
			zap.Int("pendingActions", a.retryQueue.Len()))
		if err := a.retryQueue.Shutdown(ctx); err != nil {
			a.logger.Warn("Retry queue shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("retry queue shutdown: %w", err))
		}
	}

	// 3. 关闭 Worker Pool（停止接受新任务，等待现有任务完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 4. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 5. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
