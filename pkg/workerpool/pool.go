// Package workerpool 提供固定容量的 Worker Pool
// 用于限制并发 goroutine 数量，镜像推送等后台任务统一经由池执行
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// 错误定义
var (
	// ErrPoolFull 当任务队列已满时返回
	ErrPoolFull = errors.New("worker pool queue is full")
	// ErrPoolClosed 当 Worker Pool 已关闭时返回
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 当任务入队后、执行前被取消时返回
	ErrTaskCancelled = errors.New("task was cancelled")
	// ErrTaskPanicked 当任务执行过程中 panic 时返回
	ErrTaskPanicked = errors.New("task panicked")
)

// Config Worker Pool 配置
type Config struct {
	// MaxWorkers 最大并发 worker 数量，默认 100
	MaxWorkers int
	// QueueSize 任务队列大小，默认 1000
	QueueSize int
	// WarningPercent 活跃数告警阈值百分比，默认 0.8 (80%)
	WarningPercent float64
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxWorkers:     100,
		QueueSize:      1000,
		WarningPercent: 0.8,
	}
}

// job 待执行的任务
type job struct {
	ctx  context.Context
	fn   func(context.Context) error
	done chan error // 为 nil 表示调用方不关心结果
}

// Pool 固定容量的 Worker Pool
type Pool struct {
	config Config
	logger *zap.Logger

	jobCh    chan job
	workerWg sync.WaitGroup

	active    atomic.Int64
	submitted atomic.Int64
	completed atomic.Int64
	rejected  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// New 创建 Worker Pool 并启动 worker goroutines
// cfg 为 nil 时使用默认配置，logger 为 nil 时使用 nop logger
func New(cfg *Config, logger *zap.Logger) *Pool {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}

	// 应用默认值
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 100
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WarningPercent <= 0 || cfg.WarningPercent > 1 {
		cfg.WarningPercent = 0.8
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		config: *cfg,
		logger: logger,
		jobCh:  make(chan job, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < cfg.MaxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", cfg.MaxWorkers),
		zap.Int("queueSize", cfg.QueueSize))

	return p
}

// worker 从任务通道取任务并执行，直到池关闭
func (p *Pool) worker() {
	defer p.workerWg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobCh:
			if !ok {
				return
			}
			p.run(j)
		}
	}
}

// run 执行单个任务，panic 不会杀死 worker
func (p *Pool) run(j job) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.completed.Add(1)
	}()

	p.checkWarningThreshold()

	var err error
	select {
	case <-j.ctx.Done():
		err = ErrTaskCancelled
	default:
		err = p.safeCall(j)
	}

	if j.done != nil {
		select {
		case j.done <- err:
		default:
		}
	}
}

// safeCall 带 panic 恢复地调用任务函数
func (p *Pool) safeCall(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker pool task panic",
				zap.Any("panic", r),
				zap.Stack("stack"))
			err = ErrTaskPanicked
		}
	}()
	return j.fn(j.ctx)
}

// checkWarningThreshold 活跃任务数接近上限时告警
func (p *Pool) checkWarningThreshold() {
	active := p.active.Load()
	threshold := int64(float64(p.config.MaxWorkers) * p.config.WarningPercent)

	if active >= threshold {
		p.logger.Warn("worker pool approaching capacity",
			zap.Int64("activeCount", active),
			zap.Int("maxWorkers", p.config.MaxWorkers))
	}
}

// Submit 提交任务并等待完成
// 池满返回 ErrPoolFull，池已关闭返回 ErrPoolClosed
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	done := make(chan error, 1)

	if err := p.enqueue(job{ctx: ctx, fn: fn, done: done}); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrPoolClosed
	}
}

// SubmitAsync 异步提交任务，不等待结果
func (p *Pool) SubmitAsync(ctx context.Context, fn func(context.Context) error) error {
	return p.enqueue(job{ctx: ctx, fn: fn})
}

// enqueue 非阻塞入队
// 持锁发送：Shutdown 在写锁内标记 closed 后才关闭通道，
// 读锁期间通道不可能被关闭，避免向已关闭通道发送
func (p *Pool) enqueue(j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobCh <- j:
		p.submitted.Add(1)
		return nil
	default:
		p.rejected.Add(1)
		return ErrPoolFull
	}
}

// ActiveCount 返回当前活跃任务数
func (p *Pool) ActiveCount() int64 {
	return p.active.Load()
}

// QueuedCount 返回当前队列中等待的任务数
func (p *Pool) QueuedCount() int {
	return len(p.jobCh)
}

// IsClosed 返回 Worker Pool 是否已关闭
func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown 关闭 Worker Pool，等待在途任务完成
// ctx 超时后强制取消剩余任务
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down",
		zap.Int64("activeCount", p.active.Load()),
		zap.Int("queuedCount", len(p.jobCh)))

	// 不再接受新任务
	close(p.jobCh)

	done := make(chan struct{})
	go func() {
		p.workerWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}

// Metrics Worker Pool 运行指标
type Metrics struct {
	MaxWorkers    int
	ActiveCount   int64
	QueuedCount   int
	QueueCapacity int
	Submitted     int64
	Completed     int64
	Rejected      int64
	IsClosed      bool
}

// GetMetrics 获取当前指标
func (p *Pool) GetMetrics() Metrics {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	return Metrics{
		MaxWorkers:    p.config.MaxWorkers,
		ActiveCount:   p.active.Load(),
		QueuedCount:   len(p.jobCh),
		QueueCapacity: p.config.QueueSize,
		Submitted:     p.submitted.Load(),
		Completed:     p.completed.Load(),
		Rejected:      p.rejected.Load(),
		IsClosed:      closed,
	}
}
