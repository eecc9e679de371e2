// Package retryqueue provides the outbound retry queue implementation
// Package retryqueue 提供出站重试队列实现
// Failed side effects (upstream mirror calls, notification emails) are parked
// here and replayed with exponential backoff once connectivity returns
// 失败的副作用（上游镜像调用、通知邮件）停放在此，连接恢复后按指数退避重放
package retryqueue

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/caredraft/draft-sync-service/pkg/workerpool"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Error definitions
// 错误定义
var (
	// ErrQueueClosed returned when the queue manager is shut down
	// ErrQueueClosed 当队列管理器已关闭时返回
	ErrQueueClosed = errors.New("retry queue is closed")
	// ErrQueueFull returned when the queue holds MaxPending actions
	// ErrQueueFull 当队列达到 MaxPending 上限时返回
	ErrQueueFull = errors.New("retry queue is full")
	// ErrRetriesExhausted wrapped into the final failure callback after the last attempt
	// ErrRetriesExhausted 最后一次尝试后包装进最终失败回调
	ErrRetriesExhausted = errors.New("max retries exceeded")
)

// nonRetryableMarkers error-message substrings that short-circuit retrying.
// Matching is a denylist on the message because upstream failures arrive as
// opaque errors from several transports.
// nonRetryableMarkers 错误信息中触发短路、不再重试的子串。
// 上游失败来自多种传输层且都是不透明错误，因此按消息子串做黑名单匹配。
var nonRetryableMarkers = []string{
	"authentication",
	"authorization",
	"validation",
	"not_found",
	"bad_request",
}

// IsNonRetryable reports whether err should never be retried
// IsNonRetryable 返回该错误是否不应重试
func IsNonRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range nonRetryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Config retry queue configuration
// Config 重试队列配置
type Config struct {
	// MaxRetries retries after the initial attempt, default 3
	// MaxRetries 首次尝试之后的重试次数，默认 3
	MaxRetries int
	// BaseDelay first backoff delay, default 1s
	// BaseDelay 首次退避延迟，默认 1 秒
	BaseDelay time.Duration
	// MaxDelay backoff cap, default 30s
	// MaxDelay 退避上限，默认 30 秒
	MaxDelay time.Duration
	// JitterMax random jitter added to every delay, default 1s
	// JitterMax 每次延迟附加的随机抖动上限，默认 1 秒
	JitterMax time.Duration
	// FlushStaggerMax random stagger applied by FlushAll, default 2s
	// FlushStaggerMax FlushAll 的随机错峰上限，默认 2 秒
	FlushStaggerMax time.Duration
	// MaxPending pending action cap, default 1000
	// MaxPending 待处理动作上限，默认 1000
	MaxPending int
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		BaseDelay:       time.Second,
		MaxDelay:        30 * time.Second,
		JitterMax:       time.Second,
		FlushStaggerMax: 2 * time.Second,
		MaxPending:      1000,
	}
}

// Backoff computes the pure exponential delay for a retry count:
// min(base * 2^retryCount, maxDelay). Jitter is added separately.
// Backoff 计算指定重试次数的纯指数延迟：min(base * 2^retryCount, maxDelay)。
// 抖动单独叠加。
func Backoff(base, maxDelay time.Duration, retryCount int) time.Duration {
	d := base
	for i := 0; i < retryCount; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// State queued action lifecycle state
// State 队列动作生命周期状态
type State int

const (
	// StatePending waiting for an attempt
	// StatePending 等待尝试
	StatePending State = iota
	// StateRetrying attempt in flight, re-entry is blocked
	// StateRetrying 尝试执行中，阻止重入
	StateRetrying
)

// Action is a side-effecting operation to execute with retries
// Action 是一个需要带重试执行的副作用操作
type Action struct {
	// ID assigned on Enqueue when empty
	// ID 为空时在 Enqueue 时分配
	ID string
	// Type free-form label used for logs and metrics
	// Type 自由格式标签，用于日志和指标
	Type string
	// Operation the call to execute; transient failures are retried
	// Operation 要执行的调用；瞬时失败会被重试
	Operation func(ctx context.Context) error
	// OnSuccess fired once after a successful attempt
	// OnSuccess 尝试成功后触发一次
	OnSuccess func()
	// OnError fired on every retryable failure that gets rescheduled
	// OnError 每次可重试失败且被重新调度时触发
	OnError func(err error)
	// OnFinalFailure fired when the action is dropped (non-retryable or exhausted)
	// OnFinalFailure 动作被丢弃时触发（不可重试或重试耗尽）
	OnFinalFailure func(err error)
	// MaxRetries overrides Config.MaxRetries when > 0
	// MaxRetries 大于 0 时覆盖 Config.MaxRetries
	MaxRetries int
	// BaseDelay overrides Config.BaseDelay when > 0
	// BaseDelay 大于 0 时覆盖 Config.BaseDelay
	BaseDelay time.Duration

	CreatedAt  time.Time
	retryCount int
	state      State
}

// Manager owns the in-memory action queue for the process lifetime.
// Nothing is persisted: a restart drops pending actions, matching the
// tab-lifetime semantics of the original queue.
// Manager 在进程生命周期内持有内存队列。
// 不做持久化：重启丢弃待处理动作，与原队列的标签页生命周期语义一致。
type Manager struct {
	config Config
	logger *zap.Logger
	pool   *workerpool.Pool

	mu      sync.Mutex
	actions map[string]*Action
	order   []string
	timers  map[string]*time.Timer
	closed  bool

	// connected gates immediate execution on Enqueue
	// connected 控制 Enqueue 时是否立即执行
	connected func() bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rnd *rand.Rand
}

var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retryqueue_attempts_total",
		Help: "Retry queue attempts by action type.",
	}, []string{"type"})
	successesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retryqueue_successes_total",
		Help: "Retry queue successful attempts by action type.",
	}, []string{"type"})
	finalFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retryqueue_final_failures_total",
		Help: "Retry queue actions dropped after final failure.",
	}, []string{"type"})
)

// New creates a retry queue manager
// cfg: configuration, if nil use default configuration
// logger: zap logger, if nil use nop logger
// pool: worker pool executing attempts, if nil attempts run on plain goroutines
// New 创建重试队列管理器
// cfg: 配置，nil 使用默认配置
// logger: zap 日志器，nil 使用 nop logger
// pool: 执行尝试的 worker pool，nil 时直接用 goroutine
func New(cfg *Config, logger *zap.Logger, pool *workerpool.Pool) *Manager {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:  *cfg,
		logger:  logger,
		pool:    pool,
		actions: make(map[string]*Action),
		timers:  make(map[string]*time.Timer),
		ctx:     ctx,
		cancel:  cancel,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	logger.Info("retry queue manager started",
		zap.Int("maxRetries", cfg.MaxRetries),
		zap.Duration("baseDelay", cfg.BaseDelay),
		zap.Duration("maxDelay", cfg.MaxDelay))

	return m
}

// SetConnectedFn installs the connectivity gate consulted by Enqueue.
// Typically wired to netwatch.Monitor.IsConnected.
// SetConnectedFn 设置 Enqueue 查询的连通性判断函数。
// 通常接到 netwatch.Monitor.IsConnected。
func (m *Manager) SetConnectedFn(fn func() bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = fn
}

// Enqueue adds an action and, when connected, attempts it immediately
// Enqueue 加入动作；处于连接状态时立即尝试执行
func (m *Manager) Enqueue(a *Action) (string, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrQueueClosed
	}
	if len(m.actions) >= m.config.MaxPending {
		m.mu.Unlock()
		return "", ErrQueueFull
	}

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.retryCount = 0
	a.state = StatePending
	m.actions[a.ID] = a
	m.order = append(m.order, a.ID)

	connected := m.connected == nil || m.connected()
	m.mu.Unlock()

	m.logger.Debug("action enqueued",
		zap.String("id", a.ID),
		zap.String("actionType", a.Type),
		zap.Bool("connected", connected))

	if connected {
		m.Attempt(a.ID)
	}
	return a.ID, nil
}

// Attempt executes one try of the given action.
// No-op when the action is unknown or already in flight (de-duplication by id).
// Attempt 对指定动作执行一次尝试。
// 动作不存在或已在执行中时为空操作（按 id 去重）。
func (m *Manager) Attempt(id string) {
	m.mu.Lock()
	a, ok := m.actions[id]
	if !ok || a.state != StatePending || m.closed {
		m.mu.Unlock()
		return
	}
	a.state = StateRetrying
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
	m.mu.Unlock()

	run := func() {
		defer m.wg.Done()
		attemptsTotal.WithLabelValues(a.Type).Inc()
		err := a.Operation(m.ctx)
		m.settle(a, err)
	}

	m.wg.Add(1)
	if m.pool != nil {
		if perr := m.pool.SubmitAsync(m.ctx, func(context.Context) error {
			run()
			return nil
		}); perr == nil {
			return
		}
		// Pool saturated or closed, fall through to a plain goroutine
		// 池已满或已关闭，退回普通 goroutine
	}
	go run()
}

// settle applies the outcome of one attempt
// settle 处理一次尝试的结果
func (m *Manager) settle(a *Action, err error) {
	if err == nil {
		m.remove(a.ID)
		successesTotal.WithLabelValues(a.Type).Inc()
		m.logger.Debug("action succeeded",
			zap.String("id", a.ID),
			zap.String("actionType", a.Type),
			zap.Int("retries", a.retryCount))
		if a.OnSuccess != nil {
			a.OnSuccess()
		}
		return
	}

	if IsNonRetryable(err) {
		m.remove(a.ID)
		finalFailuresTotal.WithLabelValues(a.Type).Inc()
		m.logger.Warn("action failed with non-retryable error",
			zap.String("id", a.ID),
			zap.String("actionType", a.Type),
			zap.Error(err))
		if a.OnFinalFailure != nil {
			a.OnFinalFailure(err)
		}
		return
	}

	maxRetries := a.MaxRetries
	if maxRetries <= 0 {
		maxRetries = m.config.MaxRetries
	}

	m.mu.Lock()
	if _, ok := m.actions[a.ID]; !ok || m.closed {
		m.mu.Unlock()
		return
	}
	if a.retryCount >= maxRetries {
		m.mu.Unlock()
		m.remove(a.ID)
		finalFailuresTotal.WithLabelValues(a.Type).Inc()
		m.logger.Warn("action dropped, retries exhausted",
			zap.String("id", a.ID),
			zap.String("actionType", a.Type),
			zap.Int("attempts", a.retryCount+1),
			zap.Error(err))
		if a.OnFinalFailure != nil {
			a.OnFinalFailure(errors.Join(ErrRetriesExhausted, err))
		}
		return
	}

	base := a.BaseDelay
	if base <= 0 {
		base = m.config.BaseDelay
	}
	delay := Backoff(base, m.config.MaxDelay, a.retryCount)
	if m.config.JitterMax > 0 {
		delay += time.Duration(m.rnd.Int63n(int64(m.config.JitterMax)))
	}
	a.retryCount++
	a.state = StatePending
	m.timers[a.ID] = time.AfterFunc(delay, func() { m.Attempt(a.ID) })
	m.mu.Unlock()

	m.logger.Debug("action rescheduled",
		zap.String("id", a.ID),
		zap.String("actionType", a.Type),
		zap.Int("retryCount", a.retryCount),
		zap.Duration("delay", delay),
		zap.Error(err))
	if a.OnError != nil {
		a.OnError(err)
	}
}

// FlushAll re-attempts every pending action in enqueue order with a small
// random stagger so a reconnect does not hammer the upstream all at once
// FlushAll 按入队顺序重试所有待处理动作，并加入小幅随机错峰，
// 避免重连瞬间集中冲击上游
func (m *Manager) FlushAll() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(m.order))
	for _, id := range m.order {
		if a, ok := m.actions[id]; ok && a.state == StatePending {
			ids = append(ids, id)
		}
	}
	staggerMax := m.config.FlushStaggerMax
	m.mu.Unlock()

	m.logger.Info("flushing retry queue", zap.Int("pending", len(ids)))

	for _, id := range ids {
		if staggerMax <= 0 {
			m.Attempt(id)
			continue
		}
		id := id
		m.mu.Lock()
		stagger := time.Duration(m.rnd.Int63n(int64(staggerMax)))
		if _, ok := m.actions[id]; ok && !m.closed {
			m.timers[id] = time.AfterFunc(stagger, func() { m.Attempt(id) })
		}
		m.mu.Unlock()
	}
}

// Remove drops an action without executing it
// Remove 删除动作且不再执行
func (m *Manager) Remove(id string) {
	m.remove(id)
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
	if _, ok := m.actions[id]; !ok {
		return
	}
	delete(m.actions, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of queued actions
// Len 返回队列中的动作数量
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.actions)
}

// Metrics retry queue manager metrics
// Metrics 重试队列管理器指标
type Metrics struct {
	Pending    int
	MaxRetries int
	IsClosed   bool
}

// GetMetrics gets current metrics
// GetMetrics 获取当前指标
func (m *Manager) GetMetrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		Pending:    len(m.actions),
		MaxRetries: m.config.MaxRetries,
		IsClosed:   m.closed,
	}
}

// Shutdown stops scheduling and waits for in-flight attempts to finish.
// ctx controls the shutdown timeout.
// Shutdown 停止调度并等待进行中的尝试结束。ctx 控制关闭超时。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for id, t := range m.timers {
		t.Stop()
		delete(m.timers, id)
	}
	m.mu.Unlock()

	m.logger.Info("retry queue manager shutting down")

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		m.logger.Info("retry queue manager shutdown completed")
		return nil
	case <-ctx.Done():
		m.cancel()
		m.logger.Warn("retry queue manager shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}
