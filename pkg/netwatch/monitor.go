// Package netwatch tracks connectivity to the upstream mirror endpoint
// Package netwatch 跟踪与上游镜像端点的连通性
// Online is the transport-level signal pushed in from outside; Connected
// additionally requires the periodic health probe to have succeeded
// Online 是外部推入的传输层信号；Connected 还要求周期健康探测成功
package netwatch

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config network monitor configuration
// Config 网络监视器配置
type Config struct {
	// ProbeURL health endpoint probed with HEAD requests
	// ProbeURL 用 HEAD 请求探测的健康端点
	ProbeURL string
	// ProbeInterval default 30s
	// ProbeInterval 默认 30 秒
	ProbeInterval time.Duration
	// ProbeTimeout per-request timeout, default 5s
	// ProbeTimeout 单次请求超时，默认 5 秒
	ProbeTimeout time.Duration
	// RecoverDebounce delay before OnRecover fires after regaining
	// connectivity, default 1s
	// RecoverDebounce 恢复连通后触发 OnRecover 前的延迟，默认 1 秒
	RecoverDebounce time.Duration
}

// DefaultConfig returns default configuration
// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		ProbeInterval:   30 * time.Second,
		ProbeTimeout:    5 * time.Second,
		RecoverDebounce: time.Second,
	}
}

// Monitor probes the upstream health endpoint and reports connectivity
// Monitor 探测上游健康端点并上报连通性
type Monitor struct {
	config Config
	logger *zap.Logger
	client *http.Client

	online  atomic.Bool
	healthy atomic.Bool

	mu           sync.Mutex
	onRecover    func()
	debounceTmr  *time.Timer
	wasConnected bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a network monitor
// cfg: configuration, if nil use default configuration
// logger: zap logger, if nil use nop logger
// New 创建网络监视器
// cfg: 配置，nil 使用默认配置
// logger: zap 日志器，nil 使用 nop logger
func New(cfg *Config, logger *zap.Logger) *Monitor {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 30 * time.Second
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.RecoverDebounce < 0 {
		cfg.RecoverDebounce = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Monitor{
		config: *cfg,
		logger: logger,
		client: &http.Client{Timeout: cfg.ProbeTimeout},
		ctx:    ctx,
		cancel: cancel,
	}
	// Start optimistic so the first enqueue before the first probe is not
	// parked unnecessarily
	// 初始乐观在线，避免首次探测前入队的动作被无谓停放
	m.online.Store(true)
	m.healthy.Store(true)
	m.wasConnected = true

	return m
}

// SetOnRecover installs the callback fired, after the debounce delay, when
// connectivity transitions from lost to regained. Typically wired to the
// retry queue's FlushAll.
// SetOnRecover 设置连通性从断开恢复后、经过防抖延迟触发的回调。
// 通常接到重试队列的 FlushAll。
func (m *Monitor) SetOnRecover(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRecover = fn
}

// IsOnline reports the transport-level signal only
// IsOnline 仅上报传输层信号
func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// IsConnected reports verified connectivity: online and the last probe healthy
// IsConnected 上报经验证的连通性：在线且最近一次探测健康
func (m *Monitor) IsConnected() bool {
	return m.online.Load() && m.healthy.Load()
}

// SetOnline records a transport-level connectivity change.
// A transition to online triggers an immediate probe instead of waiting for
// the next tick.
// SetOnline 记录传输层连通性变化。
// 转为在线时立即触发一次探测，不等待下一个周期。
func (m *Monitor) SetOnline(online bool) {
	prev := m.online.Swap(online)
	if prev == online {
		return
	}
	m.logger.Info("transport connectivity changed", zap.Bool("online", online))
	if online && m.config.ProbeURL != "" {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.probe()
		}()
		return
	}
	m.evaluate()
}

// Start launches the periodic probe loop. No-op when ProbeURL is empty, in
// which case the monitor relies on SetOnline alone.
// Start 启动周期探测循环。ProbeURL 为空时不启动，此时仅依赖 SetOnline。
func (m *Monitor) Start() {
	if m.config.ProbeURL == "" {
		m.logger.Info("network monitor started without probe endpoint")
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.probe()

		ticker := time.NewTicker(m.config.ProbeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.probe()
			case <-m.ctx.Done():
				return
			}
		}
	}()

	m.logger.Info("network monitor started",
		zap.String("probeURL", m.config.ProbeURL),
		zap.Duration("interval", m.config.ProbeInterval))
}

// probe sends one HEAD request; any 2xx status counts as healthy
// probe 发送一次 HEAD 请求；任意 2xx 状态视为健康
func (m *Monitor) probe() {
	if m.config.ProbeURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(m.ctx, m.config.ProbeTimeout)
	defer cancel()

	healthy := false
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.config.ProbeURL, nil)
	if err == nil {
		resp, rerr := m.client.Do(req)
		if rerr == nil {
			resp.Body.Close()
			healthy = resp.StatusCode >= 200 && resp.StatusCode < 300
		}
	}

	prev := m.healthy.Swap(healthy)
	if prev != healthy {
		m.logger.Info("upstream health changed", zap.Bool("healthy", healthy))
	}
	m.evaluate()
}

// evaluate detects the lost→regained edge and schedules the debounced recover
// callback. The callback only fires if connectivity still holds when the
// debounce timer expires.
// evaluate 检测断开→恢复的边沿并调度防抖恢复回调。
// 防抖计时器到期时仍保持连通才会真正触发回调。
func (m *Monitor) evaluate() {
	connected := m.IsConnected()

	m.mu.Lock()
	defer m.mu.Unlock()

	if connected == m.wasConnected {
		return
	}
	m.wasConnected = connected

	if !connected {
		if m.debounceTmr != nil {
			m.debounceTmr.Stop()
			m.debounceTmr = nil
		}
		return
	}

	fn := m.onRecover
	if fn == nil {
		return
	}
	if m.debounceTmr != nil {
		m.debounceTmr.Stop()
	}
	m.debounceTmr = time.AfterFunc(m.config.RecoverDebounce, func() {
		if !m.IsConnected() {
			return
		}
		m.logger.Info("connectivity recovered, firing recover callback")
		fn()
	})
}

// Shutdown stops the probe loop and pending debounce timers
// Shutdown 停止探测循环和未触发的防抖计时器
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.cancel()

	m.mu.Lock()
	if m.debounceTmr != nil {
		m.debounceTmr.Stop()
		m.debounceTmr = nil
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
