package netwatch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shutdownMonitor(t *testing.T, m *Monitor) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
}

// 验证 2xx 探测结果视为健康
func TestProbe_HealthyOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m := New(&Config{
		ProbeURL:      srv.URL,
		ProbeInterval: time.Hour,
		ProbeTimeout:  time.Second,
	}, nil)
	shutdownMonitor(t, m)

	m.probe()
	assert.True(t, m.IsConnected())
	assert.True(t, m.IsOnline())
}

// 验证非 2xx 与请求失败视为不健康
func TestProbe_UnhealthyOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := New(&Config{
		ProbeURL:      srv.URL,
		ProbeInterval: time.Hour,
		ProbeTimeout:  time.Second,
	}, nil)
	shutdownMonitor(t, m)

	m.probe()
	assert.False(t, m.IsConnected())
	// 传输层信号不受探测结果影响
	assert.True(t, m.IsOnline())

	srv.Close()
	m.probe()
	assert.False(t, m.IsConnected())
}

// 验证 IsConnected 同时要求在线与探测健康
func TestIsConnected_RequiresBothSignals(t *testing.T) {
	m := New(&Config{ProbeInterval: time.Hour}, nil)
	shutdownMonitor(t, m)

	assert.True(t, m.IsConnected())

	m.SetOnline(false)
	assert.False(t, m.IsOnline())
	assert.False(t, m.IsConnected())

	m.SetOnline(true)
	assert.True(t, m.IsConnected())
}

// 验证恢复连通后经防抖延迟触发一次恢复回调
func TestOnRecover_DebouncedAfterReconnect(t *testing.T) {
	m := New(&Config{
		ProbeInterval:   time.Hour,
		RecoverDebounce: 20 * time.Millisecond,
	}, nil)
	shutdownMonitor(t, m)

	var fired atomic.Int32
	recovered := make(chan struct{}, 1)
	m.SetOnRecover(func() {
		fired.Add(1)
		recovered <- struct{}{}
	})

	m.SetOnline(false)
	require.False(t, m.IsConnected())

	start := time.Now()
	m.SetOnline(true)

	select {
	case <-recovered:
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("recover callback was not fired")
	}
	assert.Equal(t, int32(1), fired.Load())
}

// 验证防抖期内再次断开时回调被取消
func TestOnRecover_CancelledWhenConnectivityDropsAgain(t *testing.T) {
	m := New(&Config{
		ProbeInterval:   time.Hour,
		RecoverDebounce: 50 * time.Millisecond,
	}, nil)
	shutdownMonitor(t, m)

	var fired atomic.Int32
	m.SetOnRecover(func() { fired.Add(1) })

	m.SetOnline(false)
	m.SetOnline(true)
	m.SetOnline(false)

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}
