package retryqueue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 验证指数退避序列：1000ms、2000ms、4000ms，封顶 30000ms
func TestBackoff_Sequence(t *testing.T) {
	base := time.Second
	maxDelay := 30 * time.Second

	assert.Equal(t, 1000*time.Millisecond, Backoff(base, maxDelay, 0))
	assert.Equal(t, 2000*time.Millisecond, Backoff(base, maxDelay, 1))
	assert.Equal(t, 4000*time.Millisecond, Backoff(base, maxDelay, 2))
	assert.Equal(t, 8000*time.Millisecond, Backoff(base, maxDelay, 3))

	// 足够大的重试次数必须封顶，不得溢出
	assert.Equal(t, maxDelay, Backoff(base, maxDelay, 5))
	assert.Equal(t, maxDelay, Backoff(base, maxDelay, 63))
	assert.Equal(t, maxDelay, Backoff(base, maxDelay, 1000))
}

func TestIsNonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"authentication", errors.New("authentication token expired"), true},
		{"authorization", errors.New("Authorization denied for section"), true},
		{"validation", errors.New("validation failed: content too long"), true},
		{"not_found", errors.New("upstream returned not_found"), true},
		{"bad_request", errors.New("bad_request: malformed payload"), true},
		{"network", errors.New("dial tcp: connection refused"), false},
		{"timeout", errors.New("context deadline exceeded"), false},
		{"server error", errors.New("upstream returned status 503"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNonRetryable(tt.err))
		})
	}
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m := New(&cfg, nil, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})
	return m
}

// 验证成功的动作执行一次后从队列移除
func TestEnqueue_SuccessRemovesAction(t *testing.T) {
	m := newTestManager(t, Config{
		MaxRetries: 3,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	})

	var attempts atomic.Int32
	done := make(chan struct{})

	_, err := m.Enqueue(&Action{
		Type: "mirror",
		Operation: func(ctx context.Context) error {
			attempts.Add(1)
			return nil
		},
		OnSuccess: func() { close(done) },
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onSuccess was not fired")
	}

	assert.Equal(t, int32(1), attempts.Load())
	assert.Equal(t, 0, m.Len())
}

// 验证不可重试错误只尝试一次，立即触发最终失败
func TestEnqueue_NonRetryableFailsImmediately(t *testing.T) {
	m := newTestManager(t, Config{
		MaxRetries: 5,
		BaseDelay:  time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	})

	var attempts atomic.Int32
	var retryErrs atomic.Int32
	finalErr := make(chan error, 1)

	_, err := m.Enqueue(&Action{
		Type: "mirror",
		Operation: func(ctx context.Context) error {
			attempts.Add(1)
			return errors.New("validation failed: title required")
		},
		OnError:        func(error) { retryErrs.Add(1) },
		OnFinalFailure: func(e error) { finalErr <- e },
	})
	require.NoError(t, err)

	select {
	case e := <-finalErr:
		assert.Contains(t, e.Error(), "validation")
	case <-time.After(2 * time.Second):
		t.Fatal("onFinalFailure was not fired")
	}

	assert.Equal(t, int32(1), attempts.Load(), "non-retryable errors must not be retried")
	assert.Equal(t, int32(0), retryErrs.Load(), "onError must not fire for non-retryable errors")
	assert.Equal(t, 0, m.Len())
}

// 验证 maxRetries=2 时共尝试 3 次（首次 + 两次重试）后最终失败
func TestEnqueue_RetriesExhausted(t *testing.T) {
	m := newTestManager(t, Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		JitterMax:  time.Millisecond,
	})

	var attempts atomic.Int32
	finalErr := make(chan error, 1)

	_, err := m.Enqueue(&Action{
		Type: "notify",
		Operation: func(ctx context.Context) error {
			attempts.Add(1)
			return errors.New("connection refused")
		},
		OnFinalFailure: func(e error) { finalErr <- e },
	})
	require.NoError(t, err)

	select {
	case e := <-finalErr:
		assert.ErrorIs(t, e, ErrRetriesExhausted)
	case <-time.After(5 * time.Second):
		t.Fatal("onFinalFailure was not fired")
	}

	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, 0, m.Len())
}

// 验证断线时 Enqueue 只入队不执行，FlushAll 统一重放
func TestFlushAll_ReplaysPendingActions(t *testing.T) {
	m := newTestManager(t, Config{
		MaxRetries:      1,
		BaseDelay:       time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		FlushStaggerMax: 10 * time.Millisecond,
	})
	m.SetConnectedFn(func() bool { return false })

	var attempts atomic.Int32
	succeeded := make(chan struct{}, 3)

	for i := 0; i < 3; i++ {
		_, err := m.Enqueue(&Action{
			Type: "mirror",
			Operation: func(ctx context.Context) error {
				attempts.Add(1)
				return nil
			},
			OnSuccess: func() { succeeded <- struct{}{} },
		})
		require.NoError(t, err)
	}

	// 断线状态下不得执行任何尝试
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), attempts.Load())
	assert.Equal(t, 3, m.Len())

	m.SetConnectedFn(func() bool { return true })
	m.FlushAll()

	for i := 0; i < 3; i++ {
		select {
		case <-succeeded:
		case <-time.After(2 * time.Second):
			t.Fatalf("action %d was not replayed", i)
		}
	}
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, 0, m.Len())
}

func TestRemove_CancelsAction(t *testing.T) {
	m := newTestManager(t, Config{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})
	m.SetConnectedFn(func() bool { return false })

	var attempts atomic.Int32
	id, err := m.Enqueue(&Action{
		Type: "mirror",
		Operation: func(ctx context.Context) error {
			attempts.Add(1)
			return nil
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	m.Remove(id)
	assert.Equal(t, 0, m.Len())

	m.FlushAll()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), attempts.Load())
}

func TestEnqueue_AssignsUniqueIDs(t *testing.T) {
	m := newTestManager(t, Config{MaxRetries: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})
	m.SetConnectedFn(func() bool { return false })

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		id, err := m.Enqueue(&Action{
			Type:      "mirror",
			Operation: func(ctx context.Context) error { return nil },
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate action id %s", id)
		seen[id] = true
	}
}

func TestEnqueue_QueueFull(t *testing.T) {
	m := newTestManager(t, Config{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		MaxPending: 2,
	})
	m.SetConnectedFn(func() bool { return false })

	op := func(ctx context.Context) error { return nil }
	_, err := m.Enqueue(&Action{Type: "a", Operation: op})
	require.NoError(t, err)
	_, err = m.Enqueue(&Action{Type: "b", Operation: op})
	require.NoError(t, err)

	_, err = m.Enqueue(&Action{Type: "c", Operation: op})
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestShutdown_RejectsNewActions(t *testing.T) {
	m := New(nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	_, err := m.Enqueue(&Action{
		Type:      "mirror",
		Operation: func(ctx context.Context) error { return nil },
	})
	assert.ErrorIs(t, err, ErrQueueClosed)

	metrics := m.GetMetrics()
	assert.True(t, metrics.IsClosed)
}
