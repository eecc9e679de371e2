package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPoolSubmit 测试同步提交任务
func TestPoolSubmit(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 4}, nil)
	defer p.Shutdown(context.Background())

	var ran atomic.Bool
	err := p.Submit(context.Background(), func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran.Load())
}

// TestPoolSubmitError 测试任务返回的错误被透传
func TestPoolSubmitError(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	wantErr := errors.New("push failed")
	err := p.Submit(context.Background(), func(ctx context.Context) error {
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
}

// TestPoolQueueFull 测试队列满时拒绝任务
func TestPoolQueueFull(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	defer p.Shutdown(context.Background())

	block := make(chan struct{})
	defer close(block)

	// 占住唯一的 worker
	_ = p.SubmitAsync(context.Background(), func(ctx context.Context) error {
		<-block
		return nil
	})
	// 等待任务被取走
	assert.Eventually(t, func() bool {
		return p.ActiveCount() == 1
	}, time.Second, 10*time.Millisecond)

	// 填满队列
	require.NoError(t, p.SubmitAsync(context.Background(), func(ctx context.Context) error {
		return nil
	}))

	// 队列已满，应当被拒绝
	err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrPoolFull)

	metrics := p.GetMetrics()
	assert.Equal(t, int64(1), metrics.Rejected)
}

// TestPoolPanicRecovery 测试任务 panic 不会杀死 worker
func TestPoolPanicRecovery(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 2}, nil)
	defer p.Shutdown(context.Background())

	err := p.Submit(context.Background(), func(ctx context.Context) error {
		panic("boom")
	})
	assert.ErrorIs(t, err, ErrTaskPanicked)

	// worker 仍然存活，可以继续执行任务
	err = p.Submit(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

// TestPoolClosed 测试关闭后拒绝新任务
func TestPoolClosed(t *testing.T) {
	p := New(&Config{MaxWorkers: 1, QueueSize: 1}, nil)
	require.NoError(t, p.Shutdown(context.Background()))

	err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.True(t, p.IsClosed())

	// 重复关闭幂等
	assert.NoError(t, p.Shutdown(context.Background()))
}

// TestPoolShutdownWaitsForTasks 测试关闭时等待在途任务完成
func TestPoolShutdownWaitsForTasks(t *testing.T) {
	p := New(&Config{MaxWorkers: 2, QueueSize: 4}, nil)

	var finished atomic.Int64
	for i := 0; i < 3; i++ {
		require.NoError(t, p.SubmitAsync(context.Background(), func(ctx context.Context) error {
			time.Sleep(20 * time.Millisecond)
			finished.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, int64(3), finished.Load())
}

// TestPoolConcurrentSubmitDuringShutdown 测试关闭期间并发提交不会向已关闭通道发送
func TestPoolConcurrentSubmitDuringShutdown(t *testing.T) {
	p := New(&Config{MaxWorkers: 4, QueueSize: 16}, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				err := p.SubmitAsync(context.Background(), func(ctx context.Context) error {
					return nil
				})
				if errors.Is(err, ErrPoolClosed) {
					return
				}
			}
		}()
	}

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, p.Shutdown(context.Background()))
	close(stop)
	wg.Wait()

	// 关闭后提交稳定返回 ErrPoolClosed
	err := p.SubmitAsync(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}
