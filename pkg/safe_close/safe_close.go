// Package safe_close 提供多组件协同关闭的工具
// 各组件通过 Attach 挂载自己的运行与关闭逻辑，任一组件出错可触发整体关闭
package safe_close

import (
	"sync"
)

type SafeClose struct {
	mu sync.Mutex
	wg sync.WaitGroup

	closeSignal chan struct{}
	closed      bool
	err         error
}

// NewSafeClose 创建 SafeClose 实例
func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach 挂载一个组件
// f 在新 goroutine 中执行；组件必须在退出前调用 done，
// 并在 closeSignal 关闭后开始自己的清理流程
func (s *SafeClose) Attach(f func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	var once sync.Once
	done := func() {
		once.Do(s.wg.Done)
	}
	go f(done, s.closeSignal)
}

// SendCloseSignal 发出关闭信号，首个非 nil 错误会被保留
// 可重复调用，只有第一次生效
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.err = err
	close(s.closeSignal)
}

// CloseSignal 返回关闭信号通道
func (s *SafeClose) CloseSignal() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed 阻塞直到所有挂载的组件退出，返回触发关闭的错误
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
