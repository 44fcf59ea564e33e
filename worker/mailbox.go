package worker

import (
	"context"
	"sync"
	"time"

	"github.com/15mga/sprocket/ds"
)

// NewMailbox 无界多生产者单消费者队列，Push 永不阻塞
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		items:  ds.NewLink[T](),
		signal: make(chan struct{}, 1),
	}
}

type Mailbox[T any] struct {
	mtx    sync.Mutex
	items  *ds.Link[T]
	signal chan struct{}
	closed bool
}

// Push 关闭后返回 false，数据被丢弃
func (m *Mailbox[T]) Push(item T) bool {
	m.mtx.Lock()
	if m.closed {
		m.mtx.Unlock()
		return false
	}
	m.items.Push(item)
	m.mtx.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

// Drain 取出当前全部数据，按入队顺序回调，回调时不持有锁
func (m *Mailbox[T]) Drain(fn func(T)) int {
	m.mtx.Lock()
	if m.items.Count() == 0 {
		m.mtx.Unlock()
		return 0
	}
	count := int(m.items.Count())
	head := m.items.PopAll()
	m.mtx.Unlock()
	for e := head; e != nil; e = e.Next {
		fn(e.Value)
	}
	return count
}

func (m *Mailbox[T]) Len() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return int(m.items.Count())
}

// Signal 有新数据时可读，可能有多余的唤醒
func (m *Mailbox[T]) Signal() <-chan struct{} {
	return m.signal
}

// Wait 阻塞到有数据、ctx 结束或超时，dur<=0 不超时
func (m *Mailbox[T]) Wait(ctx context.Context, dur time.Duration) bool {
	if m.Len() > 0 {
		return true
	}
	if dur <= 0 {
		select {
		case <-m.signal:
			return true
		case <-ctx.Done():
			return false
		}
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	select {
	case <-m.signal:
		return true
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

// Close 丢弃未处理的数据，返回丢弃数量
func (m *Mailbox[T]) Close() int {
	return m.CloseWith(nil)
}

// CloseWith 关闭，未处理的数据交给 fn
func (m *Mailbox[T]) CloseWith(fn func(T)) int {
	m.mtx.Lock()
	if m.closed {
		m.mtx.Unlock()
		return 0
	}
	m.closed = true
	head := m.items.PopAll()
	m.mtx.Unlock()
	count := 0
	for e := head; e != nil; e = e.Next {
		count++
		if fn != nil {
			fn(e.Value)
		}
	}
	return count
}

func (m *Mailbox[T]) Closed() bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.closed
}
