package worker

import (
	"fmt"
	"sync"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

// NewWorker 单协程顺序处理 Push 进来的数据
func NewWorker[T any](fn func(T)) *Worker[T] {
	return &Worker[T]{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
		fn:   fn,
		pool: sync.Pool{
			New: func() any {
				return &job[T]{}
			},
		},
	}
}

type Worker[T any] struct {
	mtx      sync.Mutex
	ch       chan struct{}
	done     chan struct{}
	head     *job[T]
	tail     *job[T]
	curr     *job[T]
	fn       func(T)
	pool     sync.Pool
	disposed bool
}

func (w *Worker[T]) Start() {
	go w.run()
}

func (w *Worker[T]) run() {
	defer func() {
		if err := recover(); err != nil {
			sprocket.Error2(util.EcRecover, util.M{
				"error": fmt.Sprint(err),
			})
			go w.run()
			return
		}
		close(w.done)
	}()

	w.do()

	for range w.ch {
		for {
			w.mtx.Lock()
			w.curr = w.head
			w.head = nil
			w.tail = nil
			w.mtx.Unlock()

			if w.curr == nil {
				break
			}
			w.do()
		}
	}
}

// Dispose 已经入队的数据处理完后退出
func (w *Worker[T]) Dispose() {
	w.mtx.Lock()
	if w.disposed {
		w.mtx.Unlock()
		return
	}
	w.disposed = true
	w.mtx.Unlock()
	close(w.ch)
}

// Done 处理协程退出后关闭
func (w *Worker[T]) Done() <-chan struct{} {
	return w.done
}

// Push Dispose 之后返回 false
func (w *Worker[T]) Push(item T) bool {
	e := w.pool.Get().(*job[T])
	e.value = item
	w.mtx.Lock()
	if w.disposed {
		w.mtx.Unlock()
		e.value = util.Default[T]()
		w.pool.Put(e)
		return false
	}
	if w.head != nil {
		w.tail.next = e
	} else {
		w.head = e
	}
	w.tail = e
	select {
	case w.ch <- struct{}{}:
	default:
	}
	w.mtx.Unlock()
	return true
}

func (w *Worker[T]) do() {
	var (
		j   *job[T]
		val T
	)
	for w.curr != nil {
		j = w.curr
		val = j.value
		w.curr = j.next
		j.next = nil
		j.value = util.Default[T]()
		w.pool.Put(j)
		w.fn(val)
	}
}

type job[T any] struct {
	next  *job[T]
	value T
}
