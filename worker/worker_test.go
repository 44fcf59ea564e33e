package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/15mga/sprocket/ds"
	"github.com/15mga/sprocket/util"
)

type movement struct {
	pos, dir util.Vec2
	speed    float32
}

func TestWorkerOrder(t *testing.T) {
	var (
		mtx sync.Mutex
		got []int
	)
	w := NewWorker[int](func(i int) {
		mtx.Lock()
		got = append(got, i)
		mtx.Unlock()
	})
	w.Start()
	for i := 0; i < 1000; i++ {
		assert.True(t, w.Push(i))
	}
	w.Dispose()
	<-w.Done()
	assert.Len(t, got, 1000)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
	assert.False(t, w.Push(1))
}

func TestWorkerRecover(t *testing.T) {
	var count int32
	w := NewWorker[int](func(i int) {
		if i == 2 {
			panic("boom")
		}
		atomic.AddInt32(&count, 1)
	})
	w.Start()
	for i := 0; i < 5; i++ {
		w.Push(i)
	}
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&count) == 4
	}, time.Second, time.Millisecond*5)
	w.Dispose()
}

func TestMailbox(t *testing.T) {
	m := NewMailbox[int]()
	assert.True(t, m.Push(1))
	assert.True(t, m.Push(2))
	assert.Equal(t, 2, m.Len())

	var got []int
	n := m.Drain(func(i int) {
		got = append(got, i)
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 0, m.Drain(func(int) {}))

	m.Push(3)
	assert.Equal(t, 1, m.Close())
	assert.True(t, m.Closed())
	assert.False(t, m.Push(4))
	assert.Equal(t, 0, m.Len())
}

func TestMailboxCloseWith(t *testing.T) {
	m := NewMailbox[int]()
	m.Push(1)
	m.Push(2)
	var left []int
	assert.Equal(t, 2, m.CloseWith(func(i int) {
		left = append(left, i)
	}))
	assert.Equal(t, []int{1, 2}, left)
	assert.Equal(t, 0, m.CloseWith(func(int) {}))
}

func TestMailboxWait(t *testing.T) {
	m := NewMailbox[int]()
	assert.False(t, m.Wait(context.Background(), time.Millisecond*10))

	go func() {
		time.Sleep(time.Millisecond * 10)
		m.Push(1)
	}()
	assert.True(t, m.Wait(context.Background(), time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	empty := NewMailbox[int]()
	assert.False(t, empty.Wait(ctx, 0))
}

func TestMailboxConcurrentPush(t *testing.T) {
	m := NewMailbox[int]()
	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				m.Push(i)
			}
		}()
	}
	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		total += m.Drain(func(int) {})
		select {
		case <-done:
			total += m.Drain(func(int) {})
			assert.Equal(t, 4000, total)
			return
		default:
		}
	}
}

func TestP(t *testing.T) {
	for _, count := range []int{0, 10, _JobUnit, _JobUnit*3 + 7, _JobParallelCount * 2} {
		items := make([]*movement, count)
		for i := range items {
			items[i] = &movement{dir: util.Vec2{X: 1}, speed: 2}
		}
		P(items, func(m *movement) {
			m.pos = util.Vec2Add(m.pos, util.Vec2Mul(m.dir, m.speed))
		})
		for _, m := range items {
			assert.Equal(t, float32(2), m.pos.X)
		}
	}
}

func TestPToLink(t *testing.T) {
	data := make([]int, _JobUnit*5+3)
	for i := range data {
		data[i] = i
	}
	sum := 0
	total := 0
	PToLink(data, func(i int, lnk *ds.Link[int]) {
		if i%2 == 0 {
			lnk.Push(i)
		}
	}, func(lnk *ds.Link[int]) {
		lnk.Iter(func(i int) {
			sum += i
			total++
		})
	})
	expect := 0
	count := 0
	for _, i := range data {
		if i%2 == 0 {
			expect += i
			count++
		}
	}
	assert.Equal(t, expect, sum)
	assert.Equal(t, count, total)
}

func TestGo(t *testing.T) {
	assert.Nil(t, InitPool(4))
	defer ReleasePool()
	var wg sync.WaitGroup
	var count int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		err := Go(func(params []any) {
			atomic.AddInt32(&count, params[0].(int32))
			wg.Done()
		}, int32(1))
		assert.Nil(t, err)
	}
	wg.Wait()
	assert.Equal(t, int32(16), count)
}

func BenchmarkMailbox(b *testing.B) {
	m := NewMailbox[*movement]()
	mv := &movement{dir: util.Vec2{X: 1}, speed: 1}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.Push(mv)
		if i%64 == 0 {
			m.Drain(func(*movement) {})
		}
	}
}
