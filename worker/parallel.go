package worker

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/15mga/sprocket/ds"
)

var (
	_Parallel         *parallel
	_ParallelOnce     sync.Once
	_ParallelNum      int
	_ParallelNum32    uint32
	_JobParallelCount int
	_WorkerIdx        uint32
)

const (
	_JobUnit = 64
)

func init() {
	n := runtime.NumCPU()
	if n < 4 {
		n = 4
	}
	_ParallelNum = n
	_ParallelNum32 = uint32(n)
	_JobParallelCount = _JobUnit * n
}

type parallel struct {
	workers []*parallelWorker
}

// InitParallel 第一次并行调用时自动初始化
func InitParallel() {
	_ParallelOnce.Do(func() {
		_Parallel = &parallel{
			workers: make([]*parallelWorker, _ParallelNum),
		}
		for i := 0; i < _ParallelNum; i++ {
			w := newParallelWorker()
			_Parallel.workers[i] = w
			go w.start()
		}
	})
}

func pushPJob(job iJob) {
	InitParallel()
	idx := atomic.AddUint32(&_WorkerIdx, 1)
	_Parallel.workers[idx%_ParallelNum32].jobCh <- job
}

func getAvgCount(l int) int {
	if l < _JobParallelCount {
		return _JobUnit
	}
	count := l / _ParallelNum
	if l%_ParallelNum != 0 {
		count++
	}
	return count
}

// P 分段并行处理，第一段在调用协程执行，返回时全部完成
func P[DT any](data []DT, fn func(DT)) {
	l := len(data)
	if l <= _JobUnit {
		for _, d := range data {
			fn(d)
		}
		return
	}
	var wg sync.WaitGroup
	avg := getAvgCount(l)
	for start := avg; start < l; start += avg {
		end := start + avg
		if end > l {
			end = l
		}
		wg.Add(1)
		pushPJob(&slcJob[DT]{
			data:  data,
			start: start,
			end:   end,
			fn:    fn,
			wg:    &wg,
		})
	}
	for idx := 0; idx < avg; idx++ {
		fn(data[idx])
	}
	wg.Wait()
}

// PToLink 每段写入自己的 Link，全部完成后在调用协程按分段顺序交给 pcr
func PToLink[InT, OutT any](data []InT, fn func(InT, *ds.Link[OutT]), pcr func(*ds.Link[OutT])) {
	l := len(data)
	if l <= _JobUnit {
		buffer := ds.NewLink[OutT]()
		for _, d := range data {
			fn(d, buffer)
		}
		pcr(buffer)
		return
	}
	var wg sync.WaitGroup
	avg := getAvgCount(l)
	buffers := make([]*ds.Link[OutT], 0, l/avg+1)
	for start := avg; start < l; start += avg {
		end := start + avg
		if end > l {
			end = l
		}
		wg.Add(1)
		buffer := ds.NewLink[OutT]()
		buffers = append(buffers, buffer)
		pushPJob(&slcToLnkJob[InT, OutT]{
			buffer: buffer,
			data:   data,
			start:  start,
			end:    end,
			fn:     fn,
			wg:     &wg,
		})
	}
	buffer := ds.NewLink[OutT]()
	for idx := 0; idx < avg; idx++ {
		fn(data[idx], buffer)
	}
	wg.Wait()
	pcr(buffer)
	for _, b := range buffers {
		pcr(b)
	}
}

func newParallelWorker() *parallelWorker {
	return &parallelWorker{
		jobCh: make(chan iJob, 32),
	}
}

type parallelWorker struct {
	jobCh chan iJob
}

func (w *parallelWorker) start() {
	for j := range w.jobCh {
		j.Do()
	}
}

type iJob interface {
	Do()
}

type slcJob[DT any] struct {
	data       []DT
	start, end int
	fn         func(DT)
	wg         *sync.WaitGroup
}

func (j *slcJob[DT]) Do() {
	for i := j.start; i < j.end; i++ {
		j.fn(j.data[i])
	}
	j.wg.Done()
}

type slcToLnkJob[DT, BT any] struct {
	buffer     *ds.Link[BT]
	data       []DT
	start, end int
	fn         func(DT, *ds.Link[BT])
	wg         *sync.WaitGroup
}

func (j *slcToLnkJob[DT, BT]) Do() {
	for i := j.start; i < j.end; i++ {
		j.fn(j.data[i], j.buffer)
	}
	j.wg.Done()
}
