package worker

import (
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/15mga/sprocket/util"
)

var (
	_PoolMtx sync.RWMutex
	_Pool    *ants.Pool
)

// InitPool 指定协程池大小，不调用时使用 ants 默认池
func InitPool(size int) *util.Err {
	p, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return util.WrapErr(util.EcParamsErr, err)
	}
	_PoolMtx.Lock()
	old := _Pool
	_Pool = p
	_PoolMtx.Unlock()
	if old != nil {
		old.Release()
	}
	return nil
}

func ReleasePool() {
	_PoolMtx.Lock()
	p := _Pool
	_Pool = nil
	_PoolMtx.Unlock()
	if p != nil {
		p.Release()
	}
}

func Go(fn util.FnAnySlc, params ...any) *util.Err {
	_PoolMtx.RLock()
	p := _Pool
	_PoolMtx.RUnlock()
	task := func() {
		fn(params)
	}
	var err error
	if p != nil {
		err = p.Submit(task)
	} else {
		err = ants.Submit(task)
	}
	if err != nil {
		return util.WrapErr(util.EcBusy, err)
	}
	return nil
}
