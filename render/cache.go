package render

import (
	"sync"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

type (
	FnLoad[R any]    func(key string) (R, *util.Err)
	FnDispose[R any] func(key string, res R)
)

type cacheEntry[R any] struct {
	once     sync.Once
	resource R
	err      *util.Err
	refs     atomic.Int32
}

type garbage[R any] struct {
	key      string
	resource R
	cycles   int
}

// Handle 共享的资源引用，Release 之后不能再使用
type Handle[R any] struct {
	key      string
	entry    *cacheEntry[R]
	released atomic.Bool
}

func (h *Handle[R]) Key() string {
	return h.key
}

func (h *Handle[R]) Resource() R {
	return h.entry.resource
}

// Release 重复调用无效
func (h *Handle[R]) Release() {
	if h.released.Swap(true) {
		return
	}
	h.entry.refs.Add(-1)
}

type ResourceInfo struct {
	Name string
	Type string
	Refs int
}

func NewCache[R any](name string, dispose FnDispose[R]) *Cache[R] {
	return &Cache[R]{
		name:    name,
		entries: cmap.New[*cacheEntry[R]](),
		dispose: dispose,
	}
}

// Cache 同一个 key 只加载一次，引用归零后经过若干次回收才真正释放
type Cache[R any] struct {
	name    string
	entries cmap.ConcurrentMap[string, *cacheEntry[R]]
	gcMtx   sync.Mutex
	garbage []garbage[R]
	dispose FnDispose[R]
}

func (c *Cache[R]) Name() string {
	return c.name
}

// Acquire 引用加一，第一次获取时调用 load，并发获取会等待同一次加载
func (c *Cache[R]) Acquire(key string, load FnLoad[R]) (*Handle[R], *util.Err) {
	entry := c.entries.Upsert(key, nil, func(exist bool, old, _ *cacheEntry[R]) *cacheEntry[R] {
		if !exist {
			old = &cacheEntry[R]{}
		}
		old.refs.Add(1)
		return old
	})
	entry.once.Do(func() {
		entry.resource, entry.err = load(key)
		if entry.err == nil {
			sprocket.Debug("load resource", util.M{
				"type": c.name,
				"key":  key,
			})
		}
	})
	if entry.err != nil {
		entry.refs.Add(-1)
		// 加载失败的不缓存，下次重新加载
		c.entries.RemoveCb(key, func(_ string, v *cacheEntry[R], exists bool) bool {
			return exists && v == entry && v.refs.Load() == 0
		})
		err := util.NewErr(util.EcResolveFail, util.M{
			"type":  c.name,
			"key":   key,
			"error": entry.err.Error(),
		})
		return nil, err
	}
	return &Handle[R]{
		key:   key,
		entry: entry,
	}, nil
}

func (c *Cache[R]) Get(key string) (R, bool) {
	entry, ok := c.entries.Get(key)
	if !ok || entry.err != nil {
		return util.Default[R](), false
	}
	return entry.resource, true
}

func (c *Cache[R]) RefCount(key string) int {
	entry, ok := c.entries.Get(key)
	if !ok {
		return 0
	}
	return int(entry.refs.Load())
}

func (c *Cache[R]) Count() int {
	return c.entries.Count()
}

func (c *Cache[R]) GarbageCount() int {
	c.gcMtx.Lock()
	defer c.gcMtx.Unlock()
	return len(c.garbage)
}

// CollectGarbage 释放到期的垃圾，把没有引用的资源放进垃圾列表，cycles 次回收后释放
func (c *Cache[R]) CollectGarbage(cycles int) int {
	c.gcMtx.Lock()
	defer c.gcMtx.Unlock()

	kept := c.garbage[:0]
	for _, g := range c.garbage {
		if g.cycles <= 0 {
			if c.dispose != nil {
				c.dispose(g.key, g.resource)
			}
			continue
		}
		g.cycles--
		kept = append(kept, g)
	}
	clear(c.garbage[len(kept):])
	c.garbage = kept

	moved := 0
	for _, key := range c.entries.Keys() {
		var removed *cacheEntry[R]
		c.entries.RemoveCb(key, func(_ string, v *cacheEntry[R], exists bool) bool {
			if exists && v.refs.Load() == 0 {
				removed = v
				return true
			}
			return false
		})
		if removed == nil || removed.err != nil {
			continue
		}
		c.garbage = append(c.garbage, garbage[R]{
			key:      key,
			resource: removed.resource,
			cycles:   cycles,
		})
		moved++
	}
	if moved > 0 {
		sprocket.Debug("collect garbage", util.M{
			"type":    c.name,
			"moved":   moved,
			"garbage": len(c.garbage),
		})
	}
	return moved
}

func (c *Cache[R]) Info() []ResourceInfo {
	infos := make([]ResourceInfo, 0, c.entries.Count())
	c.entries.IterCb(func(key string, v *cacheEntry[R]) {
		infos = append(infos, ResourceInfo{
			Name: key,
			Type: c.name,
			Refs: int(v.refs.Load()),
		})
	})
	return infos
}
