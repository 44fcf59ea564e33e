package ecs

import (
	"iter"
	"sync"
	"sync/atomic"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

func NewComponentArray[T any](id ComponentTypeId, codec Codec[T]) *ComponentArray[T] {
	if codec == nil {
		codec = JsonCodec[T]{}
	}
	return &ComponentArray[T]{
		typeId:   id,
		codec:    codec,
		values:   make([]T, 0, 64),
		entities: make([]EntityId, 0, 64),
		dirty:    make([]bool, 0, 64),
		idx:      make(map[EntityId]int, 64),
	}
}

// ComponentArray 紧凑存储，删除时用末尾元素填洞，每个槽位一个脏标记
type ComponentArray[T any] struct {
	mtx        sync.Mutex
	typeId     ComponentTypeId
	codec      Codec[T]
	values     []T
	entities   []EntityId
	dirty      []bool
	idx        map[EntityId]int
	dirtyCount int
}

func (a *ComponentArray[T]) TypeId() ComponentTypeId {
	return a.typeId
}

func (a *ComponentArray[T]) Codec() Codec[T] {
	return a.codec
}

func (a *ComponentArray[T]) add(e EntityId, v T, dirty bool) {
	a.idx[e] = len(a.values)
	a.values = append(a.values, v)
	a.entities = append(a.entities, e)
	a.dirty = append(a.dirty, dirty)
	if dirty {
		a.dirtyCount++
	}
}

func (a *ComponentArray[T]) markDirty(i int) {
	if !a.dirty[i] {
		a.dirty[i] = true
		a.dirtyCount++
	}
}

// Insert 已存在返回 EcDuplicateComponent
func (a *ComponentArray[T]) Insert(e EntityId, v T) *util.Err {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if _, ok := a.idx[e]; ok {
		return util.NewErr(util.EcDuplicateComponent, util.M{
			"entity":    e.String(),
			"component": a.typeId,
		})
	}
	a.add(e, v, true)
	return nil
}

// Set 覆盖或插入，返回是否新插入
func (a *ComponentArray[T]) Set(e EntityId, v T) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if i, ok := a.idx[e]; ok {
		a.values[i] = v
		a.markDirty(i)
		return false
	}
	a.add(e, v, true)
	return true
}

func (a *ComponentArray[T]) Remove(e EntityId) (T, *util.Err) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	v, ok := a.remove(e)
	if !ok {
		return v, util.NewErr(util.EcNotExist, util.M{
			"entity":    e.String(),
			"component": a.typeId,
		})
	}
	return v, nil
}

func (a *ComponentArray[T]) remove(e EntityId) (T, bool) {
	i, ok := a.idx[e]
	if !ok {
		return util.Default[T](), false
	}
	v := a.values[i]
	if a.dirty[i] {
		a.dirtyCount--
	}
	last := len(a.values) - 1
	if i != last {
		a.values[i] = a.values[last]
		a.entities[i] = a.entities[last]
		a.dirty[i] = a.dirty[last]
		a.idx[a.entities[i]] = i
	}
	a.values[last] = util.Default[T]()
	a.values = a.values[:last]
	a.entities = a.entities[:last]
	a.dirty = a.dirty[:last]
	delete(a.idx, e)
	return v, true
}

func (a *ComponentArray[T]) Get(e EntityId) (T, bool) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	i, ok := a.idx[e]
	if !ok {
		return util.Default[T](), false
	}
	return a.values[i], true
}

// GetMut 取可写指针即标记为脏，不比较前后值，指针在下一次插入或删除前有效
func (a *ComponentArray[T]) GetMut(e EntityId) (*T, bool) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	i, ok := a.idx[e]
	if !ok {
		return nil, false
	}
	a.markDirty(i)
	return &a.values[i], true
}

func (a *ComponentArray[T]) Has(e EntityId) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	_, ok := a.idx[e]
	return ok
}

func (a *ComponentArray[T]) Len() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return len(a.values)
}

func (a *ComponentArray[T]) Entities() []EntityId {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	entities := make([]EntityId, len(a.entities))
	copy(entities, a.entities)
	return entities
}

// Each 遍历时持有锁，fn 内不能再调用这个数组
func (a *ComponentArray[T]) Each(fn func(EntityId, T)) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	for i, e := range a.entities {
		fn(e, a.values[i])
	}
}

// EachMut 遍历到的槽位都会标记为脏
func (a *ComponentArray[T]) EachMut(fn func(EntityId, *T)) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	for i, e := range a.entities {
		a.markDirty(i)
		fn(e, &a.values[i])
	}
}

func (a *ComponentArray[T]) IsDirty(e EntityId) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	i, ok := a.idx[e]
	return ok && a.dirty[i]
}

func (a *ComponentArray[T]) MarkDirty(e EntityId) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	i, ok := a.idx[e]
	if ok {
		a.markDirty(i)
	}
	return ok
}

func (a *ComponentArray[T]) DirtyCount() int {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	return a.dirtyCount
}

// DrainDirty 加锁取走脏槽位的值并清除标记，序列化在遍历时进行。
// 序列只能遍历一次，中途 break 时剩余的实体重新标记为脏
func (a *ComponentArray[T]) DrainDirty() iter.Seq2[EntityId, []byte] {
	a.mtx.Lock()
	if a.dirtyCount == 0 {
		a.mtx.Unlock()
		return func(func(EntityId, []byte) bool) {}
	}
	entities := make([]EntityId, 0, a.dirtyCount)
	values := make([]T, 0, a.dirtyCount)
	for i, d := range a.dirty {
		if !d {
			continue
		}
		entities = append(entities, a.entities[i])
		values = append(values, a.values[i])
		a.dirty[i] = false
	}
	a.dirtyCount = 0
	a.mtx.Unlock()

	var used atomic.Bool
	return func(yield func(EntityId, []byte) bool) {
		if used.Swap(true) {
			return
		}
		for i, e := range entities {
			bytes, err := a.codec.Marshal(values[i])
			if err != nil {
				err.AddParam("entity", e.String())
				sprocket.Error(err)
				continue
			}
			if !yield(e, bytes) {
				a.redirty(entities[i+1:])
				return
			}
		}
	}
}

func (a *ComponentArray[T]) redirty(entities []EntityId) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	for _, e := range entities {
		if i, ok := a.idx[e]; ok {
			a.markDirty(i)
		}
	}
}

// Apply 用收到的数据覆盖或插入，不标记为脏，避免回传
func (a *ComponentArray[T]) Apply(e EntityId, data []byte) *util.Err {
	v, err := a.codec.Unmarshal(data)
	if err != nil {
		return err
	}
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if i, ok := a.idx[e]; ok {
		a.values[i] = v
		return nil
	}
	a.add(e, v, false)
	return nil
}

func (a *ComponentArray[T]) InsertBytes(e EntityId, data []byte) *util.Err {
	v, err := a.codec.Unmarshal(data)
	if err != nil {
		return err
	}
	return a.Insert(e, v)
}

// SetBytes 覆盖或插入并标记为脏，返回是否新插入
func (a *ComponentArray[T]) SetBytes(e EntityId, data []byte) (bool, *util.Err) {
	v, err := a.codec.Unmarshal(data)
	if err != nil {
		return false, err
	}
	return a.Set(e, v), nil
}

func (a *ComponentArray[T]) Encode(e EntityId) ([]byte, *util.Err) {
	v, ok := a.Get(e)
	if !ok {
		return nil, util.NewErr(util.EcNotExist, util.M{
			"entity":    e.String(),
			"component": a.typeId,
		})
	}
	return a.codec.Marshal(v)
}

func (a *ComponentArray[T]) RemoveEntity(e EntityId) bool {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	_, ok := a.remove(e)
	return ok
}

func (a *ComponentArray[T]) Clear() {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	clear(a.values)
	a.values = a.values[:0]
	a.entities = a.entities[:0]
	a.dirty = a.dirty[:0]
	a.idx = make(map[EntityId]int, 64)
	a.dirtyCount = 0
}
