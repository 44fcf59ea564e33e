package ecs

import (
	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

func NewComponentManager(types *TypeRegistry) *ComponentManager {
	return &ComponentManager{
		types:      types,
		signatures: make(map[EntityId]Signature, 256),
	}
}

// ComponentManager 中心存储，每种组件一个数组，外加实体签名表，只在中心协程使用
type ComponentManager struct {
	types      *TypeRegistry
	arrays     [MaxComponents]IComponentArray
	signatures map[EntityId]Signature
	onChanged  FnSignature
}

func (m *ComponentManager) Types() *TypeRegistry {
	return m.types
}

// BindSignatureChanged 签名变化时回调
func (m *ComponentManager) BindSignatureChanged(fn FnSignature) {
	m.onChanged = fn
}

// Array 注册表里有但还没有数组时创建
func (m *ComponentManager) Array(id ComponentTypeId) (IComponentArray, bool) {
	if int(id) >= MaxComponents {
		return nil, false
	}
	if a := m.arrays[id]; a != nil {
		return a, true
	}
	t, ok := m.types.Get(id)
	if !ok {
		return nil, false
	}
	a := t.NewArray()
	m.arrays[id] = a
	return a, true
}

func (m *ComponentManager) array(id ComponentTypeId) (IComponentArray, *util.Err) {
	a, ok := m.Array(id)
	if !ok {
		return nil, util.NewErr(util.EcNotRegistered, util.M{
			"component": id,
		})
	}
	return a, nil
}

func (m *ComponentManager) Signature(e EntityId) Signature {
	return m.signatures[e]
}

func (m *ComponentManager) setBit(e EntityId, id ComponentTypeId) {
	old := m.signatures[e]
	sig := old.With(id)
	m.signatures[e] = sig
	if m.onChanged != nil {
		m.onChanged(e, old, sig)
	}
}

func (m *ComponentManager) clearBit(e EntityId, id ComponentTypeId) {
	old := m.signatures[e]
	sig := old.Without(id)
	if sig.IsEmpty() {
		delete(m.signatures, e)
	} else {
		m.signatures[e] = sig
	}
	if m.onChanged != nil {
		m.onChanged(e, old, sig)
	}
}

func (m *ComponentManager) InsertBytes(e EntityId, id ComponentTypeId, data []byte) *util.Err {
	a, err := m.array(id)
	if err != nil {
		return err
	}
	err = a.InsertBytes(e, data)
	if err != nil {
		return err
	}
	m.setBit(e, id)
	return nil
}

// SetBytes 已有时覆盖并标记为脏，没有时插入
func (m *ComponentManager) SetBytes(e EntityId, id ComponentTypeId, data []byte) *util.Err {
	a, err := m.array(id)
	if err != nil {
		return err
	}
	inserted, err := a.SetBytes(e, data)
	if err != nil {
		return err
	}
	if inserted {
		m.setBit(e, id)
	}
	return nil
}

func (m *ComponentManager) RemoveById(e EntityId, id ComponentTypeId) *util.Err {
	a, err := m.array(id)
	if err != nil {
		return err
	}
	if !a.RemoveEntity(e) {
		return util.NewErr(util.EcNotExist, util.M{
			"entity":    e.String(),
			"component": id,
		})
	}
	m.clearBit(e, id)
	return nil
}

// ApplyUpdate 收到系统的变更，覆盖且不标记为脏；实体已没有这个组件时丢弃
func (m *ComponentManager) ApplyUpdate(u Update) *util.Err {
	if !m.signatures[u.Entity].Test(u.Type) {
		return util.NewErr(util.EcNotExist, util.M{
			"entity":    u.Entity.String(),
			"component": u.Type,
		})
	}
	a, err := m.array(u.Type)
	if err != nil {
		return err
	}
	return a.Apply(u.Entity, u.Data)
}

// RemoveAll 销毁实体时调用，不触发签名回调，返回原签名
func (m *ComponentManager) RemoveAll(e EntityId) Signature {
	sig, ok := m.signatures[e]
	if !ok {
		return sig
	}
	for _, id := range sig.Ids() {
		if a, ok := m.Array(id); ok {
			a.RemoveEntity(e)
		}
	}
	delete(m.signatures, e)
	return sig
}

// Snapshot sig 与实体签名交集内的全部组件
func (m *ComponentManager) Snapshot(e EntityId, sig Signature) []ComponentData {
	ids := m.signatures[e].Intersect(sig).Ids()
	components := make([]ComponentData, 0, len(ids))
	for _, id := range ids {
		a, ok := m.Array(id)
		if !ok {
			continue
		}
		bytes, err := a.Encode(e)
		if err != nil {
			err.AddParam("entity", e.String())
			sprocket.Error(err)
			continue
		}
		components = append(components, ComponentData{Type: id, Data: bytes})
	}
	return components
}

// DrainDirty 收集所有数组的脏数据
func (m *ComponentManager) DrainDirty() []Update {
	var updates []Update
	for _, a := range m.arrays {
		if a == nil {
			continue
		}
		id := a.TypeId()
		for e, data := range a.DrainDirty() {
			updates = append(updates, Update{Entity: e, Type: id, Data: data})
		}
	}
	return updates
}

func (m *ComponentManager) EntityCount() int {
	return len(m.signatures)
}

// RegisterComponent 注册类型并创建中心数组
func RegisterComponent[T any](m *ComponentManager, opts ...ComponentOption[T]) (ComponentTypeId, *util.Err) {
	id, err := RegisterType[T](m.types, opts...)
	if err != nil {
		return 0, err
	}
	m.Array(id)
	return id, nil
}

// ComponentBit 类型对应的位，用来构造签名
func ComponentBit[T any](types *TypeRegistry) (ComponentTypeId, *util.Err) {
	return TypeIdOf[T](types)
}

func Array[T any](m *ComponentManager) (*ComponentArray[T], *util.Err) {
	id, err := TypeIdOf[T](m.types)
	if err != nil {
		return nil, err
	}
	a, err := m.array(id)
	if err != nil {
		return nil, err
	}
	ta, ok := a.(*ComponentArray[T])
	if !ok {
		return nil, util.NewErr(util.EcWrongType, util.M{
			"component": id,
		})
	}
	return ta, nil
}

func Insert[T any](m *ComponentManager, e EntityId, v T) *util.Err {
	a, err := Array[T](m)
	if err != nil {
		return err
	}
	err = a.Insert(e, v)
	if err != nil {
		return err
	}
	m.setBit(e, a.TypeId())
	return nil
}

func Remove[T any](m *ComponentManager, e EntityId) (T, *util.Err) {
	a, err := Array[T](m)
	if err != nil {
		return util.Default[T](), err
	}
	v, err := a.Remove(e)
	if err != nil {
		return v, err
	}
	m.clearBit(e, a.TypeId())
	return v, nil
}

func Get[T any](m *ComponentManager, e EntityId) (T, bool) {
	a, err := Array[T](m)
	if err != nil {
		return util.Default[T](), false
	}
	return a.Get(e)
}

func GetMut[T any](m *ComponentManager, e EntityId) (*T, bool) {
	a, err := Array[T](m)
	if err != nil {
		return nil, false
	}
	return a.GetMut(e)
}
