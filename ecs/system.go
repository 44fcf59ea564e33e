package ecs

import (
	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/ds"
	"github.com/15mga/sprocket/util"
	"github.com/15mga/sprocket/worker"
)

// Requirement 系统需要的组件，绑定时解析成位
type Requirement func(types *TypeRegistry) (ComponentTypeId, *util.Err)

func Require[T any]() Requirement {
	return func(types *TypeRegistry) (ComponentTypeId, *util.Err) {
		return TypeIdOf[T](types)
	}
}

func RequireId(id ComponentTypeId) Requirement {
	return func(types *TypeRegistry) (ComponentTypeId, *util.Err) {
		if _, ok := types.Get(id); !ok {
			return 0, util.NewErr(util.EcNotRegistered, util.M{
				"component": id,
			})
		}
		return id, nil
	}
}

// NewSystem 具体系统内嵌 System
func NewSystem(typ TSystem, reqs ...Requirement) System {
	return System{
		typ:       typ,
		reqs:      reqs,
		mailbox:   worker.NewMailbox[Event](),
		commands:  newCommandBuffer(),
		onAdded:   ds.NewFnLink1[EntityId](),
		onRemoved: ds.NewFnLink1[EntityId](),
		onChanged: ds.NewFnLink2[EntityId, ComponentTypeId](),
	}
}

// System 私有的组件副本，只包含签名满足的实体，只在自己的协程使用
type System struct {
	typ       TSystem
	reqs      []Requirement
	sig       Signature
	types     *TypeRegistry
	manager   *SystemManager
	mailbox   *worker.Mailbox[Event]
	stores    map[ComponentTypeId]IComponentArray
	storeIds  []ComponentTypeId
	entities  *ds.KSet[EntityId, EntityId]
	commands  *CommandBuffer
	frame     *Frame
	onAdded   *ds.FnLink1[EntityId]
	onRemoved *ds.FnLink1[EntityId]
	onChanged *ds.FnLink2[EntityId, ComponentTypeId]
}

func (s *System) Type() TSystem {
	return s.typ
}

func (s *System) Base() *System {
	return s
}

func (s *System) Signature() Signature {
	return s.sig
}

func (s *System) Types() *TypeRegistry {
	return s.types
}

func (s *System) Manager() *SystemManager {
	return s.manager
}

func (s *System) Mailbox() *worker.Mailbox[Event] {
	return s.mailbox
}

func (s *System) Frame() *Frame {
	return s.frame
}

func (s *System) OnStart(frame *Frame) {
	s.frame = frame
}

func (s *System) OnUpdate(frame *Frame) {
}

func (s *System) OnStop() {
}

// BindAdded 实体进入视图，此时本地组件已就绪
func (s *System) BindAdded(fn FnEntity) {
	s.onAdded.Push(fn)
}

// BindRemoved 实体离开视图，回调时本地组件还在
func (s *System) BindRemoved(fn FnEntity) {
	s.onRemoved.Push(fn)
}

// BindChanged 收到其他来源的组件变更
func (s *System) BindChanged(fn FnEntityType) {
	s.onChanged.Push(fn)
}

// bind 解析签名，创建本地数组，向路由注册
func (s *System) bind(types *TypeRegistry, manager *SystemManager) *util.Err {
	if s.manager != nil {
		return util.NewErr(util.EcExist, util.M{
			"system": s.typ,
		})
	}
	var sig Signature
	for _, req := range s.reqs {
		id, err := req(types)
		if err != nil {
			err.AddParam("system", s.typ)
			return err
		}
		sig.Set(id)
	}
	err := manager.RegisterSystem(s.typ, sig, s.mailbox)
	if err != nil {
		return err
	}
	s.sig = sig
	s.types = types
	s.manager = manager
	s.storeIds = sig.Ids()
	s.stores = make(map[ComponentTypeId]IComponentArray, len(s.storeIds))
	for _, id := range s.storeIds {
		t, _ := types.Get(id)
		s.stores[id] = t.NewArray()
	}
	s.entities = ds.NewKSet[EntityId, EntityId](64, func(e EntityId) EntityId {
		return e
	})
	return nil
}

func (s *System) Has(e EntityId) bool {
	return s.entities != nil && s.entities.Has(e)
}

func (s *System) Count() int {
	if s.entities == nil {
		return 0
	}
	return s.entities.Count()
}

// Entities 返回副本
func (s *System) Entities() []EntityId {
	if s.entities == nil {
		return nil
	}
	values := s.entities.Values()
	entities := make([]EntityId, len(values))
	copy(entities, values)
	return entities
}

func (s *System) StoreById(id ComponentTypeId) (IComponentArray, bool) {
	a, ok := s.stores[id]
	return a, ok
}

// Receive 处理邮箱里的事件，返回处理数量
func (s *System) Receive() int {
	return s.mailbox.Drain(s.onEvent)
}

func (s *System) onEvent(evt Event) {
	switch evt.Kind {
	case EvtEntityAdded:
		for _, c := range evt.Components {
			s.apply(evt.Entity, c)
		}
		if s.entities.AddNX(evt.Entity) {
			s.onAdded.Invoke(evt.Entity)
		}
	case EvtEntityRemoved:
		if s.entities.Has(evt.Entity) {
			s.onRemoved.Invoke(evt.Entity)
			s.entities.Del(evt.Entity)
		}
		for _, id := range s.storeIds {
			s.stores[id].RemoveEntity(evt.Entity)
		}
		s.manager.ConfirmRemoved(s.typ, evt.Entity)
	case EvtComponentUpdate:
		if !s.entities.Has(evt.Entity) {
			return
		}
		if s.apply(evt.Entity, evt.Update) {
			s.onChanged.Invoke(evt.Entity, evt.Update.Type)
		}
	}
}

func (s *System) apply(e EntityId, c ComponentData) bool {
	a, ok := s.stores[c.Type]
	if !ok {
		return false
	}
	err := a.Apply(e, c.Data)
	if err != nil {
		err.AddParams(util.M{
			"system": s.typ,
			"entity": e.String(),
		})
		sprocket.Error(err)
		return false
	}
	return true
}

// Flush 收集本地脏数据按类型分组提交给路由，同时提交修改请求
func (s *System) Flush() int {
	var updates []Update
	for _, id := range s.storeIds {
		for e, data := range s.stores[id].DrainDirty() {
			updates = append(updates, Update{Entity: e, Type: id, Data: data})
		}
	}
	s.manager.Publish(s.typ, updates)
	s.manager.Commands(s.typ, s.commands.take())
	return len(updates)
}

// RequestSpawn 请求中心创建实体并插入组件
func (s *System) RequestSpawn(components ...ComponentData) {
	s.commands.push(Command{
		Kind:       CmdSpawn,
		Components: components,
	})
}

func (s *System) RequestRemove(e EntityId, id ComponentTypeId) {
	s.commands.push(Command{
		Kind:   CmdRemove,
		Entity: e,
		Type:   id,
	})
}

func (s *System) RequestDestroy(e EntityId) {
	s.commands.push(Command{
		Kind:   CmdDestroy,
		Entity: e,
	})
}

// RequestInsert 请求中心给实体插入组件，已存在时覆盖
func RequestInsert[T any](s ISystem, e EntityId, v T) *util.Err {
	base := s.Base()
	c, err := EncodeComponent[T](base.types, v)
	if err != nil {
		return err
	}
	base.commands.push(Command{
		Kind:       CmdInsert,
		Entity:     e,
		Type:       c.Type,
		Components: []ComponentData{c},
	})
	return nil
}

// Store 系统本地的组件数组，类型不在签名里返回 false
func Store[T any](s ISystem) (*ComponentArray[T], bool) {
	base := s.Base()
	if base.types == nil {
		return nil, false
	}
	id, err := TypeIdOf[T](base.types)
	if err != nil {
		return nil, false
	}
	a, ok := base.stores[id]
	if !ok {
		return nil, false
	}
	ta, ok := a.(*ComponentArray[T])
	return ta, ok
}
