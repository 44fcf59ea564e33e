package ecs

import (
	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/ds"
	"github.com/15mga/sprocket/util"
	"github.com/15mga/sprocket/worker"
)

type (
	sceneOption struct {
		types      *TypeRegistry
		entityOpts []EntityOption
	}
	SceneOption func(o *sceneOption)
)

// SceneTypes 多个场景共用一个注册表
func SceneTypes(types *TypeRegistry) SceneOption {
	return func(o *sceneOption) {
		o.types = types
	}
}

func SceneEntityLimit(limit uint32) SceneOption {
	return func(o *sceneOption) {
		o.entityOpts = append(o.entityOpts, EntityLimit(limit))
	}
}

func NewScene(id string, typ TScene, opts ...SceneOption) *Scene {
	o := &sceneOption{}
	for _, opt := range opts {
		opt(o)
	}
	if o.types == nil {
		o.types = NewTypeRegistry()
	}
	mailbox := worker.NewMailbox[Event]()
	s := &Scene{
		id:                 id,
		typ:                typ,
		types:              o.types,
		entities:           NewEntityManager(o.entityOpts...),
		components:         NewComponentManager(o.types),
		manager:            NewSystemManager(mailbox),
		mailbox:            mailbox,
		onAfterCreateLink:  ds.NewFnLink1[EntityId](),
		onBeforeDestroyErr: ds.NewLink[EntityToErr](),
		onReleasedLink:     ds.NewFnLink1[EntityId](),
	}
	s.components.BindSignatureChanged(s.onSignatureChanged)
	return s
}

// Scene 中心存储的唯一写入者，实体的创建销毁和组件增删都在这里发生
type Scene struct {
	id                 string
	typ                TScene
	types              *TypeRegistry
	entities           *EntityManager
	components         *ComponentManager
	manager            *SystemManager
	mailbox            *worker.Mailbox[Event]
	systems            []ISystem
	booted             bool
	applied            uint64
	acked              uint64
	onAfterCreateLink  *ds.FnLink1[EntityId]
	onBeforeDestroyErr *ds.Link[EntityToErr]
	onReleasedLink     *ds.FnLink1[EntityId]
}

func (s *Scene) Id() string {
	return s.id
}

func (s *Scene) Type() TScene {
	return s.typ
}

func (s *Scene) Types() *TypeRegistry {
	return s.types
}

func (s *Scene) Entities() *EntityManager {
	return s.entities
}

func (s *Scene) Components() *ComponentManager {
	return s.components
}

func (s *Scene) Manager() *SystemManager {
	return s.manager
}

func (s *Scene) Mailbox() *worker.Mailbox[Event] {
	return s.mailbox
}

func (s *Scene) Systems() []ISystem {
	return s.systems
}

func (s *Scene) Booted() bool {
	return s.booted
}

// AddSystem 只能在 Boot 之前调用
func (s *Scene) AddSystem(sys ISystem) *util.Err {
	if s.booted {
		return util.NewErr(util.EcRegistrationClosed, util.M{
			"system": sys.Type(),
		})
	}
	err := sys.Base().bind(s.types, s.manager)
	if err != nil {
		return err
	}
	s.systems = append(s.systems, sys)
	return nil
}

// Boot 关闭类型和系统注册，启动路由
func (s *Scene) Boot() *util.Err {
	if s.booted {
		return util.NewErr(util.EcIllegalOp, util.M{
			"scene": s.id,
		})
	}
	s.types.Close()
	s.manager.Close()
	s.booted = true
	sprocket.Info("boot scene", util.M{
		"scene":      s.id,
		"type":       s.typ,
		"components": s.types.Count(),
		"systems":    len(s.systems),
	})
	return nil
}

func (s *Scene) CreateEntity() (EntityId, *util.Err) {
	if !s.booted {
		return NilEntity, util.NewErr(util.EcIllegalOp, util.M{
			"scene": s.id,
			"error": "not booted",
		})
	}
	e, err := s.entities.Create()
	if err != nil {
		return e, err
	}
	s.onAfterCreateLink.Invoke(e)
	return e, nil
}

// DestroyEntity id 在所有系统确认之后才会被回收
func (s *Scene) DestroyEntity(e EntityId) *util.Err {
	if !s.entities.Alive(e) {
		return util.NewErr(util.EcStaleEntity, util.M{
			"entity": e.String(),
		})
	}
	var err *util.Err
	s.onBeforeDestroyErr.Any(func(fn EntityToErr) bool {
		err = fn(e)
		return err != nil
	})
	if err != nil {
		return err
	}
	s.components.RemoveAll(e)
	err = s.entities.Destroy(e)
	if err != nil {
		return err
	}
	s.manager.Destroyed(e)
	return nil
}

func (s *Scene) Alive(e EntityId) bool {
	return s.entities.Alive(e)
}

func (s *Scene) Signature(e EntityId) Signature {
	return s.components.Signature(e)
}

func (s *Scene) checkAlive(e EntityId) *util.Err {
	if s.entities.Alive(e) {
		return nil
	}
	return util.NewErr(util.EcStaleEntity, util.M{
		"entity": e.String(),
	})
}

func (s *Scene) InsertBytes(e EntityId, id ComponentTypeId, data []byte) *util.Err {
	if err := s.checkAlive(e); err != nil {
		return err
	}
	return s.components.InsertBytes(e, id, data)
}

func (s *Scene) RemoveById(e EntityId, id ComponentTypeId) *util.Err {
	if err := s.checkAlive(e); err != nil {
		return err
	}
	return s.components.RemoveById(e, id)
}

func (s *Scene) BindAfterCreateEntity(fn FnEntity) {
	s.onAfterCreateLink.Push(fn)
}

// BindBeforeDestroyEntity 返回错误时取消销毁
func (s *Scene) BindBeforeDestroyEntity(fn EntityToErr) {
	s.onBeforeDestroyErr.Push(fn)
}

// BindEntityReleased id 回收后回调
func (s *Scene) BindEntityReleased(fn FnEntity) {
	s.onReleasedLink.Push(fn)
}

func (s *Scene) onSignatureChanged(e EntityId, old, new Signature) {
	var snapshot []ComponentData
	if need := s.manager.Admitting(old, new); !need.IsEmpty() {
		snapshot = s.components.Snapshot(e, need)
	}
	s.manager.SignatureChanged(e, old, new, snapshot)
}

// Receive 处理系统回传的变更、请求和回收通知
func (s *Scene) Receive() int {
	n := s.mailbox.Drain(s.onEvent)
	if s.applied > s.acked {
		s.acked = s.applied
		s.manager.Applied(s.applied)
	}
	return n
}

func (s *Scene) onEvent(evt Event) {
	switch evt.Kind {
	case EvtComponentUpdate:
		if evt.Seq > s.applied {
			s.applied = evt.Seq
		}
		if !s.entities.Alive(evt.Entity) {
			return
		}
		err := s.components.ApplyUpdate(Update{
			Entity: evt.Entity,
			Type:   evt.Update.Type,
			Data:   evt.Update.Data,
		})
		if err != nil && err.Code() != util.EcNotExist {
			err.AddParam("from", evt.From)
			sprocket.Error(err)
		}
	case EvtCommand:
		err := s.execute(evt.Command)
		if err != nil {
			err.AddParams(util.M{
				"from":    evt.From,
				"command": evt.Command.Kind.String(),
			})
			sprocket.Warn(err)
		}
	case EvtEntityReleased:
		err := s.entities.Release(evt.Entity)
		if err != nil {
			sprocket.Error(err)
			return
		}
		s.onReleasedLink.Invoke(evt.Entity)
	}
}

func (s *Scene) execute(cmd Command) *util.Err {
	switch cmd.Kind {
	case CmdSpawn:
		e, err := s.CreateEntity()
		if err != nil {
			return err
		}
		for _, c := range cmd.Components {
			err = s.components.InsertBytes(e, c.Type, c.Data)
			if err == nil {
				continue
			}
			// 半成品实体没人知道 id，直接销毁
			if e2 := s.DestroyEntity(e); e2 != nil {
				sprocket.Error(e2)
			}
			err.AddParam("entity", e.String())
			return err
		}
		return nil
	case CmdInsert:
		if err := s.checkAlive(cmd.Entity); err != nil {
			return err
		}
		for _, c := range cmd.Components {
			err := s.components.SetBytes(cmd.Entity, c.Type, c.Data)
			if err != nil {
				return err
			}
		}
		return nil
	case CmdRemove:
		return s.RemoveById(cmd.Entity, cmd.Type)
	case CmdDestroy:
		return s.DestroyEntity(cmd.Entity)
	default:
		return util.NewErr(util.EcNotImplement, util.M{
			"command": cmd.Kind,
		})
	}
}

// Flush 中心存储一帧的脏数据发给路由
func (s *Scene) Flush() int {
	updates := s.components.DrainDirty()
	s.manager.Publish(Central, updates)
	return len(updates)
}

func (s *Scene) Name() string {
	return s.id
}

func (s *Scene) Start(frame *Frame) {
	if s.booted {
		return
	}
	if err := s.Boot(); err != nil {
		sprocket.Error(err)
	}
}

func (s *Scene) Tick(frame *Frame) {
	s.Receive()
	s.Flush()
}

func (s *Scene) Stop(frame *Frame) {
	s.Dispose()
}

func (s *Scene) Signal() <-chan struct{} {
	return s.mailbox.Signal()
}

func (s *Scene) Dispose() {
	s.manager.Dispose()
	discarded := s.mailbox.Close()
	sprocket.Info("dispose scene", util.M{
		"scene":     s.id,
		"type":      s.typ,
		"entities":  s.entities.Count(),
		"discarded": discarded,
	})
}

func SceneInsert[T any](s *Scene, e EntityId, v T) *util.Err {
	if err := s.checkAlive(e); err != nil {
		return err
	}
	return Insert[T](s.components, e, v)
}

func SceneRemove[T any](s *Scene, e EntityId) (T, *util.Err) {
	if err := s.checkAlive(e); err != nil {
		return util.Default[T](), err
	}
	return Remove[T](s.components, e)
}

func SceneGet[T any](s *Scene, e EntityId) (T, bool) {
	return Get[T](s.components, e)
}

// SceneGetMut 取得的指针修改后在下一次 Flush 时传播
func SceneGetMut[T any](s *Scene, e EntityId) (*T, bool) {
	return GetMut[T](s.components, e)
}
