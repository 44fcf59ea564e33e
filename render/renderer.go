package render

import (
	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/ds"
	"github.com/15mga/sprocket/ecs"
	"github.com/15mga/sprocket/physics"
	"github.com/15mga/sprocket/util"
	"github.com/15mga/sprocket/worker"
)

const TypeRenderer ecs.TSystem = "renderer"

// Register 注册本包的组件
func Register(m *ecs.ComponentManager) *util.Err {
	if _, err := ecs.RegisterComponent[MeshSpec](m); err != nil {
		return err
	}
	if _, err := ecs.RegisterComponent[MaterialSpec](m); err != nil {
		return err
	}
	if _, err := ecs.RegisterComponent[ResolveFailure](m); err != nil {
		return err
	}
	return nil
}

type DrawCall struct {
	Entity ecs.EntityId
	MeshId int64
	Key    string
	World  util.Mat4
}

type (
	rendererOption struct {
		gcInterval int64
		gcCycles   int
	}
	RendererOption func(o *rendererOption)
)

// RendererGcInterval 每隔多少帧回收一次资源，0 不回收
func RendererGcInterval(frames int64) RendererOption {
	return func(o *rendererOption) {
		o.gcInterval = frames
	}
}

// RendererGcCycles 资源进入垃圾列表后再经过几次回收才释放
func RendererGcCycles(cycles int) RendererOption {
	return func(o *rendererOption) {
		o.gcCycles = cycles
	}
}

func NewRenderer(resources *Resources, opts ...RendererOption) *Renderer {
	o := &rendererOption{
		gcInterval: 60,
		gcCycles:   3,
	}
	for _, opt := range opts {
		opt(o)
	}
	r := &Renderer{
		System:    ecs.NewSystem(TypeRenderer, ecs.Require[physics.Transform](), ecs.Require[MeshSpec]()),
		option:    o,
		resources: resources,
		resolver:  NewResolver(resources),
		handles:   make(map[ecs.EntityId]*Handle[*Mesh], 64),
		requested: make(map[ecs.EntityId]string, 16),
	}
	r.BindAdded(r.onAdded)
	r.BindRemoved(r.onRemoved)
	r.BindChanged(r.onChanged)
	return r
}

// Renderer 把网格描述解析成共享的网格资源，每帧生成绘制列表
type Renderer struct {
	ecs.System
	option     *rendererOption
	resources  *Resources
	resolver   *Resolver
	transforms *ecs.ComponentArray[physics.Transform]
	specs      *ecs.ComponentArray[MeshSpec]
	meshBit    ecs.ComponentTypeId
	handles    map[ecs.EntityId]*Handle[*Mesh]
	requested  map[ecs.EntityId]string
	draws      []DrawCall
}

func (r *Renderer) Resolver() *Resolver {
	return r.resolver
}

func (r *Renderer) Resources() *Resources {
	return r.resources
}

// Mesh 实体当前使用的网格
func (r *Renderer) Mesh(e ecs.EntityId) (*Mesh, bool) {
	h, ok := r.handles[e]
	if !ok {
		return nil, false
	}
	return h.Resource(), true
}

// Draws 上一帧的绘制列表
func (r *Renderer) Draws() []DrawCall {
	return r.draws
}

func (r *Renderer) OnStart(frame *ecs.Frame) {
	r.System.OnStart(frame)
	r.stores()
}

func (r *Renderer) stores() {
	if r.transforms != nil {
		return
	}
	r.transforms, _ = ecs.Store[physics.Transform](r)
	r.specs, _ = ecs.Store[MeshSpec](r)
	r.meshBit, _ = ecs.TypeIdOf[MeshSpec](r.Types())
}

func (r *Renderer) onAdded(e ecs.EntityId) {
	r.stores()
	spec, ok := r.specs.Get(e)
	if !ok {
		return
	}
	r.resolve(e, spec)
}

func (r *Renderer) onChanged(e ecs.EntityId, id ecs.ComponentTypeId) {
	if id != r.meshBit {
		return
	}
	spec, ok := r.specs.Get(e)
	if !ok {
		return
	}
	r.resolve(e, spec)
}

func (r *Renderer) onRemoved(e ecs.EntityId) {
	delete(r.requested, e)
	if h, ok := r.handles[e]; ok {
		h.Release()
		delete(r.handles, e)
	}
}

func (r *Renderer) resolve(e ecs.EntityId, spec MeshSpec) {
	key := spec.Key()
	if h, ok := r.handles[e]; ok && h.Key() == key {
		delete(r.requested, e)
		return
	}
	if r.requested[e] == key {
		return
	}
	r.requested[e] = key
	r.resolver.Resolve(e, spec)
}

// Apply 处理已完成的解析，过期的结果直接释放
func (r *Renderer) Apply() int {
	return r.resolver.Drain(r.onResolved)
}

func (r *Renderer) onResolved(res Resolution) {
	key, ok := r.requested[res.Entity]
	if !ok || key != res.Key || !r.Has(res.Entity) {
		if res.Mesh != nil {
			res.Mesh.Release()
		}
		return
	}
	delete(r.requested, res.Entity)
	if res.Err != nil {
		sprocket.Warn(res.Err)
		err := ecs.RequestInsert(r, res.Entity, ResolveFailure{
			Path:   res.Path,
			Reason: res.Err.Error(),
		})
		if err != nil {
			sprocket.Error(err)
		}
		return
	}
	if old, ok := r.handles[res.Entity]; ok {
		old.Release()
	}
	r.handles[res.Entity] = res.Mesh
}

func (r *Renderer) OnUpdate(frame *ecs.Frame) {
	r.Apply()
	r.buildDraws()
	if r.option.gcInterval > 0 && frame != nil && frame.Num()%r.option.gcInterval == 0 {
		r.resources.CollectGarbage(r.option.gcCycles)
	}
}

func (r *Renderer) buildDraws() {
	entities := make([]ecs.EntityId, 0, len(r.handles))
	for e := range r.handles {
		entities = append(entities, e)
	}
	draws := r.draws[:0]
	worker.PToLink(entities, func(e ecs.EntityId, link *ds.Link[DrawCall]) {
		t, ok := r.transforms.Get(e)
		if !ok {
			return
		}
		h := r.handles[e]
		link.Push(DrawCall{
			Entity: e,
			MeshId: h.Resource().Id,
			Key:    h.Key(),
			World:  t.Matrix(),
		})
	}, func(link *ds.Link[DrawCall]) {
		for call, ok := link.Pop(); ok; call, ok = link.Pop() {
			draws = append(draws, call)
		}
	})
	r.draws = draws
}

func (r *Renderer) OnStop() {
	r.resolver.Close()
	for e, h := range r.handles {
		h.Release()
		delete(r.handles, e)
	}
	clear(r.requested)
	sprocket.Info("stop renderer", util.M{
		"resources": len(r.resources.Info()),
	})
}
