package ecs

import (
	"reflect"
	"sync"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

type ComponentType struct {
	id       ComponentTypeId
	name     string
	rt       reflect.Type
	codec    any
	newArray func() IComponentArray
}

func (t *ComponentType) Id() ComponentTypeId {
	return t.id
}

func (t *ComponentType) Name() string {
	return t.name
}

func (t *ComponentType) Type() reflect.Type {
	return t.rt
}

// NewArray 使用注册时的编码创建空数组
func (t *ComponentType) NewArray() IComponentArray {
	return t.newArray()
}

type (
	componentOption[T any] struct {
		name  string
		codec Codec[T]
	}
	ComponentOption[T any] func(o *componentOption[T])
)

// ComponentName 默认是类型全名，比如 physics.Transform
func ComponentName[T any](name string) ComponentOption[T] {
	return func(o *componentOption[T]) {
		o.name = name
	}
}

func ComponentCodec[T any](codec Codec[T]) ComponentOption[T] {
	return func(o *componentOption[T]) {
		o.codec = codec
	}
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types:      make([]*ComponentType, 0, 16),
		rtToType:   make(map[reflect.Type]*ComponentType, 16),
		nameToType: make(map[string]*ComponentType, 16),
	}
}

// TypeRegistry 类型到位的映射，注册阶段结束后只读
type TypeRegistry struct {
	mtx        sync.RWMutex
	types      []*ComponentType
	rtToType   map[reflect.Type]*ComponentType
	nameToType map[string]*ComponentType
	closed     bool
}

// Close 结束注册阶段
func (r *TypeRegistry) Close() {
	r.mtx.Lock()
	r.closed = true
	r.mtx.Unlock()
}

func (r *TypeRegistry) Closed() bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.closed
}

func (r *TypeRegistry) Count() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.types)
}

func (r *TypeRegistry) Get(id ComponentTypeId) (*ComponentType, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if int(id) >= len(r.types) {
		return nil, false
	}
	return r.types[id], true
}

func (r *TypeRegistry) GetByName(name string) (*ComponentType, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	t, ok := r.nameToType[name]
	return t, ok
}

func (r *TypeRegistry) Types() []*ComponentType {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	types := make([]*ComponentType, len(r.types))
	copy(types, r.types)
	return types
}

func (r *TypeRegistry) lookup(rt reflect.Type) (*ComponentType, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	t, ok := r.rtToType[rt]
	return t, ok
}

// RegisterType 同类型同名重复注册返回已分配的位，其他冲突返回 EcExist
func RegisterType[T any](r *TypeRegistry, opts ...ComponentOption[T]) (ComponentTypeId, *util.Err) {
	rt := reflect.TypeFor[T]()
	o := &componentOption[T]{
		name:  rt.String(),
		codec: JsonCodec[T]{},
	}
	for _, opt := range opts {
		opt(o)
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.closed {
		return 0, util.NewErr(util.EcRegistrationClosed, util.M{
			"component": o.name,
		})
	}
	if t, ok := r.rtToType[rt]; ok {
		if t.name == o.name {
			return t.id, nil
		}
		return 0, util.NewErr(util.EcExist, util.M{
			"component": o.name,
			"exist":     t.name,
		})
	}
	if t, ok := r.nameToType[o.name]; ok {
		return 0, util.NewErr(util.EcExist, util.M{
			"component": o.name,
			"type":      t.rt.String(),
		})
	}
	if len(r.types) >= MaxComponents {
		return 0, util.NewErr(util.EcTooManyComponents, util.M{
			"component": o.name,
			"max":       MaxComponents,
		})
	}
	id := ComponentTypeId(len(r.types))
	codec := o.codec
	t := &ComponentType{
		id:    id,
		name:  o.name,
		rt:    rt,
		codec: codec,
		newArray: func() IComponentArray {
			return NewComponentArray[T](id, codec)
		},
	}
	r.types = append(r.types, t)
	r.rtToType[rt] = t
	r.nameToType[o.name] = t
	sprocket.Debug("register component", util.M{
		"component": o.name,
		"bit":       id,
	})
	return id, nil
}

// TypeIdOf 未注册返回 EcNotRegistered
func TypeIdOf[T any](r *TypeRegistry) (ComponentTypeId, *util.Err) {
	t, err := typeOf[T](r)
	if err != nil {
		return 0, err
	}
	return t.id, nil
}

func typeOf[T any](r *TypeRegistry) (*ComponentType, *util.Err) {
	rt := reflect.TypeFor[T]()
	t, ok := r.lookup(rt)
	if !ok {
		return nil, util.NewErr(util.EcNotRegistered, util.M{
			"component": rt.String(),
		})
	}
	return t, nil
}

func codecOf[T any](r *TypeRegistry) (ComponentTypeId, Codec[T], *util.Err) {
	t, err := typeOf[T](r)
	if err != nil {
		return 0, nil, err
	}
	return t.id, t.codec.(Codec[T]), nil
}

// EncodeComponent 按注册的编码打包成线上格式
func EncodeComponent[T any](r *TypeRegistry, v T) (ComponentData, *util.Err) {
	id, codec, err := codecOf[T](r)
	if err != nil {
		return ComponentData{}, err
	}
	bytes, err := codec.Marshal(v)
	if err != nil {
		return ComponentData{}, err
	}
	return ComponentData{Type: id, Data: bytes}, nil
}

func DecodeComponent[T any](r *TypeRegistry, data ComponentData) (T, *util.Err) {
	id, codec, err := codecOf[T](r)
	if err != nil {
		return util.Default[T](), err
	}
	if id != data.Type {
		return util.Default[T](), util.NewErr(util.EcWrongType, util.M{
			"expect": id,
			"actual": data.Type,
		})
	}
	return codec.Unmarshal(data.Data)
}
