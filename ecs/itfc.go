package ecs

import (
	"iter"

	"github.com/15mga/sprocket/util"
)

// IComponentArray 唯一的动态分派边界，数据以字节形式进出
type IComponentArray interface {
	TypeId() ComponentTypeId
	Has(e EntityId) bool
	Len() int
	Entities() []EntityId
	Encode(e EntityId) ([]byte, *util.Err)
	InsertBytes(e EntityId, data []byte) *util.Err
	SetBytes(e EntityId, data []byte) (bool, *util.Err)
	Apply(e EntityId, data []byte) *util.Err
	RemoveEntity(e EntityId) bool
	DrainDirty() iter.Seq2[EntityId, []byte]
	Clear()
}

type ISystem interface {
	Type() TSystem
	Base() *System
	OnStart(frame *Frame)
	OnUpdate(frame *Frame)
	OnStop()
}

// ITicker 由 Frame 驱动
type ITicker interface {
	Name() string
	Start(frame *Frame)
	Tick(frame *Frame)
	Stop(frame *Frame)
	// Signal 事件驱动模式下等待的信号
	Signal() <-chan struct{}
}

var (
	_ IComponentArray = (*ComponentArray[int])(nil)
	_ ITicker         = (*Scene)(nil)
	_ ITicker         = (*systemTicker)(nil)
)
