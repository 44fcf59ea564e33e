package ecs

import (
	"math"
	"strconv"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

// EntityId 低 32 位是槽位，高 32 位是代数，代数从 1 开始，0 永远无效
type EntityId uint64

const NilEntity EntityId = 0

func newEntityId(idx, gen uint32) EntityId {
	return EntityId(uint64(gen)<<32 | uint64(idx))
}

func (e EntityId) Index() uint32 {
	return uint32(e)
}

func (e EntityId) Generation() uint32 {
	return uint32(e >> 32)
}

func (e EntityId) IsNil() bool {
	return e.Generation() == 0
}

func (e EntityId) String() string {
	return strconv.FormatUint(uint64(e.Index()), 10) + "v" + strconv.FormatUint(uint64(e.Generation()), 10)
}

type slotState uint8

const (
	slotFree slotState = iota
	slotAlive
	slotPending
	slotRetired
)

type entitySlot struct {
	gen   uint32
	state slotState
}

type (
	entityOption struct {
		limit uint32
	}
	EntityOption func(o *entityOption)
)

// EntityLimit 槽位上限
func EntityLimit(limit uint32) EntityOption {
	return func(o *entityOption) {
		o.limit = limit
	}
}

func NewEntityManager(opts ...EntityOption) *EntityManager {
	o := &entityOption{
		limit: math.MaxUint32,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &EntityManager{
		option: o,
		slots:  make([]entitySlot, 0, 256),
		free:   make([]uint32, 0, 64),
	}
}

// EntityManager 只在中心协程使用
type EntityManager struct {
	option  *entityOption
	slots   []entitySlot
	free    []uint32
	alive   int
	pending int
}

// Create 优先复用已释放的槽位，代数加一
func (m *EntityManager) Create() (EntityId, *util.Err) {
	if len(m.free) > 0 {
		idx := m.free[0]
		m.free = m.free[1:]
		slot := &m.slots[idx]
		slot.gen++
		slot.state = slotAlive
		m.alive++
		id := newEntityId(idx, slot.gen)
		sprocket.Debug("reuse entity", util.M{
			"entity": id.String(),
		})
		return id, nil
	}
	if uint64(len(m.slots)) >= uint64(m.option.limit) {
		return NilEntity, util.NewErr(util.EcIdExhausted, util.M{
			"limit": m.option.limit,
		})
	}
	idx := uint32(len(m.slots))
	m.slots = append(m.slots, entitySlot{gen: 1, state: slotAlive})
	m.alive++
	return newEntityId(idx, 1), nil
}

func (m *EntityManager) slot(id EntityId) (*entitySlot, bool) {
	idx := id.Index()
	if id.IsNil() || uint64(idx) >= uint64(len(m.slots)) {
		return nil, false
	}
	slot := &m.slots[idx]
	if slot.gen != id.Generation() {
		return nil, false
	}
	return slot, true
}

// Destroy 实体不再存活，但在 Release 之前槽位不会被复用
func (m *EntityManager) Destroy(id EntityId) *util.Err {
	slot, ok := m.slot(id)
	if !ok || slot.state != slotAlive {
		return util.NewErr(util.EcStaleEntity, util.M{
			"entity": id.String(),
		})
	}
	slot.state = slotPending
	m.alive--
	m.pending++
	sprocket.Debug("destroy entity", util.M{
		"entity": id.String(),
	})
	return nil
}

// Release 所有系统确认移除后调用，槽位进入空闲列表
func (m *EntityManager) Release(id EntityId) *util.Err {
	slot, ok := m.slot(id)
	if !ok || slot.state != slotPending {
		return util.NewErr(util.EcStaleEntity, util.M{
			"entity": id.String(),
		})
	}
	m.pending--
	// 代数用尽，槽位不再复用
	if slot.gen == math.MaxUint32 {
		slot.state = slotRetired
		sprocket.Warn2(util.EcIdExhausted, util.M{
			"slot": id.Index(),
		})
		return nil
	}
	slot.state = slotFree
	m.free = append(m.free, id.Index())
	return nil
}

func (m *EntityManager) Alive(id EntityId) bool {
	slot, ok := m.slot(id)
	return ok && slot.state == slotAlive
}

func (m *EntityManager) IsPending(id EntityId) bool {
	slot, ok := m.slot(id)
	return ok && slot.state == slotPending
}

func (m *EntityManager) Count() int {
	return m.alive
}

func (m *EntityManager) Pending() int {
	return m.pending
}
