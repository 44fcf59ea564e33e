package ecs

import (
	"sync"
	"sync/atomic"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/ds"
	"github.com/15mga/sprocket/util"
	"github.com/15mga/sprocket/worker"
)

type routeKind uint8

const (
	routeSignature routeKind = iota
	routeDestroy
	routeUpdates
	routeCommands
	routeConfirm
	routeUnregister
	routeSync
	routeMembers
	routeApplied
	routeInflight
)

type routeMsg struct {
	kind     routeKind
	entity   EntityId
	old, new Signature
	snapshot []ComponentData
	from     TSystem
	updates  []Update
	commands []Command
	seq      uint64
	done     chan struct{}
	result   chan int
}

// inflight 已发往中心但中心还没应用的系统变更
type inflight struct {
	seq  uint64
	data []byte
}

type inflightKey struct {
	entity EntityId
	typ    ComponentTypeId
	seq    uint64
}

type systemEntry struct {
	typ     TSystem
	sig     Signature
	mailbox *worker.Mailbox[Event]
	members map[EntityId]struct{}
	// 已投递但还没确认的 EvtEntityRemoved 数量
	removing map[EntityId]int
	dead     bool
}

func NewSystemManager(central *worker.Mailbox[Event]) *SystemManager {
	m := &SystemManager{
		typeToEntry: make(map[TSystem]*systemEntry, 8),
		central:     central,
		pending:     make(map[EntityId]map[TSystem]struct{}, 64),
		inflight:    make(map[EntityId]map[ComponentTypeId]inflight, 64),
		inflightSeq: ds.NewLink[inflightKey](),
	}
	m.router = worker.NewWorker[routeMsg](m.route)
	return m
}

// SystemManager 进程内唯一的路由，注册阶段结束后由一个协程独占全部路由状态
type SystemManager struct {
	mtx         sync.RWMutex
	entries     []*systemEntry
	typeToEntry map[TSystem]*systemEntry
	closed      bool
	central     *worker.Mailbox[Event]
	router      *worker.Worker[routeMsg]
	pending     map[EntityId]map[TSystem]struct{}
	seq         uint64
	inflight    map[EntityId]map[ComponentTypeId]inflight
	inflightSeq *ds.Link[inflightKey]
	missed      atomic.Int64
}

// RegisterSystem 只能在 Close 之前调用
func (m *SystemManager) RegisterSystem(typ TSystem, sig Signature, mailbox *worker.Mailbox[Event]) *util.Err {
	if typ == "" || typ == Central || mailbox == nil {
		return util.NewErr(util.EcParamsErr, util.M{
			"system": typ,
		})
	}
	if sig.IsEmpty() {
		return util.NewErr(util.EcParamsErr, util.M{
			"system": typ,
			"error":  "empty signature",
		})
	}
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if m.closed {
		return util.NewErr(util.EcRegistrationClosed, util.M{
			"system": typ,
		})
	}
	if _, ok := m.typeToEntry[typ]; ok {
		return util.NewErr(util.EcExist, util.M{
			"system": typ,
		})
	}
	entry := &systemEntry{
		typ:      typ,
		sig:      sig,
		mailbox:  mailbox,
		members:  make(map[EntityId]struct{}, 64),
		removing: make(map[EntityId]int, 8),
	}
	m.entries = append(m.entries, entry)
	m.typeToEntry[typ] = entry
	sprocket.Info("register system", util.M{
		"system":    typ,
		"signature": sig.String(),
	})
	return nil
}

// Close 结束注册并启动路由协程
func (m *SystemManager) Close() {
	m.mtx.Lock()
	if m.closed {
		m.mtx.Unlock()
		return
	}
	m.closed = true
	m.mtx.Unlock()
	m.router.Start()
}

func (m *SystemManager) Closed() bool {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.closed
}

func (m *SystemManager) Signature(typ TSystem) (Signature, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	entry, ok := m.typeToEntry[typ]
	if !ok {
		return Signature{}, false
	}
	return entry.sig, true
}

func (m *SystemManager) Systems() []TSystem {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	types := make([]TSystem, len(m.entries))
	for i, entry := range m.entries {
		types[i] = entry.typ
	}
	return types
}

// Admitting 签名从 old 变成 new 时新满足的系统签名的并集，用来决定快照范围
func (m *SystemManager) Admitting(old, new Signature) Signature {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	var need Signature
	for _, entry := range m.entries {
		if !old.Contains(entry.sig) && new.Contains(entry.sig) {
			need = need.Union(entry.sig)
		}
	}
	return need
}

func (m *SystemManager) SignatureChanged(e EntityId, old, new Signature, snapshot []ComponentData) {
	m.router.Push(routeMsg{
		kind:     routeSignature,
		entity:   e,
		old:      old,
		new:      new,
		snapshot: snapshot,
	})
}

// Destroyed 通知所有持有实体的系统移除，全部确认后中心收到 EvtEntityReleased
func (m *SystemManager) Destroyed(e EntityId) {
	m.router.Push(routeMsg{
		kind:   routeDestroy,
		entity: e,
	})
}

// Publish 一帧的脏数据，from 为 Central 时表示来自中心存储
func (m *SystemManager) Publish(from TSystem, updates []Update) {
	if len(updates) == 0 {
		return
	}
	m.router.Push(routeMsg{
		kind:    routeUpdates,
		from:    from,
		updates: updates,
	})
}

func (m *SystemManager) Commands(from TSystem, commands []Command) {
	if len(commands) == 0 {
		return
	}
	m.router.Push(routeMsg{
		kind:     routeCommands,
		from:     from,
		commands: commands,
	})
}

// Applied 中心已应用序号不超过 seq 的系统变更
func (m *SystemManager) Applied(seq uint64) {
	if seq == 0 {
		return
	}
	m.router.Push(routeMsg{
		kind: routeApplied,
		seq:  seq,
	})
}

// ConfirmRemoved 系统处理完 EvtEntityRemoved 后调用
func (m *SystemManager) ConfirmRemoved(from TSystem, e EntityId) {
	m.router.Push(routeMsg{
		kind:   routeConfirm,
		from:   from,
		entity: e,
	})
}

// Unregister 系统退出，邮箱关闭并丢弃未处理的事件
func (m *SystemManager) Unregister(typ TSystem) {
	if !m.router.Push(routeMsg{
		kind: routeUnregister,
		from: typ,
	}) {
		return
	}
	if !m.Closed() {
		return
	}
	m.Sync()
}

// Sync 阻塞到调用前入队的消息全部路由完成
func (m *SystemManager) Sync() {
	if !m.Closed() {
		return
	}
	done := make(chan struct{})
	if !m.router.Push(routeMsg{
		kind: routeSync,
		done: done,
	}) {
		return
	}
	select {
	case <-done:
	case <-m.router.Done():
	}
}

// MemberCount 系统当前持有的实体数，路由视角
func (m *SystemManager) MemberCount(typ TSystem) int {
	if !m.Closed() {
		return 0
	}
	result := make(chan int, 1)
	if !m.router.Push(routeMsg{
		kind:   routeMembers,
		from:   typ,
		result: result,
	}) {
		return 0
	}
	select {
	case n := <-result:
		return n
	case <-m.router.Done():
		return 0
	}
}

// Missed 投递失败的次数
func (m *SystemManager) Missed() int64 {
	return m.missed.Load()
}

func (m *SystemManager) Dispose() {
	m.router.Dispose()
	if m.Closed() {
		<-m.router.Done()
	}
}

func (m *SystemManager) route(msg routeMsg) {
	switch msg.kind {
	case routeSignature:
		m.onSignature(msg)
	case routeDestroy:
		m.onDestroy(msg.entity)
	case routeUpdates:
		m.onUpdates(msg.from, msg.updates)
	case routeCommands:
		for _, cmd := range msg.commands {
			m.deliverCentral(Event{
				Kind:    EvtCommand,
				Entity:  cmd.Entity,
				Command: cmd,
				From:    msg.from,
			})
		}
	case routeConfirm:
		m.onConfirm(msg.from, msg.entity)
	case routeUnregister:
		m.onUnregister(msg.from)
	case routeSync:
		close(msg.done)
	case routeMembers:
		n := 0
		if entry, ok := m.typeToEntry[msg.from]; ok {
			n = len(entry.members)
		}
		msg.result <- n
	case routeApplied:
		m.onApplied(msg.seq)
	case routeInflight:
		n := 0
		for _, types := range m.inflight {
			n += len(types)
		}
		msg.result <- n
	}
}

func (m *SystemManager) onSignature(msg routeMsg) {
	e := msg.entity
	for _, entry := range m.entries {
		if entry.dead {
			continue
		}
		_, member := entry.members[e]
		match := msg.new.Contains(entry.sig)
		switch {
		case match && !member:
			entry.members[e] = struct{}{}
			components := make([]ComponentData, 0, entry.sig.Count())
			for _, c := range msg.snapshot {
				if !entry.sig.Test(c.Type) {
					continue
				}
				// 快照可能早于中心应用系统变更，用路由看到的最新值
				if f, ok := m.inflight[e][c.Type]; ok {
					c.Data = f.data
				}
				components = append(components, c)
			}
			m.deliver(entry, Event{
				Kind:       EvtEntityAdded,
				Entity:     e,
				Components: components,
				From:       Central,
			})
		case !match && member:
			delete(entry.members, e)
			m.deliverRemoved(entry, e)
		}
	}
}

func (m *SystemManager) onDestroy(e EntityId) {
	delete(m.inflight, e)
	var waiting map[TSystem]struct{}
	for _, entry := range m.entries {
		if entry.dead {
			continue
		}
		if _, ok := entry.members[e]; ok {
			delete(entry.members, e)
			m.deliverRemoved(entry, e)
		}
		if entry.removing[e] == 0 {
			continue
		}
		if waiting == nil {
			waiting = make(map[TSystem]struct{}, 2)
		}
		waiting[entry.typ] = struct{}{}
	}
	if len(waiting) == 0 {
		m.release(e)
		return
	}
	m.pending[e] = waiting
}

func (m *SystemManager) onConfirm(from TSystem, e EntityId) {
	entry, ok := m.typeToEntry[from]
	if !ok || entry.dead {
		return
	}
	if n := entry.removing[e]; n > 1 {
		entry.removing[e] = n - 1
		return
	}
	delete(entry.removing, e)
	waiting, ok := m.pending[e]
	if !ok {
		return
	}
	delete(waiting, from)
	if len(waiting) == 0 {
		delete(m.pending, e)
		m.release(e)
	}
}

func (m *SystemManager) onUnregister(typ TSystem) {
	entry, ok := m.typeToEntry[typ]
	if !ok || entry.dead {
		return
	}
	entry.dead = true
	discarded := entry.mailbox.Close()
	clear(entry.members)
	clear(entry.removing)
	sprocket.Info("unregister system", util.M{
		"system":    typ,
		"discarded": discarded,
	})
	for e, waiting := range m.pending {
		if _, ok := waiting[typ]; !ok {
			continue
		}
		delete(waiting, typ)
		if len(waiting) == 0 {
			delete(m.pending, e)
			m.release(e)
		}
	}
}

func (m *SystemManager) onUpdates(from TSystem, updates []Update) {
	for _, u := range updates {
		data := ComponentData{Type: u.Type, Data: u.Data}
		if from == Central {
			m.forget(u.Entity, u.Type)
		} else {
			m.seq++
			if m.deliverCentral(Event{
				Kind:   EvtComponentUpdate,
				Entity: u.Entity,
				Update: data,
				From:   from,
				Seq:    m.seq,
			}) {
				m.remember(u, m.seq)
			}
		}
		for _, entry := range m.entries {
			if entry.dead || entry.typ == from || !entry.sig.Test(u.Type) {
				continue
			}
			if _, ok := entry.members[u.Entity]; !ok {
				continue
			}
			m.deliver(entry, Event{
				Kind:   EvtComponentUpdate,
				Entity: u.Entity,
				Update: data,
				From:   from,
			})
		}
	}
}

func (m *SystemManager) remember(u Update, seq uint64) {
	types, ok := m.inflight[u.Entity]
	if !ok {
		types = make(map[ComponentTypeId]inflight, 2)
		m.inflight[u.Entity] = types
	}
	types[u.Type] = inflight{seq: seq, data: u.Data}
	m.inflightSeq.Push(inflightKey{entity: u.Entity, typ: u.Type, seq: seq})
}

func (m *SystemManager) forget(e EntityId, id ComponentTypeId) {
	types, ok := m.inflight[e]
	if !ok {
		return
	}
	delete(types, id)
	if len(types) == 0 {
		delete(m.inflight, e)
	}
}

func (m *SystemManager) onApplied(seq uint64) {
	for {
		k, ok := m.inflightSeq.Head()
		if !ok || k.seq > seq {
			return
		}
		m.inflightSeq.Pop()
		// 同一组件之后又有新的变更时保留
		if f, ok := m.inflight[k.entity][k.typ]; ok && f.seq == k.seq {
			m.forget(k.entity, k.typ)
		}
	}
}

// InflightCount 中心还没应用的系统变更数，路由视角
func (m *SystemManager) InflightCount() int {
	if !m.Closed() {
		return 0
	}
	result := make(chan int, 1)
	if !m.router.Push(routeMsg{
		kind:   routeInflight,
		result: result,
	}) {
		return 0
	}
	select {
	case n := <-result:
		return n
	case <-m.router.Done():
		return 0
	}
}

func (m *SystemManager) release(e EntityId) {
	m.deliverCentral(Event{
		Kind:   EvtEntityReleased,
		Entity: e,
		From:   Central,
	})
}

func (m *SystemManager) deliverRemoved(entry *systemEntry, e EntityId) {
	if m.deliver(entry, Event{
		Kind:   EvtEntityRemoved,
		Entity: e,
		From:   Central,
	}) {
		entry.removing[e]++
	}
}

func (m *SystemManager) deliver(entry *systemEntry, evt Event) bool {
	if entry.mailbox.Push(evt) {
		return true
	}
	m.missed.Add(1)
	sprocket.Warn2(util.EcMissedDelivery, util.M{
		"system": entry.typ,
		"event":  evt.Kind.String(),
		"entity": evt.Entity.String(),
	})
	return false
}

func (m *SystemManager) deliverCentral(evt Event) bool {
	if m.central.Push(evt) {
		return true
	}
	m.missed.Add(1)
	sprocket.Warn2(util.EcMissedDelivery, util.M{
		"system": Central,
		"event":  evt.Kind.String(),
		"entity": evt.Entity.String(),
	})
	return false
}
