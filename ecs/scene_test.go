package ecs

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/util"
)

type recordSystem struct {
	System
	added   []EntityId
	removed []EntityId
	changed []ComponentTypeId
	update  func(s *recordSystem, f *Frame)
}

func newRecordSystem(typ TSystem, reqs ...Requirement) *recordSystem {
	s := &recordSystem{
		System: NewSystem(typ, reqs...),
	}
	s.BindAdded(func(e EntityId) {
		s.added = append(s.added, e)
	})
	s.BindRemoved(func(e EntityId) {
		s.removed = append(s.removed, e)
	})
	s.BindChanged(func(e EntityId, id ComponentTypeId) {
		s.changed = append(s.changed, id)
	})
	return s
}

func (s *recordSystem) OnUpdate(f *Frame) {
	if s.update != nil {
		s.update(s, f)
	}
}

func newTestScene(t *testing.T, systems ...ISystem) *Scene {
	scene := NewScene("test", "test")
	_, err := RegisterComponent[testPos](scene.Components())
	require.Nil(t, err)
	_, err = RegisterComponent[testVel](scene.Components())
	require.Nil(t, err)
	_, err = RegisterComponent[testMesh](scene.Components())
	require.Nil(t, err)
	for _, sys := range systems {
		require.Nil(t, scene.AddSystem(sys))
	}
	require.Nil(t, scene.Boot())
	t.Cleanup(scene.Dispose)
	return scene
}

func TestSceneAdmission(t *testing.T) {
	renderer := newRecordSystem("renderer", Require[testPos](), Require[testMesh]())
	scene := newTestScene(t, renderer)

	e, err := scene.CreateEntity()
	require.Nil(t, err)
	assert.Nil(t, SceneInsert(scene, e, testPos{X: 1, Y: 2}))
	scene.Manager().Sync()
	renderer.Receive()
	assert.Empty(t, renderer.added)
	assert.False(t, renderer.Has(e))

	assert.Nil(t, SceneInsert(scene, e, testMesh{Path: "cube.mesh"}))
	scene.Manager().Sync()
	renderer.Receive()
	assert.Equal(t, []EntityId{e}, renderer.added)
	assert.Equal(t, 1, scene.Manager().MemberCount("renderer"))

	// 加入时本地组件已是完整快照
	pos, ok := Store[testPos](renderer)
	require.True(t, ok)
	v, ok := pos.Get(e)
	assert.True(t, ok)
	assert.Equal(t, testPos{X: 1, Y: 2}, v)
	mesh, _ := Store[testMesh](renderer)
	m, _ := mesh.Get(e)
	assert.Equal(t, "cube.mesh", m.Path)
	_, ok = Store[testVel](renderer)
	assert.False(t, ok)
}

func TestScenePropagation(t *testing.T) {
	physics := newRecordSystem("physics", Require[testPos](), Require[testVel]())
	physics.update = func(s *recordSystem, f *Frame) {
		pos, _ := Store[testPos](s)
		vel, _ := Store[testVel](s)
		for _, e := range s.Entities() {
			v, _ := vel.Get(e)
			p, _ := pos.GetMut(e)
			p.X += v.X
			p.Y += v.Y
		}
	}
	renderer := newRecordSystem("renderer", Require[testPos](), Require[testMesh]())
	scene := newTestScene(t, physics, renderer)

	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{})
	_ = SceneInsert(scene, e, testVel{X: 1, Y: 2})
	_ = SceneInsert(scene, e, testMesh{Path: "cube.mesh"})
	// 插入产生的脏数据先发出去
	scene.Flush()
	scene.Manager().Sync()
	renderer.Receive()
	renderer.changed = nil

	frame := NewSystemFrame(physics)
	frame.Step()
	scene.Manager().Sync()

	renderer.Receive()
	posId, _ := TypeIdOf[testPos](scene.Types())
	assert.Equal(t, []ComponentTypeId{posId}, renderer.changed)
	pos, _ := Store[testPos](renderer)
	v, _ := pos.Get(e)
	assert.Equal(t, testPos{X: 1, Y: 2}, v)
	// 收到的数据不会标记为脏
	assert.False(t, pos.IsDirty(e))

	// 不回传给来源
	assert.Equal(t, 0, physics.Mailbox().Len())

	scene.Receive()
	central, _ := SceneGet[testPos](scene, e)
	assert.Equal(t, testPos{X: 1, Y: 2}, central)
	assert.Equal(t, 0, scene.Flush())
}

func TestSceneAdmissionBeforeCentralApplies(t *testing.T) {
	mover := newRecordSystem("mover", Require[testPos]())
	renderer := newRecordSystem("renderer", Require[testPos](), Require[testMesh]())
	scene := newTestScene(t, mover, renderer)

	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{X: 1})
	scene.Flush()
	scene.Manager().Sync()
	mover.Receive()
	require.True(t, mover.Has(e))

	pos, _ := Store[testPos](mover)
	p, _ := pos.GetMut(e)
	p.X = 42
	mover.Flush()
	scene.Manager().Sync()
	assert.Equal(t, 1, scene.Manager().InflightCount())

	// 中心还没应用 mover 的变更，renderer 先加入
	_ = SceneInsert(scene, e, testMesh{Path: "cube.mesh"})
	scene.Manager().Sync()
	renderer.Receive()
	require.True(t, renderer.Has(e))
	rpos, _ := Store[testPos](renderer)
	v, _ := rpos.Get(e)
	assert.Equal(t, float32(42), v.X)

	scene.Receive()
	central, _ := SceneGet[testPos](scene, e)
	assert.Equal(t, float32(42), central.X)
	scene.Flush()
	scene.Manager().Sync()
	assert.Equal(t, 0, scene.Manager().InflightCount())

	// 中心改了值之后再加入，用中心快照
	_, _ = SceneRemove[testMesh](scene, e)
	scene.Manager().Sync()
	renderer.Receive()
	cp, _ := SceneGetMut[testPos](scene, e)
	cp.X = 7
	scene.Flush()
	_ = SceneInsert(scene, e, testMesh{Path: "cube.mesh"})
	scene.Manager().Sync()
	renderer.Receive()
	v, _ = rpos.Get(e)
	assert.Equal(t, float32(7), v.X)
}

func TestSceneInflightSuperseded(t *testing.T) {
	mover := newRecordSystem("mover", Require[testPos]())
	renderer := newRecordSystem("renderer", Require[testPos](), Require[testMesh]())
	scene := newTestScene(t, mover, renderer)

	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{X: 1})
	scene.Flush()
	scene.Manager().Sync()
	mover.Receive()

	pos, _ := Store[testPos](mover)
	p, _ := pos.GetMut(e)
	p.X = 2
	mover.Flush()
	scene.Manager().Sync()
	scene.Receive()

	// 中心应用后自己又改了，旧的系统变更不能盖过中心的值
	cp, _ := SceneGetMut[testPos](scene, e)
	cp.X = 3
	scene.Flush()
	_ = SceneInsert(scene, e, testMesh{})
	scene.Manager().Sync()
	renderer.Receive()
	rpos, _ := Store[testPos](renderer)
	v, _ := rpos.Get(e)
	assert.Equal(t, float32(3), v.X)
	assert.Equal(t, 0, scene.Manager().InflightCount())
}

func TestSceneRemoval(t *testing.T) {
	renderer := newRecordSystem("renderer", Require[testPos](), Require[testMesh]())
	scene := newTestScene(t, renderer)

	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{})
	_ = SceneInsert(scene, e, testMesh{Path: "cube.mesh"})
	scene.Manager().Sync()
	renderer.Receive()
	require.True(t, renderer.Has(e))

	_, err := SceneRemove[testMesh](scene, e)
	assert.Nil(t, err)
	scene.Manager().Sync()
	renderer.Receive()
	assert.Equal(t, []EntityId{e}, renderer.removed)
	assert.False(t, renderer.Has(e))
	pos, _ := Store[testPos](renderer)
	assert.False(t, pos.Has(e))
	assert.Equal(t, 0, scene.Manager().MemberCount("renderer"))

	// 实体没有被销毁，不会回收
	scene.Manager().Sync()
	scene.Receive()
	assert.True(t, scene.Alive(e))
}

func TestSceneDeferredRelease(t *testing.T) {
	renderer := newRecordSystem("renderer", Require[testPos]())
	scene := newTestScene(t, renderer)

	var released []EntityId
	scene.BindEntityReleased(func(e EntityId) {
		released = append(released, e)
	})

	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{})
	scene.Manager().Sync()
	renderer.Receive()

	assert.Nil(t, scene.DestroyEntity(e))
	assert.False(t, scene.Alive(e))
	assert.True(t, util.IsErrCode(scene.DestroyEntity(e), util.EcStaleEntity))
	scene.Manager().Sync()
	scene.Receive()
	assert.True(t, scene.Entities().IsPending(e))
	assert.Empty(t, released)

	renderer.Receive()
	scene.Manager().Sync()
	scene.Receive()
	assert.Equal(t, []EntityId{e}, released)
	assert.False(t, scene.Entities().IsPending(e))

	reused, _ := scene.CreateEntity()
	assert.Equal(t, e.Index(), reused.Index())
	assert.Equal(t, e.Generation()+1, reused.Generation())
}

func TestSceneReleaseWithoutMembers(t *testing.T) {
	renderer := newRecordSystem("renderer", Require[testPos](), Require[testMesh]())
	scene := newTestScene(t, renderer)

	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{})
	assert.Nil(t, scene.DestroyEntity(e))
	scene.Manager().Sync()
	scene.Receive()
	assert.False(t, scene.Entities().IsPending(e))
}

func TestSceneReleaseAfterRemoveThenDestroy(t *testing.T) {
	renderer := newRecordSystem("renderer", Require[testPos](), Require[testMesh]())
	scene := newTestScene(t, renderer)

	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{})
	_ = SceneInsert(scene, e, testMesh{})
	scene.Manager().Sync()
	renderer.Receive()

	// 移除还没确认就销毁，需要等这次确认
	_, _ = SceneRemove[testMesh](scene, e)
	_ = scene.DestroyEntity(e)
	scene.Manager().Sync()
	scene.Receive()
	assert.True(t, scene.Entities().IsPending(e))

	renderer.Receive()
	scene.Manager().Sync()
	scene.Receive()
	assert.False(t, scene.Entities().IsPending(e))
}

func TestSceneUnregisterConfirms(t *testing.T) {
	renderer := newRecordSystem("renderer", Require[testPos]())
	scene := newTestScene(t, renderer)

	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{})
	_ = scene.DestroyEntity(e)

	frame := NewSystemFrame(renderer)
	frame.Stop()
	<-frame.Done()
	assert.True(t, renderer.Mailbox().Closed())

	scene.Manager().Sync()
	scene.Receive()
	assert.False(t, scene.Entities().IsPending(e))
	assert.Equal(t, int64(0), scene.Manager().Missed())
}

func TestSceneMissedDelivery(t *testing.T) {
	renderer := newRecordSystem("renderer", Require[testPos]())
	physics := newRecordSystem("physics", Require[testPos]())
	scene := newTestScene(t, renderer, physics)

	renderer.Mailbox().Close()
	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{})
	scene.Manager().Sync()
	assert.Equal(t, int64(1), scene.Manager().Missed())

	// 其他系统不受影响
	physics.Receive()
	assert.True(t, physics.Has(e))
}

func TestSceneCommands(t *testing.T) {
	spawner := newRecordSystem("spawner", Require[testPos]())
	spawner.update = func(s *recordSystem, f *Frame) {
		if f.Num() != 1 {
			return
		}
		c, err := EncodeComponent(s.Types(), testPos{X: 7})
		if err != nil {
			panic(err)
		}
		s.RequestSpawn(c)
	}
	scene := newTestScene(t, spawner)

	frame := NewSystemFrame(spawner)
	frame.Step()
	scene.Manager().Sync()
	scene.Receive()
	require.Equal(t, 1, scene.Entities().Count())

	scene.Manager().Sync()
	frame.Step()
	require.Len(t, spawner.added, 1)
	e := spawner.added[0]
	pos, _ := Store[testPos](spawner)
	v, _ := pos.Get(e)
	assert.Equal(t, float32(7), v.X)

	// 覆盖已有组件
	assert.Nil(t, RequestInsert(spawner, e, testPos{X: 8}))
	spawner.RequestDestroy(newEntityId(99, 1))
	spawner.Flush()
	scene.Manager().Sync()
	scene.Receive()
	central, _ := SceneGet[testPos](scene, e)
	assert.Equal(t, float32(8), central.X)
	assert.Equal(t, 1, scene.Flush())

	spawner.RequestDestroy(e)
	spawner.Flush()
	scene.Manager().Sync()
	scene.Receive()
	assert.False(t, scene.Alive(e))
	frame.Stop()
}

func TestSceneSpawnRollback(t *testing.T) {
	spawner := newRecordSystem("spawner", Require[testPos]())
	scene := newTestScene(t, spawner)

	good, err := EncodeComponent(scene.Types(), testPos{X: 1})
	require.Nil(t, err)
	// 第二个组件解不开，实体整体回滚
	spawner.RequestSpawn(good, ComponentData{Type: good.Type + 1, Data: []byte("{")})
	spawner.RequestSpawn(good, ComponentData{Type: 100, Data: []byte("{}")})
	spawner.Flush()
	scene.Manager().Sync()
	scene.Receive()
	assert.Equal(t, 0, scene.Entities().Count())
	assert.Equal(t, 2, scene.Entities().Pending())
	assert.Equal(t, 0, scene.Components().EntityCount())

	// 已经加入的系统收到移除，确认后回收
	scene.Manager().Sync()
	spawner.Receive()
	assert.Empty(t, spawner.Entities())
	scene.Manager().Sync()
	scene.Receive()
	assert.Equal(t, 0, scene.Entities().Pending())
}

type errLogger struct {
	mtx  sync.Mutex
	msgs []string
}

func (l *errLogger) Log(level sprocket.TLevel, msg, caller string, stack []byte, params util.M) {
	if level != sprocket.TError {
		return
	}
	l.mtx.Lock()
	l.msgs = append(l.msgs, msg)
	l.mtx.Unlock()
}

func (l *errLogger) errors() []string {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return append([]string(nil), l.msgs...)
}

type brokenCodec struct{}

func (brokenCodec) Marshal(testVel) ([]byte, *util.Err) {
	return nil, util.NewErr(util.EcMarshallErr, nil)
}

func (brokenCodec) Unmarshal([]byte) (testVel, *util.Err) {
	return testVel{}, nil
}

func TestSnapshotLogsEncodeFailure(t *testing.T) {
	logger := &errLogger{}
	sprocket.AddLogger(logger)
	t.Cleanup(sprocket.ClearLoggers)

	cm := NewComponentManager(NewTypeRegistry())
	posId, _ := RegisterComponent[testPos](cm)
	velId, _ := RegisterComponent[testVel](cm, ComponentCodec[testVel](brokenCodec{}))
	e := newEntityId(0, 1)
	require.Nil(t, Insert(cm, e, testPos{X: 1}))
	require.Nil(t, Insert(cm, e, testVel{X: 1}))

	snapshot := cm.Snapshot(e, NewSignature(posId, velId))
	require.Len(t, snapshot, 1)
	assert.Equal(t, posId, snapshot[0].Type)
	assert.Contains(t, logger.errors(), "marshall_error")
}

func TestSceneIgnoresStaleUpdate(t *testing.T) {
	physics := newRecordSystem("physics", Require[testPos]())
	physics.update = func(s *recordSystem, f *Frame) {
		pos, _ := Store[testPos](s)
		for _, e := range s.Entities() {
			p, _ := pos.GetMut(e)
			p.X++
		}
	}
	scene := newTestScene(t, physics)
	e, _ := scene.CreateEntity()
	_ = SceneInsert(scene, e, testPos{})
	scene.Manager().Sync()

	// 系统提交时中心已经删除了组件
	physics.Receive()
	_, _ = SceneRemove[testPos](scene, e)
	physics.OnUpdate(nil)
	physics.Flush()
	scene.Manager().Sync()
	scene.Receive()
	_, ok := SceneGet[testPos](scene, e)
	assert.False(t, ok)
	assert.Equal(t, 0, scene.Signature(e).Count())
}

func TestSceneBootOnce(t *testing.T) {
	scene := newTestScene(t)
	assert.True(t, util.IsErrCode(scene.Boot(), util.EcIllegalOp))
	late := newRecordSystem("late", Require[testPos]())
	assert.True(t, util.IsErrCode(scene.AddSystem(late), util.EcRegistrationClosed))
	_, err := RegisterComponent[struct{ A int }](scene.Components())
	assert.True(t, util.IsErrCode(err, util.EcRegistrationClosed))
}

func TestSceneBeforeDestroy(t *testing.T) {
	scene := newTestScene(t)
	var created []EntityId
	scene.BindAfterCreateEntity(func(e EntityId) {
		created = append(created, e)
	})
	scene.BindBeforeDestroyEntity(func(e EntityId) *util.Err {
		return util.NewErr(util.EcIllegalOp, nil)
	})
	e, _ := scene.CreateEntity()
	assert.Equal(t, []EntityId{e}, created)
	assert.True(t, util.IsErrCode(scene.DestroyEntity(e), util.EcIllegalOp))
	assert.True(t, scene.Alive(e))
}

func TestSystemManagerRegister(t *testing.T) {
	m := NewSystemManager(nil)
	sig := NewSignature(0)
	sys := NewSystem("a")
	mailbox := sys.Mailbox()
	assert.Nil(t, m.RegisterSystem("a", sig, mailbox))
	assert.True(t, util.IsErrCode(m.RegisterSystem("a", sig, mailbox), util.EcExist))
	assert.True(t, util.IsErrCode(m.RegisterSystem("b", Signature{}, mailbox), util.EcParamsErr))
	assert.True(t, util.IsErrCode(m.RegisterSystem(Central, sig, mailbox), util.EcParamsErr))
	m.Close()
	assert.True(t, util.IsErrCode(m.RegisterSystem("c", sig, mailbox), util.EcRegistrationClosed))
	assert.Equal(t, []TSystem{"a"}, m.Systems())
	m.Dispose()
}

type countTicker struct {
	ticks   atomic.Int32
	stopped atomic.Bool
	panicAt int32
}

func (c *countTicker) Name() string {
	return "count"
}

func (c *countTicker) Start(frame *Frame) {
}

func (c *countTicker) Tick(frame *Frame) {
	if c.ticks.Add(1) == c.panicAt {
		panic("boom")
	}
}

func (c *countTicker) Stop(frame *Frame) {
	c.stopped.Store(true)
}

func (c *countTicker) Signal() <-chan struct{} {
	return nil
}

func TestFrameMax(t *testing.T) {
	ticker := &countTicker{}
	var disposed atomic.Bool
	frame := NewFrame(ticker, FrameTickDur(time.Millisecond), FrameMax(3),
		FrameBeforeDispose(func(f *Frame) {
			disposed.Store(true)
		}))
	frame.Start()
	select {
	case <-frame.Done():
	case <-time.After(time.Second):
		t.Fatal("frame not stopped")
	}
	assert.Equal(t, int32(3), ticker.ticks.Load())
	assert.Equal(t, int64(3), frame.Num())
	assert.True(t, ticker.stopped.Load())
	assert.True(t, disposed.Load())
}

func TestFrameRecover(t *testing.T) {
	ticker := &countTicker{panicAt: 2}
	frame := NewFrame(ticker, FrameTickDur(time.Millisecond))
	frame.Start()
	select {
	case <-frame.Done():
	case <-time.After(time.Second):
		t.Fatal("frame not stopped")
	}
	assert.Equal(t, int32(2), ticker.ticks.Load())
	assert.True(t, ticker.stopped.Load())
}

func TestFrameHooks(t *testing.T) {
	frame := NewFrame(&countTicker{})
	var order []string
	frame.Before().Push(func() {
		order = append(order, "before")
	})
	frame.After().Push(func() {
		order = append(order, "after")
	})
	assert.True(t, frame.Step())
	assert.True(t, frame.Step())
	assert.Equal(t, []string{"before", "after"}, order)
	frame.Stop()
	<-frame.Done()
}

func TestSceneFrameEventDriven(t *testing.T) {
	scene := NewScene("event", "test")
	_, _ = RegisterComponent[testPos](scene.Components())
	frame := NewFrame(scene, FrameEventDriven())
	frame.Start()
	frame.Stop()
	<-frame.Done()
	assert.True(t, scene.Booted())
	assert.True(t, scene.Mailbox().Closed())
}
