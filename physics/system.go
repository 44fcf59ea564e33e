package physics

import (
	"github.com/15mga/sprocket/ecs"
	"github.com/15mga/sprocket/util"
)

const TypePhysics ecs.TSystem = "physics"

// Register 注册本包的组件
func Register(m *ecs.ComponentManager) *util.Err {
	if _, err := ecs.RegisterComponent[Transform](m); err != nil {
		return err
	}
	if _, err := ecs.RegisterComponent[Velocity](m); err != nil {
		return err
	}
	return nil
}

func NewSystem() *System {
	return &System{
		System: ecs.NewSystem(TypePhysics, ecs.Require[Transform](), ecs.Require[Velocity]()),
	}
}

// System 按速度积分位置，修改的 Transform 在帧末传播出去
type System struct {
	ecs.System
	transforms *ecs.ComponentArray[Transform]
	velocities *ecs.ComponentArray[Velocity]
}

func (s *System) OnStart(frame *ecs.Frame) {
	s.System.OnStart(frame)
	s.transforms, _ = ecs.Store[Transform](s)
	s.velocities, _ = ecs.Store[Velocity](s)
}

func (s *System) OnUpdate(frame *ecs.Frame) {
	s.Step(frame.DeltaSecs())
}

// Step 速度为 0 的实体不修改，避免无效传播
func (s *System) Step(dt float32) {
	for _, e := range s.Entities() {
		v, ok := s.velocities.Get(e)
		if !ok || util.Vec3Equal(v.Linear, util.Vec3Zero()) {
			continue
		}
		t, ok := s.transforms.GetMut(e)
		if !ok {
			continue
		}
		t.Position = util.Vec3Add(t.Position, util.Vec3Mul(v.Linear, dt))
	}
}
