package physics

import (
	"github.com/15mga/sprocket/util"
)

// Transform 实体的位置、旋转和缩放
type Transform struct {
	Position util.Vec3 `json:"position" mapstructure:"position"`
	Rotation util.Vec4 `json:"rotation" mapstructure:"rotation"`
	Scale    util.Vec3 `json:"scale" mapstructure:"scale"`
}

func NewTransform(position util.Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: util.Vec4Identity(),
		Scale:    util.Vec3One(),
	}
}

// Matrix 世界矩阵，平移 * 旋转 * 缩放
func (t Transform) Matrix() util.Mat4 {
	return util.Mat4Mul(util.Mat4Translate(t.Position),
		util.Mat4Mul(util.Mat4Rotate(t.Rotation), util.Mat4Scale(t.Scale)))
}

type Velocity struct {
	Linear util.Vec3 `json:"linear" mapstructure:"linear"`
}
