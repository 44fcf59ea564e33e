package util

type Vec2 struct {
	X float32
	Y float32
}

func Vec2One() Vec2 {
	return Vec2{1, 1}
}

func Vec2Equal(a, b Vec2) bool {
	return Equal(a.X, b.X) && Equal(a.Y, b.Y)
}

func Vec2Add(a, b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

func Vec2Sub(a, b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

func Vec2Mul(a Vec2, v float32) Vec2 {
	return Vec2{a.X * v, a.Y * v}
}

func Vec2Dot(a, b Vec2) float32 {
	return a.X*b.X + a.Y*b.Y
}

func Vec2Magnitude(a Vec2) float32 {
	return Sqrt(Vec2Dot(a, a))
}

func Vec2Normalize(v Vec2) Vec2 {
	m := Vec2Magnitude(v)
	if m == 0 {
		return v
	}
	return Vec2{v.X / m, v.Y / m}
}

type Vec3 struct {
	X float32
	Y float32
	Z float32
}

func Vec3Zero() Vec3 {
	return Vec3{}
}

func Vec3One() Vec3 {
	return Vec3{1, 1, 1}
}

// Vec3Forward 右手坐标系，-Z 朝前
func Vec3Forward() Vec3 {
	return Vec3{0, 0, -1}
}

func Vec3Equal(a, b Vec3) bool {
	return Equal(a.X, b.X) && Equal(a.Y, b.Y) && Equal(a.Z, b.Z)
}

func Vec3Add(a, b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Vec3Sub(a, b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Vec3Mul(a Vec3, v float32) Vec3 {
	return Vec3{a.X * v, a.Y * v, a.Z * v}
}

func Vec3Dot(a, b Vec3) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func Vec3Cross(a, b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

func Vec3Magnitude(a Vec3) float32 {
	return Sqrt(Vec3Dot(a, a))
}

func Vec3Normalize(v Vec3) Vec3 {
	m := Vec3Magnitude(v)
	if m == 0 {
		return v
	}
	return Vec3{v.X / m, v.Y / m, v.Z / m}
}

func Vec3Lerp(a, b Vec3, t float32) Vec3 {
	return Vec3{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t), Lerp(a.Z, b.Z, t)}
}

type Vec4 struct {
	X float32
	Y float32
	Z float32
	W float32
}

// Vec4Identity 单位四元数
func Vec4Identity() Vec4 {
	return Vec4{0, 0, 0, 1}
}

func Vec4Equal(a, b Vec4) bool {
	return Equal(a.X, b.X) && Equal(a.Y, b.Y) && Equal(a.Z, b.Z) && Equal(a.W, b.W)
}

func Vec4XYZ(v Vec4) Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

func Vec4Dot(a, b Vec4) float32 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

func Vec4Normalize(v Vec4) Vec4 {
	m := Sqrt(Vec4Dot(v, v))
	if m == 0 {
		return v
	}
	return Vec4{v.X / m, v.Y / m, v.Z / m, v.W / m}
}
