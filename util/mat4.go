package util

// Mat4 列主序，Cols[c][r]
type Mat4 struct {
	Cols [4]Vec4
}

func Mat4Identity() Mat4 {
	return Mat4{Cols: [4]Vec4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}}
}

func Mat4Translate(v Vec3) Mat4 {
	m := Mat4Identity()
	m.Cols[3] = Vec4{v.X, v.Y, v.Z, 1}
	return m
}

func Mat4Scale(v Vec3) Mat4 {
	return Mat4{Cols: [4]Vec4{
		{v.X, 0, 0, 0},
		{0, v.Y, 0, 0},
		{0, 0, v.Z, 0},
		{0, 0, 0, 1},
	}}
}

// Mat4Rotate 由单位四元数生成旋转矩阵
func Mat4Rotate(q Vec4) Mat4 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return Mat4{Cols: [4]Vec4{
		{1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w), 0},
		{2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w), 0},
		{2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y), 0},
		{0, 0, 0, 1},
	}}
}

func (m Mat4) Row(r int) Vec4 {
	switch r {
	case 0:
		return Vec4{m.Cols[0].X, m.Cols[1].X, m.Cols[2].X, m.Cols[3].X}
	case 1:
		return Vec4{m.Cols[0].Y, m.Cols[1].Y, m.Cols[2].Y, m.Cols[3].Y}
	case 2:
		return Vec4{m.Cols[0].Z, m.Cols[1].Z, m.Cols[2].Z, m.Cols[3].Z}
	default:
		return Vec4{m.Cols[0].W, m.Cols[1].W, m.Cols[2].W, m.Cols[3].W}
	}
}

func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	rows := [4]Vec4{a.Row(0), a.Row(1), a.Row(2), a.Row(3)}
	for c := 0; c < 4; c++ {
		col := b.Cols[c]
		m.Cols[c] = Vec4{
			Vec4Dot(rows[0], col),
			Vec4Dot(rows[1], col),
			Vec4Dot(rows[2], col),
			Vec4Dot(rows[3], col),
		}
	}
	return m
}

func Mat4MulVec4(m Mat4, v Vec4) Vec4 {
	return Vec4{
		Vec4Dot(m.Row(0), v),
		Vec4Dot(m.Row(1), v),
		Vec4Dot(m.Row(2), v),
		Vec4Dot(m.Row(3), v),
	}
}

// Mat4TransformPoint w 取 1
func Mat4TransformPoint(m Mat4, p Vec3) Vec3 {
	return Vec4XYZ(Mat4MulVec4(m, Vec4{p.X, p.Y, p.Z, 1}))
}
