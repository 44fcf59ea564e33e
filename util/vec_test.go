package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertVec3(t *testing.T, expected, actual Vec3) {
	t.Helper()
	assert.True(t, Vec3Equal(expected, actual), "expected %v, actual %v", expected, actual)
}

func TestVec3(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}
	assertVec3(t, Vec3{5, 7, 9}, Vec3Add(a, b))
	assertVec3(t, Vec3{-3, -3, -3}, Vec3Sub(a, b))
	assertVec3(t, Vec3{2, 4, 6}, Vec3Mul(a, 2))
	assert.Equal(t, float32(32), Vec3Dot(a, b))
	assertVec3(t, Vec3{0, 0, 1}, Vec3Cross(Vec3{1, 0, 0}, Vec3{0, 1, 0}))
	assert.True(t, Equal(5, Vec3Magnitude(Vec3{3, 4, 0})))
	assertVec3(t, Vec3{0.6, 0.8, 0}, Vec3Normalize(Vec3{3, 4, 0}))
	assertVec3(t, Vec3Zero(), Vec3Normalize(Vec3Zero()))
	assertVec3(t, Vec3{2.5, 3.5, 4.5}, Vec3Lerp(a, b, 0.5))
}

func TestVec2(t *testing.T) {
	assert.True(t, Vec2Equal(Vec2{2, 2}, Vec2Add(Vec2One(), Vec2One())))
	assert.True(t, Equal(1, Vec2Magnitude(Vec2Normalize(Vec2{3, 4}))))
	assert.Equal(t, float32(11), Vec2Dot(Vec2{1, 2}, Vec2{3, 4}))
}

func TestMat4(t *testing.T) {
	p := Vec3{1, 2, 3}
	assertVec3(t, p, Mat4TransformPoint(Mat4Identity(), p))
	assertVec3(t, Vec3{11, 2, 3}, Mat4TransformPoint(Mat4Translate(Vec3{10, 0, 0}), p))
	assertVec3(t, Vec3{2, 4, 6}, Mat4TransformPoint(Mat4Scale(Vec3{2, 2, 2}), p))

	// 绕 z 轴 90 度
	half := DegreeToRadian(45)
	q := Vec4{0, 0, Sin(half), Cos(half)}
	assertVec3(t, Vec3{0, 1, 0}, Mat4TransformPoint(Mat4Rotate(q), Vec3{1, 0, 0}))
	assertVec3(t, Vec3{1, 0, 0}, Mat4TransformPoint(Mat4Rotate(Vec4Identity()), Vec3{1, 0, 0}))

	// 先缩放再平移
	m := Mat4Mul(Mat4Translate(Vec3{1, 0, 0}), Mat4Scale(Vec3{2, 2, 2}))
	assertVec3(t, Vec3{3, 2, 2}, Mat4TransformPoint(m, Vec3{1, 1, 1}))
}

func TestMath(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(0, 1, 3))
	assert.Equal(t, float32(0), Clamp(0, 1, -3))
	assert.Equal(t, uint32(64), NextPowerOfTwo(33))
	assert.Equal(t, uint32(64), NextPowerOfTwo(64))
	assert.InDelta(t, 180, RadianToDegree(DegreeToRadian(180)), 1e-3)
}
