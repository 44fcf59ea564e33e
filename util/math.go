package util

import "math"

const (
	Rad2Deg float32 = 180 / math.Pi
	Deg2Rad float32 = math.Pi / 180
	Eps     float32 = 1e-5
)

func RadianToDegree(radian float32) float32 {
	return radian * Rad2Deg
}

func DegreeToRadian(angle float32) float32 {
	return angle * Deg2Rad
}

func Clamp(min, max, v float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func Abs(d float32) float32 {
	return math.Float32frombits(math.Float32bits(d) &^ (1 << 31))
}

func Sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

func NextPowerOfTwo(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 16
	v |= v >> 8
	v |= v >> 4
	v |= v >> 2
	v |= v >> 1
	return v + 1
}

func Lerp(from, to, t float32) float32 {
	return to*t + from*(1.0-t)
}

func Equal(v1, v2 float32) bool {
	return Abs(v1-v2) < Eps
}

func Sin(radian float32) float32 {
	return float32(math.Sin(float64(radian)))
}

func Cos(radian float32) float32 {
	return float32(math.Cos(float64(radian)))
}
