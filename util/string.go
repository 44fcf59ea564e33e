package util

import (
	"unsafe"
)

// BytesToStr 零拷贝，调用方不能再修改 b
func BytesToStr(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// StrToBytes 零拷贝，返回值只读
func StrToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
