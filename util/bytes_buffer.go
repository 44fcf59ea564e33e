package util

import (
	"io"
	"sync"
)

const (
	_MinBytesCap = 64
	_MaxBytesCap = 1 << 16
)

var (
	_BytesPool = sync.Pool{
		New: func() any {
			return make([]byte, _MinBytesCap)
		},
	}
)

func SpawnBytesWithLen(l uint32) []byte {
	if l > _MaxBytesCap {
		return make([]byte, l)
	}
	bytes := _BytesPool.Get().([]byte)
	if uint32(cap(bytes)) < l {
		_BytesPool.Put(bytes[:cap(bytes)])
		return make([]byte, NextPowerOfTwo(l))
	}
	return bytes[:cap(bytes)]
}

func RecycleBytes(bytes []byte) {
	c := cap(bytes)
	if c < _MinBytesCap || c > _MaxBytesCap {
		return
	}
	_BytesPool.Put(bytes[:c])
}

func CopyBytes(src []byte) []byte {
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// ByteBuffer 日志和 gob 共用的写缓冲
type ByteBuffer struct {
	canRecycle bool
	pos        uint32
	len        uint32
	cap        uint32
	bytes      []byte
}

func (b *ByteBuffer) InitCap(c uint32) {
	b.pos = 0
	b.len = 0
	b.bytes = SpawnBytesWithLen(c)
	b.cap = uint32(len(b.bytes))
	b.canRecycle = true
}

func (b *ByteBuffer) InitBytes(bytes []byte) {
	b.pos = 0
	b.len = uint32(len(bytes))
	b.cap = b.len
	b.bytes = bytes
	b.canRecycle = false
}

func (b *ByteBuffer) All() []byte {
	return b.bytes[:b.len]
}

// CopyAll 复制后可以安全 Dispose
func (b *ByteBuffer) CopyAll() []byte {
	bytes := CopyBytes(b.bytes[:b.len])
	b.Dispose()
	return bytes
}

func (b *ByteBuffer) Length() uint32 {
	return b.len
}

func (b *ByteBuffer) tryGrow(c uint32) {
	if c <= b.cap {
		return
	}
	c = NextPowerOfTwo(c)
	bytes := make([]byte, c)
	copy(bytes, b.bytes[:b.len])
	if b.canRecycle {
		RecycleBytes(b.bytes)
	}
	b.cap = c
	b.bytes = bytes
	b.canRecycle = true
}

func (b *ByteBuffer) Write(v []byte) (int, error) {
	l := uint32(len(v))
	if l == 0 {
		return 0, nil
	}
	c := b.pos + l
	b.tryGrow(c)
	p := b.pos
	b.pos = c
	b.len = c
	return copy(b.bytes[p:], v), nil
}

func (b *ByteBuffer) WUint8(v uint8) {
	c := b.pos + 1
	b.tryGrow(c)
	b.bytes[b.pos] = v
	b.pos = c
	b.len = c
}

func (b *ByteBuffer) WStringNoLen(v string) {
	if len(v) == 0 {
		return
	}
	_, _ = b.Write(StrToBytes(v))
}

func (b *ByteBuffer) Read(p []byte) (n int, err error) {
	if b.pos == b.len {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n = copy(p, b.bytes[b.pos:b.len])
	b.pos += uint32(n)
	return n, nil
}

func (b *ByteBuffer) Dispose() {
	if !b.canRecycle {
		return
	}
	b.canRecycle = false
	RecycleBytes(b.bytes)
	b.bytes = nil
	b.pos = 0
	b.len = 0
	b.cap = 0
}
