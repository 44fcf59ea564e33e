package util

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteBuffer(t *testing.T) {
	var buf ByteBuffer
	buf.InitCap(4)
	buf.WStringNoLen("hello")
	buf.WUint8(' ')
	_, _ = buf.Write([]byte("world"))
	assert.Equal(t, uint32(11), buf.Length())
	assert.Equal(t, "hello world", string(buf.CopyAll()))
	assert.Equal(t, uint32(0), buf.Length())

	var rd ByteBuffer
	rd.InitBytes([]byte("abc"))
	p := make([]byte, 2)
	n, err := rd.Read(p)
	assert.Nil(t, err)
	assert.Equal(t, "ab", string(p[:n]))
	n, _ = rd.Read(p)
	assert.Equal(t, "c", string(p[:n]))
	_, err = rd.Read(p)
	assert.Equal(t, io.EOF, err)
}

func TestGob(t *testing.T) {
	type item struct {
		Name  string
		Count int
	}
	data, err := GobMarshal(item{Name: "cube", Count: 3})
	assert.Nil(t, err)
	var v item
	assert.Nil(t, GobUnmarshal(data, &v))
	assert.Equal(t, item{Name: "cube", Count: 3}, v)

	err = GobUnmarshal(nil, &v)
	assert.True(t, IsErrCode(err, EcUnmarshallErr))
}

func TestErr(t *testing.T) {
	err := NewErr(EcStaleEntity, M{"entity": "3v2"})
	assert.Equal(t, EcStaleEntity, err.Code())
	e, ok := err.GetParam("entity")
	assert.True(t, ok)
	assert.Equal(t, "3v2", e)
	assert.Equal(t, "stale_entity", ErrCodeToStr(EcStaleEntity))
	assert.False(t, IsErrCode(nil, EcStaleEntity))
	assert.NotEmpty(t, err.Stack())
	assert.False(t, IsErrCode(err, EcNotExist))
}

func BenchmarkByteBuffer(b *testing.B) {
	for i := 0; i < b.N; i++ {
		var buf ByteBuffer
		buf.InitCap(64)
		buf.WStringNoLen("entity 3v2 transform changed")
		buf.Dispose()
	}
}
