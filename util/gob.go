package util

import (
	"encoding/gob"
)

func GobMarshal(v any) ([]byte, *Err) {
	var buffer ByteBuffer
	buffer.InitCap(128)
	err := gob.NewEncoder(&buffer).Encode(v)
	if err != nil {
		buffer.Dispose()
		return nil, WrapErr(EcMarshallErr, err)
	}
	return buffer.CopyAll(), nil
}

func GobUnmarshal(data []byte, v any) *Err {
	var buffer ByteBuffer
	buffer.InitBytes(data)
	err := gob.NewDecoder(&buffer).Decode(v)
	if err != nil {
		return WrapErr(EcUnmarshallErr, err)
	}
	return nil
}
