package ecs

import (
	"google.golang.org/protobuf/proto"

	"github.com/15mga/sprocket/util"
)

// Codec 组件在系统之间传递时的序列化方式，必须能精确还原
type Codec[T any] interface {
	Marshal(v T) ([]byte, *util.Err)
	Unmarshal(data []byte) (T, *util.Err)
}

// JsonCodec 默认编码
type JsonCodec[T any] struct{}

func (JsonCodec[T]) Marshal(v T) ([]byte, *util.Err) {
	return util.JsonMarshal(v)
}

func (JsonCodec[T]) Unmarshal(data []byte) (T, *util.Err) {
	var v T
	err := util.JsonUnmarshal(data, &v)
	return v, err
}

// GobCodec 适合包含 float 精度敏感字段或私有结构的组件
type GobCodec[T any] struct{}

func (GobCodec[T]) Marshal(v T) ([]byte, *util.Err) {
	return util.GobMarshal(v)
}

func (GobCodec[T]) Unmarshal(data []byte) (T, *util.Err) {
	var v T
	err := util.GobUnmarshal(data, &v)
	return v, err
}

// ProtoCodec 组件本身是 protobuf 消息
type ProtoCodec[T proto.Message] struct{}

func (ProtoCodec[T]) Marshal(v T) ([]byte, *util.Err) {
	bytes, err := proto.Marshal(v)
	if err != nil {
		return nil, util.WrapErr(util.EcMarshallErr, err)
	}
	return bytes, nil
}

func (ProtoCodec[T]) Unmarshal(data []byte) (T, *util.Err) {
	var zero T
	v := zero.ProtoReflect().Type().New().Interface().(T)
	err := proto.Unmarshal(data, v)
	if err != nil {
		return zero, util.WrapErr(util.EcUnmarshallErr, err)
	}
	return v, nil
}
