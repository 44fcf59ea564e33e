package ecs

import "github.com/15mga/sprocket/util"

type (
	TSystem         string
	TScene          string
	ComponentTypeId uint8
	FnEntity        func(EntityId)
	FnEntityType    func(EntityId, ComponentTypeId)
	EntityToErr     func(EntityId) *util.Err
	FnFrame         func(*Frame)
	FnSignature     func(e EntityId, old, new Signature)
)

// Central 中心存储的来源标记，不能用作系统类型
const Central TSystem = "central"
