package ecs

import (
	"github.com/15mga/sprocket/ds"
)

type TCommand uint8

const (
	CmdSpawn TCommand = iota
	CmdInsert
	CmdRemove
	CmdDestroy
)

func (c TCommand) String() string {
	switch c {
	case CmdSpawn:
		return "spawn"
	case CmdInsert:
		return "insert"
	case CmdRemove:
		return "remove"
	case CmdDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Command 系统对中心存储的修改请求，由中心协程执行
type Command struct {
	Kind       TCommand
	Entity     EntityId
	Type       ComponentTypeId
	Components []ComponentData
}

func newCommandBuffer() *CommandBuffer {
	return &CommandBuffer{
		cmds: ds.NewLink[Command](),
	}
}

// CommandBuffer 一帧内累积的请求，帧末统一提交
type CommandBuffer struct {
	cmds *ds.Link[Command]
}

func (b *CommandBuffer) push(cmd Command) {
	b.cmds.Push(cmd)
}

func (b *CommandBuffer) Count() int {
	return int(b.cmds.Count())
}

func (b *CommandBuffer) take() []Command {
	if b.cmds.Count() == 0 {
		return nil
	}
	cmds := make([]Command, 0, b.cmds.Count())
	for e := b.cmds.PopAll(); e != nil; e = e.Next {
		cmds = append(cmds, e.Value)
	}
	return cmds
}
