package ecs

type TEvent uint8

const (
	EvtEntityAdded TEvent = iota
	EvtEntityRemoved
	EvtComponentUpdate
	// EvtCommand 系统请求修改中心存储，只发往中心
	EvtCommand
	// EvtEntityReleased 所有系统确认移除，只发往中心
	EvtEntityReleased
)

func (t TEvent) String() string {
	switch t {
	case EvtEntityAdded:
		return "entity_added"
	case EvtEntityRemoved:
		return "entity_removed"
	case EvtComponentUpdate:
		return "component_update"
	case EvtCommand:
		return "command"
	case EvtEntityReleased:
		return "entity_released"
	default:
		return "unknown"
	}
}

// Update 传播的变更 (实体, 组件类型, 序列化数据)
type Update struct {
	Entity EntityId
	Type   ComponentTypeId
	Data   []byte
}

type ComponentData struct {
	Type ComponentTypeId
	Data []byte
}

// Event 投递到系统或中心邮箱的消息
type Event struct {
	Kind   TEvent
	Entity EntityId
	// Components EvtEntityAdded 时是系统需要的全部组件快照
	Components []ComponentData
	Update     ComponentData
	Command    Command
	From       TSystem
	// Seq 系统变更发往中心时的序号，中心应用后回报给路由
	Seq uint64
}
