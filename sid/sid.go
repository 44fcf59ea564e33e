package sid

import (
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	_Mtx  sync.Mutex
	_Node *snowflake.Node
)

// SetNodeId 多进程时区分节点，默认 1
func SetNodeId(id int64) error {
	node, err := snowflake.NewNode(id)
	if err != nil {
		return err
	}
	_Mtx.Lock()
	_Node = node
	_Mtx.Unlock()
	return nil
}

func node() *snowflake.Node {
	_Mtx.Lock()
	defer _Mtx.Unlock()
	if _Node == nil {
		_Node, _ = snowflake.NewNode(1)
	}
	return _Node
}

func GetId() int64 {
	return node().Generate().Int64()
}

func GetStrId() string {
	return strconv.FormatInt(GetId(), 36)
}
