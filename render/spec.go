package render

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"github.com/15mga/sprocket/util"
)

type Vertex struct {
	Position util.Vec2 `json:"position" mapstructure:"position"`
	Color    util.Vec3 `json:"color" mapstructure:"color"`
}

// MeshSpec 网格描述，引用文件或者内联数据，不包含任何显存资源
type MeshSpec struct {
	Path     string   `json:"path,omitempty" mapstructure:"path"`
	Vertices []Vertex `json:"vertices,omitempty" mapstructure:"vertices"`
	Indices  []uint32 `json:"indices,omitempty" mapstructure:"indices"`
}

func (s MeshSpec) IsEmpty() bool {
	return s.Path == "" && len(s.Vertices) == 0
}

// Key 相同描述得到相同的 key，内联数据取 fnv64
func (s MeshSpec) Key() string {
	if s.Path != "" {
		return s.Path
	}
	h := fnv.New64a()
	buf := make([]byte, 4)
	// 先写长度，顶点和索引的边界不会混淆
	binary.LittleEndian.PutUint32(buf, uint32(len(s.Vertices)))
	_, _ = h.Write(buf)
	binary.LittleEndian.PutUint32(buf, uint32(len(s.Indices)))
	_, _ = h.Write(buf)
	for _, v := range s.Vertices {
		for _, f := range []float32{v.Position.X, v.Position.Y, v.Color.X, v.Color.Y, v.Color.Z} {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
			_, _ = h.Write(buf)
		}
	}
	for _, i := range s.Indices {
		binary.LittleEndian.PutUint32(buf, i)
		_, _ = h.Write(buf)
	}
	return "inline:" + strconv.FormatUint(h.Sum64(), 16)
}

type MaterialSpec struct {
	Pipeline string   `json:"pipeline" mapstructure:"pipeline"`
	Textures []string `json:"textures" mapstructure:"textures"`
}

// ResolveFailure 渲染端无法解析描述时回报给中心
type ResolveFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// DecodeSpec 从编辑器数据解析描述
func DecodeSpec[T any](m util.M) (T, *util.Err) {
	var spec T
	e := mapstructure.Decode(m, &spec)
	if e != nil {
		return spec, util.WrapErr(util.EcUnmarshallErr, e)
	}
	return spec, nil
}
