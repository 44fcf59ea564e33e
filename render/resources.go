package render

import (
	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/loader"
	"github.com/15mga/sprocket/sid"
	"github.com/15mga/sprocket/util"
)

const (
	AssetMesh     = "mesh"
	AssetMaterial = "material"
)

// Mesh 渲染端的实体资源，只在渲染系统内部使用，不跨协程传递
type Mesh struct {
	Id       int64
	Key      string
	Vertices []Vertex
	Indices  []uint32
}

type Material struct {
	Id   int64
	Path string
	Spec MaterialSpec
}

func NewResources(ldr *loader.Loader) *Resources {
	ldr.BindParser(AssetMesh, func(bytes []byte) (any, *util.Err) {
		var spec MeshSpec
		err := util.JsonUnmarshal(bytes, &spec)
		if err != nil {
			return nil, err
		}
		return spec, nil
	})
	ldr.BindParser(AssetMaterial, func(bytes []byte) (any, *util.Err) {
		var spec MaterialSpec
		err := util.JsonUnmarshal(bytes, &spec)
		if err != nil {
			return nil, err
		}
		return spec, nil
	})
	dispose := func(key string, _ any) {
		sprocket.Debug("dispose resource", util.M{
			"key": key,
		})
	}
	return &Resources{
		loader: ldr,
		meshes: NewCache[*Mesh](AssetMesh, func(key string, m *Mesh) {
			dispose(key, m)
		}),
		materials: NewCache[*Material](AssetMaterial, func(key string, m *Material) {
			dispose(key, m)
		}),
	}
}

// Resources 每种资源一个缓存，加载经由 loader
type Resources struct {
	loader    *loader.Loader
	meshes    *Cache[*Mesh]
	materials *Cache[*Material]
}

func (r *Resources) Meshes() *Cache[*Mesh] {
	return r.meshes
}

func (r *Resources) Materials() *Cache[*Material] {
	return r.materials
}

func (r *Resources) AcquireMesh(spec MeshSpec) (*Handle[*Mesh], *util.Err) {
	if spec.IsEmpty() {
		return nil, util.NewErr(util.EcParamsErr, util.M{
			"error": "empty mesh spec",
		})
	}
	return r.meshes.Acquire(spec.Key(), func(key string) (*Mesh, *util.Err) {
		data := spec
		if spec.Path != "" {
			o, err := r.loader.Get(AssetMesh, spec.Path)
			if err != nil {
				return nil, err
			}
			data = o.(MeshSpec)
		}
		if len(data.Vertices) == 0 {
			return nil, util.NewErr(util.EcEmpty, util.M{
				"mesh": key,
			})
		}
		return &Mesh{
			Id:       sid.GetId(),
			Key:      key,
			Vertices: data.Vertices,
			Indices:  data.Indices,
		}, nil
	})
}

func (r *Resources) AcquireMaterial(path string) (*Handle[*Material], *util.Err) {
	return r.materials.Acquire(path, func(key string) (*Material, *util.Err) {
		o, err := r.loader.Get(AssetMaterial, key)
		if err != nil {
			return nil, err
		}
		return &Material{
			Id:   sid.GetId(),
			Path: key,
			Spec: o.(MaterialSpec),
		}, nil
	})
}

func (r *Resources) CollectGarbage(cycles int) {
	r.meshes.CollectGarbage(cycles)
	r.materials.CollectGarbage(cycles)
}

func (r *Resources) Info() []ResourceInfo {
	return append(r.meshes.Info(), r.materials.Info()...)
}
