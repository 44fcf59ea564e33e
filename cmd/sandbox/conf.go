package main

import (
	"github.com/15mga/sprocket/util"
)

type Conf struct {
	Log      LogConf      `mapstructure:"log"`
	Worker   WorkerConf   `mapstructure:"worker"`
	Frame    FrameConf    `mapstructure:"frame"`
	Scene    SceneConf    `mapstructure:"scene"`
	Renderer RendererConf `mapstructure:"renderer"`
	Spawn    []SpawnConf  `mapstructure:"spawn"`
}

type LogConf struct {
	Levels    []string `mapstructure:"levels"`
	File      string   `mapstructure:"file"`
	MaxSizeMb int      `mapstructure:"max_size_mb"`
}

type WorkerConf struct {
	// PoolSize 0 使用 ants 默认池
	PoolSize int `mapstructure:"pool_size"`
}

type FrameConf struct {
	TickMs      int  `mapstructure:"tick_ms"`
	ProfileSecs int  `mapstructure:"profile_secs"`
	EventDriven bool `mapstructure:"event_driven"`
}

type SceneConf struct {
	Id          string `mapstructure:"id"`
	EntityLimit uint32 `mapstructure:"entity_limit"`
}

type RendererConf struct {
	AssetRoot  string `mapstructure:"asset_root"`
	GcInterval int64  `mapstructure:"gc_interval"`
	GcCycles   int    `mapstructure:"gc_cycles"`
}

type SpawnConf struct {
	Name     string    `mapstructure:"name"`
	Count    int       `mapstructure:"count"`
	Position util.Vec3 `mapstructure:"position"`
	Velocity util.Vec3 `mapstructure:"velocity"`
	Mesh     util.M    `mapstructure:"mesh"`
}
