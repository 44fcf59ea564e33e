package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/profile"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/ecs"
	"github.com/15mga/sprocket/loader"
	"github.com/15mga/sprocket/log"
	"github.com/15mga/sprocket/physics"
	"github.com/15mga/sprocket/render"
	"github.com/15mga/sprocket/util"
	"github.com/15mga/sprocket/worker"
)

func main() {
	sprocket.AddVar("conf", "local|sandbox.yml", "conf paths separated by comma")
	sprocket.AddVar("profile", "", "cpu or mem, empty disables profiling")
	sprocket.AddVar("profile-dir", ".", "profile output dir")
	sprocket.ParseVar()

	sprocket.AddLogger(log.NewStd())

	confPaths, _ := sprocket.GetVar[string]("conf")
	var conf Conf
	err := loader.LoadConf(&conf, strings.Split(confPaths, ",")...)
	if err != nil {
		sprocket.Fatal(err)
		return
	}
	setupLog(conf.Log)

	if mode, _ := sprocket.GetVar[string]("profile"); mode != "" {
		dir, _ := sprocket.GetVar[string]("profile-dir")
		p := profile.CPUProfile
		if mode == "mem" {
			p = profile.MemProfile
		}
		defer profile.Start(p, profile.ProfilePath(dir), profile.NoShutdownHook).Stop()
	}

	if conf.Worker.PoolSize > 0 {
		if err := worker.InitPool(conf.Worker.PoolSize); err != nil {
			sprocket.Fatal(err)
			return
		}
		defer worker.ReleasePool()
	}

	scene, frames, err := boot(conf)
	if err != nil {
		sprocket.Fatal(err)
		return
	}
	for _, f := range frames {
		f.Start()
	}
	sprocket.Info("sandbox started", util.M{
		"scene":    scene.Id(),
		"entities": scene.Entities().Count(),
	})
	sprocket.WaitExit()
}

func setupLog(conf LogConf) {
	opts := make([]log.StdOption, 0, 2)
	if len(conf.Levels) > 0 {
		opts = append(opts, log.StdLogStrLvl(conf.Levels...))
	}
	if conf.File != "" {
		opts = append(opts, log.StdFile(conf.File, conf.MaxSizeMb))
	}
	sprocket.ClearLoggers()
	sprocket.AddLogger(log.NewStd(opts...))
}

func boot(conf Conf) (*ecs.Scene, []*ecs.Frame, *util.Err) {
	opts := make([]ecs.SceneOption, 0, 1)
	if conf.Scene.EntityLimit > 0 {
		opts = append(opts, ecs.SceneEntityLimit(conf.Scene.EntityLimit))
	}
	scene := ecs.NewScene(conf.Scene.Id, "sandbox", opts...)
	sprocket.SetLogDefParams(util.M{
		"scene": conf.Scene.Id,
	})
	if err := registerComponents(scene); err != nil {
		return nil, nil, err
	}

	ldr := loader.NewLoader(loader.LocalLoader)
	root := conf.Renderer.AssetRoot
	if root != "" && !filepath.IsAbs(root) {
		root = filepath.Join(util.WorkDir(), root)
	}
	ldr.BindLoader(loader.LocalLoader, func(path string) ([]byte, *util.Err) {
		bytes, e := os.ReadFile(filepath.Join(root, path))
		if e != nil {
			return nil, util.WrapErr(util.EcIo, e)
		}
		return bytes, nil
	})

	rendererOpts := make([]render.RendererOption, 0, 2)
	if conf.Renderer.GcInterval > 0 {
		rendererOpts = append(rendererOpts, render.RendererGcInterval(conf.Renderer.GcInterval))
	}
	if conf.Renderer.GcCycles > 0 {
		rendererOpts = append(rendererOpts, render.RendererGcCycles(conf.Renderer.GcCycles))
	}
	phys := physics.NewSystem()
	renderer := render.NewRenderer(render.NewResources(ldr), rendererOpts...)
	if err := scene.AddSystem(phys); err != nil {
		return nil, nil, err
	}
	if err := scene.AddSystem(renderer); err != nil {
		return nil, nil, err
	}
	if err := scene.Boot(); err != nil {
		return nil, nil, err
	}
	if err := spawn(scene, conf.Spawn); err != nil {
		return nil, nil, err
	}

	frameOpts := []ecs.FrameOption{
		ecs.FrameTickDur(time.Duration(max(conf.Frame.TickMs, 1)) * time.Millisecond),
	}
	if conf.Frame.ProfileSecs > 0 {
		frameOpts = append(frameOpts, ecs.FrameProfile(time.Duration(conf.Frame.ProfileSecs)*time.Second))
	}
	systemOpts := frameOpts
	if conf.Frame.EventDriven {
		systemOpts = append(systemOpts[:len(systemOpts):len(systemOpts)], ecs.FrameEventDriven())
	}
	frames := []*ecs.Frame{
		ecs.NewFrame(scene, frameOpts...),
		ecs.NewSystemFrame(phys, frameOpts...),
		ecs.NewSystemFrame(renderer, append(systemOpts[:len(systemOpts):len(systemOpts)],
			ecs.FrameBeforeDispose(func(f *ecs.Frame) {
				sprocket.Info("renderer stats", util.M{
					"draws":     len(renderer.Draws()),
					"resources": renderer.Resources().Info(),
				})
			}))...),
	}
	return scene, frames, nil
}

// Label 实体名，protobuf 编码
type Label = *wrapperspb.StringValue

func registerComponents(scene *ecs.Scene) *util.Err {
	if err := physics.Register(scene.Components()); err != nil {
		return err
	}
	if err := render.Register(scene.Components()); err != nil {
		return err
	}
	_, err := ecs.RegisterComponent[Label](scene.Components(),
		ecs.ComponentName[Label]("sandbox.Label"),
		ecs.ComponentCodec[Label](ecs.ProtoCodec[Label]{}))
	return err
}

func spawn(scene *ecs.Scene, items []SpawnConf) *util.Err {
	for _, item := range items {
		mesh, err := render.DecodeSpec[render.MeshSpec](item.Mesh)
		if err != nil {
			return err
		}
		for i := 0; i < max(item.Count, 1); i++ {
			e, err := scene.CreateEntity()
			if err != nil {
				return err
			}
			pos := util.Vec3Add(item.Position, util.Vec3{X: float32(i)})
			if err = ecs.SceneInsert(scene, e, physics.NewTransform(pos)); err != nil {
				return err
			}
			if err = ecs.SceneInsert(scene, e, physics.Velocity{Linear: item.Velocity}); err != nil {
				return err
			}
			if err = ecs.SceneInsert(scene, e, mesh); err != nil {
				return err
			}
			if item.Name == "" {
				continue
			}
			label := wrapperspb.String(item.Name + "#" + strconv.Itoa(i))
			if err = ecs.SceneInsert[Label](scene, e, label); err != nil {
				return err
			}
		}
	}
	return nil
}
