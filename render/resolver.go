package render

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/15mga/sprocket/ecs"
	"github.com/15mga/sprocket/util"
	"github.com/15mga/sprocket/worker"
)

// Resolution 一次异步解析的结果，Mesh 和 Err 只有一个非空
type Resolution struct {
	Entity ecs.EntityId
	Key    string
	Path   string
	Mesh   *Handle[*Mesh]
	Err    *util.Err
}

func NewResolver(resources *Resources) *Resolver {
	return &Resolver{
		resources: resources,
		results:   worker.NewMailbox[Resolution](),
	}
}

// Resolver 在协程池里加载资源，结果回到调用方协程处理
type Resolver struct {
	resources *Resources
	results   *worker.Mailbox[Resolution]
	pending   atomic.Int32
}

func (r *Resolver) Resolve(e ecs.EntityId, spec MeshSpec) {
	r.pending.Add(1)
	err := worker.Go(func(params []any) {
		handle, err := r.resources.AcquireMesh(spec)
		r.push(Resolution{
			Entity: e,
			Key:    spec.Key(),
			Path:   spec.Path,
			Mesh:   handle,
			Err:    err,
		})
	})
	if err != nil {
		r.push(Resolution{
			Entity: e,
			Key:    spec.Key(),
			Path:   spec.Path,
			Err:    err,
		})
	}
}

func (r *Resolver) push(res Resolution) {
	if !r.results.Push(res) && res.Mesh != nil {
		res.Mesh.Release()
	}
	r.pending.Add(-1)
}

func (r *Resolver) Pending() int {
	return int(r.pending.Load())
}

func (r *Resolver) Drain(fn func(Resolution)) int {
	return r.results.Drain(fn)
}

// Wait 阻塞到有结果
func (r *Resolver) Wait(ctx context.Context, dur time.Duration) bool {
	return r.results.Wait(ctx, dur)
}

// Close 之后到达的结果直接释放
func (r *Resolver) Close() {
	r.results.CloseWith(func(res Resolution) {
		if res.Mesh != nil {
			res.Mesh.Release()
		}
	})
}
