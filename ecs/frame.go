package ecs

import (
	"context"
	"sync"
	"time"

	"github.com/15mga/sprocket"
	"github.com/15mga/sprocket/ds"
	"github.com/15mga/sprocket/util"
)

type (
	frameOption struct {
		maxFrame      int64
		tickDur       time.Duration
		eventDriven   bool
		profileDur    time.Duration
		beforeDispose FnFrame
	}
	FrameOption func(o *frameOption)
)

// FrameMax 达到帧数后自动停止，0 不限制
func FrameMax(frames int64) FrameOption {
	return func(o *frameOption) {
		o.maxFrame = frames
	}
}

func FrameTickDur(dur time.Duration) FrameOption {
	return func(o *frameOption) {
		o.tickDur = dur
	}
}

// FrameEventDriven 邮箱有消息时才执行一帧
func FrameEventDriven() FrameOption {
	return func(o *frameOption) {
		o.eventDriven = true
	}
}

// FrameProfile 周期记录 cpu 内存和协程数
func FrameProfile(dur time.Duration) FrameOption {
	return func(o *frameOption) {
		o.profileDur = dur
	}
}

func FrameBeforeDispose(fn FnFrame) FrameOption {
	return func(o *frameOption) {
		o.beforeDispose = fn
	}
}

func NewFrame(ticker ITicker, opts ...FrameOption) *Frame {
	o := &frameOption{
		tickDur: time.Millisecond * 16,
	}
	for _, opt := range opts {
		opt(o)
	}
	ctx, ccl := context.WithCancel(util.Ctx())
	return &Frame{
		option: o,
		ticker: ticker,
		before: ds.NewFnLink(),
		after:  ds.NewFnLink(),
		ctx:    ctx,
		ccl:    ccl,
		done:   make(chan struct{}),
	}
}

// NewSystemFrame 系统独占一个协程，每帧 接收 -> 更新 -> 提交
func NewSystemFrame(sys ISystem, opts ...FrameOption) *Frame {
	return NewFrame(&systemTicker{sys: sys}, opts...)
}

type Frame struct {
	option    *frameOption
	ticker    ITicker
	currFrame int64
	totalDur  time.Duration
	maxDur    time.Duration
	delta     time.Duration
	startTime time.Time
	lastTick  time.Time
	before    *ds.FnLink
	after     *ds.FnLink
	ctx       context.Context
	ccl       context.CancelFunc
	startOnce sync.Once
	stopOnce  sync.Once
	running   bool
	done      chan struct{}
}

func (f *Frame) Num() int64 {
	return f.currFrame
}

func (f *Frame) Delta() time.Duration {
	return f.delta
}

func (f *Frame) DeltaSecs() float32 {
	return float32(f.delta.Seconds())
}

func (f *Frame) StartTime() time.Time {
	return f.startTime
}

func (f *Frame) Elapsed() time.Duration {
	if f.startTime.IsZero() {
		return 0
	}
	return time.Since(f.startTime)
}

func (f *Frame) Ticker() ITicker {
	return f.ticker
}

func (f *Frame) Ctx() context.Context {
	return f.ctx
}

// Before 下一帧开始前调用一次
func (f *Frame) Before() *ds.FnLink {
	return f.before
}

// After 下一帧末尾调用一次
func (f *Frame) After() *ds.FnLink {
	return f.after
}

// Done 协程退出且 ticker 已停止
func (f *Frame) Done() <-chan struct{} {
	return f.done
}

func (f *Frame) start() {
	f.startOnce.Do(func() {
		now := time.Now()
		f.startTime = now
		f.lastTick = now
		f.ticker.Start(f)
		sprocket.Info("start frame", util.M{
			"name": f.ticker.Name(),
		})
	})
}

func (f *Frame) Start() {
	f.running = true
	completeCh := sprocket.BeforeExitCh("stop frame " + f.ticker.Name())
	go func() {
		defer func() {
			f.dispose()
			close(completeCh)
		}()
		f.start()

		var profileCh chan util.M
		if f.option.profileDur > 0 {
			profileCh = make(chan util.M, 1)
			util.StartProfile(f.ctx, f.option.profileDur, profileCh)
		}

		var tickCh <-chan time.Time
		var signal <-chan struct{}
		if f.option.eventDriven {
			signal = f.ticker.Signal()
		} else {
			ticker := time.NewTicker(f.option.tickDur)
			defer ticker.Stop()
			tickCh = ticker.C
		}
		for {
			select {
			case <-f.ctx.Done():
				return
			case <-tickCh:
				if !f.tick() {
					return
				}
			case <-signal:
				if !f.tick() {
					return
				}
			case m := <-profileCh:
				m["name"] = f.ticker.Name()
				sprocket.Debug("profile", m)
			}
		}
	}()
}

// Step 在调用方协程执行一帧，未通过 Start 运行时使用
func (f *Frame) Step() bool {
	f.start()
	return f.tick()
}

// Stop 通过 Start 运行时异步退出，否则直接释放
func (f *Frame) Stop() {
	f.ccl()
	if !f.running {
		f.dispose()
	}
}

// tick 返回 false 表示需要停止
func (f *Frame) tick() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			sprocket.Error2(util.EcRecover, util.M{
				"name":    f.ticker.Name(),
				"frame":   f.currFrame,
				"recover": r,
			})
			f.ccl()
			ok = false
		}
	}()
	f.currFrame++
	now := time.Now()
	f.delta = now.Sub(f.lastTick)
	f.lastTick = now
	f.before.InvokeAndReset()
	f.ticker.Tick(f)
	f.after.InvokeAndReset()
	dur := time.Since(now)
	f.totalDur += dur
	if dur > f.maxDur {
		f.maxDur = dur
	}
	return f.option.maxFrame <= 0 || f.currFrame < f.option.maxFrame
}

func (f *Frame) dispose() {
	f.stopOnce.Do(func() {
		f.ccl()
		if f.option.beforeDispose != nil {
			f.option.beforeDispose(f)
		}
		f.ticker.Stop(f)
		if f.currFrame > 0 {
			sprocket.Info("frames", util.M{
				"name":    f.ticker.Name(),
				"total":   f.totalDur.String(),
				"average": (f.totalDur / time.Duration(f.currFrame)).String(),
				"max":     f.maxDur.String(),
				"frames":  f.currFrame,
			})
		}
		close(f.done)
	})
}

type systemTicker struct {
	sys ISystem
}

func (t *systemTicker) Name() string {
	return string(t.sys.Type())
}

func (t *systemTicker) Start(frame *Frame) {
	t.sys.OnStart(frame)
}

func (t *systemTicker) Tick(frame *Frame) {
	base := t.sys.Base()
	base.Receive()
	t.sys.OnUpdate(frame)
	base.Flush()
}

// Stop 系统退出后不再接收事件，未确认的移除视为已确认
func (t *systemTicker) Stop(frame *Frame) {
	t.sys.OnStop()
	if m := t.sys.Base().Manager(); m != nil {
		m.Unregister(t.sys.Type())
	}
}

func (t *systemTicker) Signal() <-chan struct{} {
	return t.sys.Base().Mailbox().Signal()
}
