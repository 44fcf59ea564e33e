package sprocket

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/15mga/sprocket/util"
)

type waitInfo struct {
	name string
	fn   util.Fn
}

var (
	_WaitMtx       sync.Mutex
	_WaitExitInfos = make([]*waitInfo, 0, 4)
	_ExitTimeout   = time.Second * 30
)

func SetExitTimeout(dur time.Duration) {
	_ExitTimeout = dur
}

// BeforeExitFn 退出前执行，WaitExit 会等待 fn 返回
func BeforeExitFn(name string, fn util.Fn) {
	_WaitMtx.Lock()
	_WaitExitInfos = append(_WaitExitInfos, &waitInfo{
		name: name,
		fn:   fn,
	})
	_WaitMtx.Unlock()
}

// BeforeExitCh 关闭返回的 chan 表示 name 已经退出
func BeforeExitCh(name string) chan<- struct{} {
	ch := make(chan struct{})
	BeforeExitFn(name, func() {
		<-ch
	})
	return ch
}

func WaitExit() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	select {
	case <-util.Ctx().Done():
		Info("context done", nil)
	case s := <-signalCh:
		Info("signal notify", util.M{
			"signal": s.String(),
		})
		util.Cancel()
	}
	waitBeforeExit()
}

func waitBeforeExit() {
	_WaitMtx.Lock()
	infos := _WaitExitInfos
	_WaitExitInfos = nil
	_WaitMtx.Unlock()

	waitCh := make(chan struct{})
	go func() {
		count := len(infos)
		if count == 0 {
			close(waitCh)
			return
		}
		nameCh := make(chan string, count)
		status := make(util.M, count)
		for _, info := range infos {
			status[info.name] = false
			wInfo := info
			go func() {
				wInfo.fn()
				nameCh <- wInfo.name
			}()
		}
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				Info("exit status", util.M{
					"status": status.Copy(),
				})
			case name := <-nameCh:
				Debug("exit", util.M{
					"name": name,
				})
				status[name] = true
				count--
				if count == 0 {
					close(waitCh)
					return
				}
			}
		}
	}()

	timeout := time.NewTimer(_ExitTimeout)
	select {
	case <-timeout.C:
		Warn2(util.EcTimeout, util.M{
			"error": "exit timeout",
		})
	case <-waitCh:
		timeout.Stop()
		Info("exit complete", nil)
	}
}
