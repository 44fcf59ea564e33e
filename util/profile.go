package util

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	Cpu       = "cpu"
	Memory    = "mem"
	Goroutine = "goroutine"
)

func GetCpuPercent() (float64, *Err) {
	percent, e := cpu.Percent(time.Second, false)
	if e != nil {
		return 0, WrapErr(EcServiceErr, e)
	}
	if len(percent) == 0 {
		return 0, NewErr(EcEmpty, nil)
	}
	return percent[0], nil
}

func GetMemPercent() float64 {
	memInfo, e := mem.VirtualMemory()
	if e != nil {
		return 0
	}
	return memInfo.UsedPercent
}

// StartProfile 按 dur 周期采样，ctx 结束时退出，receiver 满了丢弃
func StartProfile(ctx context.Context, dur time.Duration, receiver chan<- M) {
	go func() {
		sampling(receiver)
		ticker := time.NewTicker(dur)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sampling(receiver)
			}
		}
	}()
}

func sampling(receiver chan<- M) {
	status := M{
		Memory:    float32(GetMemPercent()),
		Goroutine: uint32(runtime.NumGoroutine()),
	}
	if runtime.GOOS != "darwin" { //暂时不支持
		cp, err := GetCpuPercent()
		if err == nil {
			status[Cpu] = float32(cp)
		}
	}
	select {
	case receiver <- status:
	default:
	}
}
