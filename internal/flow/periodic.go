package flow

import (
	"sync"
	"time"
)

// periodicTask 周期执行的任务
// Stop 返回后保证 fn 不会再被调用
type periodicTask struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func startPeriodic(interval time.Duration, fn func()) *periodicTask {
	t := &periodicTask{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				// stop 与 tick 同时就绪时优先退出
				select {
				case <-t.stop:
					return
				default:
				}
				fn()
			}
		}
	}()
	return t
}

// Stop 停止任务并等待正在执行的 fn 返回
func (t *periodicTask) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.done
}
