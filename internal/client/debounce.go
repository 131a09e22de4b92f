package client

import (
	"sync"
	"time"
)

// Debouncer 将窗口期内的连续调用折叠为最后一次。
// 用于搜索输入：停止输入超过 delay 后才真正发出请求。
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer 创建防抖器，delay 不大于零时取 500ms。
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Do 安排 fn 在窗口期结束后执行，窗口内的后续调用会取消之前的安排。
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop 取消尚未执行的安排。
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
