package pipeline

import (
	"math"
	"sync/atomic"
)

// CompletionPercentage 计算需求单完成百分比，四舍五入取整。
// requiredCandidates 不大于零时返回 0，避免除零；超额完成不封顶。
func CompletionPercentage(converted, required int) int {
	if required <= 0 {
		return 0
	}
	return int(math.Round(float64(converted) / float64(required) * 100))
}

// CompletionLatch 是一次性闩锁：完成条件首次满足时触发一次，
// 之后即使条件持续成立也不再触发，直到显式 Reset。
type CompletionLatch struct {
	fired atomic.Bool
}

// Observe 上报最新计数，仅在条件首次满足时返回 true。
func (l *CompletionLatch) Observe(converted, required int) bool {
	if converted < required || converted <= 0 {
		return false
	}
	return !l.fired.Swap(true)
}

// Reset 复位闩锁，重新挂载时调用。
func (l *CompletionLatch) Reset() {
	l.fired.Store(false)
}
