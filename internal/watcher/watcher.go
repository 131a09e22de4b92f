package watcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"talent-pipeline/internal/model"
	"talent-pipeline/internal/pipeline"

	"golang.org/x/sync/errgroup"
)

// Config 用于巡检配置，interval 支持时长或 5 字段 cron 表达式。
type Config struct {
	Interval string `yaml:"interval" json:"interval"`
	Timeout  string `yaml:"timeout" json:"timeout"`
}

// Store 抽象存储接口，便于测试替换。
type Store interface {
	ListWorkOrders(ctx context.Context) ([]model.WorkOrder, error)
}

// Notifier 用于发送需求单完成通知。
type Notifier interface {
	NotifyCompletion(ctx context.Context, wo model.WorkOrder, pct int) error
}

// Watcher 周期性巡检需求单完成度，目标首次达成时发出一次通知。
// 每张需求单持有一个一次性闩锁，进程内不会重复通知。
type Watcher struct {
	store     Store
	notif     Notifier
	interval  time.Duration
	cronSpec  string
	cron      *cronSchedule
	timeout   time.Duration
	latches   map[string]*pipeline.CompletionLatch
	running   atomic.Bool
	newTicker func(time.Duration) ticker
	now       func() time.Time
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewWatcher 创建 Watcher，解析配置的间隔与超时。
func NewWatcher(store Store, notif Notifier, cfg Config) *Watcher {
	interval, cronCfg := parseSchedule(cfg.Interval)
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}

	return &Watcher{
		store:     store,
		notif:     notif,
		interval:  interval,
		cronSpec:  cronCfg.spec,
		cron:      cronCfg.schedule,
		timeout:   timeout,
		latches:   make(map[string]*pipeline.CompletionLatch),
		newTicker: defaultTicker,
		now:       time.Now,
	}
}

// Start 启动巡检循环，直到上下文取消。
func (w *Watcher) Start(ctx context.Context) error {
	if w.store == nil || w.notif == nil {
		return fmt.Errorf("watcher missing dependencies")
	}

	g, ctx := errgroup.WithContext(ctx)

	if w.cron != nil {
		g.Go(func() error {
			return w.startCron(ctx)
		})
	} else {
		tick := w.newTicker(w.interval)
		ch := tick.C()

		g.Go(func() error {
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ch:
					if _, err := w.runOnce(ctx); err != nil {
						return err
					}
				drain:
					for {
						select {
						case <-ch:
							continue
						default:
							break drain
						}
					}
				}
			}
		})
	}

	return g.Wait()
}

// RunOnce 对外暴露单次巡检接口，便于手动刷新，返回本次发出的通知数。
func (w *Watcher) RunOnce(ctx context.Context) (int, error) {
	return w.runOnce(ctx)
}

func (w *Watcher) runOnce(ctx context.Context) (int, error) {
	if w.running.Swap(true) {
		return 0, nil
	}
	defer w.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	orders, err := w.store.ListWorkOrders(ctx)
	if err != nil {
		return 0, fmt.Errorf("list work orders: %w", err)
	}

	fired := 0
	for _, wo := range orders {
		latch, ok := w.latches[wo.ID]
		if !ok {
			latch = &pipeline.CompletionLatch{}
			w.latches[wo.ID] = latch
		}
		if !latch.Observe(wo.ConvertedEmployees, wo.RequiredCandidates) {
			continue
		}
		pct := pipeline.CompletionPercentage(wo.ConvertedEmployees, wo.RequiredCandidates)
		if err := w.notif.NotifyCompletion(ctx, wo, pct); err != nil {
			return fired, fmt.Errorf("notify completion for %s: %w", wo.ID, err)
		}
		fired++
	}

	return fired, nil
}

func defaultTicker(d time.Duration) ticker {
	t := time.NewTicker(d)
	return tickerWrapper{t}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }

func (w *Watcher) startCron(ctx context.Context) error {
	if w.cron == nil {
		return fmt.Errorf("cron schedule missing")
	}

	for {
		next, err := w.cron.next(w.now())
		if err != nil {
			return fmt.Errorf("compute next cron time: %w", err)
		}
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if _, err := w.runOnce(ctx); err != nil {
				return err
			}
		}
	}
}

type cronConfig struct {
	spec     string
	schedule *cronSchedule
}

func parseSchedule(value string) (time.Duration, cronConfig) {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" {
		if d, err := time.ParseDuration(trimmed); err == nil && d > 0 {
			return d, cronConfig{}
		}
		schedule, err := parseCronSpec(trimmed)
		if err == nil {
			return 0, cronConfig{spec: trimmed, schedule: schedule}
		}
	}

	return 10 * time.Minute, cronConfig{}
}

type cronSchedule struct {
	minutes map[int]struct{}
	hours   map[int]struct{}
	doms    map[int]struct{}
	months  map[int]struct{}
	dows    map[int]struct{}
}

func parseCronSpec(spec string) (*cronSchedule, error) {
	parts := strings.Fields(spec)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cron spec must have 5 fields")
	}

	minutes, err := parseCronField(parts[0], 0, 59)
	if err != nil {
		return nil, fmt.Errorf("minutes: %w", err)
	}
	hours, err := parseCronField(parts[1], 0, 23)
	if err != nil {
		return nil, fmt.Errorf("hours: %w", err)
	}
	doms, err := parseCronField(parts[2], 1, 31)
	if err != nil {
		return nil, fmt.Errorf("day-of-month: %w", err)
	}
	months, err := parseCronField(parts[3], 1, 12)
	if err != nil {
		return nil, fmt.Errorf("month: %w", err)
	}
	dows, err := parseCronField(parts[4], 0, 6)
	if err != nil {
		return nil, fmt.Errorf("day-of-week: %w", err)
	}

	return &cronSchedule{minutes: minutes, hours: hours, doms: doms, months: months, dows: dows}, nil
}

func parseCronField(expr string, min, max int) (map[int]struct{}, error) {
	result := make(map[int]struct{})
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty field")
	}
	parts := strings.Split(expr, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case part == "*":
			for i := min; i <= max; i++ {
				result[i] = struct{}{}
			}
		case strings.HasPrefix(part, "*/"):
			step, err := strconv.Atoi(strings.TrimPrefix(part, "*/"))
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("invalid step %s", part)
			}
			for i := min; i <= max; i += step {
				result[i] = struct{}{}
			}
		default:
			v, err := strconv.Atoi(part)
			if err != nil || v < min || v > max {
				return nil, fmt.Errorf("invalid value %s", part)
			}
			result[v] = struct{}{}
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no values parsed")
	}
	return result, nil
}

func (c *cronSchedule) matches(t time.Time) bool {
	if _, ok := c.minutes[t.Minute()]; !ok {
		return false
	}
	if _, ok := c.hours[t.Hour()]; !ok {
		return false
	}
	if _, ok := c.months[int(t.Month())]; !ok {
		return false
	}
	if _, ok := c.doms[t.Day()]; !ok {
		return false
	}
	if _, ok := c.dows[int(t.Weekday())]; !ok {
		return false
	}
	return true
}

func (c *cronSchedule) next(after time.Time) (time.Time, error) {
	start := after.Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < 525600; i++ { // up to one year of minutes
		candidate := start.Add(time.Duration(i) * time.Minute)
		if c.matches(candidate) {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("no matching time found")
}
