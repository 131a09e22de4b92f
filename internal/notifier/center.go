package notifier

import (
	"context"
	"fmt"
	"time"

	"talent-pipeline/internal/model"

	"github.com/google/uuid"
)

// NotificationStore 定义通知持久化接口。
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
}

// completionNotifier 提供统一的完成通知接口。
type completionNotifier interface {
	NotifyCompletion(ctx context.Context, wo model.WorkOrder, pct int) error
}

// Center 将需求单完成通知写入每个招聘官的站内通知列表。
// 未配置招聘官时回退到 fallback 通知器。
type Center struct {
	store        NotificationStore
	recruiterIDs []string
	fallback     completionNotifier
	newID        func() string
	now          func() time.Time
}

// NewCenter 创建通知中心。
func NewCenter(store NotificationStore, recruiterIDs []string, fallback completionNotifier) *Center {
	return &Center{
		store:        store,
		recruiterIDs: recruiterIDs,
		fallback:     fallback,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// NotifyCompletion 为每个招聘官生成一条完成通知。
func (c *Center) NotifyCompletion(ctx context.Context, wo model.WorkOrder, pct int) error {
	if c.store == nil || len(c.recruiterIDs) == 0 {
		if c.fallback != nil {
			return c.fallback.NotifyCompletion(ctx, wo, pct)
		}
		return nil
	}

	for _, id := range c.recruiterIDs {
		note := model.Notification{
			ID:          c.newID(),
			RecruiterID: id,
			Title:       "Hiring target reached",
			Body:        fmt.Sprintf("%s (%s) reached %d of %d conversions (%d%%)", wo.Title, wo.JobCode, wo.ConvertedEmployees, wo.RequiredCandidates, pct),
			CreatedAt:   c.now(),
		}
		if err := c.store.CreateNotification(ctx, &note); err != nil {
			return fmt.Errorf("create notification for %s: %w", id, err)
		}
	}
	return nil
}
