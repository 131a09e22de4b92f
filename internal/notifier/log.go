package notifier

import (
	"context"
	"log"
	"os"

	"talent-pipeline/internal/model"
)

// LogNotifier 仅打印通知内容，适合开发阶段使用。
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier 创建日志通知器，未提供 logger 时默认输出到标准输出。
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(os.Stdout, "[notify] ", log.LstdFlags)
	}
	return &LogNotifier{logger: logger}
}

// NotifyCompletion 打印需求单完成信息。
func (n LogNotifier) NotifyCompletion(ctx context.Context, wo model.WorkOrder, pct int) error {
	n.logger.Printf("work order complete: %s (%s) %d/%d (%d%%)", wo.Title, wo.JobCode, wo.ConvertedEmployees, wo.RequiredCandidates, pct)
	return nil
}

// NotifyOffer 打印 offer 通知。
func (n LogNotifier) NotifyOffer(ctx context.Context, cand model.Candidate) error {
	n.logger.Printf("offer extended: %s for %s (%s)", cand.User.FullName, cand.WorkOrder.Title, cand.WorkOrder.JobCode)
	return nil
}
