package pipeline

import "talent-pipeline/internal/model"

// ActiveInterview 从面试列表中选出应展示为“当前面试”的一项。
// 按数组顺序返回第一个未关闭的面试；全部关闭时返回最后一项；列表为空时返回 false。
func ActiveInterview(details []model.InterviewDetail) (model.InterviewDetail, bool) {
	if len(details) == 0 {
		return model.InterviewDetail{}, false
	}
	for _, d := range details {
		if !d.Status.IsClosed() {
			return d, true
		}
	}
	return details[len(details)-1], true
}

// FindInterview 按 ID 查找面试记录，返回其下标。
func FindInterview(details []model.InterviewDetail, id string) (int, bool) {
	for i, d := range details {
		if d.ID == id {
			return i, true
		}
	}
	return 0, false
}
