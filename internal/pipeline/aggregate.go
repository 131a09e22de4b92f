package pipeline

import "talent-pipeline/internal/model"

// StatusBucket 表示某个状态的聚合计数。
type StatusBucket struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

// CountByStatus 按状态聚合候选人数量，桶顺序为状态在输入中的首次出现顺序。
// 未知状态字符串保留为独立桶并生成默认标签。
func CountByStatus(records []model.Candidate) []StatusBucket {
	buckets := make([]StatusBucket, 0)
	index := make(map[string]int)

	for _, rec := range records {
		status := string(rec.Status)
		if i, ok := index[status]; ok {
			buckets[i].Count++
			continue
		}
		index[status] = len(buckets)
		buckets = append(buckets, StatusBucket{
			Status: status,
			Label:  model.DisplayLabel(status),
			Count:  1,
		})
	}

	return buckets
}
