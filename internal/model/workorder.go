package model

import (
	"time"

	"gorm.io/datatypes"
)

// Stage 表示流水线中的一个命名阶段，Order 决定展示与“下一阶段”的顺序。
type Stage struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// Pipeline 表示某职位的阶段序列，阶段顺序固定。
type Pipeline struct {
	ID        string                      `gorm:"primaryKey" json:"id"`
	Name      string                      `json:"name"`
	Stages    datatypes.JSONSlice[Stage]  `json:"stages"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// WorkOrder 表示一张招聘需求单
// - RequiredCandidates: 目标招聘人数
// - ConvertedEmployees: 已转正人数，达标后触发一次完成通知

type WorkOrder struct {
	ID                 string    `gorm:"primaryKey" json:"id"`
	Title              string    `json:"title"`
	JobCode            string    `json:"jobCode"`
	PipelineID         string    `gorm:"index" json:"pipelineId"`
	RequiredCandidates int       `json:"requiredCandidates"`
	ConvertedEmployees int       `json:"convertedEmployees"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
