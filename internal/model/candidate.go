package model

import (
	"time"

	"gorm.io/datatypes"
)

// CandidateUser 表示候选人基本信息，嵌入候选人记录。
type CandidateUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// WorkOrderRef 表示候选人所属需求单的摘要信息。
type WorkOrderRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	JobCode string `json:"jobCode"`
}

// Review 表示招聘官对某阶段的评审记录。
type Review struct {
	ReviewerName   string     `json:"reviewerName"`
	Status         StageStatus `json:"status"`
	ReviewComments string     `json:"reviewComments,omitempty"`
	ReviewedAt     *time.Time `json:"reviewedAt,omitempty"`
}

// Document 表示候选人在某阶段上传的材料。
type Document struct {
	DocumentName string    `json:"documentName"`
	FileName     string    `json:"fileName"`
	FileURL      string    `json:"fileUrl"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// StageProgress 表示候选人在单个阶段的进展
// - StageID/StageName: 对应流水线阶段
// - StageStatus: 阶段审批状态
// - RecruiterReviews/UploadedDocuments: 阶段内积累的评审与材料

type StageProgress struct {
	StageID           string      `json:"stageId"`
	StageName         string      `json:"stageName"`
	StageStatus       StageStatus `json:"stageStatus"`
	StageCompletedAt  *time.Time  `json:"stageCompletedAt,omitempty"`
	RecruiterReviews  []Review    `json:"recruiterReviews"`
	UploadedDocuments []Document  `json:"uploadedDocuments"`
}

// InterviewDetail 表示一次面试安排及其状态机。
type InterviewDetail struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Mode           InterviewMode   `json:"mode"`
	Date           time.Time       `json:"date"`
	MeetingLink    string          `json:"meetingLink,omitempty"`
	Location       string          `json:"location,omitempty"`
	InterviewerIDs []string        `json:"interviewerIds"`
	Notes          string          `json:"notes,omitempty"`
	Status         InterviewStatus `json:"status"`
}

// Candidate 表示候选人流水线记录（根聚合）
// - Status: 粗粒度状态投影，由后端权威维护
// - StageProgress/InterviewDetails: 以 JSON 列存储的嵌套序列
// - LastActionKey: 最近一次状态变更的幂等键，用于拦截重复提交
// - CreatedAt/UpdatedAt: 由 GORM 自动维护

type Candidate struct {
	ID               string                                `gorm:"primaryKey" json:"id"`
	User             CandidateUser                         `gorm:"embedded;embeddedPrefix:user_" json:"user"`
	WorkOrder        WorkOrderRef                          `gorm:"embedded;embeddedPrefix:work_order_" json:"workOrder"`
	Status           CandidateStatus                       `gorm:"index" json:"status"`
	StageProgress    datatypes.JSONSlice[StageProgress]    `json:"stageProgress"`
	InterviewDetails datatypes.JSONSlice[InterviewDetail]  `json:"interviewDetails"`
	LastActionKey    string                                `json:"-"`
	CreatedAt        time.Time                             `json:"created_at"`
	UpdatedAt        time.Time                             `json:"updatedAt"`
}

// Employee 表示候选人转正后生成的员工档案。
type Employee struct {
	ID            string            `gorm:"primaryKey" json:"id"`
	CandidateID   string            `gorm:"index" json:"candidateId"`
	CustomFieldID string            `json:"customFieldId"`
	Fields        datatypes.JSONMap `json:"fields"`
	CreatedAt     time.Time         `json:"created_at"`
}
