package model

import "strings"

// CandidateStatus 表示候选人粗粒度状态。
type CandidateStatus string

const (
	CandidateStatusPipeline     CandidateStatus = "pipeline"
	CandidateStatusInterview    CandidateStatus = "interview"
	CandidateStatusOffer        CandidateStatus = "offer"
	CandidateStatusRejected     CandidateStatus = "rejected"
	CandidateStatusCompleted    CandidateStatus = "completed"
	CandidateStatusHired        CandidateStatus = "hired"
	CandidateStatusSelected     CandidateStatus = "selected"
	CandidateStatusApplied      CandidateStatus = "applied"
	CandidateStatusSourced      CandidateStatus = "sourced"
	CandidateStatusScreening    CandidateStatus = "screening"
	CandidateStatusApproved     CandidateStatus = "approved"
	CandidateStatusOfferPending CandidateStatus = "offer_pending"
	CandidateStatusOfferRevised CandidateStatus = "offer_revised"
	CandidateStatusInPending    CandidateStatus = "in-pending"
)

var candidateStatuses = []CandidateStatus{
	CandidateStatusPipeline,
	CandidateStatusInterview,
	CandidateStatusOffer,
	CandidateStatusRejected,
	CandidateStatusCompleted,
	CandidateStatusHired,
	CandidateStatusSelected,
	CandidateStatusApplied,
	CandidateStatusSourced,
	CandidateStatusScreening,
	CandidateStatusApproved,
	CandidateStatusOfferPending,
	CandidateStatusOfferRevised,
	CandidateStatusInPending,
}

// ParseCandidateStatus 将字符串解析为已知状态，未知值返回 false。
func ParseCandidateStatus(s string) (CandidateStatus, bool) {
	status := CandidateStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range candidateStatuses {
		if status == known {
			return known, true
		}
	}
	return "", false
}

// IsTerminal 报告该状态是否不再接受任何状态变更。
func (s CandidateStatus) IsTerminal() bool {
	return s == CandidateStatusRejected || s == CandidateStatusHired
}

// StageStatus 表示单个阶段的审批状态。
type StageStatus string

const (
	StageStatusPending  StageStatus = "pending"
	StageStatusApproved StageStatus = "approved"
	StageStatusRejected StageStatus = "rejected"
)

// InterviewStatus 表示面试子状态机的状态。
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "interview_completed"
	InterviewHold      InterviewStatus = "interview_hold"
	InterviewRejected  InterviewStatus = "interview_rejected"
	InterviewCancelled InterviewStatus = "interview_cancelled"
)

// ParseInterviewStatus 将字符串解析为面试状态，未知值返回 false。
func ParseInterviewStatus(s string) (InterviewStatus, bool) {
	status := InterviewStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case InterviewScheduled, InterviewCompleted, InterviewHold, InterviewRejected, InterviewCancelled:
		return status, true
	}
	return "", false
}

// IsClosed 报告该面试是否不再作为“当前面试”展示。
func (s InterviewStatus) IsClosed() bool {
	return s == InterviewCompleted || s == InterviewCancelled
}

// InterviewMode 表示面试形式。
type InterviewMode string

const (
	InterviewModeOnline     InterviewMode = "online"
	InterviewModeTelephonic InterviewMode = "telephonic"
	InterviewModeInPerson   InterviewMode = "in-person"
)

// ParseInterviewMode 将字符串解析为面试形式，未知值返回 false。
func ParseInterviewMode(s string) (InterviewMode, bool) {
	mode := InterviewMode(strings.ToLower(strings.TrimSpace(s)))
	switch mode {
	case InterviewModeOnline, InterviewModeTelephonic, InterviewModeInPerson:
		return mode, true
	}
	return "", false
}

// DisplayLabel 返回状态的人类可读标签，未知状态按原文生成默认标签。
func DisplayLabel(status string) string {
	switch CandidateStatus(status) {
	case CandidateStatusPipeline:
		return "In Pipeline"
	case CandidateStatusInterview:
		return "Interview"
	case CandidateStatusOffer:
		return "Offer"
	case CandidateStatusRejected:
		return "Rejected"
	case CandidateStatusCompleted:
		return "Completed"
	case CandidateStatusHired:
		return "Hired"
	case CandidateStatusOfferPending:
		return "Offer Pending"
	case CandidateStatusOfferRevised:
		return "Offer Revised"
	case CandidateStatusInPending:
		return "Pending"
	}

	words := strings.FieldsFunc(status, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	if len(words) == 0 {
		return "Unknown"
	}
	return strings.Join(words, " ")
}
