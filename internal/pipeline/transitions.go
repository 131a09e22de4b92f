package pipeline

import "talent-pipeline/internal/model"

// interviewTransitions 列出面试状态机允许的 (from → to) 迁移。
// interview_rejected 与 interview_cancelled 为终态，无出边；
// interview_completed 仅保留一条“事后拒绝”的单向出口。
var interviewTransitions = map[model.InterviewStatus][]model.InterviewStatus{
	model.InterviewScheduled: {
		model.InterviewCompleted,
		model.InterviewHold,
		model.InterviewRejected,
		model.InterviewCancelled,
	},
	model.InterviewHold: {
		model.InterviewCompleted,
		model.InterviewRejected,
	},
	model.InterviewCompleted: {
		model.InterviewRejected,
	},
}

// CanTransitionInterview 报告面试状态迁移 from → to 是否被允许。
func CanTransitionInterview(from, to model.InterviewStatus) bool {
	for _, allowed := range interviewTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// candidateTransitions 列出候选人粗粒度状态的正向迁移；
// rejected 可从任意非终态进入，单独在 CanTransitionCandidate 中处理。
var candidateTransitions = map[model.CandidateStatus][]model.CandidateStatus{
	model.CandidateStatusPipeline:  {model.CandidateStatusInterview},
	model.CandidateStatusCompleted: {model.CandidateStatusInterview},
	model.CandidateStatusInterview: {model.CandidateStatusOffer},
	model.CandidateStatusOffer:     {model.CandidateStatusHired},
}

// CanTransitionCandidate 报告候选人状态迁移 from → to 是否被允许。
// 终态（rejected、hired）没有任何出边。
func CanTransitionCandidate(from, to model.CandidateStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == model.CandidateStatusRejected {
		return true
	}
	for _, allowed := range candidateTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
