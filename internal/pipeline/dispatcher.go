package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"talent-pipeline/internal/model"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"gorm.io/datatypes"
)

// Store 抽象派发器所需的存储接口，便于测试替换。
type Store interface {
	GetCandidate(ctx context.Context, id string) (*model.Candidate, error)
	UpdateCandidateStatus(ctx context.Context, id string, status model.CandidateStatus, actionKey string) (*model.Candidate, error)
	SaveInterviewDetail(ctx context.Context, candidateID string, detail model.InterviewDetail) (*model.Candidate, error)
	UpdateInterviewStatus(ctx context.Context, candidateID, interviewID string, status model.InterviewStatus) (*model.Candidate, error)
	CreateEmployee(ctx context.Context, emp *model.Employee) error
	AddConvertedEmployee(ctx context.Context, workOrderID string) (*model.WorkOrder, error)
}

// OfferNotifier 在候选人进入 offer 状态后发送通知，失败只记录日志。
type OfferNotifier interface {
	NotifyOffer(ctx context.Context, cand model.Candidate) error
}

// Outcome 指示动作派发结果。
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeDenied   Outcome = "denied"
)

// Result 包含派发结果与最新候选人记录。
// Denied 表示动作未通过本地校验，未发出任何变更调用；
// Forbidden 进一步区分权限不足与普通校验失败。
type Result struct {
	Outcome   Outcome
	Candidate *model.Candidate
	Reason    string
	Forbidden bool
	MailtoURL string
}

// InterviewRequest 表示安排或改期面试的请求体。
type InterviewRequest struct {
	Title          string    `json:"title"`
	Mode           string    `json:"mode"`
	Date           time.Time `json:"date"`
	MeetingLink    string    `json:"meetingLink"`
	Location       string    `json:"location"`
	InterviewerIDs []string  `json:"interviewerIds"`
	Notes          string    `json:"notes"`
}

// employeeSchema 约束转正表单的必填字段。
const employeeSchema = `{
	"type": "object",
	"required": ["fullName", "joinDate", "category", "jobTitle"],
	"properties": {
		"fullName": {"type": "string", "minLength": 1},
		"joinDate": {"type": "string", "minLength": 1},
		"category": {"type": "string", "minLength": 1},
		"jobTitle": {"type": "string", "minLength": 1},
		"idNumber": {"type": "string"},
		"panNumber": {"type": "string"},
		"assetNotes": {"type": "string"}
	}
}`

// Dispatcher 将用户动作映射为存储变更，并执行权限与状态迁移校验。
// 每个动作最多发出一次变更调用，失败时不做任何本地补偿。
type Dispatcher struct {
	store  Store
	notif  OfferNotifier
	schema *gojsonschema.Schema
	logger *log.Logger
	newID  func() string
	now    func() time.Time
}

// NewDispatcher 创建 Dispatcher 并编译转正表单校验规则。
func NewDispatcher(store Store, notif OfferNotifier) (*Dispatcher, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(employeeSchema))
	if err != nil {
		return nil, fmt.Errorf("compile employee schema: %w", err)
	}
	return &Dispatcher{
		store:  store,
		notif:  notif,
		schema: schema,
		logger: log.New(os.Stdout, "[dispatch] ", log.LstdFlags),
		newID:  uuid.NewString,
		now:    time.Now,
	}, nil
}

func denied(reason string) Result {
	return Result{Outcome: OutcomeDenied, Reason: reason}
}

func forbidden(reason string) Result {
	return Result{Outcome: OutcomeDenied, Reason: reason, Forbidden: true}
}

// MoveToInterview 将已完成全部阶段的候选人推进到面试状态。
// 权限校验先于任何存储访问，缺少权限时不发出任何调用。
func (d *Dispatcher) MoveToInterview(ctx context.Context, perms PermissionSet, candidateID, actionKey string) (Result, error) {
	if !perms.Has(PermMoveToInterview) {
		return forbidden("missing move-to-interview permission"), nil
	}

	cand, err := d.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Result{}, err
	}
	if cand.Status != model.CandidateStatusCompleted {
		return denied(fmt.Sprintf("candidate in status %s cannot move to interview", cand.Status)), nil
	}

	updated, err := d.store.UpdateCandidateStatus(ctx, candidateID, model.CandidateStatusInterview, actionKey)
	if err != nil {
		return Result{}, fmt.Errorf("move to interview: %w", err)
	}
	return Result{Outcome: OutcomeAccepted, Candidate: updated}, nil
}

// ScheduleInterview 为处于面试状态的候选人新建一条面试安排。
func (d *Dispatcher) ScheduleInterview(ctx context.Context, candidateID string, req InterviewRequest) (Result, error) {
	mode, ok := model.ParseInterviewMode(req.Mode)
	if !ok {
		return denied(fmt.Sprintf("unknown interview mode %q", req.Mode)), nil
	}

	cand, err := d.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Result{}, err
	}
	if cand.Status != model.CandidateStatusInterview {
		return denied(fmt.Sprintf("candidate in status %s cannot schedule interview", cand.Status)), nil
	}

	detail := model.InterviewDetail{
		ID:             d.newID(),
		Title:          req.Title,
		Mode:           mode,
		Date:           req.Date,
		MeetingLink:    req.MeetingLink,
		Location:       req.Location,
		InterviewerIDs: req.InterviewerIDs,
		Notes:          req.Notes,
		Status:         model.InterviewScheduled,
	}
	updated, err := d.store.SaveInterviewDetail(ctx, candidateID, detail)
	if err != nil {
		return Result{}, fmt.Errorf("schedule interview: %w", err)
	}
	return Result{Outcome: OutcomeAccepted, Candidate: updated}, nil
}

// RescheduleInterview 复用原面试 ID，整体覆盖时间、形式、地点与面试官。
func (d *Dispatcher) RescheduleInterview(ctx context.Context, candidateID, interviewID string, req InterviewRequest) (Result, error) {
	mode, ok := model.ParseInterviewMode(req.Mode)
	if !ok {
		return denied(fmt.Sprintf("unknown interview mode %q", req.Mode)), nil
	}

	cand, err := d.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Result{}, err
	}
	if cand.Status != model.CandidateStatusInterview {
		return denied(fmt.Sprintf("candidate in status %s cannot reschedule interview", cand.Status)), nil
	}
	if _, ok := FindInterview(cand.InterviewDetails, interviewID); !ok {
		return Result{}, fmt.Errorf("interview %s: %w", interviewID, sql.ErrNoRows)
	}

	detail := model.InterviewDetail{
		ID:             interviewID,
		Title:          req.Title,
		Mode:           mode,
		Date:           req.Date,
		MeetingLink:    req.MeetingLink,
		Location:       req.Location,
		InterviewerIDs: req.InterviewerIDs,
		Notes:          req.Notes,
		Status:         model.InterviewScheduled,
	}
	updated, err := d.store.SaveInterviewDetail(ctx, candidateID, detail)
	if err != nil {
		return Result{}, fmt.Errorf("reschedule interview: %w", err)
	}
	return Result{Outcome: OutcomeAccepted, Candidate: updated}, nil
}

// ChangeInterviewStatus 按允许迁移表变更单条面试的状态。
func (d *Dispatcher) ChangeInterviewStatus(ctx context.Context, candidateID, interviewID string, to model.InterviewStatus) (Result, error) {
	cand, err := d.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Result{}, err
	}

	idx, ok := FindInterview(cand.InterviewDetails, interviewID)
	if !ok {
		return Result{}, fmt.Errorf("interview %s: %w", interviewID, sql.ErrNoRows)
	}
	from := cand.InterviewDetails[idx].Status
	if !CanTransitionInterview(from, to) {
		return denied(fmt.Sprintf("interview transition %s -> %s not allowed", from, to)), nil
	}

	updated, err := d.store.UpdateInterviewStatus(ctx, candidateID, interviewID, to)
	if err != nil {
		return Result{}, fmt.Errorf("change interview status: %w", err)
	}
	return Result{Outcome: OutcomeAccepted, Candidate: updated}, nil
}

// MakeOffer 将面试中的候选人推进到 offer 状态。
// 返回的 mailto 链接供界面唤起邮件客户端；通知邮件为尽力而为，
// 不阻塞也不影响状态迁移结果。
func (d *Dispatcher) MakeOffer(ctx context.Context, candidateID, actionKey string) (Result, error) {
	cand, err := d.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Result{}, err
	}
	if !CanTransitionCandidate(cand.Status, model.CandidateStatusOffer) {
		return denied(fmt.Sprintf("candidate in status %s cannot receive offer", cand.Status)), nil
	}

	updated, err := d.store.UpdateCandidateStatus(ctx, candidateID, model.CandidateStatusOffer, actionKey)
	if err != nil {
		return Result{}, fmt.Errorf("make offer: %w", err)
	}

	if d.notif != nil {
		if err := d.notif.NotifyOffer(ctx, *updated); err != nil {
			d.logger.Printf("offer notify failed for candidate %s: %v", candidateID, err)
		}
	}

	return Result{
		Outcome:   OutcomeAccepted,
		Candidate: updated,
		MailtoURL: buildOfferMailto(*updated),
	}, nil
}

// RejectCandidate 从任意非终态拒绝候选人，要求调用方显式确认。
func (d *Dispatcher) RejectCandidate(ctx context.Context, candidateID string, confirmed bool, actionKey string) (Result, error) {
	if !confirmed {
		return denied("rejection requires confirmation"), nil
	}

	cand, err := d.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Result{}, err
	}
	if !CanTransitionCandidate(cand.Status, model.CandidateStatusRejected) {
		return denied(fmt.Sprintf("candidate in status %s cannot be rejected", cand.Status)), nil
	}

	updated, err := d.store.UpdateCandidateStatus(ctx, candidateID, model.CandidateStatusRejected, actionKey)
	if err != nil {
		return Result{}, fmt.Errorf("reject candidate: %w", err)
	}
	return Result{Outcome: OutcomeAccepted, Candidate: updated}, nil
}

// ConvertToEmployee 校验转正表单后生成员工档案，候选人状态置为 hired，
// 同时累加所属需求单的已转正人数。动作不依赖当前状态，仅受权限约束。
func (d *Dispatcher) ConvertToEmployee(ctx context.Context, perms PermissionSet, candidateID, customFieldID string, fields map[string]any) (Result, error) {
	if !perms.Has(PermConvertToEmployee) {
		return forbidden("missing convert-to-employee permission"), nil
	}

	res, err := d.schema.Validate(gojsonschema.NewGoLoader(fields))
	if err != nil {
		return Result{}, fmt.Errorf("validate employee fields: %w", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return denied("invalid employee fields: " + strings.Join(msgs, "; ")), nil
	}

	cand, err := d.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return Result{}, err
	}
	if !hasStageProgress(cand.StageProgress, customFieldID) {
		return Result{}, fmt.Errorf("stage progress %s: %w", customFieldID, sql.ErrNoRows)
	}

	emp := model.Employee{
		ID:            d.newID(),
		CandidateID:   cand.User.ID,
		CustomFieldID: customFieldID,
		Fields:        datatypes.JSONMap(fields),
		CreatedAt:     d.now(),
	}
	if err := d.store.CreateEmployee(ctx, &emp); err != nil {
		return Result{}, fmt.Errorf("create employee: %w", err)
	}

	updated, err := d.store.UpdateCandidateStatus(ctx, candidateID, model.CandidateStatusHired, actionKeyForConversion(emp.ID))
	if err != nil {
		return Result{}, fmt.Errorf("mark candidate hired: %w", err)
	}

	if _, err := d.store.AddConvertedEmployee(ctx, cand.WorkOrder.ID); err != nil {
		return Result{}, fmt.Errorf("add converted employee: %w", err)
	}

	return Result{Outcome: OutcomeAccepted, Candidate: updated}, nil
}

func hasStageProgress(progress []model.StageProgress, stageID string) bool {
	for _, p := range progress {
		if p.StageID == stageID {
			return true
		}
	}
	return false
}

func actionKeyForConversion(employeeID string) string {
	return "convert-" + employeeID
}

func buildOfferMailto(cand model.Candidate) string {
	subject := fmt.Sprintf("Offer for %s (%s)", cand.WorkOrder.Title, cand.WorkOrder.JobCode)
	body := fmt.Sprintf("Dear %s,\n\nWe are pleased to extend an offer for the position of %s.\n", cand.User.FullName, cand.WorkOrder.Title)
	return "mailto:" + cand.User.Email + "?subject=" + url.PathEscape(subject) + "&body=" + url.PathEscape(body)
}
