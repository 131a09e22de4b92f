package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"talent-pipeline/internal/model"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/storage"
)

// Store 抽象存储接口。
type Store interface {
	ListCandidates(ctx context.Context, q storage.CandidateQuery) ([]model.Candidate, error)
	CountCandidates(ctx context.Context, q storage.CandidateQuery) (int64, error)
	GetCandidate(ctx context.Context, id string) (*model.Candidate, error)
	GetWorkOrder(ctx context.Context, id string) (*model.WorkOrder, error)
	ListWorkOrders(ctx context.Context) ([]model.WorkOrder, error)
	GetPipeline(ctx context.Context, id string) (*model.Pipeline, error)
	ListNotifications(ctx context.Context, q storage.NotificationQuery) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context, recruiterID string) (int64, error)
}

// Dispatcher 抽象动作派发接口。
type Dispatcher interface {
	MoveToInterview(ctx context.Context, perms pipeline.PermissionSet, candidateID, actionKey string) (pipeline.Result, error)
	MakeOffer(ctx context.Context, candidateID, actionKey string) (pipeline.Result, error)
	RejectCandidate(ctx context.Context, candidateID string, confirmed bool, actionKey string) (pipeline.Result, error)
	ScheduleInterview(ctx context.Context, candidateID string, req pipeline.InterviewRequest) (pipeline.Result, error)
	RescheduleInterview(ctx context.Context, candidateID, interviewID string, req pipeline.InterviewRequest) (pipeline.Result, error)
	ChangeInterviewStatus(ctx context.Context, candidateID, interviewID string, to model.InterviewStatus) (pipeline.Result, error)
	ConvertToEmployee(ctx context.Context, perms pipeline.PermissionSet, candidateID, customFieldID string, fields map[string]any) (pipeline.Result, error)
}

// Watcher 抽象巡检接口，用于手动触发完成度检查。
type Watcher interface {
	RunOnce(ctx context.Context) (int, error)
}

// statusChangeRequest 表示粗粒度状态变更请求。
type statusChangeRequest struct {
	Status         string `json:"status"`
	Confirmed      bool   `json:"confirmed"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// interviewRequest 表示面试安排请求，InterviewID 非空时执行改期。
type interviewRequest struct {
	InterviewID string `json:"interviewId"`
	pipeline.InterviewRequest
}

// interviewStatusRequest 表示面试状态变更请求。
type interviewStatusRequest struct {
	InterviewID string `json:"_id"`
	Status      string `json:"status"`
}

// convertRequest 表示转正请求，表单字段在 Fields 中整体校验。
type convertRequest struct {
	CustomFieldID string         `json:"customFieldId"`
	Fields        map[string]any `json:"fields"`
}

// NewHandler 构造 HTTP 多路复用器。
// 权限列表由会话侧经 X-Recruiter-Permissions 头下发，仅作本地预检。
func NewHandler(store Store, disp Dispatcher, watch Watcher) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/candidates", func(w http.ResponseWriter, r *http.Request) {
		q := candidateQuery(r)
		cands, err := store.ListCandidates(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		total, err := store.CountCandidates(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": cands, "totalCount": total})
	})

	mux.HandleFunc("GET /api/candidates/status-counts", func(w http.ResponseWriter, r *http.Request) {
		q := candidateQuery(r)
		q.Limit = 0
		q.Offset = 0
		cands, err := store.ListCandidates(r.Context(), q)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pipeline.CountByStatus(cands))
	})

	mux.HandleFunc("GET /api/candidates/{id}", func(w http.ResponseWriter, r *http.Request) {
		cand, err := store.GetCandidate(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		resp := map[string]any{"candidate": cand}
		if active, ok := pipeline.ActiveInterview(cand.InterviewDetails); ok {
			resp["activeInterview"] = active
		} else {
			resp["activeInterview"] = nil
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("POST /api/candidates/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		var req statusChangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		status, ok := model.ParseCandidateStatus(req.Status)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status " + req.Status})
			return
		}

		id := r.PathValue("id")
		var res pipeline.Result
		var err error
		switch status {
		case model.CandidateStatusInterview:
			res, err = disp.MoveToInterview(r.Context(), permissions(r), id, req.IdempotencyKey)
		case model.CandidateStatusOffer:
			res, err = disp.MakeOffer(r.Context(), id, req.IdempotencyKey)
		case model.CandidateStatusRejected:
			res, err = disp.RejectCandidate(r.Context(), id, req.Confirmed, req.IdempotencyKey)
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no action for status " + req.Status})
			return
		}
		writeResult(w, res, err)
	})

	mux.HandleFunc("POST /api/candidates/{id}/interviews", func(w http.ResponseWriter, r *http.Request) {
		var req interviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		id := r.PathValue("id")
		var res pipeline.Result
		var err error
		if req.InterviewID != "" {
			res, err = disp.RescheduleInterview(r.Context(), id, req.InterviewID, req.InterviewRequest)
		} else {
			res, err = disp.ScheduleInterview(r.Context(), id, req.InterviewRequest)
		}
		writeResult(w, res, err)
	})

	mux.HandleFunc("POST /api/candidates/{id}/interviews/status", func(w http.ResponseWriter, r *http.Request) {
		var req interviewStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		status, ok := model.ParseInterviewStatus(req.Status)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown interview status " + req.Status})
			return
		}
		res, err := disp.ChangeInterviewStatus(r.Context(), r.PathValue("id"), req.InterviewID, status)
		writeResult(w, res, err)
	})

	mux.HandleFunc("POST /api/candidates/{id}/convert", func(w http.ResponseWriter, r *http.Request) {
		var req convertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if req.CustomFieldID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customFieldId required"})
			return
		}
		res, err := disp.ConvertToEmployee(r.Context(), permissions(r), r.PathValue("id"), req.CustomFieldID, req.Fields)
		writeResult(w, res, err)
	})

	mux.HandleFunc("GET /api/work-orders", func(w http.ResponseWriter, r *http.Request) {
		orders, err := store.ListWorkOrders(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": orders, "totalCount": len(orders)})
	})

	mux.HandleFunc("GET /api/work-orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		wo, err := store.GetWorkOrder(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"workOrder":            wo,
			"completionPercentage": pipeline.CompletionPercentage(wo.ConvertedEmployees, wo.RequiredCandidates),
		})
	})

	mux.HandleFunc("GET /api/work-orders/{id}/stages", func(w http.ResponseWriter, r *http.Request) {
		wo, err := store.GetWorkOrder(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		p, err := store.GetPipeline(r.Context(), wo.PipelineID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"pipeline": p.Name, "stages": p.Stages})
	})

	mux.HandleFunc("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		recruiterID := r.URL.Query().Get("recruiterId")
		if recruiterID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recruiterId required"})
			return
		}
		limit, offset := pageParams(r)
		notes, err := store.ListNotifications(r.Context(), storage.NotificationQuery{
			RecruiterID: recruiterID,
			Limit:       limit,
			Offset:      offset,
			UnreadOnly:  r.URL.Query().Get("unread") == "true",
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": notes, "totalCount": len(notes)})
	})

	mux.HandleFunc("POST /api/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		if err := store.MarkNotificationRead(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("DELETE /api/notifications/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteNotification(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/notifications/clear", func(w http.ResponseWriter, r *http.Request) {
		recruiterID := r.URL.Query().Get("recruiterId")
		if recruiterID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recruiterId required"})
			return
		}
		cleared, err := store.ClearNotifications(r.Context(), recruiterID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"cleared": cleared})
	})

	mux.HandleFunc("POST /api/refresh", func(w http.ResponseWriter, r *http.Request) {
		if watch == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "watcher disabled"})
			return
		}
		fired, err := watch.RunOnce(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"notified": fired})
	})

	return mux
}

func candidateQuery(r *http.Request) storage.CandidateQuery {
	limit, offset := pageParams(r)
	q := storage.CandidateQuery{
		Limit:  limit,
		Offset: offset,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
		JobID:  r.URL.Query().Get("jobId"),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := model.ParseCandidateStatus(raw)
		if !ok {
			// 未知状态允许用于过滤，按原文透传
			status = model.CandidateStatus(raw)
		}
		q.Status = status
	}
	return q
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			if v > 100 {
				v = 100
			}
			limit = v
		}
	}
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	return limit, (page - 1) * limit
}

func permissions(r *http.Request) pipeline.PermissionSet {
	raw := r.Header.Get("X-Recruiter-Permissions")
	if raw == "" {
		return pipeline.NewPermissionSet(nil)
	}
	return pipeline.NewPermissionSet(strings.Split(raw, ","))
}

func writeResult(w http.ResponseWriter, res pipeline.Result, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	if res.Outcome == pipeline.OutcomeDenied {
		status := http.StatusBadRequest
		if res.Forbidden {
			status = http.StatusForbidden
		}
		writeJSON(w, status, map[string]string{"error": res.Reason})
		return
	}
	resp := map[string]any{"candidate": res.Candidate}
	if res.MailtoURL != "" {
		resp["mailto"] = res.MailtoURL
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
