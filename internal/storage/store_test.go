package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"talent-pipeline/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func seedCandidate(t *testing.T, store *Store, cand model.Candidate) {
	t.Helper()
	if err := store.CreateCandidate(context.Background(), &cand); err != nil {
		t.Fatalf("seed candidate %s: %v", cand.ID, err)
	}
}

func TestNewStoreUnsupportedDriver(t *testing.T) {
	t.Parallel()

	if _, err := NewStore(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if _, err := NewStore(Config{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for mysql without dsn")
	}
}

func TestCandidateRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	seedCandidate(t, store, model.Candidate{
		ID:     "c1",
		User:   model.CandidateUser{ID: "u1", FullName: "Jane Doe", Email: "jane@example.com"},
		Status: model.CandidateStatusPipeline,
	})

	got, err := store.GetCandidate(ctx, "c1")
	if err != nil {
		t.Fatalf("GetCandidate error: %v", err)
	}
	if got.User.FullName != "Jane Doe" {
		t.Fatalf("expected embedded user fields, got %+v", got.User)
	}

	if _, err := store.GetCandidate(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestListCandidatesFilters(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	seedCandidate(t, store, model.Candidate{
		ID:        "c1",
		User:      model.CandidateUser{ID: "u1", FullName: "Jane Doe", Email: "jane@example.com"},
		WorkOrder: model.WorkOrderRef{ID: "wo1", Title: "Backend Engineer"},
		Status:    model.CandidateStatusPipeline,
	})
	seedCandidate(t, store, model.Candidate{
		ID:        "c2",
		User:      model.CandidateUser{ID: "u2", FullName: "John Smith", Email: "john@example.com"},
		WorkOrder: model.WorkOrderRef{ID: "wo2", Title: "Data Analyst"},
		Status:    model.CandidateStatusInterview,
	})

	byStatus, err := store.ListCandidates(ctx, CandidateQuery{Status: model.CandidateStatusInterview})
	if err != nil {
		t.Fatalf("ListCandidates error: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "c2" {
		t.Fatalf("status filter returned %+v", byStatus)
	}

	byJob, err := store.ListCandidates(ctx, CandidateQuery{JobID: "wo1"})
	if err != nil {
		t.Fatalf("ListCandidates error: %v", err)
	}
	if len(byJob) != 1 || byJob[0].ID != "c1" {
		t.Fatalf("job filter returned %+v", byJob)
	}

	// Search matches name, email, and work order title.
	for _, term := range []string{"jane", "john@", "Data"} {
		found, err := store.ListCandidates(ctx, CandidateQuery{Search: term})
		if err != nil {
			t.Fatalf("search %q error: %v", term, err)
		}
		if len(found) != 1 {
			t.Fatalf("search %q returned %d rows", term, len(found))
		}
	}

	total, err := store.CountCandidates(ctx, CandidateQuery{})
	if err != nil {
		t.Fatalf("CountCandidates error: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 candidates, got %d", total)
	}
}

func TestUpdateCandidateStatusIdempotent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	seedCandidate(t, store, model.Candidate{ID: "c1", Status: model.CandidateStatusCompleted})

	updated, err := store.UpdateCandidateStatus(ctx, "c1", model.CandidateStatusInterview, "k1")
	if err != nil {
		t.Fatalf("UpdateCandidateStatus error: %v", err)
	}
	if updated.Status != model.CandidateStatusInterview {
		t.Fatalf("expected interview, got %s", updated.Status)
	}

	// Same key again is a duplicate submit and must not change anything.
	again, err := store.UpdateCandidateStatus(ctx, "c1", model.CandidateStatusOffer, "k1")
	if err != nil {
		t.Fatalf("UpdateCandidateStatus error: %v", err)
	}
	if again.Status != model.CandidateStatusInterview {
		t.Fatalf("duplicate key changed status to %s", again.Status)
	}

	// A fresh key goes through.
	next, err := store.UpdateCandidateStatus(ctx, "c1", model.CandidateStatusOffer, "k2")
	if err != nil {
		t.Fatalf("UpdateCandidateStatus error: %v", err)
	}
	if next.Status != model.CandidateStatusOffer {
		t.Fatalf("expected offer, got %s", next.Status)
	}

	if _, err := store.UpdateCandidateStatus(ctx, "missing", model.CandidateStatusOffer, ""); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestSaveInterviewDetailUpsert(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	seedCandidate(t, store, model.Candidate{ID: "c1", Status: model.CandidateStatusInterview})

	first := model.InterviewDetail{ID: "iv-1", Title: "Tech round", Status: model.InterviewScheduled}
	cand, err := store.SaveInterviewDetail(ctx, "c1", first)
	if err != nil {
		t.Fatalf("SaveInterviewDetail error: %v", err)
	}
	if len(cand.InterviewDetails) != 1 {
		t.Fatalf("expected 1 interview, got %d", len(cand.InterviewDetails))
	}

	// Same ID overwrites in place instead of appending.
	replaced := model.InterviewDetail{ID: "iv-1", Title: "Tech round (moved)", Status: model.InterviewScheduled}
	cand, err = store.SaveInterviewDetail(ctx, "c1", replaced)
	if err != nil {
		t.Fatalf("SaveInterviewDetail error: %v", err)
	}
	if len(cand.InterviewDetails) != 1 {
		t.Fatalf("expected overwrite, got %d interviews", len(cand.InterviewDetails))
	}
	if cand.InterviewDetails[0].Title != "Tech round (moved)" {
		t.Fatalf("expected replaced title, got %s", cand.InterviewDetails[0].Title)
	}

	cand, err = store.SaveInterviewDetail(ctx, "c1", model.InterviewDetail{ID: "iv-2", Status: model.InterviewScheduled})
	if err != nil {
		t.Fatalf("SaveInterviewDetail error: %v", err)
	}
	if len(cand.InterviewDetails) != 2 {
		t.Fatalf("expected append, got %d interviews", len(cand.InterviewDetails))
	}
}

func TestUpdateInterviewStatus(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	seedCandidate(t, store, model.Candidate{ID: "c1", Status: model.CandidateStatusInterview})
	if _, err := store.SaveInterviewDetail(ctx, "c1", model.InterviewDetail{ID: "iv-1", Status: model.InterviewScheduled}); err != nil {
		t.Fatalf("SaveInterviewDetail error: %v", err)
	}

	cand, err := store.UpdateInterviewStatus(ctx, "c1", "iv-1", model.InterviewCompleted)
	if err != nil {
		t.Fatalf("UpdateInterviewStatus error: %v", err)
	}
	if cand.InterviewDetails[0].Status != model.InterviewCompleted {
		t.Fatalf("expected completed, got %s", cand.InterviewDetails[0].Status)
	}

	if _, err := store.UpdateInterviewStatus(ctx, "c1", "iv-missing", model.InterviewCompleted); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestWorkOrderConversionCounter(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	wo := model.WorkOrder{ID: "wo1", Title: "Backend Engineer", RequiredCandidates: 2}
	if err := store.CreateWorkOrder(ctx, &wo); err != nil {
		t.Fatalf("CreateWorkOrder error: %v", err)
	}

	for want := 1; want <= 2; want++ {
		got, err := store.AddConvertedEmployee(ctx, "wo1")
		if err != nil {
			t.Fatalf("AddConvertedEmployee error: %v", err)
		}
		if got.ConvertedEmployees != want {
			t.Fatalf("expected %d converted, got %d", want, got.ConvertedEmployees)
		}
	}

	if _, err := store.AddConvertedEmployee(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestNotificationLifecycle(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	for _, n := range []model.Notification{
		{ID: "n1", RecruiterID: "r1", Title: "Hiring target reached"},
		{ID: "n2", RecruiterID: "r1", Title: "Hiring target reached"},
		{ID: "n3", RecruiterID: "r2", Title: "Hiring target reached"},
	} {
		note := n
		if err := store.CreateNotification(ctx, &note); err != nil {
			t.Fatalf("CreateNotification error: %v", err)
		}
	}

	notes, err := store.ListNotifications(ctx, NotificationQuery{RecruiterID: "r1"})
	if err != nil {
		t.Fatalf("ListNotifications error: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications for r1, got %d", len(notes))
	}

	if err := store.MarkNotificationRead(ctx, "n1"); err != nil {
		t.Fatalf("MarkNotificationRead error: %v", err)
	}
	unread, err := store.ListNotifications(ctx, NotificationQuery{RecruiterID: "r1", UnreadOnly: true})
	if err != nil {
		t.Fatalf("ListNotifications error: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != "n2" {
		t.Fatalf("unread filter returned %+v", unread)
	}

	if err := store.DeleteNotification(ctx, "n2"); err != nil {
		t.Fatalf("DeleteNotification error: %v", err)
	}
	if err := store.DeleteNotification(ctx, "n2"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows on double delete, got %v", err)
	}

	cleared, err := store.ClearNotifications(ctx, "r1")
	if err != nil {
		t.Fatalf("ClearNotifications error: %v", err)
	}
	if cleared != 1 {
		t.Fatalf("expected 1 cleared, got %d", cleared)
	}

	// The other recruiter's notifications survive.
	left, err := store.ListNotifications(ctx, NotificationQuery{RecruiterID: "r2"})
	if err != nil {
		t.Fatalf("ListNotifications error: %v", err)
	}
	if len(left) != 1 {
		t.Fatalf("expected r2 untouched, got %d", len(left))
	}
}
