package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"talent-pipeline/internal/model"
)

type captureStore struct {
	notes []model.Notification
	err   error
}

func (c *captureStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if c.err != nil {
		return c.err
	}
	c.notes = append(c.notes, *n)
	return nil
}

type captureCompletion struct {
	calls int
}

func (c *captureCompletion) NotifyCompletion(ctx context.Context, wo model.WorkOrder, pct int) error {
	c.calls++
	return nil
}

func TestCenterFanOut(t *testing.T) {
	t.Parallel()

	store := &captureStore{}
	center := NewCenter(store, []string{"r1", "r2"}, nil)
	center.newID = func() string { return "n-1" }
	center.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }

	wo := model.WorkOrder{Title: "Backend Engineer", JobCode: "BE-12", RequiredCandidates: 4, ConvertedEmployees: 4}
	if err := center.NotifyCompletion(context.Background(), wo, 100); err != nil {
		t.Fatalf("NotifyCompletion error: %v", err)
	}
	if len(store.notes) != 2 {
		t.Fatalf("expected one note per recruiter, got %d", len(store.notes))
	}
	if store.notes[0].RecruiterID != "r1" || store.notes[1].RecruiterID != "r2" {
		t.Fatalf("unexpected recipients %+v", store.notes)
	}
	if store.notes[0].Title != "Hiring target reached" {
		t.Fatalf("unexpected title %q", store.notes[0].Title)
	}
	if !strings.Contains(store.notes[0].Body, "4 of 4") {
		t.Fatalf("body missing progress: %q", store.notes[0].Body)
	}
}

func TestCenterFallback(t *testing.T) {
	t.Parallel()

	fallback := &captureCompletion{}

	// No recruiters configured.
	center := NewCenter(&captureStore{}, nil, fallback)
	if err := center.NotifyCompletion(context.Background(), model.WorkOrder{}, 100); err != nil {
		t.Fatalf("NotifyCompletion error: %v", err)
	}
	if fallback.calls != 1 {
		t.Fatalf("expected fallback used, got %d calls", fallback.calls)
	}

	// No store configured either way.
	center = NewCenter(nil, []string{"r1"}, fallback)
	if err := center.NotifyCompletion(context.Background(), model.WorkOrder{}, 100); err != nil {
		t.Fatalf("NotifyCompletion error: %v", err)
	}
	if fallback.calls != 2 {
		t.Fatalf("expected fallback used again, got %d calls", fallback.calls)
	}

	// Nothing configured at all is a no-op.
	center = NewCenter(nil, nil, nil)
	if err := center.NotifyCompletion(context.Background(), model.WorkOrder{}, 100); err != nil {
		t.Fatalf("NotifyCompletion error: %v", err)
	}
}

func TestCenterStoreError(t *testing.T) {
	t.Parallel()

	store := &captureStore{err: errors.New("db closed")}
	center := NewCenter(store, []string{"r1"}, nil)
	if err := center.NotifyCompletion(context.Background(), model.WorkOrder{}, 100); err == nil {
		t.Fatal("expected error from store")
	}
}
