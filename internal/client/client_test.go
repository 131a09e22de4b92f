package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"talent-pipeline/internal/model"
)

func newCandidateServer(t *testing.T, searches *[]string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/candidates" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		*searches = append(*searches, r.URL.Query().Get("search"))
		_ = json.NewEncoder(w).Encode(CandidatePage{
			Results:    []model.Candidate{{ID: "c1"}},
			TotalCount: 1,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestListCandidatesCaches(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var searches []string
	srv := newCandidateServer(t, &searches, &hits)

	c := NewClient(srv.URL, nil, srv.Client())
	defer c.Close()

	q := Query{Search: "jane", Limit: 20}
	if _, ok := c.CachedCandidates(q); ok {
		t.Fatal("expected empty cache before first request")
	}

	page, err := c.ListCandidates(context.Background(), q)
	if err != nil {
		t.Fatalf("ListCandidates error: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected totalCount 1, got %d", page.TotalCount)
	}

	cached, ok := c.CachedCandidates(q)
	if !ok || cached.TotalCount != 1 {
		t.Fatalf("expected cached page, got ok=%v %+v", ok, cached)
	}
	// A different query key misses the cache.
	if _, ok := c.CachedCandidates(Query{Search: "john"}); ok {
		t.Fatal("expected cache miss for different query")
	}
}

func TestSearchCandidatesDebounced(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	var searches []string
	srv := newCandidateServer(t, &searches, &hits)

	c := NewClient(srv.URL, nil, srv.Client())
	defer c.Close()

	// Rapid keystrokes inside the debounce window collapse into one
	// request for the final term.
	done := make(chan struct{})
	for _, term := range []string{"jo", "joh", "john"} {
		q := Query{Search: term}
		c.SearchCandidates(context.Background(), q, func(page CandidatePage, err error) {
			if err != nil {
				t.Errorf("search callback error: %v", err)
			}
			close(done)
		})
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("debounced search never fired")
	}

	if got := hits.Load(); got != 1 {
		t.Fatalf("expected exactly 1 request, got %d", got)
	}
	if len(searches) != 1 || searches[0] != "john" {
		t.Fatalf("expected final term only, got %v", searches)
	}
}

func TestMoveCandidateStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing move-to-interview permission"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, nil, srv.Client())
	defer c.Close()

	err := c.MoveCandidateStatus(context.Background(), "c1", "interview", "k1", false)
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if got := err.Error(); got != "status 403: missing move-to-interview permission" {
		t.Fatalf("unexpected error message %q", got)
	}
}

func TestPermissionsHeaderSent(t *testing.T) {
	t.Parallel()

	var header atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header.Store(r.Header.Get("X-Recruiter-Permissions"))
		_ = json.NewEncoder(w).Encode(map[string]any{"candidate": nil})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, []string{"move-to-interview", "convert-to-employee"}, srv.Client())
	defer c.Close()

	if err := c.MoveCandidateStatus(context.Background(), "c1", "interview", "", false); err != nil {
		t.Fatalf("MoveCandidateStatus error: %v", err)
	}
	if got := header.Load(); got != "move-to-interview,convert-to-employee" {
		t.Fatalf("unexpected permissions header %v", got)
	}
}

func TestNotificationEagerPatches(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(NotificationList{
				Results: []model.Notification{
					{ID: "n1", RecruiterID: "r1"},
					{ID: "n2", RecruiterID: "r1"},
				},
				TotalCount: 2,
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, nil, srv.Client())
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Notifications(ctx, "r1"); err != nil {
		t.Fatalf("Notifications error: %v", err)
	}

	// Read marker patches the cache before the request resolves.
	if err := c.MarkNotificationRead(ctx, "r1", "n1"); err != nil {
		t.Fatalf("MarkNotificationRead error: %v", err)
	}
	list, ok := c.CachedNotifications("r1")
	if !ok || !list.Results[0].Read {
		t.Fatalf("expected n1 read in cache, got %+v", list)
	}

	// Delete removes from the cache and fixes the count.
	if err := c.DeleteNotification(ctx, "r1", "n2"); err != nil {
		t.Fatalf("DeleteNotification error: %v", err)
	}
	list, _ = c.CachedNotifications("r1")
	if len(list.Results) != 1 || list.TotalCount != 1 {
		t.Fatalf("expected n2 removed, got %+v", list)
	}

	// Clear drops the whole cache entry.
	if err := c.ClearNotifications(ctx, "r1"); err != nil {
		t.Fatalf("ClearNotifications error: %v", err)
	}
	if _, ok := c.CachedNotifications("r1"); ok {
		t.Fatal("expected cache cleared")
	}
}

func TestQueryKeyStable(t *testing.T) {
	t.Parallel()

	a := Query{Search: "jane", Status: "interview", Limit: 20, Page: 2}
	b := Query{Page: 2, Limit: 20, Status: "interview", Search: "jane"}
	if a.key() != b.key() {
		t.Fatalf("expected identical keys, got %q vs %q", a.key(), b.key())
	}
	if a.key() == (Query{Search: "john"}).key() {
		t.Fatal("expected different queries to have different keys")
	}
}
