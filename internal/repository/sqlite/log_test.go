package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/nundung/gamebible/internal/model"
	"github.com/nundung/gamebible/internal/repository"
)

func TestListLogs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createTestUser(t, db, "caller", "호출자", "caller@example.com")

	now := time.Now()
	entries := []model.RequestLog{
		{Method: "GET", URL: "/game/all", Status: 200, RequestedTimestamp: now.Add(-2 * time.Minute)},
		{Method: "POST", URL: "/post", Status: 201, UserIdx: &user, RequestedTimestamp: now.Add(-time.Minute)},
		{Method: "DELETE", URL: "/post/3", Status: 403, UserIdx: &user, RequestedTimestamp: now},
	}
	for i := range entries {
		if err := db.InsertLog(ctx, &entries[i]); err != nil {
			t.Fatalf("InsertLog() error = %v", err)
		}
	}

	all, err := db.ListLogs(ctx, repository.LogFilter{})
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("logs = %d, want 3", len(all))
	}
	if all[0].URL != "/post/3" {
		t.Errorf("newest first: got %s", all[0].URL)
	}
	// The anonymous row round-trips a NULL user.
	if all[2].UserIdx != nil {
		t.Errorf("anonymous log has user idx %v", *all[2].UserIdx)
	}

	byUser, err := db.ListLogs(ctx, repository.LogFilter{Idx: user})
	if err != nil {
		t.Fatalf("ListLogs(user) error = %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("user logs = %d, want 2", len(byUser))
	}

	// The group filter is a path prefix: "post" matches /post and /post/3
	// but not /game/all.
	byAPI, err := db.ListLogs(ctx, repository.LogFilter{API: "post"})
	if err != nil {
		t.Fatalf("ListLogs(api) error = %v", err)
	}
	if len(byAPI) != 2 {
		t.Errorf("post logs = %d, want 2", len(byAPI))
	}
	for _, e := range byAPI {
		if e.Method == "GET" {
			t.Errorf("api filter leaked %s %s", e.Method, e.URL)
		}
	}
}

func TestListLogs_DateWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := model.RequestLog{Method: "GET", URL: "/game/all", Status: 200,
		RequestedTimestamp: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)}
	recent := model.RequestLog{Method: "GET", URL: "/game/all", Status: 200,
		RequestedTimestamp: time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)}
	for _, e := range []model.RequestLog{old, recent} {
		if err := db.InsertLog(ctx, &e); err != nil {
			t.Fatalf("InsertLog() error = %v", err)
		}
	}

	got, err := db.ListLogs(ctx, repository.LogFilter{StartDate: "2024-02-01", EndDate: "2024-03-31"})
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("windowed logs = %d, want 1", len(got))
	}
}
