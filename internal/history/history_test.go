package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmuenzenmeyer/buildwatch/internal/build"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()

	h, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return h
}

func TestRecordAndRecent(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	first := &Record{
		Repo:      "octocat/hello",
		Number:    41,
		Status:    build.StatusFailure,
		Branch:    "main",
		Message:   "break everything",
		Duration:  90 * time.Second,
		WatchedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	second := &Record{
		Repo:      "octocat/hello",
		Number:    42,
		Status:    build.StatusSuccess,
		Branch:    "main",
		Message:   "fix everything",
		Duration:  75 * time.Second,
		WatchedAt: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
	}
	for _, rec := range []*Record{first, second} {
		if err := h.Record(ctx, rec); err != nil {
			t.Fatalf("Record(#%d): %v", rec.Number, err)
		}
	}

	records, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Number != 42 {
		t.Errorf("newest first: got #%d, want #42", records[0].Number)
	}
	got := records[0]
	if got.Repo != second.Repo || got.Status != second.Status || got.Branch != second.Branch {
		t.Errorf("got %+v, want fields of %+v", got, second)
	}
	if got.Message != second.Message {
		t.Errorf("got message %q, want %q", got.Message, second.Message)
	}
	if got.Duration != second.Duration {
		t.Errorf("got duration %s, want %s", got.Duration, second.Duration)
	}
	if !got.WatchedAt.Equal(second.WatchedAt) {
		t.Errorf("got watched at %s, want %s", got.WatchedAt, second.WatchedAt)
	}
}

func TestRecordUpserts(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	rec := &Record{
		Repo:      "octocat/hello",
		Number:    42,
		Status:    build.StatusRunning,
		Branch:    "main",
		Message:   "fix everything",
		WatchedAt: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
	}
	if err := h.Record(ctx, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rec.Status = build.StatusSuccess
	rec.Duration = 80 * time.Second
	rec.WatchedAt = rec.WatchedAt.Add(2 * time.Minute)
	if err := h.Record(ctx, rec); err != nil {
		t.Fatalf("Record again: %v", err)
	}

	records, err := h.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 after re-watching the same build", len(records))
	}
	if records[0].Status != build.StatusSuccess {
		t.Errorf("got status %q, want %q", records[0].Status, build.StatusSuccess)
	}
	if records[0].Duration != 80*time.Second {
		t.Errorf("got duration %s, want 80s", records[0].Duration)
	}
}

func TestRecentLimit(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		rec := &Record{
			Repo:      "octocat/hello",
			Number:    i,
			Status:    build.StatusSuccess,
			Branch:    "main",
			Message:   "change",
			WatchedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := h.Record(ctx, rec); err != nil {
			t.Fatalf("Record(#%d): %v", i, err)
		}
	}

	records, err := h.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Number != 3 || records[1].Number != 2 {
		t.Errorf("got builds #%d, #%d, want #3, #2", records[0].Number, records[1].Number)
	}
}

func TestRecentEmpty(t *testing.T) {
	h := newTestHistory(t)

	records, err := h.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want none", len(records))
	}
}

func TestRecordFillsWatchedAt(t *testing.T) {
	h := newTestHistory(t)
	ctx := context.Background()

	rec := &Record{
		Repo:    "octocat/hello",
		Number:  7,
		Status:  build.StatusKilled,
		Branch:  "main",
		Message: "cancelled",
	}
	if err := h.Record(ctx, rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := h.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].WatchedAt.IsZero() {
		t.Error("watched at not defaulted for zero timestamp")
	}
}
