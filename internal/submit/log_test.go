package submit

import (
	"context"
	"path/filepath"
	"testing"
)

func testLog(t *testing.T) *Log {
	t.Helper()
	log, err := NewLog(filepath.Join(t.TempDir(), "submissions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func TestLog_RecordAndList(t *testing.T) {
	log := testLog(t)
	ctx := context.Background()

	subs := []*Submission{
		{ID: "a", VideoID: "00102", Timestamp: 12.5, Query: "red car", Status: StatusAccepted, Response: `{"ok":true}`},
		{ID: "b", VideoID: "00250", Timestamp: 3.0, Status: StatusLogged},
	}
	for _, sub := range subs {
		if err := log.Record(ctx, sub); err != nil {
			t.Fatal(err)
		}
	}

	count, err := log.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	got, err := log.List(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d submissions", len(got))
	}
	byID := map[string]*Submission{}
	for _, s := range got {
		byID[s.ID] = s
	}
	a := byID["a"]
	if a == nil || a.VideoID != "00102" || a.Timestamp != 12.5 || a.Query != "red car" || a.Status != StatusAccepted {
		t.Errorf("submission a = %+v", a)
	}
	if a.CreatedAt.IsZero() {
		t.Error("created_at not persisted")
	}
	b := byID["b"]
	if b == nil || b.Status != StatusLogged || b.Query != "" {
		t.Errorf("submission b = %+v", b)
	}
}

func TestLog_ListPagination(t *testing.T) {
	log := testLog(t)
	ctx := context.Background()
	for _, id := range []string{"s1", "s2", "s3"} {
		if err := log.Record(ctx, &Submission{ID: id, VideoID: "v", Timestamp: 1, Status: StatusLogged}); err != nil {
			t.Fatal(err)
		}
	}
	page, err := log.List(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 {
		t.Errorf("page size = %d, want 1", len(page))
	}
}

func TestNewLog_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "submissions.db")
	log, err := NewLog(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = log.Close()
}
