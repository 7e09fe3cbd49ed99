package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	_ "modernc.org/sqlite"

	"tvshows/internal/store"
	"tvshows/internal/testsupport"
)

func TestRecordRunRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	run := store.Run{
		RunID:         "abc123",
		StartedAt:     started,
		FinishedAt:    started.Add(2 * time.Second),
		Moved:         2,
		FailedDeletes: 1,
		Relocations: []store.Relocation{
			{InputPath: "/tv/a.srt", OutputPath: "/tv/a/a.srt", VideoPath: "/tv/a/a.mkv", Score: 1.5, Removed: true, Language: "en"},
			{InputPath: "/tv/b.srt", OutputPath: "/tv/b/b.srt", VideoPath: "/tv/b/b.mkv", Score: 0.75},
		},
	}
	id, err := st.RecordRun(ctx, run)
	if err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected run row id to be assigned")
	}

	runs, err := st.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run.ID = id
	if diff := cmp.Diff(run, runs[0], cmpopts.EquateApproxTime(time.Microsecond)); diff != "" {
		t.Fatalf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		now := time.Now()
		if _, err := st.RecordRun(ctx, store.Run{RunID: id, StartedAt: now, FinishedAt: now}); err != nil {
			t.Fatalf("RecordRun(%s) failed: %v", id, err)
		}
	}

	runs, err := st.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	var got []string
	for _, run := range runs {
		got = append(got, run.RunID)
	}
	if diff := cmp.Diff([]string{"third", "second"}, got); diff != "" {
		t.Fatalf("run order mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRunRequiresRunID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if _, err := st.RecordRun(context.Background(), store.Run{}); err == nil {
		t.Fatal("expected error when run id missing")
	}
}

func TestPruneRunsRemovesOldRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	if _, err := st.RecordRun(ctx, store.Run{RunID: "old", StartedAt: old, FinishedAt: old,
		Relocations: []store.Relocation{{InputPath: "a", OutputPath: "b", VideoPath: "c"}}}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	now := time.Now()
	if _, err := st.RecordRun(ctx, store.Run{RunID: "new", StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	removed, err := st.PruneRuns(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneRuns failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned run, got %d", removed)
	}
	runs, err := st.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "new" {
		t.Fatalf("unexpected remaining runs: %+v", runs)
	}
}

func TestResponseCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, ok, err := st.GetResponse(ctx, "shows/82", time.Hour); err != nil || ok {
		t.Fatalf("expected cache miss, got ok=%v err=%v", ok, err)
	}
	if err := st.PutResponse(ctx, "shows/82", []byte(`{"id":82}`)); err != nil {
		t.Fatalf("PutResponse failed: %v", err)
	}
	if err := st.PutResponse(ctx, "shows/82", []byte(`{"id":82,"name":"Game of Thrones"}`)); err != nil {
		t.Fatalf("PutResponse overwrite failed: %v", err)
	}
	body, ok, err := st.GetResponse(ctx, "shows/82", time.Hour)
	if err != nil || !ok {
		t.Fatalf("expected cache hit, got ok=%v err=%v", ok, err)
	}
	if string(body) != `{"id":82,"name":"Game of Thrones"}` {
		t.Fatalf("unexpected cached body: %s", body)
	}

	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := st.GetResponse(ctx, "shows/82", time.Millisecond); ok {
		t.Fatal("expected stale entry to be ignored")
	}
	removed, err := st.PruneResponses(ctx, time.Now())
	if err != nil {
		t.Fatalf("PruneResponses failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned response, got %d", removed)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := store.Open(cfg); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
