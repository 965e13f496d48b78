package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/dist1-extractor/internal/common"
	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: filepath.Join(t.TempDir(), "history.db")}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestDialectFor(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost/db":   DialectPostgres,
		"postgresql://u:p@localhost/db": DialectPostgres,
		"/var/lib/dist1/history.db":     DialectSQLite,
		"history.db":                    DialectSQLite,
	}
	for dsn, want := range cases {
		if got := DialectFor(dsn); got != want {
			t.Fatalf("%s: expected %s, got %s", dsn, want, got)
		}
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: DialectPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("unexpected rebind %q", got)
	}
	lite := &DB{Dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite query must be unchanged, got %q", got)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	if err := HealthCheck(ctx, db, time.Second, nil); err != nil {
		t.Fatalf("health: %v", err)
	}
	repo := NewRunRepository(db, nil)

	started := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	run := entity.Run{
		ID:            uuid.New(),
		Folder:        "/data/batch-1",
		Lang:          "ja",
		State:         "PARTIAL",
		Percent:       66,
		SubmittedAt:   started,
		StartedAt:     &started,
		CSVPath:       "/data/batch-1/ocr_result.csv",
		WorkbookError: "SPREADSHEET_ERROR: sheet missing",
	}
	recs := []entity.Measurement{
		{FileName: "1-cup.png", Value: 12.5, Tier: "labeled"},
		{FileName: "2-cup.png", Missing: true, Tier: "none"},
		{FileName: "1-plunger-1.png", Value: 3.25, Group: 1, IsGroupMax: true, Tier: "bare"},
	}
	if err := repo.SaveRun(ctx, run, recs); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Folder != run.Folder || got.State != "PARTIAL" || got.Lang != "ja" || got.WorkbookError != run.WorkbookError {
		t.Fatalf("unexpected run %+v", got)
	}
	if !got.SubmittedAt.Equal(started) || got.StartedAt == nil || !got.StartedAt.Equal(started) || got.FinishedAt != nil {
		t.Fatalf("timestamps not round-tripped: %+v", got)
	}

	ms, err := repo.ListMeasurements(ctx, run.ID)
	if err != nil {
		t.Fatalf("list measurements: %v", err)
	}
	if len(ms) != 3 || ms[0].Value != 12.5 || !ms[1].Missing || !ms[2].IsGroupMax || ms[2].Group != 1 {
		t.Fatalf("unexpected measurements %+v", ms)
	}

	// Saving again replaces state and measurements.
	finished := started.Add(time.Minute)
	run.State, run.FinishedAt = "SUCCEEDED", &finished
	if err := repo.SaveRun(ctx, run, recs[:1]); err != nil {
		t.Fatalf("resave: %v", err)
	}
	got, _ = repo.GetRun(ctx, run.ID)
	if got.State != "SUCCEEDED" || got.FinishedAt == nil {
		t.Fatalf("run not updated: %+v", got)
	}
	ms, _ = repo.ListMeasurements(ctx, run.ID)
	if len(ms) != 1 {
		t.Fatalf("measurements not replaced: %+v", ms)
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("list runs: %v %+v", err, runs)
	}
}

func TestListRunsOrdersWithinOneSecond(t *testing.T) {
	repo := NewRunRepository(openTestDB(t), nil)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 30, 5, 0, time.UTC)
	offsets := []time.Duration{0, 500 * time.Millisecond, -100 * time.Millisecond, 1500 * time.Microsecond}
	ids := make([]uuid.UUID, len(offsets))
	for i, off := range offsets {
		ids[i] = uuid.New()
		run := entity.Run{ID: ids[i], Folder: "/data", Lang: "en", State: "SUCCEEDED", SubmittedAt: base.Add(off)}
		if err := repo.SaveRun(ctx, run, nil); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	want := []uuid.UUID{ids[1], ids[3], ids[0], ids[2]}
	if len(runs) != len(want) {
		t.Fatalf("expected %d runs, got %d", len(want), len(runs))
	}
	for i, id := range want {
		if runs[i].ID != id {
			t.Fatalf("position %d: expected submitted_at %s, got %s", i, base.Add(offsets[indexOf(ids, id)]), runs[i].SubmittedAt)
		}
	}
	if !runs[2].SubmittedAt.Equal(base) {
		t.Fatalf("whole-second timestamp not round-tripped: %s", runs[2].SubmittedAt)
	}
}

func indexOf(ids []uuid.UUID, id uuid.UUID) int {
	for i := range ids {
		if ids[i] == id {
			return i
		}
	}
	return -1
}

func TestFormatTimeIsFixedWidth(t *testing.T) {
	a := formatTime(time.Date(2025, 3, 1, 9, 30, 5, 0, time.UTC))
	b := formatTime(time.Date(2025, 3, 1, 9, 30, 5, 500_000_000, time.FixedZone("JST", 9*3600)))
	if a != "2025-03-01T09:30:05.000000000Z" {
		t.Fatalf("unexpected format %q", a)
	}
	if len(a) != len(b) || b != "2025-03-01T00:30:05.500000000Z" {
		t.Fatalf("unexpected format %q", b)
	}
}

func TestGetRunNotFound(t *testing.T) {
	repo := NewRunRepository(openTestDB(t), nil)
	_, err := repo.GetRun(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
