package measure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
	"github.com/joseph-ayodele/dist1-extractor/internal/extract"
)

// stubExtractor answers by base file name; unknown files read as "no value".
type stubExtractor struct {
	values map[string]float64
	calls  []string
}

func (s *stubExtractor) Extract(_ context.Context, path string) extract.Result {
	name := filepath.Base(path)
	s.calls = append(s.calls, name)
	v, ok := s.values[name]
	if !ok {
		return extract.Result{Tier: extract.TierNone}
	}
	return extract.Result{Value: v, Tier: extract.TierLabeled}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("png"), 0o644); err != nil {
			t.Fatalf("write %s: %v", n, err)
		}
	}
}

func TestCupPassAlwaysSevenRecords(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "1-cup.png", "3-cup.png", "8-cup.png", "notes.txt")
	ext := &stubExtractor{values: map[string]float64{"1-cup.png": 12.5, "3-cup.png": 7.25}}

	recs := NewAggregator(ext, nil).CupPass(context.Background(), dir)
	if len(recs) != 7 {
		t.Fatalf("expected 7 cup records, got %d", len(recs))
	}
	for i, r := range recs {
		want := []string{"1-cup.png", "2-cup.png", "3-cup.png", "4-cup.png", "5-cup.png", "6-cup.png", "7-cup.png"}[i]
		if r.FileName != want {
			t.Fatalf("record %d: expected %s, got %s", i, want, r.FileName)
		}
		if r.Group != 0 || r.IsGroupMax {
			t.Fatalf("cup record must not carry group data: %+v", r)
		}
	}
	if recs[0].Value != 12.5 || recs[2].Value != 7.25 {
		t.Fatalf("unexpected values %+v", recs)
	}
	if !recs[1].Missing || recs[1].Value != 0 {
		t.Fatalf("expected placeholder for 2-cup.png, got %+v", recs[1])
	}
	if recs[0].Missing {
		t.Fatalf("present file flagged missing")
	}
	if len(ext.calls) != 2 {
		t.Fatalf("extractor should only run on present files, got %v", ext.calls)
	}
}

func TestPlungerPassGroupsAndMaxima(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"1-plunger-2.png", "1-plunger-1.png", "1-plunger-3.png",
		"2-plunger-a.png", "2-plunger-b.png",
		"3-plunger-1.png",
		"10-plunger-1.png",
		"5-plunger-1.jpg",
	)
	ext := &stubExtractor{values: map[string]float64{
		"1-plunger-1.png":  10.0,
		"1-plunger-2.png":  15.5,
		"1-plunger-3.png":  15.5,
		"2-plunger-b.png":  3.0,
		"10-plunger-1.png": 99,
	}}

	recs := NewAggregator(ext, nil).PlungerPass(context.Background(), dir)
	var names []string
	for _, r := range recs {
		names = append(names, r.FileName)
	}
	want := []string{"1-plunger-1.png", "1-plunger-2.png", "1-plunger-3.png", "2-plunger-a.png", "2-plunger-b.png", "3-plunger-1.png"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}

	marks := map[string]bool{}
	for _, r := range recs {
		marks[r.FileName] = r.IsGroupMax
	}
	expect := map[string]bool{
		"1-plunger-1.png": false,
		"1-plunger-2.png": true, // tie
		"1-plunger-3.png": true, // tie
		"2-plunger-a.png": false,
		"2-plunger-b.png": true,
		"3-plunger-1.png": false, // max 0 never marked
	}
	for name, m := range expect {
		if marks[name] != m {
			t.Fatalf("%s: expected IsGroupMax=%v, got %v", name, m, marks[name])
		}
	}
	if recs[0].Group != 1 || recs[3].Group != 2 || recs[5].Group != 3 {
		t.Fatalf("unexpected groups %+v", recs)
	}
}

func TestPlungerPassEmptyFolder(t *testing.T) {
	recs := NewAggregator(&stubExtractor{}, nil).PlungerPass(context.Background(), t.TempDir())
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %+v", recs)
	}
}

func TestPlungerPassFolderNameWithPatternChars(t *testing.T) {
	for _, name := range []string{"plain", "lot[1]", "run*2", "batch?"} {
		t.Run(name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), name, "plunger")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			touch(t, dir, "1-plunger-1.png", "1-plunger-2.png")
			if err := os.Mkdir(filepath.Join(dir, "1-plunger-dir.png"), 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			ext := &stubExtractor{values: map[string]float64{"1-plunger-1.png": 2, "1-plunger-2.png": 5}}

			recs := NewAggregator(ext, nil).PlungerPass(context.Background(), dir)
			if len(recs) != 2 {
				t.Fatalf("expected 2 plunger records, got %+v", recs)
			}
			if recs[0].FileName != "1-plunger-1.png" || !recs[1].IsGroupMax || recs[1].Value != 5 {
				t.Fatalf("unexpected records %+v", recs)
			}
		})
	}
}

func TestPlungerPassMissingDir(t *testing.T) {
	recs := NewAggregator(&stubExtractor{}, nil).PlungerPass(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if len(recs) != 0 {
		t.Fatalf("expected no records, got %+v", recs)
	}
}

func TestGroupMax(t *testing.T) {
	recs := []entity.Measurement{
		{Group: 1, Value: 0},
		{Group: 1, Value: 0},
		{Group: 2, Value: 4.5},
		{Group: 2, Value: 6},
		{Group: 0, Value: 100},
	}
	if v, ok := GroupMax(recs, 1); !ok || v != 0 {
		t.Fatalf("group 1: expected 0/true, got %v/%v", v, ok)
	}
	if v, ok := GroupMax(recs, 2); !ok || v != 6 {
		t.Fatalf("group 2: expected 6/true, got %v/%v", v, ok)
	}
	if _, ok := GroupMax(recs, 4); ok {
		t.Fatalf("group 4 should be empty")
	}
	if got := ByGroup(recs, 2); len(got) != 2 || got[0].Value != 4.5 {
		t.Fatalf("unexpected ByGroup result %+v", got)
	}
}

func TestMarkGroupMaxNegative(t *testing.T) {
	recs := []entity.Measurement{{Value: -1}, {Value: -3}}
	MarkGroupMax(recs)
	if recs[0].IsGroupMax || recs[1].IsGroupMax {
		t.Fatalf("non-positive maximum must not be marked: %+v", recs)
	}
}
