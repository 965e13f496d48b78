// Package measure walks the cup and plunger folders and turns images into
// measurement records.
package measure

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joseph-ayodele/dist1-extractor/constants"
	"github.com/joseph-ayodele/dist1-extractor/internal/entity"
	"github.com/joseph-ayodele/dist1-extractor/internal/extract"
)

type Aggregator struct {
	extractor extract.ValueExtractor
	logger    *slog.Logger
}

func NewAggregator(extractor extract.ValueExtractor, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{extractor: extractor, logger: logger}
}

// CupPass returns exactly constants.CupCount records in index order. A missing
// image gets a 0.00 placeholder.
func (a *Aggregator) CupPass(ctx context.Context, dir string) []entity.Measurement {
	out := make([]entity.Measurement, 0, constants.CupCount)
	for i := 1; i <= constants.CupCount; i++ {
		name := constants.CupFileName(i)
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			a.logger.Info("cup image missing", "path", path)
			out = append(out, entity.Measurement{FileName: name, Missing: true, Tier: string(extract.TierNone)})
			continue
		}
		out = append(out, a.measure(ctx, path, name, 0))
	}
	return out
}

// PlungerPass extracts every replicate of groups 1..GroupCount, in
// lexicographic file order within a group, and marks the group maxima.
func (a *Aggregator) PlungerPass(ctx context.Context, dir string) []entity.Measurement {
	entries, err := os.ReadDir(dir)
	if err != nil {
		a.logger.Warn("plunger dir unreadable", "dir", dir, "error", err)
	}

	var out []entity.Measurement
	for g := 1; g <= constants.GroupCount; g++ {
		names := matchNames(entries, constants.PlungerGlob(g))
		if len(names) == 0 {
			a.logger.Info("plunger group empty", "group", g)
			continue
		}

		group := make([]entity.Measurement, 0, len(names))
		for _, name := range names {
			group = append(group, a.measure(ctx, filepath.Join(dir, name), name, g))
		}
		MarkGroupMax(group)
		out = append(out, group...)
	}
	return out
}

// matchNames returns the sorted names of the regular files in entries matching
// pattern. Only base names are matched, so the folder path never acts as a pattern.
func matchNames(entries []os.DirEntry, pattern string) []string {
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func (a *Aggregator) measure(ctx context.Context, path, name string, group int) entity.Measurement {
	start := time.Now()
	res := a.extractor.Extract(ctx, path)
	a.logger.Debug("image measured",
		"path", path,
		"value", res.Value,
		"tier", res.Tier,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return entity.Measurement{
		FileName: name,
		Value:    res.Value,
		Group:    group,
		Tier:     string(res.Tier),
	}
}

// MarkGroupMax flags every record equal to the maximum of recs, provided the
// maximum is strictly positive. recs must belong to one group.
func MarkGroupMax(recs []entity.Measurement) {
	if len(recs) == 0 {
		return
	}
	max := recs[0].Value
	for _, r := range recs[1:] {
		if r.Value > max {
			max = r.Value
		}
	}
	for i := range recs {
		recs[i].IsGroupMax = max > 0 && recs[i].Value == max
	}
}

// GroupMax returns the maximum value of group g, zeros included. ok is false
// when the group has no records.
func GroupMax(recs []entity.Measurement, g int) (max float64, ok bool) {
	for _, r := range recs {
		if r.Group != g {
			continue
		}
		if !ok || r.Value > max {
			max = r.Value
			ok = true
		}
	}
	return max, ok
}

// ByGroup returns the records of group g in their original order.
func ByGroup(recs []entity.Measurement, g int) []entity.Measurement {
	var out []entity.Measurement
	for _, r := range recs {
		if r.Group == g {
			out = append(out, r)
		}
	}
	return out
}
