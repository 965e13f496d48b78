package extract

import (
	"context"
)

// Tier names the matcher that produced a value.
type Tier string

const (
	TierNone     Tier = "none"
	TierLabeled  Tier = "labeled"  // "dist1: 12.34um" in one fragment
	TierAdjacent Tier = "adjacent" // label fragment followed by "12.34um"
	TierBare     Tier = "bare"     // first "12.34um" anywhere
)

// Result is the outcome of extracting one image. Value is 0 when Tier is TierNone.
type Result struct {
	Value float64
	Tier  Tier
}

// Found reports whether a matcher produced the value.
func (r Result) Found() bool {
	return r.Tier != TierNone && r.Tier != ""
}

// ValueExtractor is the image -> dist1 value stage. Implementations never fail:
// anything that goes wrong surfaces as a zero Result.
type ValueExtractor interface {
	Extract(ctx context.Context, path string) Result
}
