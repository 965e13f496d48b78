package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/joseph-ayodele/dist1-extractor/internal/ocr"
)

// Unit markers OCR produces for "µm": u, Greek mu, micro sign, and the usual misreads m and y.
const unitClass = `[uμmyµ]+`

var (
	reLabeled = regexp.MustCompile(`dist[\s_]*1[:\-]?\s*([\-\d.,]+)\s*` + unitClass)
	reBare    = regexp.MustCompile(`([\-\d.,]+)\s*` + unitClass)
)

// Matcher is one tier of the extraction cascade.
type Matcher interface {
	Tier() Tier
	Match(frags []ocr.Fragment) (float64, bool)
}

// DefaultMatchers returns the cascade in priority order.
func DefaultMatchers() []Matcher {
	return []Matcher{labeledMatcher{}, adjacentMatcher{}, bareMatcher{}}
}

// Cascade runs matchers in order and returns the first success.
func Cascade(matchers []Matcher, frags []ocr.Fragment) Result {
	for _, m := range matchers {
		if v, ok := m.Match(frags); ok {
			return Result{Value: v, Tier: m.Tier()}
		}
	}
	return Result{Tier: TierNone}
}

// labeledMatcher finds "dist1 <number><unit>" inside a single labeled fragment.
type labeledMatcher struct{}

func (labeledMatcher) Tier() Tier { return TierLabeled }

func (labeledMatcher) Match(frags []ocr.Fragment) (float64, bool) {
	for _, f := range frags {
		if !hasLabel(f.Text) {
			continue
		}
		if v, ok := parseFirst(reLabeled, f.Text); ok {
			return v, true
		}
	}
	return 0, false
}

// adjacentMatcher handles OCR splitting the label and its value into consecutive fragments.
type adjacentMatcher struct{}

func (adjacentMatcher) Tier() Tier { return TierAdjacent }

func (adjacentMatcher) Match(frags []ocr.Fragment) (float64, bool) {
	for i, f := range frags {
		if !hasLabel(f.Text) || i+1 >= len(frags) {
			continue
		}
		if v, ok := parseFirst(reBare, frags[i+1].Text); ok {
			return v, true
		}
	}
	return 0, false
}

// bareMatcher takes the first number followed by a unit marker, label or not.
type bareMatcher struct{}

func (bareMatcher) Tier() Tier { return TierBare }

func (bareMatcher) Match(frags []ocr.Fragment) (float64, bool) {
	for _, f := range frags {
		if v, ok := parseFirst(reBare, f.Text); ok {
			return v, true
		}
	}
	return 0, false
}

// hasLabel reports whether text carries the dist1 label once case, spaces and
// underscores are ignored.
func hasLabel(text string) bool {
	norm := normalize(text)
	norm = strings.NewReplacer(" ", "", "_", "").Replace(norm)
	return strings.Contains(norm, "dist1")
}

// normalize folds full-width forms such as １２．３ or ｄｉｓｔ１ to ASCII and
// lowercases. The regexes' \d and \s only match ASCII.
func normalize(text string) string {
	return strings.ToLower(width.Narrow.String(text))
}

// parseFirst applies re to the normalized text and parses its first capture.
// A capture that does not parse is no match.
func parseFirst(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(normalize(text))
	if len(m) < 2 {
		return 0, false
	}
	return parseNumber(m[1])
}

// parseNumber parses an OCR number with either comma or dot as decimal separator.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
