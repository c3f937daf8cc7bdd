package phyto

import (
	"math"

	"github.com/agnivade/levenshtein"
)

// Distance is the Levenshtein edit distance (insertions, deletions and
// substitutions, no transpositions) between two normalized strings.
func Distance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// FuzzyThresholds bound the fuzzy stage. A key is accepted when
//
//	distance <= min(MaxDistance, floor(DistanceRatio*len(query)))
//	|len(query)-len(key)| <= ceil(LengthRatio*len(query))
//
// The defaults are tuned against false positives on short trade names.
type FuzzyThresholds struct {
	MaxDistance   int     `yaml:"fuzzy_max_distance"`
	DistanceRatio float64 `yaml:"fuzzy_distance_ratio"`
	LengthRatio   float64 `yaml:"fuzzy_length_ratio"`
}

// DefaultFuzzyThresholds returns min(2, 15%) edit distance and ±30% length.
func DefaultFuzzyThresholds() FuzzyThresholds {
	return FuzzyThresholds{MaxDistance: 2, DistanceRatio: 0.15, LengthRatio: 0.3}
}

// MaxEdits is the distance budget for a query of length n.
func (t FuzzyThresholds) MaxEdits(n int) int {
	d := int(math.Floor(t.DistanceRatio * float64(n)))
	if t.MaxDistance < d {
		d = t.MaxDistance
	}
	return d
}

// MaxLengthDiff is the allowed length difference for a query of length n.
func (t FuzzyThresholds) MaxLengthDiff(n int) int {
	return int(math.Ceil(t.LengthRatio * float64(n)))
}

// Accept scores key against query (both normalized) and reports whether the
// candidate clears both bounds. The length bound is checked first; the
// returned distance is only meaningful when ok is true.
func (t FuzzyThresholds) Accept(query, key string) (int, bool) {
	n := len(query)
	diff := n - len(key)
	if diff < 0 {
		diff = -diff
	}
	if diff > t.MaxLengthDiff(n) {
		return 0, false
	}
	maxEdits := t.MaxEdits(n)
	// The distance is at least the length difference.
	if diff > maxEdits {
		return 0, false
	}
	d := Distance(query, key)
	return d, d <= maxEdits
}
