package diff

import (
	"github.com/raysh454/tenji/internal/model"
)

// ImpactCounts tallies occurrences per severity tier for one indexed scan.
// The four known tiers are always present (zero when empty) so reports line
// up column-for-column; unrecognized tiers get their own bucket instead of
// vanishing.
type ImpactCounts map[model.Severity]int

// Aggregate counts index records per severity tier. Total over any
// well-formed index, including the empty one.
func Aggregate(ix *Index) ImpactCounts {
	counts := ImpactCounts{
		model.SeverityCritical: 0,
		model.SeveritySerious:  0,
		model.SeverityModerate: 0,
		model.SeverityMinor:    0,
	}
	if ix == nil {
		return counts
	}
	for _, rec := range ix.records {
		counts[rec.Impact]++
	}
	return counts
}

// Total sums all buckets.
func (c ImpactCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// ImpactDelta pairs the per-tier counts of both scans for at-a-glance
// comparison in reports.
type ImpactDelta struct {
	Baseline ImpactCounts `json:"baseline"`
	Head     ImpactCounts `json:"head"`
}
