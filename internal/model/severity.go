package model

// Severity is the impact tier axe assigns to a violated rule. Tiers are
// ordered: minor < moderate < serious < critical. Unknown tiers compare
// below minor but are still carried through aggregation so they stay visible.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySerious  Severity = "serious"
	SeverityCritical Severity = "critical"
)

// severityRank maps known tiers to their position in the ordering.
var severityRank = map[Severity]int{
	SeverityMinor:    1,
	SeverityModerate: 2,
	SeveritySerious:  3,
	SeverityCritical: 4,
}

// Known reports whether s is one of the four axe impact tiers.
func (s Severity) Known() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank returns the tier's position in the ordering, or 0 for unknown tiers.
func (s Severity) Rank() int {
	return severityRank[s]
}

// AtLeast reports whether s is at or above threshold in the tier ordering.
// An unknown severity never satisfies a known threshold, and an unknown or
// empty threshold is satisfied by everything (no filtering).
func (s Severity) AtLeast(threshold Severity) bool {
	tr, ok := severityRank[threshold]
	if !ok {
		return true
	}
	return severityRank[s] >= tr
}

// Severities lists the known tiers from most to least severe, the order
// reports present them in.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeveritySerious, SeverityModerate, SeverityMinor}
}
