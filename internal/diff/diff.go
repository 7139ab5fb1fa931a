package diff

import (
	"sort"
)

// Result is the three-way partition of two indexed scans plus the totals a
// report needs. New/Resolved/Unchanged are disjoint by construction and are
// sorted by page path, rule id, then fingerprint so that reports are stable
// across runs.
type Result struct {
	// New are head occurrences whose fingerprint is absent from baseline.
	New []Record `json:"new"`

	// Resolved are baseline occurrences whose fingerprint is absent from head.
	Resolved []Record `json:"resolved"`

	// Unchanged are head occurrences also present in baseline.
	Unchanged []Record `json:"unchanged"`

	// BaselineTotal and HeadTotal are the respective index sizes.
	BaselineTotal int `json:"baselineTotal"`
	HeadTotal     int `json:"headTotal"`

	// Regression is true when the head scan introduced at least one
	// occurrence that baseline does not have. Resolved violations and
	// unchanged debt never set it: the gate blocks regressions, not
	// accumulated debt.
	Regression bool `json:"regression"`
}

// Compute partitions the two indexes. Correctness is entirely inherited from
// the fingerprint policy; the set math itself has no tunable behavior.
func Compute(baseline, head *Index) *Result {
	res := &Result{
		New:           []Record{},
		Resolved:      []Record{},
		Unchanged:     []Record{},
		BaselineTotal: baseline.Len(),
		HeadTotal:     head.Len(),
	}

	for fp, rec := range head.records {
		if baseline.Has(fp) {
			res.Unchanged = append(res.Unchanged, rec)
		} else {
			res.New = append(res.New, rec)
		}
	}
	for fp, rec := range baseline.records {
		if !head.Has(fp) {
			res.Resolved = append(res.Resolved, rec)
		}
	}

	sortRecords(res.New)
	sortRecords(res.Resolved)
	sortRecords(res.Unchanged)

	res.Regression = len(res.New) > 0
	return res
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].PagePath != recs[j].PagePath {
			return recs[i].PagePath < recs[j].PagePath
		}
		if recs[i].RuleID != recs[j].RuleID {
			return recs[i].RuleID < recs[j].RuleID
		}
		return recs[i].Fingerprint < recs[j].Fingerprint
	})
}
