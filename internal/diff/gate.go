package diff

import (
	"time"
)

// Summary is the scan-level tally block of a report.
type Summary struct {
	BaselineTotal      int `json:"baselineTotal"`
	HeadTotal          int `json:"headTotal"`
	NewViolations      int `json:"newViolations"`
	ResolvedViolations int `json:"resolvedViolations"`
	Unchanged          int `json:"unchanged"`
}

// Report is the machine-readable document the gate emits. The reporting
// collaborator must treat the three record sets as final and never re-derive
// identity itself.
type Report struct {
	GeneratedAt   time.Time `json:"generatedAt"`
	PolicyVersion string    `json:"policyVersion"`

	Regression bool `json:"regression"`

	Summary     Summary     `json:"summary"`
	ImpactDelta ImpactDelta `json:"impactDelta"`

	NewViolations       []Record `json:"newViolations"`
	ResolvedViolations  []Record `json:"resolvedViolations"`
	UnchangedViolations []Record `json:"unchangedViolations"`

	// RewrittenElements annotates new violations whose location matches a
	// resolved one, recovering element edits split by the fingerprint.
	RewrittenElements []MarkupDelta `json:"rewrittenElements,omitempty"`
}

// Decision is the gate's verdict. ShouldFail drives the process exit code:
// a regression is a normal terminal state, not an infrastructure failure.
type Decision struct {
	Report     *Report
	ShouldFail bool
}

// Decide assembles the final report and applies the pass/fail policy.
// ShouldFail is true only when the diff found new occurrences AND
// failOnRegression is set; the gate performs no computation beyond this
// policy switch so the "fail build" decision stays a single testable seam.
func Decide(res *Result, baseline, head ImpactCounts, failOnRegression bool) Decision {
	report := &Report{
		GeneratedAt:   time.Now().UTC(),
		PolicyVersion: PolicyVersion,
		Regression:    res.Regression,
		Summary: Summary{
			BaselineTotal:      res.BaselineTotal,
			HeadTotal:          res.HeadTotal,
			NewViolations:      len(res.New),
			ResolvedViolations: len(res.Resolved),
			Unchanged:          len(res.Unchanged),
		},
		ImpactDelta: ImpactDelta{
			Baseline: baseline,
			Head:     head,
		},
		NewViolations:       res.New,
		ResolvedViolations:  res.Resolved,
		UnchangedViolations: res.Unchanged,
		RewrittenElements:   RewrittenElements(res),
	}

	return Decision{
		Report:     report,
		ShouldFail: res.Regression && failOnRegression,
	}
}
