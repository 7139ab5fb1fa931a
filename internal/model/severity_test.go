package model_test

import (
	"testing"

	"github.com/raysh454/tenji/internal/model"
)

func TestSeverity_Ordering(t *testing.T) {
	t.Parallel()

	ordered := []model.Severity{
		model.SeverityMinor,
		model.SeverityModerate,
		model.SeveritySerious,
		model.SeverityCritical,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Rank() <= ordered[i-1].Rank() {
			t.Errorf("%s should rank above %s", ordered[i], ordered[i-1])
		}
	}
}

func TestSeverity_AtLeast(t *testing.T) {
	t.Parallel()

	cases := []struct {
		s, threshold model.Severity
		want         bool
	}{
		{model.SeverityCritical, model.SeveritySerious, true},
		{model.SeveritySerious, model.SeveritySerious, true},
		{model.SeverityModerate, model.SeveritySerious, false},
		{model.Severity("weird"), model.SeverityMinor, false},
		// Unknown or empty threshold means no filtering.
		{model.SeverityMinor, model.Severity(""), true},
		{model.Severity("weird"), model.Severity("other"), true},
	}
	for _, tc := range cases {
		if got := tc.s.AtLeast(tc.threshold); got != tc.want {
			t.Errorf("%q.AtLeast(%q) = %t, want %t", tc.s, tc.threshold, got, tc.want)
		}
	}
}

func TestSeverity_Known(t *testing.T) {
	t.Parallel()

	if !model.SeverityModerate.Known() {
		t.Error("moderate should be known")
	}
	if model.Severity("blocker").Known() {
		t.Error("blocker should be unknown")
	}
}
