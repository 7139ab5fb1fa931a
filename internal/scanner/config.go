package scanner

import (
	"time"

	"github.com/raysh454/tenji/internal/model"
)

// Backend names a scan-producing implementation.
type Backend string

const (
	// BackendChromedp drives a headless Chrome and runs the real axe-core
	// rule engine in the page.
	BackendChromedp Backend = "chromedp"

	// BackendStatic runs a reduced, script-free rule set over fetched HTML.
	// Useful for tests and environments without a browser.
	BackendStatic Backend = "static"
)

// DefaultAxeScriptURL is the axe-core build injected by the chromedp backend.
const DefaultAxeScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.9.1/axe.min.js"

// Config is the explicit producer-side configuration. It is passed into the
// scanner entry point rather than read from ambient process state so the
// core and its tests stay free of hidden environment coupling.
type Config struct {
	// Backend selects the scan implementation.
	Backend Backend

	// RunTags restricts the rule set by standard tags (e.g. wcag2a, wcag2aa).
	RunTags []string

	// MinImpact drops violations below this severity tier before they ever
	// reach the diff engine. Empty means no filtering.
	MinImpact model.Severity

	// IgnoreRules drops violations of these rule ids.
	IgnoreRules []string

	// AxeScriptURL overrides the injected axe-core build (chromedp backend).
	AxeScriptURL string

	// PageTimeout bounds a single page scan.
	PageTimeout time.Duration

	// MaxConcurrency bounds parallel page scans in ScanPages.
	MaxConcurrency int
}

// DefaultConfig returns producer defaults matching the hosted CI setup.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendChromedp,
		RunTags:        []string{"wcag2a", "wcag2aa"},
		AxeScriptURL:   DefaultAxeScriptURL,
		PageTimeout:    30 * time.Second,
		MaxConcurrency: 4,
	}
}

// keep filters a violation against MinImpact and IgnoreRules.
func (c Config) keep(v model.Violation) bool {
	for _, ig := range c.IgnoreRules {
		if v.ID == ig {
			return false
		}
	}
	if c.MinImpact != "" && !v.Impact.AtLeast(c.MinImpact) {
		return false
	}
	return true
}
