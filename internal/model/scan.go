package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// ScanResult is one full accessibility run over a set of pages. It is
// produced once per branch under test and is immutable after creation; the
// diff engine only ever reads it.
type ScanResult struct {
	// GeneratedAt is when the run finished.
	GeneratedAt time.Time `json:"generatedAt"`

	// Origin is the URL prefix the pages were scanned under
	// (e.g. "http://localhost:3000").
	Origin string `json:"origin,omitempty"`

	// Pages holds one entry per scanned page. A page with zero violations is
	// still recorded to prove it was scanned, not skipped.
	Pages []PageResult `json:"pages"`
}

// PageResult is a single scanned page.
type PageResult struct {
	// URLPath is the path component of the scanned URL (e.g. "/about").
	URLPath string `json:"urlPath"`

	// Violations are the rule failures axe reported on this page, in the
	// order the rule engine emitted them.
	Violations []Violation `json:"violations"`

	// Errors collects per-page scan problems (navigation failure, rule
	// engine timeout). A page error never aborts the run.
	Errors []string `json:"errors,omitempty"`
}

// Violation is one rule failure on one page. A rule can fail on several
// elements, so a violation carries one node per failing element.
type Violation struct {
	// ID is the rule identifier (e.g. "image-alt", "color-contrast").
	ID string `json:"id"`

	// Impact is the severity tier the rule engine assigned.
	Impact Severity `json:"impact"`

	// Description is the human-readable rule summary.
	Description string `json:"description"`

	// HelpURL links to the rule's remediation documentation.
	HelpURL string `json:"helpUrl,omitempty"`

	// Tags are the standard/category labels (wcag2a, wcag2aa, ...).
	Tags []string `json:"tags,omitempty"`

	// Nodes are the concrete failing elements.
	Nodes []Node `json:"nodes"`
}

// Node is one concrete failing element within a violation.
type Node struct {
	// Target is the structural path to the element, outermost selector
	// fragment first. It is stable across re-scans of unchanged markup but
	// not globally unique: two structurally identical components can yield
	// identical fragment lists.
	Target []string `json:"target"`

	// HTML is the element's serialized markup.
	HTML string `json:"html"`

	// FailureSummary is the rule engine's remediation hint for this element.
	FailureSummary string `json:"failureSummary,omitempty"`
}

// MalformedScanError reports a scan document that fails structural
// validation. It is fatal to the diff invocation: no partial report is
// produced from a malformed input.
type MalformedScanError struct {
	// Source names where the document came from (file path, "stdin", ...).
	Source string

	// Field names the missing or invalid field.
	Field string

	// Reason explains what was wrong.
	Reason string
}

func (e *MalformedScanError) Error() string {
	return fmt.Sprintf("malformed scan result %s: field %q: %s", e.Source, e.Field, e.Reason)
}

// Validate checks the structural requirements of a scan document. source is
// only used for error context.
func (s *ScanResult) Validate(source string) error {
	if s.Pages == nil {
		return &MalformedScanError{Source: source, Field: "pages", Reason: "missing"}
	}
	return nil
}

// DecodeScanResult reads and validates a scan document from r.
func DecodeScanResult(r io.Reader, source string) (*ScanResult, error) {
	var s ScanResult
	dec := json.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, &MalformedScanError{Source: source, Field: "(document)", Reason: err.Error()}
	}
	if err := s.Validate(source); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScanResult reads and validates a scan document from a file.
func LoadScanResult(path string) (*ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scan result %s: %w", path, err)
	}
	defer f.Close()
	return DecodeScanResult(f, path)
}

// TotalOccurrences counts failing elements across all pages and violations.
func (s *ScanResult) TotalOccurrences() int {
	n := 0
	for _, p := range s.Pages {
		for _, v := range p.Violations {
			n += len(v.Nodes)
		}
	}
	return n
}
