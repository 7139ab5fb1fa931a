package diff

import (
	"github.com/raysh454/tenji/internal/model"
)

// Record is the denormalized form of one violation occurrence, carried
// through the index, the diff partition and the final report.
type Record struct {
	// Fingerprint is the identity key (see Fingerprint).
	Fingerprint string `json:"fingerprint"`

	// RuleID identifies the violated rule.
	RuleID string `json:"ruleId"`

	// Impact is the rule's severity tier.
	Impact model.Severity `json:"impact"`

	// Description is the rule's human-readable summary.
	Description string `json:"description"`

	// HelpURL links to remediation documentation.
	HelpURL string `json:"helpUrl,omitempty"`

	// Tags are the rule's standard/category labels.
	Tags []string `json:"tags,omitempty"`

	// PagePath is the page the occurrence was found on.
	PagePath string `json:"pagePath"`

	// Target is the selector path to the failing element.
	Target []string `json:"target"`

	// HTML is the element's serialized markup.
	HTML string `json:"html"`

	// FailureSummary is the rule engine's remediation hint.
	FailureSummary string `json:"failureSummary,omitempty"`
}

// Index maps fingerprints to denormalized records for one scan. Keys are
// unique by construction: the first occurrence wins on collision.
type Index struct {
	records map[string]Record

	// Skipped counts occurrences dropped for missing identity fields.
	Skipped int

	// Deduped counts occurrences dropped as fingerprint collisions within
	// the same scan. A collision under the documented policy means "same
	// defect", so this is deduplication, not data loss.
	Deduped int
}

// NewIndex flattens a scan result into a fingerprint-keyed index. It visits
// every page, every violation, every node; nodes that fail fingerprinting
// are counted in Skipped and indexing continues.
func NewIndex(scan *model.ScanResult) *Index {
	ix := &Index{records: make(map[string]Record)}
	if scan == nil {
		return ix
	}
	for _, page := range scan.Pages {
		for _, v := range page.Violations {
			for _, n := range v.Nodes {
				fp, err := Fingerprint(v.ID, page.URLPath, n)
				if err != nil {
					ix.Skipped++
					continue
				}
				if _, exists := ix.records[fp]; exists {
					ix.Deduped++
					continue
				}
				ix.records[fp] = Record{
					Fingerprint:    fp,
					RuleID:         v.ID,
					Impact:         v.Impact,
					Description:    v.Description,
					HelpURL:        v.HelpURL,
					Tags:           v.Tags,
					PagePath:       page.URLPath,
					Target:         n.Target,
					HTML:           n.HTML,
					FailureSummary: n.FailureSummary,
				}
			}
		}
	}
	return ix
}

// Len returns the number of indexed records. Scan-level totals equal this.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Has reports whether fp is present.
func (ix *Index) Has(fp string) bool {
	_, ok := ix.records[fp]
	return ok
}

// Get returns the record for fp.
func (ix *Index) Get(fp string) (Record, bool) {
	r, ok := ix.records[fp]
	return r, ok
}

// Records returns all records in unspecified order.
func (ix *Index) Records() []Record {
	out := make([]Record, 0, len(ix.records))
	for _, r := range ix.records {
		out = append(out, r)
	}
	return out
}
