package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MarkupDelta is a compact text delta between two serialized elements.
// It annotates rewritten elements in reports; identity matching never
// consults it.
type MarkupDelta struct {
	// PagePath and Target locate the element both records share.
	PagePath string   `json:"pagePath"`
	Target   []string `json:"target"`

	// RemovedRule and AddedRule are the rule ids of the resolved and new
	// record respectively (usually the same rule).
	RemovedRule string `json:"removedRule"`
	AddedRule   string `json:"addedRule"`

	// Removed and Added are the text runs that differ between the two
	// markups, equal runs omitted.
	Removed []string `json:"removed,omitempty"`
	Added   []string `json:"added,omitempty"`
}

// RewrittenElements pairs new and resolved records that share a page path
// and selector path: the designed consequence of markup-sensitive
// fingerprinting is that an element swap shows up as resolved + new, and
// this recovers the pairing for reviewers. Returns one delta per pair.
func RewrittenElements(res *Result) []MarkupDelta {
	resolvedByLoc := make(map[string]Record, len(res.Resolved))
	for _, rec := range res.Resolved {
		resolvedByLoc[locKey(rec)] = rec
	}

	deltas := []MarkupDelta{}
	for _, rec := range res.New {
		old, ok := resolvedByLoc[locKey(rec)]
		if !ok {
			continue
		}
		d := MarkupDelta{
			PagePath:    rec.PagePath,
			Target:      rec.Target,
			RemovedRule: old.RuleID,
			AddedRule:   rec.RuleID,
		}
		d.Removed, d.Added = textDelta(old.HTML, rec.HTML)
		deltas = append(deltas, d)
	}
	return deltas
}

func locKey(rec Record) string {
	return rec.PagePath + "|" + strings.Join(rec.Target, selectorSep)
}

// textDelta computes the removed/added runs between two markups using
// semantic cleanup so the delta reads as element-level edits rather than
// character noise.
func textDelta(base, head string) (removed, added []string) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(base, head, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	for _, d := range diffs {
		text := strings.TrimSpace(d.Text)
		if text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			removed = append(removed, text)
		case diffmatchpatch.DiffInsert:
			added = append(added, text)
		}
	}
	return removed, added
}
