package diff_test

import (
	"strings"
	"testing"

	"github.com/raysh454/tenji/internal/diff"
	"github.com/raysh454/tenji/internal/model"
)

func TestRewrittenElements_PairsSwapAtSameLocation(t *testing.T) {
	t.Parallel()

	baseline := scanOf("/",
		violation("region", model.SeverityMinor,
			node([]string{"body", "div:nth-child(2)"}, `<div class="banner">promo</div>`)),
	)
	head := scanOf("/",
		violation("region", model.SeverityMinor,
			node([]string{"body", "div:nth-child(2)"}, `<span class="banner">promo</span>`)),
	)

	res := diff.Compute(diff.NewIndex(baseline), diff.NewIndex(head))
	deltas := diff.RewrittenElements(res)
	if len(deltas) != 1 {
		t.Fatalf("deltas = %d, want 1", len(deltas))
	}

	d := deltas[0]
	if d.PagePath != "/" || d.RemovedRule != "region" || d.AddedRule != "region" {
		t.Errorf("unexpected delta metadata: %+v", d)
	}
	if !containsSubstring(d.Removed, "div") {
		t.Errorf("Removed %v does not mention the old tag", d.Removed)
	}
	if !containsSubstring(d.Added, "span") {
		t.Errorf("Added %v does not mention the new tag", d.Added)
	}
}

func TestRewrittenElements_NoPairingAcrossLocations(t *testing.T) {
	t.Parallel()

	baseline := scanOf("/",
		violation("region", model.SeverityMinor, node([]string{"div.a"}, `<div class="a">x</div>`)),
	)
	head := scanOf("/",
		violation("region", model.SeverityMinor, node([]string{"div.b"}, `<div class="b">x</div>`)),
	)

	res := diff.Compute(diff.NewIndex(baseline), diff.NewIndex(head))
	if deltas := diff.RewrittenElements(res); len(deltas) != 0 {
		t.Fatalf("deltas = %d, want 0 (different selector paths must not pair)", len(deltas))
	}
}

func containsSubstring(runs []string, sub string) bool {
	for _, r := range runs {
		if strings.Contains(r, sub) {
			return true
		}
	}
	return false
}
