package scanner

import (
	"strings"
	"testing"

	"github.com/raysh454/tenji/internal/model"
)

func TestDecodeAxeViolations(t *testing.T) {
	t.Parallel()

	raw := `[
		{
			"id": "color-contrast",
			"impact": "serious",
			"description": "Elements must meet minimum color contrast ratio thresholds",
			"helpUrl": "https://dequeuniversity.com/rules/axe/4.9/color-contrast",
			"tags": ["wcag2aa", "cat.color"],
			"nodes": [
				{
					"target": [".hero > p"],
					"html": "<p>dim text</p>",
					"failureSummary": "Fix any of the following: contrast of 2.5"
				}
			]
		}
	]`

	violations, err := decodeAxeViolations(raw)
	if err != nil {
		t.Fatalf("decodeAxeViolations: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("violations = %d, want 1", len(violations))
	}
	v := violations[0]
	if v.ID != "color-contrast" || v.Impact != model.SeveritySerious {
		t.Errorf("violation = %+v", v)
	}
	if len(v.Nodes) != 1 || v.Nodes[0].Target[0] != ".hero > p" {
		t.Errorf("nodes = %+v", v.Nodes)
	}
}

func TestDecodeAxeViolations_NestedFrameTargets(t *testing.T) {
	t.Parallel()

	// Elements inside iframes arrive as nested selector arrays.
	raw := `[
		{
			"id": "image-alt",
			"impact": "critical",
			"description": "Images must have alternate text",
			"nodes": [
				{"target": ["iframe#ad", ["img.banner"]], "html": "<img class=\"banner\">"}
			]
		}
	]`

	violations, err := decodeAxeViolations(raw)
	if err != nil {
		t.Fatalf("decodeAxeViolations: %v", err)
	}
	target := violations[0].Nodes[0].Target
	if len(target) != 2 || target[0] != "iframe#ad" || target[1] != "img.banner" {
		t.Errorf("target = %v, want flattened frame path", target)
	}
}

func TestDecodeAxeViolations_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := decodeAxeViolations(`{"not":"an array"}`); err == nil {
		t.Fatal("expected error for non-array input")
	}
}

func TestAxeRunExpr(t *testing.T) {
	t.Parallel()

	expr := axeRunExpr([]string{"wcag2a", "wcag2aa"})
	for _, want := range []string{`"wcag2a"`, `"wcag2aa"`, "runOnly", "axe.run"} {
		if !strings.Contains(expr, want) {
			t.Errorf("expression missing %q:\n%s", want, expr)
		}
	}

	if got := axeRunExpr(nil); !strings.Contains(got, "axe.run(document, {})") {
		t.Errorf("empty tag list should run everything:\n%s", got)
	}
}
