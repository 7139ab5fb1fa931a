package model_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/raysh454/tenji/internal/model"
)

const sampleScanJSON = `{
	"generatedAt": "2026-08-01T12:00:00Z",
	"origin": "http://localhost:3000",
	"pages": [
		{
			"urlPath": "/",
			"violations": [
				{
					"id": "image-alt",
					"impact": "critical",
					"description": "Images must have alternate text",
					"helpUrl": "https://dequeuniversity.com/rules/axe/4.9/image-alt",
					"tags": ["wcag2a", "cat.text-alternatives"],
					"nodes": [
						{
							"target": ["main", "img:nth-child(1)"],
							"html": "<img src=\"hero.png\">",
							"failureSummary": "Fix any of the following: element has no alt attribute"
						}
					]
				}
			]
		},
		{"urlPath": "/empty", "violations": []}
	]
}`

func TestDecodeScanResult(t *testing.T) {
	t.Parallel()

	scan, err := model.DecodeScanResult(strings.NewReader(sampleScanJSON), "sample")
	if err != nil {
		t.Fatalf("DecodeScanResult: %v", err)
	}
	if len(scan.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(scan.Pages))
	}
	if scan.Origin != "http://localhost:3000" {
		t.Errorf("origin = %q", scan.Origin)
	}

	v := scan.Pages[0].Violations[0]
	if v.ID != "image-alt" || v.Impact != model.SeverityCritical {
		t.Errorf("violation = %+v", v)
	}
	if len(v.Nodes) != 1 || v.Nodes[0].Target[1] != "img:nth-child(1)" {
		t.Errorf("nodes = %+v", v.Nodes)
	}

	// Zero-violation page proves the page was scanned, not skipped.
	if scan.Pages[1].URLPath != "/empty" || scan.Pages[1].Violations == nil {
		t.Errorf("empty page not preserved: %+v", scan.Pages[1])
	}

	if got := scan.TotalOccurrences(); got != 1 {
		t.Errorf("TotalOccurrences() = %d, want 1", got)
	}
}

func TestDecodeScanResult_Malformed(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		field string
	}{
		{"missing pages", `{"generatedAt":"2026-08-01T12:00:00Z"}`, "pages"},
		{"not json", `{{{`, "(document)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := model.DecodeScanResult(strings.NewReader(tc.input), "bad.json")
			var malformed *model.MalformedScanError
			if !errors.As(err, &malformed) {
				t.Fatalf("err = %v, want MalformedScanError", err)
			}
			if malformed.Field != tc.field {
				t.Errorf("Field = %q, want %q", malformed.Field, tc.field)
			}
			// Operators need to see which file was rejected.
			if !strings.Contains(malformed.Error(), "bad.json") {
				t.Errorf("error message %q does not name the source", malformed.Error())
			}
		})
	}
}

func TestLoadScanResult_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := model.LoadScanResult("/nonexistent/scan.json"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
