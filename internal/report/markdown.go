package report

import (
	"fmt"
	"strings"

	"github.com/raysh454/tenji/internal/diff"
	"github.com/raysh454/tenji/internal/model"
)

// maxListedRecords caps how many records each section spells out so the
// rendered comment stays readable on large sites.
const maxListedRecords = 20

// Markdown renders a report as a pull-request comment. The summary argument
// is an optional free-text paragraph (usually from a Summarizer) placed
// under the verdict line; pass "" to omit it.
func Markdown(report *diff.Report, summary string) string {
	var b strings.Builder

	if report.Regression {
		b.WriteString("## Accessibility check: regression detected\n\n")
	} else {
		b.WriteString("## Accessibility check: passed\n\n")
	}

	if summary != "" {
		b.WriteString(summary)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "| | Baseline | Head |\n|---|---:|---:|\n")
	fmt.Fprintf(&b, "| Total occurrences | %d | %d |\n",
		report.Summary.BaselineTotal, report.Summary.HeadTotal)
	for _, sev := range model.Severities() {
		fmt.Fprintf(&b, "| %s | %d | %d |\n",
			sev, report.ImpactDelta.Baseline[sev], report.ImpactDelta.Head[sev])
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "**New:** %d &nbsp; **Resolved:** %d &nbsp; **Unchanged:** %d\n\n",
		report.Summary.NewViolations, report.Summary.ResolvedViolations, report.Summary.Unchanged)

	writeRecordSection(&b, "New violations", report.NewViolations)
	writeRecordSection(&b, "Resolved violations", report.ResolvedViolations)

	if deltas := report.RewrittenElements; len(deltas) > 0 {
		b.WriteString("### Rewritten elements\n\n")
		b.WriteString("These new violations share a location with a resolved one; the element was edited rather than added.\n\n")
		for _, d := range deltas {
			fmt.Fprintf(&b, "- `%s` at `%s` on `%s`\n", d.AddedRule, strings.Join(d.Target, " > "), d.PagePath)
			for _, run := range d.Removed {
				fmt.Fprintf(&b, "  - removed: `%s`\n", truncate(run, 120))
			}
			for _, run := range d.Added {
				fmt.Fprintf(&b, "  - added: `%s`\n", truncate(run, 120))
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "<sub>fingerprint policy %s, generated %s</sub>\n",
		report.PolicyVersion, report.GeneratedAt.Format("2006-01-02 15:04 UTC"))

	return b.String()
}

func writeRecordSection(b *strings.Builder, title string, records []diff.Record) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	listed := records
	if len(listed) > maxListedRecords {
		listed = listed[:maxListedRecords]
	}
	for _, rec := range listed {
		fmt.Fprintf(b, "- **%s** (%s) on `%s` at `%s`",
			rec.RuleID, rec.Impact, rec.PagePath, strings.Join(rec.Target, " > "))
		if rec.HelpURL != "" {
			fmt.Fprintf(b, " ([help](%s))", rec.HelpURL)
		}
		b.WriteString("\n")
		if rec.FailureSummary != "" {
			fmt.Fprintf(b, "  - %s\n", truncate(firstLine(rec.FailureSummary), 160))
		}
	}
	if len(records) > maxListedRecords {
		fmt.Fprintf(b, "- and %d more\n", len(records)-maxListedRecords)
	}
	b.WriteString("\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
