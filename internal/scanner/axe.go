package scanner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/raysh454/tenji/internal/model"
)

// axeRunExpr returns the page-side expression that runs axe and serializes
// its violations. tags restricts the rule set (axe's runOnly by tag); an
// empty list runs everything.
func axeRunExpr(tags []string) string {
	opts := "{}"
	if len(tags) > 0 {
		quoted := make([]string, len(tags))
		for i, t := range tags {
			quoted[i] = fmt.Sprintf("%q", t)
		}
		opts = fmt.Sprintf(`{runOnly: {type: "tag", values: [%s]}}`, strings.Join(quoted, ", "))
	}
	return fmt.Sprintf(`(async () => {
		const results = await axe.run(document, %s);
		return JSON.stringify(results.violations);
	})()`, opts)
}

// axeViolation mirrors the relevant slice of axe-core's violation JSON.
type axeViolation struct {
	ID          string    `json:"id"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Tags        []string  `json:"tags"`
	Nodes       []axeNode `json:"nodes"`
}

type axeNode struct {
	Target         axeTarget `json:"target"`
	HTML           string    `json:"html"`
	FailureSummary string    `json:"failureSummary"`
}

// axeTarget decodes axe's target array, whose entries are selectors (strings)
// or, for elements inside iframes/shadow roots, nested selector arrays. The
// nested form flattens in document order so the fingerprint still sees the
// full structural path.
type axeTarget []string

func (t *axeTarget) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			out = append(out, s)
			continue
		}
		var nested []string
		if err := json.Unmarshal(entry, &nested); err != nil {
			return fmt.Errorf("axe target entry %s: %w", entry, err)
		}
		out = append(out, nested...)
	}
	*t = out
	return nil
}

// decodeAxeViolations converts the serialized axe output to the scan model.
func decodeAxeViolations(raw string) ([]model.Violation, error) {
	var axeViolations []axeViolation
	if err := json.Unmarshal([]byte(raw), &axeViolations); err != nil {
		return nil, fmt.Errorf("decoding axe violations: %w", err)
	}

	out := make([]model.Violation, 0, len(axeViolations))
	for _, av := range axeViolations {
		desc := av.Description
		if desc == "" {
			desc = av.Help
		}
		v := model.Violation{
			ID:          av.ID,
			Impact:      model.Severity(av.Impact),
			Description: desc,
			HelpURL:     av.HelpURL,
			Tags:        av.Tags,
			Nodes:       make([]model.Node, 0, len(av.Nodes)),
		}
		for _, an := range av.Nodes {
			v.Nodes = append(v.Nodes, model.Node{
				Target:         an.Target,
				HTML:           an.HTML,
				FailureSummary: an.FailureSummary,
			})
		}
		out = append(out, v)
	}
	return out, nil
}
