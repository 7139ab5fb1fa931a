// Package report renders gate reports for machines (JSON) and reviewers
// (markdown), with an optional AI-generated summary paragraph.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/raysh454/tenji/internal/diff"
	"github.com/raysh454/tenji/internal/utils"
)

// WriteJSON persists the report document atomically at path.
func WriteJSON(path string, report *diff.Report) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := utils.AtomicWriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
