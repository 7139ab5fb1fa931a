package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raysh454/tenji/internal/diff"
	"github.com/raysh454/tenji/internal/logging"
)

// Summarizer produces a short human-readable paragraph for a report.
// Implementations are advisory: callers must render a full report even
// when Summarize fails.
type Summarizer interface {
	Summarize(ctx context.Context, report *diff.Report) (string, error)
}

const (
	DefaultOpenRouterURL   = "https://openrouter.ai/api/v1/chat/completions"
	DefaultSummarizerModel = "deepseek/deepseek-chat-v3-0324:free"
)

// OpenRouterSummarizer asks an OpenRouter-hosted model to summarize the
// diff for reviewers who do not read raw axe output.
type OpenRouterSummarizer struct {
	APIKey  string
	Model   string
	BaseURL string

	client *http.Client
	logger logging.Logger
}

// NewOpenRouterSummarizer builds a summarizer. An empty apiKey is allowed
// at construction; Summarize will report it as unavailable.
func NewOpenRouterSummarizer(apiKey string, logger logging.Logger) *OpenRouterSummarizer {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &OpenRouterSummarizer{
		APIKey:  apiKey,
		Model:   DefaultSummarizerModel,
		BaseURL: DefaultOpenRouterURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize sends the report tallies and new violations to the model and
// returns its paragraph. Full HTML snippets are withheld; rule ids, pages
// and failure summaries are enough signal for a useful paragraph.
func (s *OpenRouterSummarizer) Summarize(ctx context.Context, report *diff.Report) (string, error) {
	if s.APIKey == "" {
		return "", fmt.Errorf("summarizer: no API key configured")
	}
	if report == nil {
		return "", fmt.Errorf("summarizer: report is nil")
	}

	payload, err := json.Marshal(chatRequest{
		Model: s.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an accessibility engineer. Summarize the following scan diff in one short paragraph for a pull request comment. Mention the most severe new issues first. Do not use markdown headers."},
			{Role: "user", Content: promptFor(report)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarizer: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("summarizer: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarizer: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("summarizer: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summarizer: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("summarizer: decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("summarizer: response had no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	s.logger.Debug("summarizer produced text", logging.Field{Key: "chars", Value: len(text)})
	return text, nil
}

func promptFor(report *diff.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Baseline occurrences: %d. Head occurrences: %d. New: %d. Resolved: %d. Unchanged: %d.\n",
		report.Summary.BaselineTotal, report.Summary.HeadTotal,
		report.Summary.NewViolations, report.Summary.ResolvedViolations, report.Summary.Unchanged)

	if len(report.NewViolations) > 0 {
		b.WriteString("New violations:\n")
		for _, rec := range report.NewViolations {
			fmt.Fprintf(&b, "- %s (%s) on %s", rec.RuleID, rec.Impact, rec.PagePath)
			if rec.FailureSummary != "" {
				fmt.Fprintf(&b, ": %s", firstLine(rec.FailureSummary))
			}
			b.WriteString("\n")
		}
	}
	if len(report.ResolvedViolations) > 0 {
		b.WriteString("Resolved violations:\n")
		for _, rec := range report.ResolvedViolations {
			fmt.Fprintf(&b, "- %s (%s) on %s\n", rec.RuleID, rec.Impact, rec.PagePath)
		}
	}
	return b.String()
}
