package scanner

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/model"
)

func init() {
	RegisterBackend(BackendStatic, func(cfg Config, logger logging.Logger) (Scanner, error) {
		return NewStaticScanner(cfg, logger), nil
	})
}

// StaticScanner fetches pages over plain HTTP and runs the script-free rule
// set. It misses anything requiring computed style or script execution, but
// needs no browser and is fully deterministic, which makes it the backend of
// choice for tests and constrained CI runners.
type StaticScanner struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
}

// NewStaticScanner creates a StaticScanner. A nil logger discards logs.
func NewStaticScanner(cfg Config, logger logging.Logger) *StaticScanner {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &StaticScanner{
		cfg:    cfg,
		client: &http.Client{},
		logger: logger.With(logging.Field{Key: "component", Value: "static_scanner"}),
	}
}

// ScanPage fetches the page and evaluates every static rule against it.
func (s *StaticScanner) ScanPage(ctx context.Context, pageURL string) (*model.PageResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("static scan: building request for %s: %w", pageURL, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("static scan: fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("static scan: %s returned %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("static scan: parsing %s: %w", pageURL, err)
	}

	return s.scanDocument(doc, pageURL), nil
}

// ScanDocument runs the rule set over already-parsed HTML. Exposed for the
// demo site tests, which have the document in hand.
func (s *StaticScanner) ScanDocument(doc *goquery.Document, pageURL string) *model.PageResult {
	return s.scanDocument(doc, pageURL)
}

func (s *StaticScanner) scanDocument(doc *goquery.Document, pageURL string) *model.PageResult {
	violations := []model.Violation{}
	for _, rule := range staticRules {
		if !s.ruleSelected(rule) {
			continue
		}
		nodes := rule.Check(doc)
		if len(nodes) == 0 {
			continue
		}
		violations = append(violations, model.Violation{
			ID:          rule.ID,
			Impact:      rule.Impact,
			Description: rule.Description,
			HelpURL:     helpURL(rule.ID),
			Tags:        rule.Tags,
			Nodes:       nodes,
		})
	}

	violations = filterViolations(s.cfg, violations)

	s.logger.Debug("static scan: page done",
		logging.Field{Key: "url", Value: pageURL},
		logging.Field{Key: "violations", Value: len(violations)})

	return &model.PageResult{
		URLPath:    pathOf(pageURL),
		Violations: violations,
	}
}

// ruleSelected applies the RunTags restriction; a rule runs when it shares
// at least one tag with the configured set, or when no set is configured.
func (s *StaticScanner) ruleSelected(rule staticRule) bool {
	if len(s.cfg.RunTags) == 0 {
		return true
	}
	for _, want := range s.cfg.RunTags {
		for _, have := range rule.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Close is a no-op; the static backend holds no long-lived resources.
func (s *StaticScanner) Close() error { return nil }
