package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/model"
	"github.com/raysh454/tenji/internal/utils"
)

// Scanner produces the violations for a single page. Implementations own
// navigation, rule-engine invocation and severity pre-filtering; every
// emitted node must carry a selector path and markup string, which the
// fingerprint policy requires.
type Scanner interface {
	// ScanPage scans one absolute URL and returns its page result.
	ScanPage(ctx context.Context, pageURL string) (*model.PageResult, error)

	// Close releases backend resources.
	Close() error
}

// BackendConstructor constructs a Scanner given the config and logger.
type BackendConstructor func(cfg Config, logger logging.Logger) (Scanner, error)

var (
	mu       sync.RWMutex
	registry = map[string]BackendConstructor{}
)

// RegisterBackend registers a named backend constructor. Name is lower-cased
// internally; registering the same name overwrites the previous constructor.
func RegisterBackend(name Backend, ctor BackendConstructor) {
	if name == "" || ctor == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(string(name))] = ctor
}

// NewScanner constructs the configured backend. It returns an error if the
// named backend has not been registered.
func NewScanner(cfg Config, logger logging.Logger) (Scanner, error) {
	backend := strings.ToLower(strings.TrimSpace(string(cfg.Backend)))
	if backend == "" {
		backend = string(BackendChromedp)
	}

	mu.RLock()
	ctor, ok := registry[backend]
	mu.RUnlock()
	if !ok || ctor == nil {
		return nil, fmt.Errorf("scanner backend %q not registered: available backends=%v", backend, ListBackends())
	}

	sc, err := ctor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to construct scanner backend %q: %w", backend, err)
	}
	if sc == nil {
		return nil, errors.New("scanner constructor returned nil")
	}
	return sc, nil
}

// ListBackends returns the registered backend names.
func ListBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ScanPages runs sc over every URL concurrently and assembles the full scan
// document. Per-page failures become page entries with an Errors list so one
// bad page never loses the rest of the run; pages are ordered by URL path in
// the output regardless of completion order.
func ScanPages(ctx context.Context, sc Scanner, cfg Config, origin string, pageURLs []string, logger logging.Logger) (*model.ScanResult, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	if len(pageURLs) == 0 {
		return nil, errors.New("scan: no pages to scan")
	}

	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrency)

	resultMu := sync.Mutex{}
	pages := make([]model.PageResult, 0, len(pageURLs))

	for _, pageURL := range pageURLs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(pageURL string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			pageCtx := ctx
			if cfg.PageTimeout > 0 {
				var cancel context.CancelFunc
				pageCtx, cancel = context.WithTimeout(ctx, cfg.PageTimeout)
				defer cancel()
			}

			page, err := sc.ScanPage(pageCtx, pageURL)
			if err != nil {
				logger.Error("scan: page failed",
					logging.Field{Key: "url", Value: pageURL},
					logging.Field{Key: "error", Value: err.Error()})
				page = &model.PageResult{
					URLPath:    pathOf(pageURL),
					Violations: []model.Violation{},
					Errors:     []string{err.Error()},
				}
			}

			resultMu.Lock()
			pages = append(pages, *page)
			resultMu.Unlock()
		}(pageURL)
	}

	wg.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].URLPath < pages[j].URLPath })

	return &model.ScanResult{
		GeneratedAt: time.Now().UTC(),
		Origin:      origin,
		Pages:       pages,
	}, nil
}

// pathOf extracts the path component for page identity; the raw URL is kept
// only as a fallback when parsing fails.
func pathOf(pageURL string) string {
	u, err := utils.NewURLTools(pageURL)
	if err != nil {
		return pageURL
	}
	return u.GetPath()
}

// filterViolations applies the producer-side pre-filter and guarantees a
// non-nil slice so zero-violation pages marshal as [] rather than null.
func filterViolations(cfg Config, in []model.Violation) []model.Violation {
	out := make([]model.Violation, 0, len(in))
	for _, v := range in {
		if cfg.keep(v) {
			out = append(out, v)
		}
	}
	return out
}
