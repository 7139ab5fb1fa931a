package enumerate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/utils"
)

// Spider discovers same-origin pages by breadth-first link traversal, so a
// whole site can be gated without listing every path by hand.
type Spider struct {
	// MaxDepth bounds traversal; the root is depth 0.
	MaxDepth int

	// MaxPages caps discovery; 0 means no cap.
	MaxPages int

	// Client is the HTTP client used to fetch pages; nil uses http.DefaultClient.
	Client *http.Client

	logger logging.Logger
}

// NewSpider creates a Spider with the given depth bound.
func NewSpider(maxDepth int, logger logging.Logger) *Spider {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Spider{MaxDepth: maxDepth, logger: logger}
}

// Enumerate crawls from root and returns canonicalized same-origin URLs in
// crawl order, root first. A URL joins the results only after it has been
// fetched and parsed, so a dead link never produces a page. Fetch or parse
// failures on individual pages are logged and skipped; only an unusable root
// URL is fatal.
func (s *Spider) Enumerate(ctx context.Context, root string) ([]string, error) {
	canonOpts := utils.CanonicalizeOptions{StripTrailingSlash: true, DefaultScheme: "http"}

	rootCanon, err := utils.Canonicalize(root, canonOpts)
	if err != nil {
		return nil, fmt.Errorf("enumerate: bad root url %q: %w", root, err)
	}
	rootTools, err := utils.NewURLTools(rootCanon)
	if err != nil {
		return nil, fmt.Errorf("enumerate: %w", err)
	}

	seen := map[string]bool{rootCanon: true}
	var results []string
	frontier := []string{rootCanon}

	for depth := 0; depth <= s.MaxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, pageURL := range frontier {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}

			links, err := s.crawlPage(ctx, pageURL)
			if err != nil {
				s.logger.Warn("enumerate: page crawl failed",
					logging.Field{Key: "url", Value: pageURL},
					logging.Field{Key: "error", Value: err.Error()})
				continue
			}

			results = append(results, pageURL)
			if s.MaxPages > 0 && len(results) >= s.MaxPages {
				return results, nil
			}
			if depth == s.MaxDepth {
				continue
			}

			pageTools, err := utils.NewURLTools(pageURL)
			if err != nil {
				continue
			}

			for _, link := range links {
				// Relative links resolve against the page they appear on.
				resolved, err := pageTools.Resolve(link)
				if err != nil {
					continue
				}
				canon, err := utils.Canonicalize(resolved, canonOpts)
				if err != nil {
					continue
				}
				linkTools, err := utils.NewURLTools(canon)
				if err != nil || !rootTools.DomainIsSame(linkTools) {
					continue
				}
				if seen[canon] {
					continue
				}
				seen[canon] = true
				next = append(next, canon)
			}
		}
		frontier = next
	}

	return results, nil
}

// crawlPage fetches one page and extracts candidate href values.
func (s *Spider) crawlPage(ctx context.Context, target string) ([]string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("received %d from target", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing body: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" && href[0] != '#' {
			links = append(links, href)
		}
	})
	return links, nil
}
