package scanner_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/model"
	"github.com/raysh454/tenji/internal/scanner"
)

const brokenPage = `<!DOCTYPE html>
<html>
<head></head>
<body>
  <img src="hero.png">
  <a href="/more"></a>
  <form>
    <input type="text" name="email">
    <input type="submit" value="Go">
  </form>
  <div id="dup"></div>
  <div id="dup"></div>
</body>
</html>`

const cleanPage = `<!DOCTYPE html>
<html lang="en">
<head><title>Fine</title></head>
<body>
  <img src="hero.png" alt="A hero image">
  <a href="/more">Read more</a>
  <form>
    <label for="email">Email</label>
    <input type="text" id="email" name="email">
  </form>
</body>
</html>`

func servePage(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
}

func violationIDs(page *model.PageResult) map[string]int {
	ids := map[string]int{}
	for _, v := range page.Violations {
		ids[v.ID] = len(v.Nodes)
	}
	return ids
}

func TestStaticScanner_FindsKnownViolations(t *testing.T) {
	t.Parallel()

	server := servePage(t, brokenPage)
	defer server.Close()

	sc := scanner.NewStaticScanner(scanner.Config{}, logging.Nop{})
	page, err := sc.ScanPage(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("ScanPage: %v", err)
	}

	ids := violationIDs(page)
	for _, want := range []string{"image-alt", "html-has-lang", "document-title", "label", "link-name", "duplicate-id"} {
		if ids[want] == 0 {
			t.Errorf("expected violation %q, got %v", want, ids)
		}
	}

	// Every node must carry the identity fields the fingerprint requires.
	for _, v := range page.Violations {
		for _, n := range v.Nodes {
			if len(n.Target) == 0 {
				t.Errorf("rule %s: node without selector path", v.ID)
			}
			if n.HTML == "" {
				t.Errorf("rule %s: node without markup", v.ID)
			}
		}
	}
}

func TestStaticScanner_CleanPage(t *testing.T) {
	t.Parallel()

	server := servePage(t, cleanPage)
	defer server.Close()

	sc := scanner.NewStaticScanner(scanner.Config{}, logging.Nop{})
	page, err := sc.ScanPage(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("ScanPage: %v", err)
	}

	if len(page.Violations) != 0 {
		t.Errorf("clean page produced violations: %v", violationIDs(page))
	}
	// Zero violations still yields a page entry with an empty (non-nil) slice.
	if page.Violations == nil {
		t.Error("violations slice is nil, want empty")
	}
}

func TestStaticScanner_ProducerFilters(t *testing.T) {
	t.Parallel()

	server := servePage(t, brokenPage)
	defer server.Close()

	cfg := scanner.Config{
		MinImpact:   model.SeveritySerious,
		IgnoreRules: []string{"document-title"},
	}
	sc := scanner.NewStaticScanner(cfg, logging.Nop{})
	page, err := sc.ScanPage(context.Background(), server.URL+"/")
	if err != nil {
		t.Fatalf("ScanPage: %v", err)
	}

	ids := violationIDs(page)
	if _, ok := ids["duplicate-id"]; ok {
		t.Error("minor violation survived MinImpact=serious")
	}
	if _, ok := ids["document-title"]; ok {
		t.Error("ignored rule survived IgnoreRules")
	}
	if _, ok := ids["image-alt"]; !ok {
		t.Error("critical violation was filtered out")
	}
}

func TestStaticScanner_ErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	sc := scanner.NewStaticScanner(scanner.Config{}, logging.Nop{})
	if _, err := sc.ScanPage(context.Background(), server.URL+"/missing"); err == nil {
		t.Fatal("expected error for 404 page")
	}
}
