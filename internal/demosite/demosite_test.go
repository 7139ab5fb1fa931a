package demosite_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/raysh454/tenji/internal/app"
	"github.com/raysh454/tenji/internal/baseline"
	"github.com/raysh454/tenji/internal/demosite"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/scanner"
)

func TestDemoSite_ServesRevisions(t *testing.T) {
	t.Parallel()

	site := demosite.NewDemoSite(demosite.DefaultConfig())
	srv := httptest.NewServer(site.Handler())
	defer srv.Close()

	get := func(path string) string {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		return string(body)
	}

	if body := get("/"); strings.Contains(body, `alt="Acme Store"`) {
		t.Error("revision 1 home should not have the fixed alt text")
	}

	resp, err := http.PostForm(srv.URL+"/demo/set-version", url.Values{"version": {"2"}})
	if err != nil {
		t.Fatalf("set-version: %v", err)
	}
	resp.Body.Close()
	if site.Version() != 2 {
		t.Fatalf("version = %d, want 2", site.Version())
	}

	if body := get("/"); !strings.Contains(body, `alt="Acme Store"`) {
		t.Error("revision 2 home should carry the fixed alt text")
	}
}

// TestDemoSite_GateEndToEnd drives the whole pipeline: scan revision 1, store
// it as the baseline, switch the site to revision 2 and gate against it. The
// revision bump fixes some defects, keeps others and introduces new ones, so
// all three diff partitions must be populated and the gate must fail.
func TestDemoSite_GateEndToEnd(t *testing.T) {
	t.Parallel()

	site := demosite.NewDemoSite(demosite.DefaultConfig())
	srv := httptest.NewServer(site.Handler())
	defer srv.Close()

	store, err := baseline.Open(t.TempDir(), logging.Nop{})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	cfg := app.DefaultConfig()
	cfg.ScannerCfg.Backend = scanner.BackendStatic
	cfg.SpiderMaxDepth = 3

	o := app.NewOrchestrator(cfg, store, logging.Nop{})
	ctx := context.Background()

	v1Scan, err := o.RunScan(ctx, srv.URL)
	if err != nil {
		t.Fatalf("scanning revision 1: %v", err)
	}
	if len(v1Scan.Pages) != 3 {
		t.Fatalf("pages = %d, want 3 (home, products, contact)", len(v1Scan.Pages))
	}
	if _, err := o.SaveBaseline(ctx, "main", v1Scan); err != nil {
		t.Fatalf("saving baseline: %v", err)
	}

	site.SetVersion(2)

	decision, _, err := o.RunGate(ctx, "main", srv.URL)
	if err != nil {
		t.Fatalf("gating revision 2: %v", err)
	}
	report := decision.Report

	if !report.Regression || !decision.ShouldFail {
		t.Fatalf("revision 2 introduces new defects, gate must fail: %+v", report.Summary)
	}
	if report.Summary.ResolvedViolations == 0 {
		t.Error("revision 2 fixes defects, expected resolved violations")
	}
	if report.Summary.Unchanged == 0 {
		t.Error("product images stay broken across revisions, expected unchanged violations")
	}

	newRules := map[string]bool{}
	for _, rec := range report.NewViolations {
		newRules[rec.RuleID] = true
	}
	if !newRules["label"] {
		t.Errorf("unlabeled search field should be a new label violation, got %v", newRules)
	}
	if !newRules["button-name"] {
		t.Errorf("emptied submit button should be a new button-name violation, got %v", newRules)
	}

	resolvedRules := map[string]bool{}
	for _, rec := range report.ResolvedViolations {
		resolvedRules[rec.RuleID] = true
	}
	for _, want := range []string{"image-alt", "html-has-lang", "link-name"} {
		if !resolvedRules[want] {
			t.Errorf("expected %s among resolved rules, got %v", want, resolvedRules)
		}
	}
}
