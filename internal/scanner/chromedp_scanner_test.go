package scanner_test

import (
	"testing"

	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/scanner"
)

// TestNewChromedpScanner_Construct verifies construction only. The scan path
// needs a working Chrome and network access to the axe CDN, so it is covered
// by the demo-site flow rather than unit tests.
// Note: this test may be skipped in CI environments where chromedp cannot initialize.
func TestNewChromedpScanner_Construct(t *testing.T) {
	t.Parallel()

	sc, err := scanner.NewChromedpScanner(scanner.DefaultConfig(), logging.Nop{})
	if err != nil {
		t.Skipf("Skipping chromedp construction test (environment does not support chromedp): %v", err)
	}
	if sc == nil {
		t.Fatal("NewChromedpScanner returned nil scanner without error")
	}
	defer sc.Close()
}
