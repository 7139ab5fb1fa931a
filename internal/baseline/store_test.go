package baseline_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/tenji/internal/baseline"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/model"
)

func openTestStore(t *testing.T) *baseline.Store {
	t.Helper()
	store, err := baseline.Open(t.TempDir(), logging.Nop{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleScan(origin string) *model.ScanResult {
	return &model.ScanResult{
		GeneratedAt: time.Now().UTC(),
		Origin:      origin,
		Pages: []model.PageResult{
			{
				URLPath: "/checkout",
				Violations: []model.Violation{
					{
						ID:     "image-alt",
						Impact: model.SeverityCritical,
						Nodes: []model.Node{
							{Target: []string{"img.logo"}, HTML: `<img class="logo">`},
						},
					},
				},
			},
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	entry, err := store.Save(ctx, "main", sampleScan("https://shop.example"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if entry.Pages != 1 || entry.Occurrences != 1 {
		t.Errorf("entry = %+v, want 1 page, 1 occurrence", entry)
	}
	if entry.PolicyVersion == "" {
		t.Error("entry missing policy version stamp")
	}

	scan, loaded, err := store.Load(ctx, "main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != entry.ID {
		t.Errorf("loaded id = %s, want %s", loaded.ID, entry.ID)
	}
	if scan.Origin != "https://shop.example" {
		t.Errorf("scan origin = %s", scan.Origin)
	}
	if len(scan.Pages) != 1 || scan.Pages[0].URLPath != "/checkout" {
		t.Errorf("scan pages = %+v", scan.Pages)
	}
}

func TestStore_SaveReplacesLabel(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "main", sampleScan("https://v1.example")); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if _, err := store.Save(ctx, "main", sampleScan("https://v2.example")); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	scan, _, err := store.Load(ctx, "main")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if scan.Origin != "https://v2.example" {
		t.Errorf("origin = %s, want the replacing scan", scan.Origin)
	}

	entries, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("List returned %d entries, want 1 row per label", len(entries))
	}
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)

	if _, _, err := store.Load(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestStore_SaveValidation(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, "", sampleScan("https://x.example")); err == nil {
		t.Error("expected error for empty label")
	}
	if _, err := store.Save(ctx, "main", nil); err == nil {
		t.Error("expected error for nil scan")
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	for _, label := range []string{"main", "release", "staging"} {
		if _, err := store.Save(ctx, label, sampleScan("https://"+label+".example")); err != nil {
			t.Fatalf("Save %s: %v", label, err)
		}
	}

	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("List limit not applied, got %d entries", len(entries))
	}
}

func TestPolicyMismatchError_Message(t *testing.T) {
	t.Parallel()

	err := &baseline.PolicyMismatchError{Label: "main", Have: "fp-v1", Want: "fp-v2"}
	var pmErr *baseline.PolicyMismatchError
	if !errors.As(error(err), &pmErr) {
		t.Fatal("errors.As failed on PolicyMismatchError")
	}
	for _, want := range []string{"main", "fp-v1", "fp-v2"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("message %q missing %q", err.Error(), want)
		}
	}
}
