package enumerate_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/raysh454/tenji/internal/enumerate"
	"github.com/raysh454/tenji/internal/logging"
)

func linkFarm() *httptest.Server {
	mux := http.NewServeMux()

	// Root links to /page1 and /page2, /page1 links to /page3.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<a href="/page1">Page 1</a> <a href="/page2">Page 2</a> <a href="https://external.example/x">out</a>`)
	})
	mux.HandleFunc("/page1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<a href="/page3">Page 3</a> <a href="/page2">again</a> <a href="#frag">anchor</a>`)
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "This is page 2")
	})
	mux.HandleFunc("/page3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "This is page 3")
	})

	return httptest.NewServer(mux)
}

func TestSpider_Enumerate(t *testing.T) {
	t.Parallel()

	server := linkFarm()
	defer server.Close()

	spider := enumerate.NewSpider(2, logging.Nop{})
	got, err := spider.Enumerate(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	want := map[string]bool{
		server.URL + "/":      true,
		server.URL + "/page1": true,
		server.URL + "/page2": true,
		server.URL + "/page3": true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d urls %v, want %d", len(got), got, len(want))
	}
	for _, u := range got {
		if !want[u] {
			t.Errorf("unexpected url %q (external or duplicate leak)", u)
		}
	}
}

func TestSpider_DepthBound(t *testing.T) {
	t.Parallel()

	server := linkFarm()
	defer server.Close()

	// Depth 1 reaches page1/page2 but never page3.
	spider := enumerate.NewSpider(1, logging.Nop{})
	got, err := spider.Enumerate(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	for _, u := range got {
		if u == server.URL+"/page3" {
			t.Error("depth bound violated: found /page3 at depth 2")
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d urls %v, want 3", len(got), got)
	}
}

func TestSpider_MaxPages(t *testing.T) {
	t.Parallel()

	server := linkFarm()
	defer server.Close()

	spider := enumerate.NewSpider(3, logging.Nop{})
	spider.MaxPages = 2
	got, err := spider.Enumerate(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d urls, want 2 (MaxPages cap)", len(got))
	}
}

func TestSpider_DeadLinksExcluded(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<a href="/page1">Page 1</a> <a href="/missing">gone</a>`)
	})
	mux.HandleFunc("/page1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "This is page 1")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	spider := enumerate.NewSpider(2, logging.Nop{})
	got, err := spider.Enumerate(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	for _, u := range got {
		if u == server.URL+"/missing" {
			t.Error("404 target must not appear as a page")
		}
	}
	if len(got) != 2 {
		t.Errorf("got %d urls %v, want 2 (root and /page1)", len(got), got)
	}
}

func TestSpider_BadRootIsFatal(t *testing.T) {
	t.Parallel()

	spider := enumerate.NewSpider(1, logging.Nop{})
	if _, err := spider.Enumerate(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty root")
	}
}
