package utils_test

import (
	"path/filepath"
	"testing"

	"github.com/raysh454/tenji/internal/utils"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	opts := utils.CanonicalizeOptions{
		StripTrailingSlash: true,
		DefaultScheme:      "https",
		DropTrackingParams: true,
	}

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases host", "https://EXAMPLE.com/About", "https://example.com/About"},
		{"drops default port", "https://example.com:443/a", "https://example.com/a"},
		{"keeps custom port", "http://example.com:8080/a", "http://example.com:8080/a"},
		{"strips trailing slash", "https://example.com/a/", "https://example.com/a"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
		{"adds default scheme", "example.com/x", "https://example.com/x"},
		{"drops fragment", "https://example.com/a#section", "https://example.com/a"},
		{"sorts query params", "https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"drops tracking params", "https://example.com/a?utm_source=tw&x=1", "https://example.com/a?x=1"},
		{"cleans path", "https://example.com/a/../b", "https://example.com/b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := utils.Canonicalize(tc.in, opts)
			if err != nil {
				t.Fatalf("Canonicalize(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCanonicalize_Errors(t *testing.T) {
	t.Parallel()

	if _, err := utils.Canonicalize("", utils.CanonicalizeOptions{}); err == nil {
		t.Error("empty url should error")
	}
	if _, err := utils.Canonicalize("/relative/only", utils.CanonicalizeOptions{}); err == nil {
		t.Error("host-less url should error")
	}
}

func TestURLTools_GetPath(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"https://example.com/api/v1/", "/api/v1"},
		{"https://example.com/users", "/users"},
		{"https://example.com/", "/"},
		{"https://example.com", "/"},
	}
	for _, tc := range cases {
		u, err := utils.NewURLTools(tc.in)
		if err != nil {
			t.Fatalf("NewURLTools(%q): %v", tc.in, err)
		}
		if got := u.GetPath(); got != tc.want {
			t.Errorf("GetPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestURLTools_DomainIsSame(t *testing.T) {
	t.Parallel()

	a, _ := utils.NewURLTools("https://example.com/a")
	b, _ := utils.NewURLTools("https://EXAMPLE.com:443/b")
	c, _ := utils.NewURLTools("https://other.com/a")

	if !a.DomainIsSame(b) {
		t.Error("same host should match regardless of case and default port")
	}
	if a.DomainIsSame(c) {
		t.Error("different hosts should not match")
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := utils.ExpandPath("~/.config/tenji")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, ".config/tenji") {
		t.Errorf("ExpandPath = %q, want it rooted in %q", got, home)
	}

	plain, err := utils.ExpandPath("/var/lib/tenji")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if plain != "/var/lib/tenji" {
		t.Errorf("ExpandPath changed an absolute path to %q", plain)
	}
}
