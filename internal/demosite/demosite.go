// Package demosite serves a small store-front with deliberate accessibility
// defects in two revisions, for demos and end-to-end tests of the gate.
package demosite

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
)

// DemoSite is a simple HTTP server whose pages exist in two revisions.
type DemoSite struct {
	cfg     Config
	pages   map[string]PageDefinition
	mu      sync.RWMutex
	version int
}

// NewDemoSite creates a new demo site instance.
func NewDemoSite(cfg Config) *DemoSite {
	if cfg.InitialVersion < 1 {
		cfg.InitialVersion = 1
	}
	pageMap := make(map[string]PageDefinition)
	for _, p := range GetAllPages() {
		pageMap[p.Path] = p
	}
	return &DemoSite{
		cfg:     cfg,
		pages:   pageMap,
		version: cfg.InitialVersion,
	}
}

// SetVersion switches every page to the given revision.
func (s *DemoSite) SetVersion(v int) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

// Version returns the current revision.
func (s *DemoSite) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Handler returns the site's HTTP handler, mountable in tests via httptest.
func (s *DemoSite) Handler() http.Handler {
	mux := http.NewServeMux()

	for path := range s.pages {
		p := path // capture for closure
		mux.HandleFunc(p, s.pageHandler(p))
	}

	mux.HandleFunc("/demo/set-version", s.setVersionHandler)
	mux.HandleFunc("/demo/version", s.versionHandler)
	mux.HandleFunc("/static/", s.staticHandler)

	return mux
}

// Start starts the demo site server.
func (s *DemoSite) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo site starting on http://localhost%s (revision v%d)\n", addr, s.Version())
	fmt.Printf("Switch revisions with: curl -X POST http://localhost%s/demo/set-version -d version=2\n", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *DemoSite) pageHandler(path string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		pageDef, ok := s.pages[path]
		version := s.version
		s.mu.RUnlock()

		if !ok || (path == "/" && r.URL.Path != "/") {
			http.NotFound(w, r)
			return
		}

		pv, ok := pageDef.Versions[version]
		if !ok {
			// Fall back to the closest earlier revision.
			for v := version; v >= 1; v-- {
				if candidate, exists := pageDef.Versions[v]; exists {
					pv = candidate
					break
				}
			}
		}

		contentType := pv.ContentType
		if contentType == "" {
			contentType = "text/html"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(pv.HTML))
	}
}

func (s *DemoSite) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
}

func (s *DemoSite) setVersionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil || version < 1 {
		http.Error(w, "Invalid version number", http.StatusBadRequest)
		return
	}

	s.SetVersion(version)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"version": version,
	})
}

func (s *DemoSite) versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"version": s.Version(),
	})
}
