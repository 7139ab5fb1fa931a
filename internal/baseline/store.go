package baseline

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/raysh454/tenji/internal/diff"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/model"
	"github.com/raysh454/tenji/internal/utils"
)

//go:embed schema.sql
var schemaFS embed.FS

// Entry is one stored baseline row.
type Entry struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	Origin        string    `json:"origin,omitempty"`
	PolicyVersion string    `json:"policyVersion"`
	ScanPath      string    `json:"scanPath"`
	Pages         int       `json:"pages"`
	Occurrences   int       `json:"occurrences"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PolicyMismatchError rejects a baseline recorded under a different
// fingerprint policy. Diffing across policies would silently mismatch
// identities, so the only safe recovery is re-scanning the baseline branch.
type PolicyMismatchError struct {
	Label string
	Have  string
	Want  string
}

func (e *PolicyMismatchError) Error() string {
	return fmt.Sprintf("baseline %q was recorded under fingerprint policy %q but this build uses %q; re-scan the baseline branch",
		e.Label, e.Have, e.Want)
}

// Store persists named baseline scans: one sqlite row per label plus the
// scan document as a JSON blob on disk.
type Store struct {
	db     *sql.DB
	dir    string
	logger logging.Logger
}

// Open creates or opens a baseline store rooted at dir.
func Open(dir string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating baseline dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "baselines.db"))
	if err != nil {
		return nil, fmt.Errorf("opening baseline database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, dir: dir, logger: logger}, nil
}

// OpenDB wraps an existing database handle; the caller owns its lifetime.
// Used by tests with in-memory sqlite.
func OpenDB(db *sql.DB, dir string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	if err := applySchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db, dir: dir, logger: logger}, nil
}

func applySchema(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Save stores scan under label, replacing any previous baseline with the
// same label. The current fingerprint policy version is stamped alongside.
func (s *Store) Save(ctx context.Context, label string, scan *model.ScanResult) (*Entry, error) {
	if label == "" {
		return nil, fmt.Errorf("baseline: label is required")
	}
	if scan == nil {
		return nil, fmt.Errorf("baseline: scan is nil")
	}

	id := uuid.New().String()
	scanPath := filepath.Join(s.dir, id+".json")

	data, err := json.MarshalIndent(scan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("baseline: marshaling scan: %w", err)
	}
	if err := utils.AtomicWriteFile(scanPath, data, 0644); err != nil {
		return nil, fmt.Errorf("baseline: writing scan blob: %w", err)
	}

	entry := &Entry{
		ID:            id,
		Label:         label,
		Origin:        scan.Origin,
		PolicyVersion: diff.PolicyVersion,
		ScanPath:      scanPath,
		Pages:         len(scan.Pages),
		Occurrences:   scan.TotalOccurrences(),
		CreatedAt:     time.Now().UTC(),
	}

	// Replace-by-label keeps one row per label; the old blob is removed
	// after the row flips so a concurrent reader never sees a dangling path.
	var oldPath sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT scan_path FROM baselines WHERE label = ?`, label).Scan(&oldPath)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("baseline: checking existing label: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO baselines
		(id, label, origin, policy_version, scan_path, pages, occurrences, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(label) DO UPDATE SET
			id = excluded.id,
			origin = excluded.origin,
			policy_version = excluded.policy_version,
			scan_path = excluded.scan_path,
			pages = excluded.pages,
			occurrences = excluded.occurrences,
			created_at = excluded.created_at`,
		entry.ID, entry.Label, entry.Origin, entry.PolicyVersion, entry.ScanPath,
		entry.Pages, entry.Occurrences, entry.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("baseline: inserting row: %w", err)
	}

	if oldPath.Valid && oldPath.String != scanPath {
		if rmErr := os.Remove(oldPath.String); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("baseline: could not remove replaced blob",
				logging.Field{Key: "path", Value: oldPath.String},
				logging.Field{Key: "error", Value: rmErr.Error()})
		}
	}

	s.logger.Info("baseline saved",
		logging.Field{Key: "label", Value: label},
		logging.Field{Key: "pages", Value: entry.Pages},
		logging.Field{Key: "occurrences", Value: entry.Occurrences})

	return entry, nil
}

// Load returns the scan stored under label. A baseline recorded under a
// different fingerprint policy is rejected with PolicyMismatchError rather
// than silently diffed across incompatible identity schemes.
func (s *Store) Load(ctx context.Context, label string) (*model.ScanResult, *Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, label, origin, policy_version, scan_path, pages, occurrences, created_at
		FROM baselines WHERE label = ?`, label)

	var e Entry
	var origin sql.NullString
	var createdAt int64
	if err := row.Scan(&e.ID, &e.Label, &origin, &e.PolicyVersion, &e.ScanPath, &e.Pages, &e.Occurrences, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, fmt.Errorf("baseline %q not found", label)
		}
		return nil, nil, fmt.Errorf("baseline: reading row: %w", err)
	}
	e.Origin = origin.String
	e.CreatedAt = time.Unix(createdAt, 0).UTC()

	if e.PolicyVersion != diff.PolicyVersion {
		return nil, nil, &PolicyMismatchError{Label: label, Have: e.PolicyVersion, Want: diff.PolicyVersion}
	}

	scan, err := model.LoadScanResult(e.ScanPath)
	if err != nil {
		return nil, nil, fmt.Errorf("baseline %q: %w", label, err)
	}
	return scan, &e, nil
}

// List returns stored baselines, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, origin, policy_version, scan_path, pages, occurrences, created_at
		FROM baselines ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("baseline: listing: %w", err)
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var origin sql.NullString
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Label, &origin, &e.PolicyVersion, &e.ScanPath, &e.Pages, &e.Occurrences, &createdAt); err != nil {
			return nil, fmt.Errorf("baseline: scanning row: %w", err)
		}
		e.Origin = origin.String
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
