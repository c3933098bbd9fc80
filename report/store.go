package report

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("meosbind.report")

// ErrRunNotFound indicates no run was stored for a header.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	header      TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	generated   TEXT NOT NULL,
	declared    INTEGER NOT NULL,
	wrapped     TEXT NOT NULL,
	excluded    TEXT NOT NULL,
	warnings    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS issues (
	run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq      INTEGER NOT NULL,
	stage    TEXT NOT NULL,
	function TEXT NOT NULL,
	line     INTEGER NOT NULL,
	reason   TEXT NOT NULL,
	fatal    INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS runs_header ON runs(header, id);
`

// Store keeps reports in a SQLite database so runs can be compared.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Summary is one stored run without its issues.
type Summary struct {
	ID          int64
	Header      string
	Fingerprint string
	Generated   time.Time
	Declared    int
	Wrapped     int
	Issues      int
}

// OpenStore opens or creates the report database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating report dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores r as a new run and returns its id.
func (s *Store) Save(r *Report) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("saving report: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (header, fingerprint, generated, declared, wrapped, excluded, warnings)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Header, r.Fingerprint, r.Generated.UTC().Format(time.RFC3339Nano), r.Declared,
		joinList(r.Wrapped), joinList(r.Excluded), joinList(r.Warnings),
	)
	if err != nil {
		return 0, fmt.Errorf("saving run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("saving run: %w", err)
	}
	for seq, i := range r.Issues {
		_, err := tx.Exec(
			`INSERT INTO issues (run_id, seq, stage, function, line, reason, fatal)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, seq, string(i.Stage), i.Function, i.Line, i.Reason, i.Fatal,
		)
		if err != nil {
			return 0, fmt.Errorf("saving issue %d: %w", seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("saving report: %w", err)
	}
	log.Debugf("stored run %d for %s with %d issues", id, r.Header, len(r.Issues))
	return id, nil
}

// Latest loads the most recent run for header.
func (s *Store) Latest(header string) (*Report, error) {
	return s.nth(header, 0)
}

// Previous loads the run before the most recent one for header.
func (s *Store) Previous(header string) (*Report, error) {
	return s.nth(header, 1)
}

func (s *Store) nth(header string, offset int) (*Report, error) {
	var id int64
	err := s.db.QueryRow(
		"SELECT id FROM runs WHERE header = ? ORDER BY id DESC LIMIT 1 OFFSET ?",
		header, offset,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return s.Load(id)
}

// Load retrieves a stored run with its issues.
func (s *Store) Load(id int64) (*Report, error) {
	var (
		r                           Report
		generated                   string
		wrapped, excluded, warnings string
	)
	err := s.db.QueryRow(
		`SELECT header, fingerprint, generated, declared, wrapped, excluded, warnings
		 FROM runs WHERE id = ?`, id,
	).Scan(&r.Header, &r.Fingerprint, &generated, &r.Declared, &wrapped, &excluded, &warnings)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	if r.Generated, err = time.Parse(time.RFC3339Nano, generated); err != nil {
		return nil, fmt.Errorf("run %d: %w", id, err)
	}
	r.Wrapped, r.Excluded, r.Warnings = splitList(wrapped), splitList(excluded), splitList(warnings)

	rows, err := s.db.Query(
		"SELECT stage, function, line, reason, fatal FROM issues WHERE run_id = ? ORDER BY seq", id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying issues: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			i     Issue
			stage string
		)
		if err := rows.Scan(&stage, &i.Function, &i.Line, &i.Reason, &i.Fatal); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		i.Stage = Stage(stage)
		r.Issues = append(r.Issues, i)
	}
	return &r, rows.Err()
}

// History lists the most recent runs for header, newest first. A limit of
// zero or less returns every run.
func (s *Store) History(header string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT r.id, r.header, r.fingerprint, r.generated, r.declared, r.wrapped,
		        (SELECT COUNT(*) FROM issues i WHERE i.run_id = r.id)
		 FROM runs r WHERE r.header = ? ORDER BY r.id DESC LIMIT ?`,
		header, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			generated string
			wrapped   string
		)
		if err := rows.Scan(&sum.ID, &sum.Header, &sum.Fingerprint, &generated, &sum.Declared, &wrapped, &sum.Issues); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		sum.Generated, _ = time.Parse(time.RFC3339Nano, generated)
		sum.Wrapped = len(splitList(wrapped))
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Prune deletes all but the keep most recent runs for header.
func (s *Store) Prune(header string, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(
		`DELETE FROM runs WHERE header = ? AND id NOT IN (
			SELECT id FROM runs WHERE header = ? ORDER BY id DESC LIMIT ?)`,
		header, header, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("pruning runs: %w", err)
	}
	return res.RowsAffected()
}

// Lists are stored newline separated; function names and warnings never
// contain newlines.
func joinList(items []string) string {
	return strings.Join(items, "\n")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
