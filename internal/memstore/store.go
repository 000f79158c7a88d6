// Package memstore persists extracted learnings in a local SQLite database.
package memstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gorewood/promptlog/internal/learnings"
)

// FileName is the database file inside the store directory.
const FileName = "learnings.db"

// CurrentSchemaVersion is the latest schema version. Bump it when adding
// migrations.
const CurrentSchemaVersion = 1

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Store is a learnings database.
type Store struct {
	db *sql.DB
}

// Record is a stored learning with its memory-tool fields.
type Record struct {
	Learning      learnings.ToolLearning `json:"learning"`
	Insight       string                 `json:"insight"`
	Applicability string                 `json:"applicability"`
}

// ListOptions filters List. Zero values match everything.
type ListOptions struct {
	Spec     string
	Category learnings.Category
	Tool     string
	Limit    int
}

// Open opens or creates dir/learnings.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening learnings database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(path, 0o600)

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS learnings (
		  id             TEXT PRIMARY KEY,
		  category       TEXT NOT NULL,
		  severity       TEXT NOT NULL,
		  summary        TEXT NOT NULL,
		  output_excerpt TEXT NOT NULL,
		  context        TEXT,
		  tags_json      TEXT,
		  signals_json   TEXT,
		  spec           TEXT,
		  tool           TEXT NOT NULL,
		  session_id     TEXT,
		  exit_code      INTEGER,
		  score          REAL NOT NULL,
		  insight        TEXT NOT NULL,
		  applicability  TEXT NOT NULL,
		  created_at     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_learnings_spec_created
		ON learnings(spec, created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_learnings_category
		ON learnings(category);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func verifyWALMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("verifying journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", mode)
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("reading user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("setting user_version: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied schema version.
func (s *Store) SchemaVersion() (int, error) {
	return userVersion(s.db)
}

// Save stores l. Saving an ID twice keeps the first copy and returns false.
func (s *Store) Save(l *learnings.ToolLearning) (bool, error) {
	if l == nil || l.ID == "" {
		return false, errors.New("learning has no id")
	}
	args := l.MemoryArgs()
	tags, err := json.Marshal(l.Tags)
	if err != nil {
		return false, fmt.Errorf("encoding tags: %w", err)
	}
	signals, err := json.Marshal(l.Signals)
	if err != nil {
		return false, fmt.Errorf("encoding signals: %w", err)
	}
	var exit sql.NullInt64
	if l.ExitCode != nil {
		exit = sql.NullInt64{Int64: int64(*l.ExitCode), Valid: true}
	}
	created := l.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	res, err := s.db.Exec(`
		INSERT INTO learnings (
			id, category, severity, summary, output_excerpt, context,
			tags_json, signals_json, spec, tool, session_id, exit_code,
			score, insight, applicability, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		l.ID, string(l.Category), string(l.Severity), l.Summary, l.OutputExcerpt, l.Context,
		string(tags), string(signals), l.Spec, l.Tool, l.SessionID, exit,
		l.Score, args.Insight, args.Applicability, created.UnixMilli(),
	)
	if err != nil {
		return false, fmt.Errorf("saving learning %s: %w", l.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("saving learning %s: %w", l.ID, err)
	}
	return n > 0, nil
}

// List returns learnings newest first.
func (s *Store) List(opts ListOptions) ([]Record, error) {
	where, args := opts.where()
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `
		SELECT id, category, severity, summary, output_excerpt, context,
			tags_json, signals_json, spec, tool, session_id, exit_code,
			score, insight, applicability, created_at
		FROM learnings` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing learnings: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing learnings: %w", err)
	}
	return out, nil
}

// Count returns the number of learnings matching opts. Limit is ignored.
func (s *Store) Count(opts ListOptions) (int, error) {
	where, args := opts.where()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM learnings"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting learnings: %w", err)
	}
	return n, nil
}

// Delete removes one learning and reports whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM learnings WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting learning %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting learning %s: %w", id, err)
	}
	return n > 0, nil
}

func (o ListOptions) where() (string, []any) {
	var clauses []string
	var args []any
	if o.Spec != "" {
		clauses = append(clauses, "spec = ?")
		args = append(args, o.Spec)
	}
	if o.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, string(o.Category))
	}
	if o.Tool != "" {
		clauses = append(clauses, "tool = ?")
		args = append(args, o.Tool)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r                      Record
		category, severity     string
		context, tags, signals sql.NullString
		spec, session          sql.NullString
		exit                   sql.NullInt64
		created                int64
	)
	l := &r.Learning
	err := row.Scan(&l.ID, &category, &severity, &l.Summary, &l.OutputExcerpt, &context,
		&tags, &signals, &spec, &l.Tool, &session, &exit,
		&l.Score, &r.Insight, &r.Applicability, &created)
	if err != nil {
		return Record{}, fmt.Errorf("scanning learning: %w", err)
	}

	l.Category = learnings.Category(category)
	l.Severity = learnings.Severity(severity)
	l.Context = context.String
	l.Spec = spec.String
	l.SessionID = session.String
	l.CreatedAt = time.UnixMilli(created).UTC()
	if exit.Valid {
		code := int(exit.Int64)
		l.ExitCode = &code
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &l.Tags); err != nil {
			return Record{}, fmt.Errorf("decoding tags for %s: %w", l.ID, err)
		}
	}
	if signals.Valid && signals.String != "" {
		if err := json.Unmarshal([]byte(signals.String), &l.Signals); err != nil {
			return Record{}, fmt.Errorf("decoding signals for %s: %w", l.ID, err)
		}
	}
	return r, nil
}
