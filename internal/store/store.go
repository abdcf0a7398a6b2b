package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/devguard-labs/devguard/internal/model"
	_ "modernc.org/sqlite"
)

// Store is the single source of truth for one scan session: the backend base
// URL and the most recent scan result. It is backed by an in-memory SQLite
// database so a result replacement is transactional; nothing survives the
// session process.
type Store struct {
	db         *sql.DB
	backendURL string
}

// New opens a session-scoped in-memory database and creates the schema.
func New() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	// A second pool connection would see a different empty :memory: database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := `
    CREATE TABLE IF NOT EXISTS result (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        score INTEGER NOT NULL
    );
    CREATE TABLE IF NOT EXISTS findings (
        position INTEGER PRIMARY KEY,
        finding_id TEXT NOT NULL,
        severity TEXT NOT NULL DEFAULT '',
        title TEXT NOT NULL,
        details TEXT,
        evidence TEXT
    );`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the session database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetBackendURL stores the backend base URL with trailing slashes trimmed.
// Well-formedness is not checked here; a malformed target fails naturally at
// the HTTP layer.
func (s *Store) SetBackendURL(raw string) {
	s.backendURL = strings.TrimRight(strings.TrimSpace(raw), "/")
}

// BackendURL returns the trimmed backend base URL.
func (s *Store) BackendURL() string {
	return s.backendURL
}

// RecordResult replaces the current result wholesale. The swap happens in one
// transaction, so a reader never observes a partially updated result.
// Findings are normalized on the way in: missing ids become auto_<position>
// and missing titles become Finding <position+1>.
func (s *Store) RecordResult(r model.ScanResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM findings; DELETE FROM result;"); err != nil {
		return fmt.Errorf("failed to clear previous result: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO result(id, score) VALUES(1, ?)", r.Score); err != nil {
		return fmt.Errorf("failed to record score: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO findings(position, finding_id, severity, title, details, evidence) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range model.Normalize(r.Findings) {
		var evidence interface{}
		if len(f.Evidence) > 0 {
			evidence = string(f.Evidence)
		}
		if _, err := stmt.Exec(i, f.ID, f.Severity, f.Title, f.Details, evidence); err != nil {
			return fmt.Errorf("failed to record finding %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Current returns the full stored result in arrival order, or nil when no
// scan has succeeded yet.
func (s *Store) Current() (*model.ScanResult, error) {
	var score int
	err := s.db.QueryRow("SELECT score FROM result WHERE id = 1").Scan(&score)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	findings, err := s.queryFindings("SELECT finding_id, severity, title, details, evidence FROM findings ORDER BY position")
	if err != nil {
		return nil, err
	}

	return &model.ScanResult{Score: score, Findings: findings}, nil
}

// Filtered returns the display projection of the current findings: optionally
// restricted to one severity, ordered by severity rank descending with the
// arrival position breaking ties. Ordering over the stored position column
// makes the sort stable by construction.
func (s *Store) Filtered(severity string) ([]model.Finding, error) {
	query := "SELECT finding_id, severity, title, details, evidence FROM findings"
	var args []interface{}
	if severity != "" && severity != model.SeverityAll {
		query += " WHERE severity = ?"
		args = append(args, severity)
	}
	query += `
        ORDER BY CASE severity
            WHEN 'high' THEN 3
            WHEN 'med' THEN 2
            WHEN 'low' THEN 1
            ELSE 0
        END DESC, position ASC`

	return s.queryFindings(query, args...)
}

// Clear drops the current result. The next render sees an empty session.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM findings; DELETE FROM result;")
	return err
}

func (s *Store) queryFindings(query string, args ...interface{}) ([]model.Finding, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []model.Finding
	for rows.Next() {
		var f model.Finding
		var details, evidence sql.NullString
		if err := rows.Scan(&f.ID, &f.Severity, &f.Title, &details, &evidence); err != nil {
			return nil, err
		}
		f.Details = details.String
		if evidence.Valid {
			f.Evidence = json.RawMessage(evidence.String)
		}
		findings = append(findings, f)
	}

	return findings, rows.Err()
}
