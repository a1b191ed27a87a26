// Package audit keeps an append-only SQLite log of blocked articles.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/SHA256-news/studious-giggle-sub001/internal/filter"
)

const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Log struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ filter.AuditSink = (*Log)(nil)

func Open(dbPath string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := &Log{db: db, path: dbPath, now: time.Now}
	if err := l.init(); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) init() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS blocked (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			reason     TEXT NOT NULL,
			title      TEXT NOT NULL DEFAULT '',
			url        TEXT NOT NULL DEFAULT '',
			uri        TEXT NOT NULL DEFAULT '',
			source     TEXT NOT NULL DEFAULT '',
			details    TEXT NOT NULL DEFAULT '{}',
			blocked_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_blocked_at ON blocked(blocked_at DESC);
		CREATE INDEX IF NOT EXISTS idx_blocked_uri ON blocked(uri);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

func (l *Log) Path() string { return l.path }

// Record appends one entry. A zero BlockedAt is stamped with the current time.
func (l *Log) Record(e filter.BlockedEntry) error {
	if e.Details.UnwantedCryptosFound == nil {
		e.Details.UnwantedCryptosFound = []string{}
	}
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("encoding details: %w", err)
	}
	at := e.BlockedAt
	if at.IsZero() {
		at = l.now()
	}
	_, err = l.db.Exec(`
		INSERT INTO blocked (reason, title, url, uri, source, details, blocked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Reason, e.Title, e.URL, e.URI, e.Source, string(details), at.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("recording %s: %w", e.URI, err)
	}
	return nil
}

// RecordNew is Record for feeds that keep serving the same items: an entry
// whose URI is already logged with the same reason is dropped.
func (l *Log) RecordNew(e filter.BlockedEntry) error {
	if e.URI != "" {
		var n int
		err := l.db.QueryRow("SELECT COUNT(*) FROM blocked WHERE uri = ? AND reason = ?", e.URI, e.Reason).Scan(&n)
		if err != nil {
			return fmt.Errorf("looking up %s: %w", e.URI, err)
		}
		if n > 0 {
			return nil
		}
	}
	return l.Record(e)
}

// List returns matching entries, newest first.
func (l *Log) List(opts QueryOpts) ([]Entry, error) {
	var (
		where []string
		args  []interface{}
	)

	if !opts.Since.IsZero() {
		where = append(where, "blocked_at >= ?")
		args = append(args, opts.Since.UTC().Format(timeLayout))
	}
	if opts.Reason != "" {
		where = append(where, "reason = ?")
		args = append(args, opts.Reason)
	}
	if opts.Search != "" {
		where = append(where, "(title LIKE ? OR url LIKE ? OR details LIKE ?)")
		term := "%" + opts.Search + "%"
		args = append(args, term, term, term)
	}

	query := "SELECT id, reason, title, url, uri, source, details, blocked_at FROM blocked"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY blocked_at DESC, id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying blocked: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			details string
			at      string
		)
		if err := rows.Scan(&e.ID, &e.Reason, &e.Title, &e.URL, &e.URI, &e.Source, &details, &at); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("decoding details of entry %d: %w", e.ID, err)
		}
		if e.BlockedAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parsing time of entry %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats summarizes the log: entry count, file size and the most frequent
// matched terms.
func (l *Log) Stats(topN int) (Stats, error) {
	var st Stats
	if err := l.db.QueryRow("SELECT COUNT(*) FROM blocked").Scan(&st.Count); err != nil {
		return st, fmt.Errorf("counting entries: %w", err)
	}
	if info, err := os.Stat(l.path); err == nil {
		st.Size = info.Size()
	}

	if topN <= 0 {
		topN = 10
	}
	rows, err := l.db.Query(`
		SELECT j.value, COUNT(*) AS n
		FROM blocked, json_each(blocked.details, '$.unwanted_cryptos_found') AS j
		GROUP BY j.value
		ORDER BY n DESC, j.value
		LIMIT ?
	`, topN)
	if err != nil {
		return st, fmt.Errorf("counting terms: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return st, fmt.Errorf("scanning term count: %w", err)
		}
		st.TopTerms = append(st.TopTerms, tc)
	}
	return st, rows.Err()
}

// Prune deletes entries older than retention and returns how many went.
func (l *Log) Prune(retention time.Duration) (int64, error) {
	cutoff := l.now().Add(-retention).UTC().Format(timeLayout)
	res, err := l.db.Exec("DELETE FROM blocked WHERE blocked_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := l.db.Exec("VACUUM"); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}
