package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/finlex/pkg/finlex/internalerr"
	"github.com/cognicore/finlex/pkg/finlex/store"
	"github.com/cognicore/finlex/pkg/finlex/vocab"
)

// sqliteStore implements store.Store using SQLite
type sqliteStore struct {
	db *sql.DB
}

// busyTimeoutMillis is how long a connection waits on a locked database
// before failing with SQLITE_BUSY.
const busyTimeoutMillis = 5000

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed. Pragmas travel in the DSN so every pooled connection
// gets them.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

func dsn(path string) string {
	v := url.Values{}
	v.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	v.Add("_pragma", "journal_mode(WAL)")
	v.Add("_pragma", "foreign_keys(1)")
	v.Set("_txlock", "immediate")
	return "file:" + path + "?" + v.Encode()
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS terms (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	term TEXT UNIQUE NOT NULL,
	definition TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS aliases (
	alias TEXT PRIMARY KEY,
	term_id INTEGER NOT NULL,
	FOREIGN KEY(term_id) REFERENCES terms(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS lookups (
	id TEXT PRIMARY KEY,
	input TEXT NOT NULL,
	term TEXT,
	outcome TEXT NOT NULL,
	score INTEGER NOT NULL,
	at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lookups_term ON lookups(term);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertEntries inserts or updates terms and their aliases in one
// transaction. Terms are lowercased; an existing term keeps its row (and so
// its load order) and takes the new definition.
func (s *sqliteStore) UpsertEntries(ctx context.Context, entries []vocab.Entry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const upsertTerm = `
INSERT INTO terms (term, definition)
VALUES (?, ?)
ON CONFLICT(term) DO UPDATE SET
	definition=excluded.definition
RETURNING id;
`
	const upsertAlias = `
INSERT INTO aliases (alias, term_id)
VALUES (?, ?)
ON CONFLICT(alias) DO UPDATE SET
	term_id=excluded.term_id;
`

	n := 0
	for _, e := range entries {
		term := normalize(e.Term)
		if term == "" {
			continue
		}

		var termID int64
		if err := tx.QueryRowContext(ctx, upsertTerm, term, e.Definition).Scan(&termID); err != nil {
			return 0, fmt.Errorf("upsert term %q: %w", term, err)
		}
		for _, a := range e.Aliases {
			alias := normalize(a)
			if alias == "" || alias == term {
				continue
			}
			if _, err := tx.ExecContext(ctx, upsertAlias, alias, termID); err != nil {
				return 0, fmt.Errorf("upsert alias %q: %w", alias, err)
			}
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Load returns all entries in insertion order. It satisfies vocab.Source.
func (s *sqliteStore) Load(ctx context.Context) ([]vocab.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, term, definition FROM terms ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []vocab.Entry
	index := make(map[int64]int)
	for rows.Next() {
		var id int64
		var e vocab.Entry
		if err := rows.Scan(&id, &e.Term, &e.Definition); err != nil {
			return nil, err
		}
		index[id] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	aliasRows, err := s.db.QueryContext(ctx, `SELECT alias, term_id FROM aliases ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer aliasRows.Close()

	for aliasRows.Next() {
		var alias string
		var termID int64
		if err := aliasRows.Scan(&alias, &termID); err != nil {
			return nil, err
		}
		if i, ok := index[termID]; ok {
			entries[i].Aliases = append(entries[i].Aliases, alias)
		}
	}
	return entries, aliasRows.Err()
}

// CountTerms returns the number of stored terms.
func (s *sqliteStore) CountTerms(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM terms`).Scan(&n)
	return n, err
}

// RecordLookup appends a lookup to the history.
func (s *sqliteStore) RecordLookup(ctx context.Context, l store.Lookup) error {
	if l.ID == "" {
		return fmt.Errorf("lookup without id: %w", internalerr.ErrInvalidInput)
	}
	var term sql.NullString
	if l.Term != "" {
		term = sql.NullString{String: l.Term, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO lookups (id, input, term, outcome, score, at)
VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Input, term, l.Outcome, l.Score, l.At.UTC().Format(time.RFC3339Nano))
	return err
}

// RecentLookups returns the newest lookups first.
func (s *sqliteStore) RecentLookups(ctx context.Context, limit int) ([]store.Lookup, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, input, COALESCE(term, ''), outcome, score, at
FROM lookups
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Lookup
	for rows.Next() {
		var l store.Lookup
		var at string
		if err := rows.Scan(&l.ID, &l.Input, &l.Term, &l.Outcome, &l.Score, &at); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, at); err == nil {
			l.At = ts
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// TopTerms returns the most frequently answered terms.
func (s *sqliteStore) TopTerms(ctx context.Context, limit int) ([]store.TermCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT term, COUNT(*) AS n
FROM lookups
WHERE term IS NOT NULL
GROUP BY term
ORDER BY n DESC, term ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.TermCount
	for rows.Next() {
		var tc store.TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
