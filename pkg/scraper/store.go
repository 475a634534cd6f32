package scraper

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// SetupSchema initializes the tracker tables in the provided database.
// It is idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaArchive = `
CREATE TABLE IF NOT EXISTS tracker_archive (
    archive_id INTEGER PRIMARY KEY,
    title TEXT NOT NULL,
    url TEXT,
    archived_at TEXT NOT NULL,
    record TEXT NOT NULL
);
`
		schemaSources = `
CREATE TABLE IF NOT EXISTS tracker_sources (
    source_url TEXT PRIMARY KEY,
    discovered_at TEXT NOT NULL,
    last_seen TEXT NOT NULL
);
`
		schemaRuns = `
CREATE TABLE IF NOT EXISTS tracker_runs (
    run_id INTEGER PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    scraped INTEGER NOT NULL,
    relevant INTEGER NOT NULL,
    added INTEGER NOT NULL,
    archived INTEGER NOT NULL,
    active INTEGER NOT NULL
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, schema := range []string{schemaArchive, schemaSources, schemaRuns} {
		if _, err = tx.Exec(schema); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}
	return tx.Commit()
}

// Store is the SQLite-backed home for archived opportunities, the
// known-source registry, and scrape run history.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	stmtInsertArchive *sql.Stmt
	stmtListArchive   *sql.Stmt
	stmtUpsertSource  *sql.Stmt
	stmtListSources   *sql.Stmt
	stmtInsertRun     *sql.Stmt
}

// NewStore prepares the statements the store uses. SetupSchema must
// have been called on the database first.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	stmtInsertArchive, err := db.Prepare(`INSERT INTO tracker_archive (title, url, archived_at, record) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtListArchive, err := db.Prepare(`SELECT record FROM tracker_archive ORDER BY archived_at DESC, archive_id DESC;`)
	if err != nil {
		return nil, err
	}

	stmtUpsertSource, err := db.Prepare(`INSERT INTO tracker_sources (source_url, discovered_at, last_seen) VALUES (?, ?, ?)
ON CONFLICT(source_url) DO UPDATE SET last_seen = excluded.last_seen;`)
	if err != nil {
		return nil, err
	}

	stmtListSources, err := db.Prepare(`SELECT source_url FROM tracker_sources;`)
	if err != nil {
		return nil, err
	}

	stmtInsertRun, err := db.Prepare(`INSERT INTO tracker_runs (started_at, finished_at, scraped, relevant, added, archived, active) VALUES (?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:                db,
		logger:            logger,
		stmtInsertArchive: stmtInsertArchive,
		stmtListArchive:   stmtListArchive,
		stmtUpsertSource:  stmtUpsertSource,
		stmtListSources:   stmtListSources,
		stmtInsertRun:     stmtInsertRun,
	}, nil
}

// Close releases the store's prepared statements. It does not close
// the underlying database.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtInsertArchive, s.stmtListArchive, s.stmtUpsertSource,
		s.stmtListSources, s.stmtInsertRun,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// ArchiveOpportunity moves one expired record into the archive table.
// The full record is stored as JSON so nothing is lost between the
// scraper's view and the site's.
func (s *Store) ArchiveOpportunity(ctx context.Context, o Opportunity) error {
	record, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal archived record: %w", err)
	}
	if _, err = s.stmtInsertArchive.ExecContext(ctx, o.Title, o.URL, o.ArchivedAt, string(record)); err != nil {
		return fmt.Errorf("failed to archive %q: %w", o.Title, err)
	}
	return nil
}

// Archive returns every archived record, newest first.
func (s *Store) Archive(ctx context.Context) ([]Opportunity, error) {
	rows, err := s.stmtListArchive.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var archive []Opportunity
	for rows.Next() {
		var record string
		if err = rows.Scan(&record); err != nil {
			return nil, err
		}
		var o Opportunity
		if err = json.Unmarshal([]byte(record), &o); err != nil {
			return nil, fmt.Errorf("corrupt archive record: %w", err)
		}
		archive = append(archive, o)
	}
	return archive, rows.Err()
}

// TouchSource registers a source URL as known, creating it on first
// sight and bumping last_seen afterwards.
func (s *Store) TouchSource(ctx context.Context, sourceURL string, seen time.Time) error {
	stamp := timestamp(seen)
	_, err := s.stmtUpsertSource.ExecContext(ctx, sourceURL, stamp, stamp)
	return err
}

// KnownSources returns the set of registered source URLs.
func (s *Store) KnownSources(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.stmtListSources.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	known := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err = rows.Scan(&u); err != nil {
			return nil, err
		}
		known[u] = struct{}{}
	}
	return known, rows.Err()
}

// RecordRun appends one scrape run's stats to the history.
func (s *Store) RecordRun(ctx context.Context, stats RunStats) error {
	_, err := s.stmtInsertRun.ExecContext(ctx,
		timestamp(stats.StartedAt), timestamp(stats.FinishedAt),
		stats.Scraped, stats.Relevant, stats.Added, stats.Archived, stats.Active)
	if err != nil {
		return fmt.Errorf("failed to record run stats: %w", err)
	}
	return nil
}
