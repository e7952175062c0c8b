package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"gamesync/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
// Users will need to clear their ledger database after schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry records one confirmed upload keyed by content fingerprint.
type Entry struct {
	Fingerprint   string
	Platform      string
	SourcePath    string
	RemoteAssetID string
	UploadedAt    time.Time
}

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the ledger database under the cache directory.
func Open(cfg *config.Config) (*Store, error) {
	return OpenPath(cfg.LedgerPath())
}

// OpenPath initializes or connects to a ledger database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the on-disk location of the ledger database.
func (s *Store) Path() string {
	return s.path
}

// Contains reports whether a fingerprint has a confirmed upload recorded.
func (s *Store) Contains(ctx context.Context, fingerprint string) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM uploads WHERE fingerprint = ?", fingerprint,
		).Scan(&count)
	})
	if err != nil {
		return false, fmt.Errorf("query fingerprint: %w", err)
	}
	return count > 0, nil
}

// Record stores a confirmed upload. Recording the same fingerprint twice is a
// no-op, so re-confirming a duplicate never produces a second row.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.Fingerprint == "" {
		return errors.New("empty fingerprint")
	}
	uploadedAt := entry.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}
	err := s.execWithoutResultRetry(ctx,
		`INSERT INTO uploads (fingerprint, platform, source_path, remote_asset_id, uploaded_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (fingerprint) DO NOTHING`,
		entry.Fingerprint,
		entry.Platform,
		entry.SourcePath,
		nullableString(entry.RemoteAssetID),
		uploadedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

// Entries returns every recorded upload ordered by upload time, newest first.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT fingerprint, platform, source_path, remote_asset_id, uploaded_at
		 FROM uploads ORDER BY uploaded_at DESC, fingerprint`)
	if err != nil {
		return nil, fmt.Errorf("query uploads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan upload row: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return entries, nil
}

// Count returns the number of recorded uploads.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM uploads").Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count uploads: %w", err)
	}
	return count, nil
}

// CountByPlatform returns upload counts grouped by platform.
func (s *Store) CountByPlatform(ctx context.Context) (map[string]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT platform, COUNT(1) FROM uploads GROUP BY platform")
	if err != nil {
		return nil, fmt.Errorf("count by platform: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[platform] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// Clear removes every recorded upload and returns how many rows were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM uploads")
	if err != nil {
		return 0, fmt.Errorf("clear ledger: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared rows: %w", err)
	}
	return removed, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'gamesync ledger clear' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		fingerprint   string
		platform      string
		sourcePath    string
		remoteAssetID sql.NullString
		uploadedRaw   string
	)
	if err := scanner.Scan(&fingerprint, &platform, &sourcePath, &remoteAssetID, &uploadedRaw); err != nil {
		return Entry{}, err
	}
	entry := Entry{
		Fingerprint:   fingerprint,
		Platform:      platform,
		SourcePath:    sourcePath,
		RemoteAssetID: remoteAssetID.String,
	}
	if uploaded, err := time.Parse(time.RFC3339Nano, uploadedRaw); err == nil {
		entry.UploadedAt = uploaded
	}
	return entry, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
