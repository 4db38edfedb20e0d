package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/docdrift/internal/model"
)

// FileName is the index database file name inside its directory.
const FileName = "docdrift.db"

// Index stores snapshot and diff run records.
type Index struct {
	db     *sql.DB
	dbPath string
}

// Options configures Index behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the index in dbDir.
func Open(dbDir string, opts Options) (*Index, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	idx := &Index{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := idx.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return idx, nil
}

// Path returns the database file path.
func (idx *Index) Path() string {
	return idx.dbPath
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func (idx *Index) createTables() error {
	schema := `
	-- One row per snapshot file
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		origin TEXT NOT NULL,
		revision TEXT NOT NULL,
		path TEXT NOT NULL,
		page_count INTEGER NOT NULL,
		max_depth INTEGER NOT NULL,
		captured_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_origin ON snapshots(origin);
	CREATE INDEX IF NOT EXISTS idx_snapshots_captured ON snapshots(captured_at);

	-- One row per comparison against a live site
	CREATE TABLE IF NOT EXISTS diff_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		snapshot_id TEXT NOT NULL,
		base_url TEXT NOT NULL,
		pages_checked INTEGER NOT NULL,
		missing_count INTEGER NOT NULL,
		retitled_count INTEGER NOT NULL,
		checked_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_diff_runs_snapshot ON diff_runs(snapshot_id);
	`
	_, err := idx.db.ExecContext(context.Background(), schema)
	return err
}

// RecordSnapshot inserts a snapshot row, replacing a row with the same id.
func (idx *Index) RecordSnapshot(ctx context.Context, info *model.SnapshotInfo) error {
	query := `
	INSERT INTO snapshots (id, origin, revision, path, page_count, max_depth, captured_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		origin = excluded.origin,
		revision = excluded.revision,
		path = excluded.path,
		page_count = excluded.page_count,
		max_depth = excluded.max_depth,
		captured_at = excluded.captured_at
	`
	_, err := idx.db.ExecContext(ctx, query,
		info.ID,
		info.Origin,
		info.Revision,
		info.Path,
		info.PageCount,
		info.MaxDepth,
		formatTimestamp(info.CapturedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = `id, origin, revision, path, page_count, max_depth, captured_at`

// GetSnapshot returns the snapshot with id, or nil when there is none.
func (idx *Index) GetSnapshot(ctx context.Context, id string) (*model.SnapshotInfo, error) {
	row := idx.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id)
	info, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return info, nil
}

// LatestSnapshot returns the most recent snapshot of origin, or nil when
// the origin has none.
func (idx *Index) LatestSnapshot(ctx context.Context, origin string) (*model.SnapshotInfo, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots
	WHERE origin = ?
	ORDER BY captured_at DESC, rowid DESC
	LIMIT 1`

	info, err := scanSnapshot(idx.db.QueryRowContext(ctx, query, origin))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return info, nil
}

// ListSnapshots returns snapshots newest first. An empty origin lists all.
func (idx *Index) ListSnapshots(ctx context.Context, origin string) ([]*model.SnapshotInfo, error) {
	query := `SELECT ` + snapshotColumns + ` FROM snapshots WHERE 1=1`
	args := make([]any, 0, 1)
	if origin != "" {
		query += " AND origin = ?"
		args = append(args, origin)
	}
	query += " ORDER BY captured_at DESC, rowid DESC"

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*model.SnapshotInfo
	for rows.Next() {
		info, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// ListOrigins returns every origin with at least one snapshot.
func (idx *Index) ListOrigins(ctx context.Context) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT DISTINCT origin FROM snapshots ORDER BY origin`)
	if err != nil {
		return nil, fmt.Errorf("failed to list origins: %w", err)
	}
	defer rows.Close()

	var origins []string
	for rows.Next() {
		var origin string
		if err := rows.Scan(&origin); err != nil {
			return nil, fmt.Errorf("failed to scan origin: %w", err)
		}
		origins = append(origins, origin)
	}
	return origins, rows.Err()
}

// RecordDiffRun inserts a diff run and returns its id.
func (idx *Index) RecordDiffRun(ctx context.Context, run *model.DiffRun) (int64, error) {
	query := `
	INSERT INTO diff_runs (snapshot_id, base_url, pages_checked, missing_count, retitled_count, checked_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := idx.db.ExecContext(ctx, query,
		run.SnapshotID,
		run.BaseURL,
		run.PagesChecked,
		run.MissingCount,
		run.RetitledCount,
		formatTimestamp(run.CheckedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record diff run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read diff run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListDiffRuns returns diff runs newest first. An empty snapshotID lists all.
func (idx *Index) ListDiffRuns(ctx context.Context, snapshotID string) ([]*model.DiffRun, error) {
	query := `
	SELECT id, snapshot_id, base_url, pages_checked, missing_count, retitled_count, checked_at
	FROM diff_runs
	WHERE 1=1`
	args := make([]any, 0, 1)
	if snapshotID != "" {
		query += " AND snapshot_id = ?"
		args = append(args, snapshotID)
	}
	query += " ORDER BY checked_at DESC, id DESC"

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diff runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.DiffRun
	for rows.Next() {
		var run model.DiffRun
		var checkedAt string
		if err := rows.Scan(
			&run.ID,
			&run.SnapshotID,
			&run.BaseURL,
			&run.PagesChecked,
			&run.MissingCount,
			&run.RetitledCount,
			&checkedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan diff run: %w", err)
		}
		run.CheckedAt = parseTimestamp(checkedAt)
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*model.SnapshotInfo, error) {
	var info model.SnapshotInfo
	var capturedAt string
	if err := row.Scan(
		&info.ID,
		&info.Origin,
		&info.Revision,
		&info.Path,
		&info.PageCount,
		&info.MaxDepth,
		&capturedAt,
	); err != nil {
		return nil, err
	}
	info.CapturedAt = parseTimestamp(capturedAt)
	return &info, nil
}

// storedTimestamp sorts lexically in chronological order.
const storedTimestamp = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(storedTimestamp)
}

// timestampFormats contains the timestamp formats the index may hold.
// The order matters: more specific formats come first.
var timestampFormats = []string{
	storedTimestamp,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp tries each known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
