package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dvcurate/internal/common"
	"github.com/dmitrijs2005/dvcurate/internal/journal/migrations"
	"github.com/dmitrijs2005/dvcurate/internal/models"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Journal records upload runs in SQLite.
type Journal struct {
	db *sql.DB
}

// New wraps an already migrated database.
func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Open opens the SQLite database at dsn and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Journal, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// SQLite allows a single writer; ":memory:" also needs one shared connection.
	db.SetMaxOpenConns(1)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordBatch stores res. Objects that were stored but will not be attached
// to the dataset are recorded for later cleanup: every descriptor of a batch
// that was not finalized, and failed files that reached the store.
func (j *Journal) RecordBatch(ctx context.Context, res models.BatchResult, directory string, startedAt, finishedAt time.Time) error {
	finalizeErr := ""
	if res.FinalizeErr != nil {
		finalizeErr = res.FinalizeErr.Error()
	}

	err := withTx(ctx, j.db, func(tx execer) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, dataset_pid, directory, started_at, finished_at, files, uploaded, failed, bytes, finalized, finalize_error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, res.DatasetPID, directory, startedAt.Unix(), finishedAt.Unix(),
			len(res.Outcomes), len(res.Descriptors), len(res.Errors), res.BytesUploaded(),
			boolToInt(res.Finalized), finalizeErr)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for i, msg := range res.Errors {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO run_errors (run_id, position, message) VALUES (?, ?, ?)`,
				res.RunID, i, msg); err != nil {
				return fmt.Errorf("failed to insert run error: %w", err)
			}
		}

		for _, o := range unregistered(res) {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO unregistered_objects (run_id, storage_identifier, file_name, file_size)
VALUES (?, ?, ?, ?)`,
				res.RunID, o.StorageIdentifier, o.FileName, o.FileSize); err != nil {
				return fmt.Errorf("failed to insert unregistered object: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record batch %s: %w", res.RunID, err)
	}
	return nil
}

// History returns up to limit runs, newest first. A limit of zero or less
// returns all runs.
func (j *Journal) History(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, dataset_pid, directory, started_at, finished_at, files, uploaded, failed, bytes, finalized, finalize_error
FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select runs: %w", err)
	}

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			finalized         int
		)
		if err := rows.Scan(&r.ID, &r.DatasetPID, &r.Directory, &started, &finished,
			&r.Files, &r.Uploaded, &r.Failed, &r.Bytes, &finalized, &r.FinalizeError); err != nil {
			_ = rows.Close()
			return nil, err
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		r.FinishedAt = time.Unix(finished, 0).UTC()
		r.Finalized = finalized != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	// Errors are loaded after the run cursor is closed; the pool may hold a
	// single connection.
	for i := range runs {
		msgs, err := j.runErrors(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Errors = msgs
	}
	return runs, nil
}

// Run returns one run by id.
func (j *Journal) Run(ctx context.Context, id string) (*Run, error) {
	var (
		r                 Run
		started, finished int64
		finalized         int
	)
	err := j.db.QueryRowContext(ctx, `
SELECT id, dataset_pid, directory, started_at, finished_at, files, uploaded, failed, bytes, finalized, finalize_error
FROM runs WHERE id = ?`, id).Scan(&r.ID, &r.DatasetPID, &r.Directory, &started, &finished,
		&r.Files, &r.Uploaded, &r.Failed, &r.Bytes, &finalized, &r.FinalizeError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select run: %w", err)
	}
	r.StartedAt = time.Unix(started, 0).UTC()
	r.FinishedAt = time.Unix(finished, 0).UTC()
	r.Finalized = finalized != 0

	if r.Errors, err = j.runErrors(ctx, id); err != nil {
		return nil, err
	}
	return &r, nil
}

func (j *Journal) runErrors(ctx context.Context, runID string) ([]string, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT message FROM run_errors WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to select run errors: %w", err)
	}
	defer rows.Close()

	msgs := []string{}
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// Orphans lists objects not yet purged. An empty runID lists all runs.
func (j *Journal) Orphans(ctx context.Context, runID string) ([]Orphan, error) {
	query := `
SELECT o.run_id, r.dataset_pid, o.storage_identifier, o.file_name, o.file_size
FROM unregistered_objects o JOIN runs r ON r.id = o.run_id
WHERE o.purged_at IS NULL`
	args := []any{}
	if runID != "" {
		query += ` AND o.run_id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY o.run_id, o.rowid`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select orphans: %w", err)
	}
	defer rows.Close()

	var result []Orphan
	for rows.Next() {
		var o Orphan
		if err := rows.Scan(&o.RunID, &o.DatasetPID, &o.StorageIdentifier, &o.FileName, &o.FileSize); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}

// MarkPurged records that the object was deleted from storage.
func (j *Journal) MarkPurged(ctx context.Context, runID, storageIdentifier string, at time.Time) error {
	res, err := j.db.ExecContext(ctx, `
UPDATE unregistered_objects SET purged_at = ?
WHERE run_id = ? AND storage_identifier = ? AND purged_at IS NULL`,
		at.Unix(), runID, storageIdentifier)
	if err != nil {
		return fmt.Errorf("failed to mark purged: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func unregistered(res models.BatchResult) []Orphan {
	var out []Orphan
	if !res.Finalized {
		for _, d := range res.Descriptors {
			out = append(out, Orphan{StorageIdentifier: d.StorageIdentifier, FileName: d.FileName, FileSize: d.FileSize})
		}
	}
	for _, o := range res.Outcomes {
		if !o.Succeeded() && o.StorageIdentifier != "" {
			out = append(out, Orphan{StorageIdentifier: o.StorageIdentifier, FileName: o.FileName, FileSize: o.FileSize})
		}
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
