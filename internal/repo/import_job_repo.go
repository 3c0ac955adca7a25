package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/notelift/notelift/internal/model"
	"github.com/notelift/notelift/internal/pkg/dbutil"
	appErr "github.com/notelift/notelift/internal/pkg/errors"
)

type ImportJobRepo struct {
	db *sql.DB
}

func NewImportJobRepo(db *sql.DB) *ImportJobRepo {
	return &ImportJobRepo{db: db}
}

func (r *ImportJobRepo) Create(ctx context.Context, job *model.ImportJob) error {
	errorsJSON, err := marshalErrors(job.Errors)
	if err != nil {
		return err
	}
	sqlStr := `
		INSERT INTO import_jobs (id, user_id, filename, status, total_notes, imported, failed, errors_json, started_at, completed_at, ctime, mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	args := []interface{}{
		job.ID, job.UserID, job.Filename, job.Status,
		job.TotalNotes, job.Imported, job.Failed, errorsJSON,
		job.StartedAt, job.CompletedAt, job.Ctime, job.Mtime,
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Update persists the whole progress snapshot; the orchestrator calls it
// after every note attempt so the row always reflects live progress.
func (r *ImportJobRepo) Update(ctx context.Context, job *model.ImportJob) error {
	errorsJSON, err := marshalErrors(job.Errors)
	if err != nil {
		return err
	}
	sqlStr := `
		UPDATE import_jobs
		SET status = ?,
			total_notes = ?,
			imported = ?,
			failed = ?,
			errors_json = ?,
			started_at = ?,
			completed_at = ?,
			mtime = ?
		WHERE id = ? AND user_id = ?
	`
	args := []interface{}{
		job.Status, job.TotalNotes, job.Imported, job.Failed, errorsJSON,
		job.StartedAt, job.CompletedAt, job.Mtime,
		job.ID, job.UserID,
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ImportJobRepo) Get(ctx context.Context, userID, jobID string) (*model.ImportJob, error) {
	sqlStr := `
		SELECT id, user_id, filename, status, total_notes, imported, failed, errors_json, started_at, completed_at, ctime, mtime
		FROM import_jobs
		WHERE id = ? AND user_id = ?
	`
	args := []interface{}{jobID, userID}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var job model.ImportJob
	var errorsJSON string
	if err := row.Scan(
		&job.ID, &job.UserID, &job.Filename, &job.Status,
		&job.TotalNotes, &job.Imported, &job.Failed, &errorsJSON,
		&job.StartedAt, &job.CompletedAt, &job.Ctime, &job.Mtime,
	); err != nil {
		if dbutil.IsNoRows(err) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	job.Errors = make([]string, 0)
	if errorsJSON != "" {
		_ = json.Unmarshal([]byte(errorsJSON), &job.Errors)
	}
	return &job, nil
}

func (r *ImportJobRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	sqlStr := `DELETE FROM import_jobs WHERE ctime < ?`
	args := []interface{}{cutoff}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func marshalErrors(errs []string) (string, error) {
	if errs == nil {
		errs = []string{}
	}
	data, err := json.Marshal(errs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
