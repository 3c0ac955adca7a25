package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/notelift/notelift/internal/model"
	"github.com/notelift/notelift/internal/pkg/dbutil"
	appErr "github.com/notelift/notelift/internal/pkg/errors"
)

type NotebookRepo struct {
	db *sql.DB
}

func NewNotebookRepo(db *sql.DB) *NotebookRepo {
	return &NotebookRepo{db: db}
}

// Create relies on the (user_id, name) unique index; a duplicate name maps
// to ErrConflict so callers can fall back to a fetch.
func (r *NotebookRepo) Create(ctx context.Context, notebook *model.Notebook) error {
	data := map[string]interface{}{
		"id":      notebook.ID,
		"user_id": notebook.UserID,
		"name":    notebook.Name,
		"ctime":   notebook.Ctime,
		"mtime":   notebook.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("notebooks", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *NotebookRepo) GetByID(ctx context.Context, userID, notebookID string) (*model.Notebook, error) {
	return r.getOne(ctx, map[string]interface{}{"id": notebookID, "user_id": userID})
}

func (r *NotebookRepo) GetByName(ctx context.Context, userID, name string) (*model.Notebook, error) {
	return r.getOne(ctx, map[string]interface{}{"user_id": userID, "name": name})
}

func (r *NotebookRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.Notebook, error) {
	sqlStr, args, err := builder.BuildSelect("notebooks", where, []string{"id", "user_id", "name", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var item model.Notebook
	if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Ctime, &item.Mtime); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *NotebookRepo) List(ctx context.Context, userID string) ([]model.Notebook, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "mtime desc"}
	sqlStr, args, err := builder.BuildSelect("notebooks", where, []string{"id", "user_id", "name", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Notebook, 0)
	for rows.Next() {
		var item model.Notebook
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.Ctime, &item.Mtime); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
