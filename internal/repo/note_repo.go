package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/notelift/notelift/internal/model"
	"github.com/notelift/notelift/internal/pkg/dbutil"
	appErr "github.com/notelift/notelift/internal/pkg/errors"
)

var noteColumns = []string{
	"id", "user_id", "notebook_id", "title", "content_html", "content_text", "content_enml",
	"source_url", "author", "latitude", "longitude", "altitude",
	"source_ctime", "source_mtime", "imported_at", "import_source", "ctime", "mtime",
}

type NoteRepo struct {
	db *sql.DB
}

func NewNoteRepo(db *sql.DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func (r *NoteRepo) Create(ctx context.Context, note *model.Note) error {
	data := map[string]interface{}{
		"id":            note.ID,
		"user_id":       note.UserID,
		"notebook_id":   note.NotebookID,
		"title":         note.Title,
		"content_html":  note.ContentHTML,
		"content_text":  note.ContentText,
		"content_enml":  note.ContentENML,
		"source_url":    note.SourceURL,
		"author":        note.Author,
		"latitude":      note.Latitude,
		"longitude":     note.Longitude,
		"altitude":      note.Altitude,
		"source_ctime":  note.SourceCtime,
		"source_mtime":  note.SourceMtime,
		"imported_at":   note.ImportedAt,
		"import_source": note.ImportSource,
		"ctime":         note.Ctime,
		"mtime":         note.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("notes", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NoteRepo) GetByID(ctx context.Context, userID, noteID string) (*model.Note, error) {
	sqlStr, args, err := builder.BuildSelect("notes", map[string]interface{}{"id": noteID, "user_id": userID}, noteColumns)
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
	item, err := scanNote(rows)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *NoteRepo) ListByNotebook(ctx context.Context, userID, notebookID string, limit, offset uint) ([]model.Note, error) {
	where := map[string]interface{}{
		"user_id":     userID,
		"notebook_id": notebookID,
		"_orderby":    "mtime desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	sqlStr, args, err := builder.BuildSelect("notes", where, noteColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Note, 0)
	for rows.Next() {
		item, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanNote(rows *sql.Rows) (*model.Note, error) {
	var item model.Note
	if err := rows.Scan(
		&item.ID, &item.UserID, &item.NotebookID, &item.Title,
		&item.ContentHTML, &item.ContentText, &item.ContentENML,
		&item.SourceURL, &item.Author, &item.Latitude, &item.Longitude, &item.Altitude,
		&item.SourceCtime, &item.SourceMtime, &item.ImportedAt, &item.ImportSource,
		&item.Ctime, &item.Mtime,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
