package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/notelift/notelift/internal/model"
	"github.com/notelift/notelift/internal/pkg/dbutil"
	appErr "github.com/notelift/notelift/internal/pkg/errors"
)

var attachmentColumns = []string{
	"id", "user_id", "note_id", "file_key", "url", "hash",
	"name", "content_type", "size", "width", "height", "ctime",
}

type AttachmentRepo struct {
	db *sql.DB
}

func NewAttachmentRepo(db *sql.DB) *AttachmentRepo {
	return &AttachmentRepo{db: db}
}

func (r *AttachmentRepo) CreateBatch(ctx context.Context, attachments []model.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(attachments))
	for _, item := range attachments {
		rows = append(rows, map[string]interface{}{
			"id":           item.ID,
			"user_id":      item.UserID,
			"note_id":      item.NoteID,
			"file_key":     item.FileKey,
			"url":          item.URL,
			"hash":         item.Hash,
			"name":         item.Name,
			"content_type": item.ContentType,
			"size":         item.Size,
			"width":        item.Width,
			"height":       item.Height,
			"ctime":        item.Ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("attachments", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// FindByHash returns the most recent attachment with matching content for
// this user, for the advisory dedup lookup. No row maps to ErrNotFound.
func (r *AttachmentRepo) FindByHash(ctx context.Context, userID, hash string) (*model.Attachment, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"hash":     hash,
		"_orderby": "ctime desc",
		"_limit":   []uint{0, 1},
	}
	sqlStr, args, err := builder.BuildSelect("attachments", where, attachmentColumns)
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
	return scanAttachment(rows)
}

func (r *AttachmentRepo) ListByNote(ctx context.Context, userID, noteID string) ([]model.Attachment, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"note_id":  noteID,
		"_orderby": "ctime asc",
	}
	sqlStr, args, err := builder.BuildSelect("attachments", where, attachmentColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Attachment, 0)
	for rows.Next() {
		item, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanAttachment(rows *sql.Rows) (*model.Attachment, error) {
	var item model.Attachment
	if err := rows.Scan(
		&item.ID, &item.UserID, &item.NoteID, &item.FileKey, &item.URL, &item.Hash,
		&item.Name, &item.ContentType, &item.Size, &item.Width, &item.Height, &item.Ctime,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
