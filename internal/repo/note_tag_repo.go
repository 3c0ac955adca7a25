package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/notelift/notelift/internal/pkg/dbutil"
)

type NoteTagRepo struct {
	db *sql.DB
}

func NewNoteTagRepo(db *sql.DB) *NoteTagRepo {
	return &NoteTagRepo{db: db}
}

// Link is idempotent: relinking the same (note, tag) pair is a no-op.
func (r *NoteTagRepo) Link(ctx context.Context, userID, noteID, tagID string, now int64) error {
	sqlStr := `
		INSERT INTO note_tags (user_id, note_id, tag_id, ctime)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (note_id, tag_id) DO NOTHING
	`
	args := []interface{}{userID, noteID, tagID, now}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *NoteTagRepo) ListTagIDs(ctx context.Context, userID, noteID string) ([]string, error) {
	where := map[string]interface{}{"user_id": userID, "note_id": noteID}
	sqlStr, args, err := builder.BuildSelect("note_tags", where, []string{"tag_id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
