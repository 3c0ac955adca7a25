package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/notelift/notelift/internal/model"
	"github.com/notelift/notelift/internal/pkg/dbutil"
)

type TagRepo struct {
	db *sql.DB
}

func NewTagRepo(db *sql.DB) *TagRepo {
	return &TagRepo{db: db}
}

// UpsertByName is the get-or-create used during import: the (user_id, name)
// unique index arbitrates concurrent writers and the conflict path returns
// the surviving row, so repeated imports never duplicate a tag.
func (r *TagRepo) UpsertByName(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	sqlStr := `
		INSERT INTO tags (id, user_id, name, ctime, mtime)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, name)
		DO UPDATE SET mtime = EXCLUDED.mtime
		RETURNING id, user_id, name, ctime, mtime
	`
	args := []interface{}{tag.ID, tag.UserID, tag.Name, tag.Ctime, tag.Mtime}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var out model.Tag
	if err := row.Scan(&out.ID, &out.UserID, &out.Name, &out.Ctime, &out.Mtime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TagRepo) List(ctx context.Context, userID string) ([]model.Tag, error) {
	where := map[string]interface{}{"user_id": userID, "_orderby": "mtime desc"}
	sqlStr, args, err := builder.BuildSelect("tags", where, []string{"id", "user_id", "name", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	tags := make([]model.Tag, 0)
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.Ctime, &tag.Mtime); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
