package model

type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Ctime  int64  `json:"ctime"`
	Mtime  int64  `json:"mtime"`
}

type NoteTag struct {
	UserID string `json:"user_id"`
	NoteID string `json:"note_id"`
	TagID  string `json:"tag_id"`
	Ctime  int64  `json:"ctime"`
}
