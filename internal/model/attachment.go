package model

// Attachment is one extracted binary resource. Hash is the hex MD5 of the
// decoded bytes, the same value the source markup uses to reference it.
type Attachment struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	NoteID      string `json:"note_id"`
	FileKey     string `json:"file_key"`
	URL         string `json:"url"`
	Hash        string `json:"hash"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Ctime       int64  `json:"ctime"`
}
