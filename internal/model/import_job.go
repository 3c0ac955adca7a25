package model

const (
	ImportStatusPending    = "pending"
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
)

// ImportJob tracks one run of the pipeline against one uploaded file. It is
// mutated only by the import run that owns it and is persisted after every
// note attempt, so the row is always a live progress snapshot.
type ImportJob struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	Filename    string   `json:"filename"`
	Status      string   `json:"status"`
	TotalNotes  int      `json:"total_notes"`
	Imported    int      `json:"imported"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors"`
	StartedAt   int64    `json:"started_at,omitempty"`
	CompletedAt int64    `json:"completed_at,omitempty"`
	Ctime       int64    `json:"ctime"`
	Mtime       int64    `json:"mtime"`
}
