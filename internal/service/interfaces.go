package service

import (
	"context"

	"github.com/notelift/notelift/internal/model"
)

// The import pipeline depends on persistence through these interfaces; the
// concrete implementations live in internal/repo. Tests substitute in-memory
// fakes, including fault-injecting ones.

type NoteStore interface {
	Create(ctx context.Context, note *model.Note) error
}

type NotebookStore interface {
	Create(ctx context.Context, notebook *model.Notebook) error
	GetByID(ctx context.Context, userID, notebookID string) (*model.Notebook, error)
	GetByName(ctx context.Context, userID, name string) (*model.Notebook, error)
}

type TagStore interface {
	UpsertByName(ctx context.Context, tag *model.Tag) (*model.Tag, error)
}

type NoteTagStore interface {
	Link(ctx context.Context, userID, noteID, tagID string, now int64) error
}

type AttachmentStore interface {
	CreateBatch(ctx context.Context, attachments []model.Attachment) error
	FindByHash(ctx context.Context, userID, hash string) (*model.Attachment, error)
}

type ImportJobStore interface {
	Create(ctx context.Context, job *model.ImportJob) error
	Update(ctx context.Context, job *model.ImportJob) error
	Get(ctx context.Context, userID, jobID string) (*model.ImportJob, error)
}

// Read-side stores backing the library browsing endpoints.

type NoteReadStore interface {
	GetByID(ctx context.Context, userID, noteID string) (*model.Note, error)
	ListByNotebook(ctx context.Context, userID, notebookID string, limit, offset uint) ([]model.Note, error)
}

type NotebookListStore interface {
	List(ctx context.Context, userID string) ([]model.Notebook, error)
}

type AttachmentListStore interface {
	ListByNote(ctx context.Context, userID, noteID string) ([]model.Attachment, error)
}

type NoteTagListStore interface {
	ListTagIDs(ctx context.Context, userID, noteID string) ([]string, error)
}

type TagListStore interface {
	List(ctx context.Context, userID string) ([]model.Tag, error)
}
