package service

import (
	"context"

	"github.com/notelift/notelift/internal/model"
)

// LibraryService is the read side of the imported corpus: notebooks, their
// notes, and single notes hydrated with attachments and tags.
type LibraryService struct {
	notes       NoteReadStore
	notebooks   NotebookListStore
	attachments AttachmentListStore
	noteTags    NoteTagListStore
	tags        TagListStore
}

func NewLibraryService(notes NoteReadStore, notebooks NotebookListStore, attachments AttachmentListStore, noteTags NoteTagListStore, tags TagListStore) *LibraryService {
	return &LibraryService{
		notes:       notes,
		notebooks:   notebooks,
		attachments: attachments,
		noteTags:    noteTags,
		tags:        tags,
	}
}

type NoteDetail struct {
	Note        model.Note         `json:"note"`
	Attachments []model.Attachment `json:"attachments"`
	Tags        []model.Tag        `json:"tags"`
}

func (s *LibraryService) ListNotebooks(ctx context.Context, userID string) ([]model.Notebook, error) {
	return s.notebooks.List(ctx, userID)
}

func (s *LibraryService) ListNotes(ctx context.Context, userID, notebookID string, limit, offset uint) ([]model.Note, error) {
	return s.notes.ListByNotebook(ctx, userID, notebookID, limit, offset)
}

// GetNote hydrates one note with its attachments and tags. Tag hydration
// goes through the user's tag list; imports keep that list small enough that
// filtering beats a second lookup path.
func (s *LibraryService) GetNote(ctx context.Context, userID, noteID string) (*NoteDetail, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	tagIDs, err := s.noteTags.ListTagIDs(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	tags := make([]model.Tag, 0, len(tagIDs))
	if len(tagIDs) > 0 {
		all, err := s.tags.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		wanted := make(map[string]bool, len(tagIDs))
		for _, id := range tagIDs {
			wanted[id] = true
		}
		for _, tag := range all {
			if wanted[tag.ID] {
				tags = append(tags, tag)
			}
		}
	}
	return &NoteDetail{Note: *note, Attachments: attachments, Tags: tags}, nil
}
