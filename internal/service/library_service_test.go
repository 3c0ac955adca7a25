package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/notelift/notelift/internal/model"
	appErr "github.com/notelift/notelift/internal/pkg/errors"
)

type fakeReadStores struct {
	notes       map[string]*model.Note
	byNotebook  map[string][]model.Note
	notebooks   []model.Notebook
	attachments map[string][]model.Attachment
	tagIDs      map[string][]string
	tags        []model.Tag
}

func newFakeReadStores() *fakeReadStores {
	return &fakeReadStores{
		notes:       make(map[string]*model.Note),
		byNotebook:  make(map[string][]model.Note),
		attachments: make(map[string][]model.Attachment),
		tagIDs:      make(map[string][]string),
	}
}

func (f *fakeReadStores) GetByID(ctx context.Context, userID, noteID string) (*model.Note, error) {
	if note, ok := f.notes[noteID]; ok && note.UserID == userID {
		return note, nil
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeReadStores) ListByNotebook(ctx context.Context, userID, notebookID string, limit, offset uint) ([]model.Note, error) {
	return f.byNotebook[notebookID], nil
}

func (f *fakeReadStores) List(ctx context.Context, userID string) ([]model.Notebook, error) {
	return f.notebooks, nil
}

func (f *fakeReadStores) ListByNote(ctx context.Context, userID, noteID string) ([]model.Attachment, error) {
	return f.attachments[noteID], nil
}

func (f *fakeReadStores) ListTagIDs(ctx context.Context, userID, noteID string) ([]string, error) {
	return f.tagIDs[noteID], nil
}

type fakeTagLister struct {
	tags []model.Tag
}

func (f *fakeTagLister) List(ctx context.Context, userID string) ([]model.Tag, error) {
	return f.tags, nil
}

func TestGetNote_HydratesAttachmentsAndTags(t *testing.T) {
	stores := newFakeReadStores()
	stores.notes["n1"] = &model.Note{ID: "n1", UserID: "u1", Title: "Trip"}
	stores.attachments["n1"] = []model.Attachment{{ID: "a1", NoteID: "n1"}}
	stores.tagIDs["n1"] = []string{"t2"}
	tags := &fakeTagLister{tags: []model.Tag{
		{ID: "t1", Name: "other"},
		{ID: "t2", Name: "travel"},
	}}
	svc := NewLibraryService(stores, stores, stores, stores, tags)

	detail, err := svc.GetNote(context.Background(), "u1", "n1")
	require.NoError(t, err)
	require.Equal(t, "Trip", detail.Note.Title)
	require.Len(t, detail.Attachments, 1)
	require.Len(t, detail.Tags, 1)
	require.Equal(t, "travel", detail.Tags[0].Name)
}

func TestGetNote_OwnershipEnforced(t *testing.T) {
	stores := newFakeReadStores()
	stores.notes["n1"] = &model.Note{ID: "n1", UserID: "u1"}
	svc := NewLibraryService(stores, stores, stores, stores, &fakeTagLister{})

	_, err := svc.GetNote(context.Background(), "u2", "n1")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestGetNote_NoTagsSkipsTagLookup(t *testing.T) {
	stores := newFakeReadStores()
	stores.notes["n1"] = &model.Note{ID: "n1", UserID: "u1"}
	svc := NewLibraryService(stores, stores, stores, stores, nil)

	detail, err := svc.GetNote(context.Background(), "u1", "n1")
	require.NoError(t, err)
	require.Empty(t, detail.Tags)
}

func TestListNotebooksAndNotes(t *testing.T) {
	stores := newFakeReadStores()
	stores.notebooks = []model.Notebook{{ID: "nb1", Name: "Imported"}}
	stores.byNotebook["nb1"] = []model.Note{{ID: "n1"}, {ID: "n2"}}
	svc := NewLibraryService(stores, stores, stores, stores, &fakeTagLister{})

	notebooks, err := svc.ListNotebooks(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, notebooks, 1)

	notes, err := svc.ListNotes(context.Background(), "u1", "nb1", 50, 0)
	require.NoError(t, err)
	require.Len(t, notes, 2)
}
