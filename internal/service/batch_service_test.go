package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/notelift/notelift/internal/pkg/errors"
)

func newBatchFixture(limits BatchLimits) (*importFixture, *BatchService) {
	f := newImportFixture()
	return f, NewBatchService(f.svc, limits)
}

func defaultLimits() BatchLimits {
	return BatchLimits{MaxFiles: 5, MaxFileBytes: 1 << 20, MaxBatchBytes: 2 << 20}
}

func TestImportFiles_MixedBatch(t *testing.T) {
	f, batches := newBatchFixture(defaultLimits())
	files := []BatchFile{
		{Filename: "notes.enex", Data: enexDocument(simpleNote("A", "a"), simpleNote("B", "b"))},
		{Filename: "journal.md", Data: []byte("# Day One\n")},
	}

	result, err := batches.ImportFiles(context.Background(), "u1", files, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, result.FilesProcessed)
	require.Equal(t, 3, result.TotalNotes)
	require.Equal(t, 3, result.TotalImported)
	require.Zero(t, result.TotalFailed)
	require.Empty(t, result.Errors)
	require.Len(t, result.Files, 2)
	require.Len(t, f.notes.notes, 3)
}

func TestImportFiles_EmptyBatchRejected(t *testing.T) {
	_, batches := newBatchFixture(defaultLimits())
	_, err := batches.ImportFiles(context.Background(), "u1", nil, ImportOptions{})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestImportFiles_TooManyFiles(t *testing.T) {
	f, batches := newBatchFixture(BatchLimits{MaxFiles: 2, MaxFileBytes: 1 << 20, MaxBatchBytes: 1 << 20})
	files := []BatchFile{
		{Filename: "a.enex", Data: enexDocument(simpleNote("A", "x"))},
		{Filename: "b.enex", Data: enexDocument(simpleNote("B", "x"))},
		{Filename: "c.enex", Data: enexDocument(simpleNote("C", "x"))},
	}
	_, err := batches.ImportFiles(context.Background(), "u1", files, ImportOptions{})
	require.ErrorIs(t, err, appErr.ErrTooManyFiles)
	// Rejected before the pipeline: no jobs, no notes.
	require.Empty(t, f.jobs.jobs)
	require.Empty(t, f.notes.notes)
}

func TestImportFiles_FileTooLarge(t *testing.T) {
	_, batches := newBatchFixture(BatchLimits{MaxFiles: 5, MaxFileBytes: 16, MaxBatchBytes: 1 << 20})
	files := []BatchFile{
		{Filename: "big.enex", Data: make([]byte, 17)},
	}
	_, err := batches.ImportFiles(context.Background(), "u1", files, ImportOptions{})
	require.ErrorIs(t, err, appErr.ErrFileTooLarge)
	require.Contains(t, err.Error(), "big.enex")
}

func TestImportFiles_BatchTooLarge(t *testing.T) {
	_, batches := newBatchFixture(BatchLimits{MaxFiles: 5, MaxFileBytes: 64, MaxBatchBytes: 100})
	files := []BatchFile{
		{Filename: "a.enex", Data: make([]byte, 60)},
		{Filename: "b.enex", Data: make([]byte, 60)},
	}
	_, err := batches.ImportFiles(context.Background(), "u1", files, ImportOptions{})
	require.ErrorIs(t, err, appErr.ErrBatchTooLarge)
}

func TestImportFiles_UnsupportedExtension(t *testing.T) {
	f, batches := newBatchFixture(defaultLimits())
	files := []BatchFile{
		{Filename: "notes.enex", Data: enexDocument(simpleNote("A", "x"))},
		{Filename: "image.png", Data: []byte{0x89, 0x50}},
	}
	_, err := batches.ImportFiles(context.Background(), "u1", files, ImportOptions{})
	require.ErrorIs(t, err, appErr.ErrUnsupportedFile)
	require.Contains(t, err.Error(), "image.png")
	require.Empty(t, f.jobs.jobs)
}

func TestImportFiles_PerFileFailureTolerated(t *testing.T) {
	f, batches := newBatchFixture(defaultLimits())
	files := []BatchFile{
		{Filename: "broken.enex", Data: []byte("<html>not an export</html>")},
		{Filename: "good.enex", Data: enexDocument(simpleNote("Survivor", "x"))},
	}

	result, err := batches.ImportFiles(context.Background(), "u1", files, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesProcessed)
	require.Equal(t, 1, result.TotalImported)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "broken.enex")
	require.Len(t, f.notes.notes, 1)
	require.Equal(t, "Survivor", f.notes.notes[0].Title)
}

func TestImportFiles_PartialNoteFailuresAggregate(t *testing.T) {
	f, batches := newBatchFixture(defaultLimits())
	f.notes.failOn["Poison"] = fmt.Errorf("boom")
	files := []BatchFile{
		{Filename: "mixed.enex", Data: enexDocument(simpleNote("Fine", "a"), simpleNote("Poison", "b"))},
	}

	result, err := batches.ImportFiles(context.Background(), "u1", files, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.FilesProcessed)
	require.Equal(t, 2, result.TotalNotes)
	require.Equal(t, 1, result.TotalImported)
	require.Equal(t, 1, result.TotalFailed)
	require.Len(t, result.Files, 1)
	require.Contains(t, result.Files[0].Errors[0], "Poison")

	// Note-level failures roll up into the batch error list, attributed to
	// the file they came from.
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "mixed.enex")
	require.Contains(t, result.Errors[0], "Poison")
}

func TestImportFiles_ExtensionCaseInsensitive(t *testing.T) {
	f, batches := newBatchFixture(defaultLimits())
	files := []BatchFile{
		{Filename: "NOTES.ENEX", Data: enexDocument(simpleNote("A", "x"))},
	}
	result, err := batches.ImportFiles(context.Background(), "u1", files, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalImported)
	require.Len(t, f.notes.notes, 1)
}
