package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notelift/notelift/internal/enex"
	"github.com/notelift/notelift/internal/enml"
	"github.com/notelift/notelift/internal/model"
	appErr "github.com/notelift/notelift/internal/pkg/errors"
	"github.com/notelift/notelift/internal/pkg/timeutil"
)

const (
	defaultBatchSize     = 10
	defaultNotebookName  = "Imported Notes"
	importSourceEvernote = "evernote"
	importSourceMarkdown = "markdown"
)

// ImportService drives one export file through parse, extraction, conversion
// and persistence. Notes are processed strictly sequentially; a per-note
// failure is recorded and the loop moves on, so one bad note never sinks the
// batch. Only a document-level failure (unparseable file, unresolvable
// destination notebook) aborts the job.
type ImportService struct {
	resources *ResourceService
	notes     NoteStore
	notebooks NotebookStore
	tags      TagStore
	noteTags  NoteTagStore
	jobs      ImportJobStore
	batchSize int
}

func NewImportService(resources *ResourceService, notes NoteStore, notebooks NotebookStore, tags TagStore, noteTags NoteTagStore, jobs ImportJobStore, batchSize int) *ImportService {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ImportService{
		resources: resources,
		notes:     notes,
		notebooks: notebooks,
		tags:      tags,
		noteTags:  noteTags,
		jobs:      jobs,
		batchSize: batchSize,
	}
}

// ImportProgress is an immutable snapshot emitted after every state change.
// Consumers get a copy; ignoring it changes nothing about the import.
type ImportProgress struct {
	JobID       string   `json:"job_id"`
	Status      string   `json:"status"`
	TotalNotes  int      `json:"total_notes"`
	Imported    int      `json:"imported"`
	Failed      int      `json:"failed"`
	CurrentNote string   `json:"current_note,omitempty"`
	Errors      []string `json:"errors"`
}

type ProgressFunc func(ImportProgress)

type ImportOptions struct {
	Filename     string
	NotebookID   string
	NotebookName string
	OnProgress   ProgressFunc
}

type ImportResult struct {
	JobID       string   `json:"job_id"`
	Status      string   `json:"status"`
	TotalNotes  int      `json:"total_notes"`
	Imported    int      `json:"imported"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors"`
	NotebookID  string   `json:"notebook_id"`
	Attachments int      `json:"attachments"`
}

// ImportExport runs the whole pipeline for one .enex payload.
func (s *ImportService) ImportExport(ctx context.Context, userID string, content []byte, opts ImportOptions) (*ImportResult, error) {
	now := timeutil.NowUnix()
	job := &model.ImportJob{
		ID:        newID(),
		UserID:    userID,
		Filename:  opts.Filename,
		Status:    model.ImportStatusPending,
		Errors:    make([]string, 0),
		StartedAt: now,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	s.emitProgress(job, "", opts.OnProgress)

	doc, err := enex.ParseBytes(content)
	if err != nil {
		// The one place a single error aborts everything: without a
		// parsed document there is nothing to iterate.
		s.failJob(ctx, job, err, opts.OnProgress)
		return nil, err
	}
	job.Errors = append(job.Errors, doc.Skipped...)

	if len(doc.Notes) == 0 {
		job.Status = model.ImportStatusCompleted
		job.CompletedAt = timeutil.NowUnix()
		job.Mtime = job.CompletedAt
		s.persistJob(ctx, job)
		s.emitProgress(job, "", opts.OnProgress)
		return s.resultFor(job, "", 0), nil
	}

	notebook, err := s.resolveNotebook(ctx, userID, opts)
	if err != nil {
		s.failJob(ctx, job, fmt.Errorf("resolve notebook: %w", err), opts.OnProgress)
		return nil, err
	}

	job.Status = model.ImportStatusProcessing
	job.TotalNotes = len(doc.Notes)
	job.Mtime = timeutil.NowUnix()
	s.persistJob(ctx, job)
	s.emitProgress(job, "", opts.OnProgress)

	attachmentTotal := 0
	// Batches only bound in-flight bookkeeping; they are invisible in the
	// result and notes stay strictly sequential within and across them.
	for start := 0; start < len(doc.Notes); start += s.batchSize {
		end := start + s.batchSize
		if end > len(doc.Notes) {
			end = len(doc.Notes)
		}
		for _, note := range doc.Notes[start:end] {
			count, resourceErrs, err := s.importNote(ctx, userID, notebook.ID, &note)
			for _, resourceErr := range resourceErrs {
				job.Errors = append(job.Errors, fmt.Sprintf("%s: %s", note.Title, resourceErr))
			}
			if err != nil {
				job.Failed += 1
				job.Errors = append(job.Errors, fmt.Sprintf("%s: %v", note.Title, err))
				logutil.GetLogger(ctx).Warn("note import failed",
					zap.String("job_id", job.ID),
					zap.String("title", note.Title),
					zap.Error(err),
				)
			} else {
				job.Imported += 1
				attachmentTotal += count
			}
			job.Mtime = timeutil.NowUnix()
			s.persistJob(ctx, job)
			s.emitProgress(job, note.Title, opts.OnProgress)
		}
	}

	if job.Failed == job.TotalNotes {
		job.Status = model.ImportStatusFailed
	} else {
		job.Status = model.ImportStatusCompleted
	}
	job.CompletedAt = timeutil.NowUnix()
	job.Mtime = job.CompletedAt
	s.persistJob(ctx, job)
	s.emitProgress(job, "", opts.OnProgress)

	logutil.GetLogger(ctx).Info("import finished",
		zap.String("job_id", job.ID),
		zap.String("status", job.Status),
		zap.Int("total", job.TotalNotes),
		zap.Int("imported", job.Imported),
		zap.Int("failed", job.Failed),
	)
	return s.resultFor(job, notebook.ID, attachmentTotal), nil
}

// importNote handles one note end to end: resources, conversion,
// persistence. Resource-level failures are returned separately; they leave
// gaps the converter renders as placeholders but do not fail the note.
func (s *ImportService) importNote(ctx context.Context, userID, notebookID string, note *enex.ExportedNote) (int, []string, error) {
	noteID := newID()
	extract := s.resources.ExtractAll(ctx, note.Resources, ResourceRef{UserID: userID, NoteID: noteID})
	resourceErrs := make([]string, 0, len(extract.Errors))
	for _, extractErr := range extract.Errors {
		resourceErrs = append(resourceErrs, extractErr.Error())
	}

	html := enml.ConvertToHTML(note.Content, extract.HashMap, enml.Options{})
	text := enml.ExtractPlainText(note.Content)

	now := timeutil.NowUnix()
	record := &model.Note{
		ID:           noteID,
		UserID:       userID,
		NotebookID:   notebookID,
		Title:        note.Title,
		ContentHTML:  html,
		ContentText:  text,
		ContentENML:  note.Content,
		ImportedAt:   now,
		ImportSource: importSourceEvernote,
		Ctime:        now,
		Mtime:        now,
	}
	if note.Created != nil {
		record.SourceCtime = note.Created.Unix()
	}
	if note.Updated != nil {
		record.SourceMtime = note.Updated.Unix()
	}
	if note.Attributes != nil {
		record.SourceURL = note.Attributes.SourceURL
		record.Author = note.Attributes.Author
		record.Latitude = note.Attributes.Latitude
		record.Longitude = note.Attributes.Longitude
		record.Altitude = note.Attributes.Altitude
	}
	if err := s.notes.Create(ctx, record); err != nil {
		return 0, resourceErrs, fmt.Errorf("persist note: %w", err)
	}

	attachments := make([]model.Attachment, 0, len(extract.Extracted))
	for _, item := range extract.Extracted {
		attachments = append(attachments, model.Attachment{
			ID:          newID(),
			UserID:      userID,
			NoteID:      noteID,
			FileKey:     item.StorageKey,
			URL:         item.URL,
			Hash:        item.Hash,
			Name:        item.Filename,
			ContentType: item.MimeType,
			Size:        item.Size,
			Width:       item.Width,
			Height:      item.Height,
			Ctime:       now,
		})
	}
	if err := s.resources.attachments.CreateBatch(ctx, attachments); err != nil {
		return 0, resourceErrs, fmt.Errorf("persist attachments: %w", err)
	}

	if err := s.linkTags(ctx, userID, noteID, note.Tags, now); err != nil {
		return 0, resourceErrs, fmt.Errorf("link tags: %w", err)
	}
	return len(attachments), resourceErrs, nil
}

// linkTags get-or-creates each tag by (user, name) and links it. The upsert
// goes through the storage layer's unique constraint, so concurrent imports
// for the same user cannot duplicate a tag.
func (s *ImportService) linkTags(ctx context.Context, userID, noteID string, names []string, now int64) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tag, err := s.tags.UpsertByName(ctx, &model.Tag{
			ID:     newID(),
			UserID: userID,
			Name:   name,
			Ctime:  now,
			Mtime:  now,
		})
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}
		if err := s.noteTags.Link(ctx, userID, noteID, tag.ID, now); err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

// resolveNotebook reuses by exact ID when supplied and owned by the caller,
// then by exact name, and only then creates. Creation races fall back to a
// fetch, so repeated imports of the same named export stay idempotent.
func (s *ImportService) resolveNotebook(ctx context.Context, userID string, opts ImportOptions) (*model.Notebook, error) {
	if opts.NotebookID != "" {
		notebook, err := s.notebooks.GetByID(ctx, userID, opts.NotebookID)
		if err == nil {
			return notebook, nil
		}
		if !appErr.IsNotFound(err) {
			return nil, err
		}
	}
	name := strings.TrimSpace(opts.NotebookName)
	if name == "" {
		name = notebookNameFromFilename(opts.Filename)
	}
	notebook, err := s.notebooks.GetByName(ctx, userID, name)
	if err == nil {
		return notebook, nil
	}
	if !appErr.IsNotFound(err) {
		return nil, err
	}
	now := timeutil.NowUnix()
	created := &model.Notebook{
		ID:     newID(),
		UserID: userID,
		Name:   name,
		Ctime:  now,
		Mtime:  now,
	}
	if err := s.notebooks.Create(ctx, created); err != nil {
		if appErr.IsConflict(err) {
			return s.notebooks.GetByName(ctx, userID, name)
		}
		return nil, err
	}
	return created, nil
}

func notebookNameFromFilename(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.TrimSpace(base)
	if base == "" || base == "." {
		return defaultNotebookName
	}
	return base
}

func (s *ImportService) failJob(ctx context.Context, job *model.ImportJob, cause error, onProgress ProgressFunc) {
	job.Status = model.ImportStatusFailed
	job.Errors = append(job.Errors, cause.Error())
	job.CompletedAt = timeutil.NowUnix()
	job.Mtime = job.CompletedAt
	s.persistJob(ctx, job)
	s.emitProgress(job, "", onProgress)
	logutil.GetLogger(ctx).Error("import failed",
		zap.String("job_id", job.ID),
		zap.Error(cause),
	)
}

// persistJob keeps the job row a live snapshot; a failed write is logged
// rather than failing the import itself.
func (s *ImportService) persistJob(ctx context.Context, job *model.ImportJob) {
	if err := s.jobs.Update(ctx, job); err != nil {
		logutil.GetLogger(ctx).Warn("persist job progress failed",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
	}
}

func (s *ImportService) emitProgress(job *model.ImportJob, currentNote string, onProgress ProgressFunc) {
	if onProgress == nil {
		return
	}
	errs := make([]string, len(job.Errors))
	copy(errs, job.Errors)
	onProgress(ImportProgress{
		JobID:       job.ID,
		Status:      job.Status,
		TotalNotes:  job.TotalNotes,
		Imported:    job.Imported,
		Failed:      job.Failed,
		CurrentNote: currentNote,
		Errors:      errs,
	})
}

func (s *ImportService) resultFor(job *model.ImportJob, notebookID string, attachments int) *ImportResult {
	errs := make([]string, len(job.Errors))
	copy(errs, job.Errors)
	return &ImportResult{
		JobID:       job.ID,
		Status:      job.Status,
		TotalNotes:  job.TotalNotes,
		Imported:    job.Imported,
		Failed:      job.Failed,
		Errors:      errs,
		NotebookID:  notebookID,
		Attachments: attachments,
	}
}

// Status returns the live job snapshot for polling callers.
func (s *ImportService) Status(ctx context.Context, userID, jobID string) (*model.ImportJob, error) {
	return s.jobs.Get(ctx, userID, jobID)
}
