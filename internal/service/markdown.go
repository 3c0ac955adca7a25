package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/notelift/notelift/internal/enml"
	"github.com/notelift/notelift/internal/model"
	"github.com/notelift/notelift/internal/pkg/timeutil"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

func renderMarkdown(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// ImportMarkdown imports a single .md file as a one-note job. The rendered
// HTML passes through the same sanitizer as converted note markup so both
// import paths produce output safe to serve.
func (s *ImportService) ImportMarkdown(ctx context.Context, userID string, content []byte, opts ImportOptions) (*ImportResult, error) {
	now := timeutil.NowUnix()
	job := &model.ImportJob{
		ID:         newID(),
		UserID:     userID,
		Filename:   opts.Filename,
		Status:     model.ImportStatusPending,
		TotalNotes: 1,
		Errors:     make([]string, 0),
		StartedAt:  now,
		Ctime:      now,
		Mtime:      now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	s.emitProgress(job, "", opts.OnProgress)

	notebook, err := s.resolveNotebook(ctx, userID, opts)
	if err != nil {
		s.failJob(ctx, job, fmt.Errorf("resolve notebook: %w", err), opts.OnProgress)
		return nil, err
	}

	job.Status = model.ImportStatusProcessing
	job.Mtime = timeutil.NowUnix()
	s.persistJob(ctx, job)
	s.emitProgress(job, "", opts.OnProgress)

	title := markdownTitle(opts.Filename)
	if err := s.importMarkdownNote(ctx, userID, notebook.ID, title, content); err != nil {
		job.Failed = 1
		job.Errors = append(job.Errors, fmt.Sprintf("%s: %v", title, err))
		job.Status = model.ImportStatusFailed
	} else {
		job.Imported = 1
		job.Status = model.ImportStatusCompleted
	}
	job.CompletedAt = timeutil.NowUnix()
	job.Mtime = job.CompletedAt
	s.persistJob(ctx, job)
	s.emitProgress(job, title, opts.OnProgress)
	return s.resultFor(job, notebook.ID, 0), nil
}

func (s *ImportService) importMarkdownNote(ctx context.Context, userID, notebookID, title string, content []byte) error {
	rendered, err := renderMarkdown(content)
	if err != nil {
		return err
	}
	html := enml.SanitizeHTML(rendered)
	now := timeutil.NowUnix()
	record := &model.Note{
		ID:           newID(),
		UserID:       userID,
		NotebookID:   notebookID,
		Title:        title,
		ContentHTML:  html,
		ContentText:  enml.ExtractPlainText(html),
		ImportedAt:   now,
		ImportSource: importSourceMarkdown,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.notes.Create(ctx, record); err != nil {
		return fmt.Errorf("persist note: %w", err)
	}
	return nil
}

func markdownTitle(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.TrimSpace(base)
	if base == "" || base == "." {
		return "Untitled"
	}
	return base
}
