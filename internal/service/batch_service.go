package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/notelift/notelift/internal/pkg/errors"
)

// BatchLimits bound a single submission. They are enforced in full before
// any file reaches the import pipeline, so a rejected batch leaves no jobs
// behind.
type BatchLimits struct {
	MaxFiles      int
	MaxFileBytes  int64
	MaxBatchBytes int64
}

type BatchService struct {
	imports *ImportService
	limits  BatchLimits
}

func NewBatchService(imports *ImportService, limits BatchLimits) *BatchService {
	return &BatchService{imports: imports, limits: limits}
}

type BatchFile struct {
	Filename string
	Data     []byte
}

type BatchResult struct {
	FilesProcessed    int            `json:"files_processed"`
	TotalNotes        int            `json:"total_notes"`
	TotalImported     int            `json:"total_imported"`
	TotalFailed       int            `json:"total_failed"`
	TotalAttachments  int            `json:"total_attachments"`
	Errors            []string       `json:"errors"`
	Files             []ImportResult `json:"files"`
}

// ImportFiles validates the submission, then feeds files through the import
// pipeline one at a time. A file-level failure is recorded and the batch
// continues; only validation rejects the whole submission.
func (s *BatchService) ImportFiles(ctx context.Context, userID string, files []BatchFile, opts ImportOptions) (*BatchResult, error) {
	if err := s.validate(files); err != nil {
		return nil, err
	}

	result := &BatchResult{
		Errors: make([]string, 0),
		Files:  make([]ImportResult, 0, len(files)),
	}
	for _, file := range files {
		fileOpts := opts
		fileOpts.Filename = file.Filename

		var imported *ImportResult
		var err error
		switch strings.ToLower(filepath.Ext(file.Filename)) {
		case ".enex":
			imported, err = s.imports.ImportExport(ctx, userID, file.Data, fileOpts)
		case ".md":
			imported, err = s.imports.ImportMarkdown(ctx, userID, file.Data, fileOpts)
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", file.Filename, err))
			logutil.GetLogger(ctx).Warn("file import failed",
				zap.String("filename", file.Filename),
				zap.Error(err),
			)
			if imported == nil {
				continue
			}
		}
		result.FilesProcessed += 1
		result.TotalNotes += imported.TotalNotes
		result.TotalImported += imported.Imported
		result.TotalFailed += imported.Failed
		result.TotalAttachments += imported.Attachments
		// Note-level failures surface at the batch level too, prefixed with
		// the file they came from, so callers get one flat error list.
		for _, noteErr := range imported.Errors {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", file.Filename, noteErr))
		}
		result.Files = append(result.Files, *imported)
	}
	return result, nil
}

func (s *BatchService) validate(files []BatchFile) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: no files supplied", appErr.ErrInvalid)
	}
	if len(files) > s.limits.MaxFiles {
		return fmt.Errorf("%w: %d files exceeds limit of %d", appErr.ErrTooManyFiles, len(files), s.limits.MaxFiles)
	}
	var total int64
	for _, file := range files {
		switch strings.ToLower(filepath.Ext(file.Filename)) {
		case ".enex", ".md":
		default:
			return fmt.Errorf("%w: %s", appErr.ErrUnsupportedFile, file.Filename)
		}
		size := int64(len(file.Data))
		if size > s.limits.MaxFileBytes {
			return fmt.Errorf("%w: %s is %d bytes, limit is %d", appErr.ErrFileTooLarge, file.Filename, size, s.limits.MaxFileBytes)
		}
		total += size
	}
	if total > s.limits.MaxBatchBytes {
		return fmt.Errorf("%w: %d bytes combined, limit is %d", appErr.ErrBatchTooLarge, total, s.limits.MaxBatchBytes)
	}
	return nil
}
