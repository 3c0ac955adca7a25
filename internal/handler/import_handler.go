package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/notelift/notelift/internal/pkg/errcode"
	"github.com/notelift/notelift/internal/pkg/response"
	"github.com/notelift/notelift/internal/service"
)

type ImportHandler struct {
	batches       *service.BatchService
	imports       *service.ImportService
	maxUploadSize int64
}

func NewImportHandler(batches *service.BatchService, imports *service.ImportService, maxUploadSize int64) *ImportHandler {
	return &ImportHandler{batches: batches, imports: imports, maxUploadSize: maxUploadSize}
}

// Upload accepts one or more export files under the "files" multipart field
// and runs them through batch validation and the import pipeline. Limit
// violations reject the whole submission before any job is created.
func (h *ImportHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "multipart form required")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		// Single-file clients use the "file" field.
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		response.Error(c, errcode.ErrInvalidFile, "at least one file is required")
		return
	}

	files := make([]service.BatchFile, 0, len(headers))
	for _, header := range headers {
		if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
			response.Error(c, errcode.ErrFileTooLarge, header.Filename+" too large (max "+formatUploadLimit(h.maxUploadSize)+")")
			return
		}
		opened, err := header.Open()
		if err != nil {
			response.Error(c, errcode.ErrInvalidFile, "failed to open "+header.Filename)
			return
		}
		data, err := io.ReadAll(opened)
		opened.Close()
		if err != nil {
			response.Error(c, errcode.ErrInvalidFile, "failed to read "+header.Filename)
			return
		}
		files = append(files, service.BatchFile{Filename: header.Filename, Data: data})
	}

	opts := service.ImportOptions{
		NotebookID:   c.PostForm("notebook_id"),
		NotebookName: c.PostForm("notebook_name"),
	}
	result, err := h.batches.ImportFiles(c.Request.Context(), getUserID(c), files, opts)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ImportHandler) Status(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		response.Error(c, errcode.ErrInvalid, "job_id required")
		return
	}
	job, err := h.imports.Status(c.Request.Context(), getUserID(c), jobID)
	if err != nil {
		handleError(c, err)
		return
	}
	progress := 0
	if job.TotalNotes > 0 {
		progress = int(float64(job.Imported+job.Failed) / float64(job.TotalNotes) * 100)
	}
	response.Success(c, gin.H{
		"job_id":   job.ID,
		"status":   job.Status,
		"progress": progress,
		"total":    job.TotalNotes,
		"imported": job.Imported,
		"failed":   job.Failed,
		"errors":   job.Errors,
	})
}
