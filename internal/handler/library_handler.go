package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/notelift/notelift/internal/pkg/errcode"
	"github.com/notelift/notelift/internal/pkg/response"
	"github.com/notelift/notelift/internal/service"
)

type LibraryHandler struct {
	library *service.LibraryService
}

func NewLibraryHandler(library *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

func (h *LibraryHandler) ListNotebooks(c *gin.Context) {
	notebooks, err := h.library.ListNotebooks(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"notebooks": notebooks})
}

func (h *LibraryHandler) ListNotes(c *gin.Context) {
	notebookID := c.Param("notebook_id")
	if notebookID == "" {
		response.Error(c, errcode.ErrInvalid, "notebook_id required")
		return
	}
	limit := parseUintQuery(c, "limit", 50)
	offset := parseUintQuery(c, "offset", 0)
	notes, err := h.library.ListNotes(c.Request.Context(), getUserID(c), notebookID, limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"notes": notes})
}

func (h *LibraryHandler) GetNote(c *gin.Context) {
	noteID := c.Param("note_id")
	if noteID == "" {
		response.Error(c, errcode.ErrInvalid, "note_id required")
		return
	}
	detail, err := h.library.GetNote(c.Request.Context(), getUserID(c), noteID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, detail)
}

func parseUintQuery(c *gin.Context, name string, fallback uint) uint {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return uint(value)
}
