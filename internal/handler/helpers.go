package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notelift/notelift/internal/middleware"
	"github.com/notelift/notelift/internal/pkg/errcode"
	appErr "github.com/notelift/notelift/internal/pkg/errors"
	"github.com/notelift/notelift/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrTooManyFiles),
		errors.Is(err, appErr.ErrFileTooLarge),
		errors.Is(err, appErr.ErrBatchTooLarge),
		errors.Is(err, appErr.ErrUnsupportedFile),
		errors.Is(err, appErr.ErrInvalid):
		response.Error(c, validationCode(err), err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, "conflict")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}

// validationCode maps batch validation sentinels onto their wire codes; the
// messages themselves are safe to surface because they only describe limits.
func validationCode(err error) int {
	switch {
	case errors.Is(err, appErr.ErrTooManyFiles):
		return errcode.ErrTooManyFiles
	case errors.Is(err, appErr.ErrFileTooLarge):
		return errcode.ErrFileTooLarge
	case errors.Is(err, appErr.ErrBatchTooLarge):
		return errcode.ErrBatchTooLarge
	case errors.Is(err, appErr.ErrUnsupportedFile):
		return errcode.ErrUnsupportedFile
	default:
		return errcode.ErrInvalid
	}
}
