package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/notelift/notelift/internal/middleware"
)

type RouterDeps struct {
	Imports   *ImportHandler
	Library   *LibraryHandler
	Files     *FileHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/import", middleware.RateLimit(middleware.ImportRateLimit), deps.Imports.Upload)
	authGroup.GET("/import/jobs/:job_id", deps.Imports.Status)

	authGroup.GET("/notebooks", deps.Library.ListNotebooks)
	authGroup.GET("/notebooks/:notebook_id/notes", deps.Library.ListNotes)
	authGroup.GET("/notes/:note_id", deps.Library.GetNote)

	api.GET("/files/:key", deps.Files.Get)
}
