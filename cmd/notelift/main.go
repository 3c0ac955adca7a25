package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/notelift/notelift/internal/config"
	"github.com/notelift/notelift/internal/db"
	"github.com/notelift/notelift/internal/filestore"
	"github.com/notelift/notelift/internal/handler"
	"github.com/notelift/notelift/internal/job"
	"github.com/notelift/notelift/internal/middleware"
	"github.com/notelift/notelift/internal/repo"
	"github.com/notelift/notelift/internal/schedule"
	"github.com/notelift/notelift/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "notelift",
		Short: "notelift import server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run notelift server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	noteRepo := repo.NewNoteRepo(database)
	notebookRepo := repo.NewNotebookRepo(database)
	tagRepo := repo.NewTagRepo(database)
	noteTagRepo := repo.NewNoteTagRepo(database)
	attachmentRepo := repo.NewAttachmentRepo(database)
	importJobRepo := repo.NewImportJobRepo(database)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	resourceService := service.NewResourceService(store, attachmentRepo)
	importService := service.NewImportService(
		resourceService,
		noteRepo,
		notebookRepo,
		tagRepo,
		noteTagRepo,
		importJobRepo,
		cfg.Import.BatchSize,
	)
	const mb = 1024 * 1024
	batchService := service.NewBatchService(importService, service.BatchLimits{
		MaxFiles:      cfg.Import.MaxFiles,
		MaxFileBytes:  cfg.Import.MaxFileSizeMB * mb,
		MaxBatchBytes: cfg.Import.MaxBatchSizeMB * mb,
	})

	libraryService := service.NewLibraryService(noteRepo, notebookRepo, attachmentRepo, noteTagRepo, tagRepo)

	deps := handler.RouterDeps{
		Imports:   handler.NewImportHandler(batchService, importService, cfg.Import.MaxFileSizeMB*mb),
		Library:   handler.NewLibraryHandler(libraryService),
		Files:     handler.NewFileHandler(store),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewImportCleanupJob(importJobRepo, cfg.Import.JobRetentionHours)
	if err := scheduler.AddJob(cleanup, cfg.Import.CleanupSpec); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
