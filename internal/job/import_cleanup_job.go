package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/notelift/notelift/internal/pkg/timeutil"
)

type ImportJobCleaner interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// ImportCleanupJob drops import job rows past their retention window. Jobs
// are progress records, not data; the imported notes stay untouched.
type ImportCleanupJob struct {
	jobs           ImportJobCleaner
	retentionHours int
}

func NewImportCleanupJob(jobs ImportJobCleaner, retentionHours int) *ImportCleanupJob {
	return &ImportCleanupJob{jobs: jobs, retentionHours: retentionHours}
}

func (j *ImportCleanupJob) Name() string {
	return "import_cleanup"
}

func (j *ImportCleanupJob) Run(ctx context.Context) error {
	if j.jobs == nil || j.retentionHours <= 0 {
		return nil
	}
	cutoff := timeutil.NowUnix() - int64(j.retentionHours)*3600
	deleted, err := j.jobs.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logutil.GetLogger(ctx).Info("expired import jobs removed", zap.Int64("count", deleted))
	}
	return nil
}
