package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielbikeshop/backend/internal/catalog"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type catalogRunner interface {
	Run(ctx context.Context) (*catalog.Summary, error)
}

// CatalogSyncJob pulls the Bling catalog into the local store on schedule.
type CatalogSyncJob struct {
	svc  catalogRunner
	logg *logger.Logger
}

// NewCatalogSyncJob builds the scheduled catalog sync job.
func NewCatalogSyncJob(svc catalogRunner, logg *logger.Logger) (*CatalogSyncJob, error) {
	if svc == nil {
		return nil, errors.New("catalog service required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &CatalogSyncJob{svc: svc, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *CatalogSyncJob) Name() string {
	return "catalog_sync"
}

// Run performs one sync pass. A sync already holding the catalog lock
// (for example one triggered from the admin panel) is not a failure.
func (j *CatalogSyncJob) Run(ctx context.Context) error {
	summary, err := j.svc.Run(ctx)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			j.logg.Info(ctx, "catalog sync already in progress; skipping")
			return nil
		}
		if pkgerrors.HasCode(err, pkgerrors.CodeNotConnected) {
			j.logg.Warn(ctx, "bling not connected; catalog sync skipped")
			return nil
		}
		return fmt.Errorf("catalog sync: %w", err)
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"pages":   summary.Pages,
		"total":   summary.Total,
		"created": summary.Created,
		"updated": summary.Updated,
		"failed":  summary.Failed,
	})
	j.logg.Info(ctx, "catalog sync finished")
	return nil
}
