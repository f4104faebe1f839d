package cron

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type tokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenRefreshJob touches the Bling token on schedule so the refresh token
// stays usable even through quiet periods with no orders.
type TokenRefreshJob struct {
	tokens tokenSource
	logg   *logger.Logger
}

// NewTokenRefreshJob builds the token keep-warm job.
func NewTokenRefreshJob(tokens tokenSource, logg *logger.Logger) (*TokenRefreshJob, error) {
	if tokens == nil {
		return nil, errors.New("token service required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &TokenRefreshJob{tokens: tokens, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *TokenRefreshJob) Name() string {
	return "token_refresh"
}

// Run requests an access token, which refreshes it when close to expiry.
// A shop that never connected Bling is not a failure.
func (j *TokenRefreshJob) Run(ctx context.Context) error {
	if _, err := j.tokens.AccessToken(ctx); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotConnected) {
			j.logg.Info(ctx, "bling not connected; token refresh skipped")
			return nil
		}
		return fmt.Errorf("token refresh: %w", err)
	}
	j.logg.Info(ctx, "bling token verified")
	return nil
}
