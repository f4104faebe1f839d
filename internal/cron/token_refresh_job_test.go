package cron

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type stubTokens struct {
	err   error
	calls int
}

func (s *stubTokens) AccessToken(context.Context) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "token", nil
}

func TestTokenRefreshJobRuns(t *testing.T) {
	tokens := &stubTokens{}
	job, err := NewTokenRefreshJob(tokens, logger.New(logger.Options{ServiceName: "cron-test"}))
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "token_refresh" {
		t.Fatalf("name = %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if tokens.calls != 1 {
		t.Fatalf("expected one token call, got %d", tokens.calls)
	}
}

func TestTokenRefreshJobSkipsWhenNotConnected(t *testing.T) {
	tokens := &stubTokens{err: pkgerrors.New(pkgerrors.CodeNotConnected, "bling credentials not stored")}
	job, err := NewTokenRefreshJob(tokens, logger.New(logger.Options{ServiceName: "cron-test"}))
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("missing credentials should not fail the job: %v", err)
	}
}

func TestTokenRefreshJobPropagatesFailures(t *testing.T) {
	tokens := &stubTokens{err: errors.New("refresh rejected")}
	job, err := NewTokenRefreshJob(tokens, logger.New(logger.Options{ServiceName: "cron-test"}))
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error from failed refresh")
	}
}
