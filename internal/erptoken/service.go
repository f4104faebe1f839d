package erptoken

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/config"
	"github.com/danielbikeshop/backend/pkg/db/models"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

const (
	refreshLockName = "bling-token-refresh"
	refreshLockTTL  = 30 * time.Second

	// waitAttempts bounds how long a caller waits for another holder's
	// refresh to land before giving up.
	waitAttempts  = 10
	waitInterval  = 200 * time.Millisecond
	defaultExpiry = time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type locker interface {
	AcquireLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Service hands out valid Bling access tokens, refreshing them behind a
// distributed lock when they are close to expiry.
type Service interface {
	AccessToken(ctx context.Context) (string, error)
	ExchangeCode(ctx context.Context, code string) error
	Status(ctx context.Context) (ConnectionStatus, error)
}

// ConnectionStatus describes the stored credential state.
type ConnectionStatus struct {
	Connected    bool       `json:"connected"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	NeedsRefresh bool       `json:"needs_refresh"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Error        string `json:"error,omitempty"`
}

type service struct {
	repo   Repository
	tx     txRunner
	locks  locker
	http   httpDoer
	cfg    config.BlingConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewService builds the token manager with the required dependencies.
func NewService(repo Repository, tx txRunner, locks locker, client httpDoer, cfg config.BlingConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("token repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock provider required")
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   repo,
		tx:     tx,
		locks:  locks,
		http:   client,
		cfg:    cfg,
		logger: logg,
		now:    time.Now,
	}, nil
}

func (s *service) AccessToken(ctx context.Context) (string, error) {
	token, err := s.repo.Latest(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", pkgerrors.New(pkgerrors.CodeNotConnected, "bling credentials not stored")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bling token")
	}

	if !token.ExpiresWithin(s.cfg.ExpiryBuffer, s.now()) {
		return token.AccessToken, nil
	}

	refreshed, err := s.refresh(ctx, token)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

func (s *service) ExchangeCode(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "authorization code required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)

	resp, err := s.callTokenEndpoint(ctx, form)
	if err != nil {
		return err
	}
	return s.store(ctx, resp)
}

func (s *service) Status(ctx context.Context) (ConnectionStatus, error) {
	token, err := s.repo.Latest(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ConnectionStatus{}, nil
		}
		return ConnectionStatus{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load bling token")
	}
	expires := token.ExpiresAt
	return ConnectionStatus{
		Connected:    true,
		ExpiresAt:    &expires,
		NeedsRefresh: token.ExpiresWithin(s.cfg.ExpiryBuffer, s.now()),
	}, nil
}

// refresh exchanges the stored refresh token for a new credential set. Only
// one caller performs the exchange; the rest wait for the row to change.
func (s *service) refresh(ctx context.Context, stale *models.OAuthToken) (*models.OAuthToken, error) {
	acquired, err := s.locks.AcquireLock(ctx, refreshLockName, stale.ID.String(), refreshLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire refresh lock")
	}
	if !acquired {
		return s.waitForRefresh(ctx, stale)
	}
	defer func() {
		if releaseErr := s.locks.ReleaseLock(ctx, refreshLockName); releaseErr != nil {
			s.logger.Warn(ctx, "release refresh lock failed")
		}
	}()

	// Another holder may have refreshed between our read and the lock.
	current, err := s.repo.Latest(ctx)
	if err == nil && !current.ExpiresWithin(s.cfg.ExpiryBuffer, s.now()) {
		return current, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", stale.RefreshToken)

	resp, err := s.callTokenEndpoint(ctx, form)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, resp); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "bling access token refreshed")
	return s.latestOrError(ctx)
}

func (s *service) waitForRefresh(ctx context.Context, stale *models.OAuthToken) (*models.OAuthToken, error) {
	for i := 0; i < waitAttempts; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(waitInterval):
		}

		current, err := s.repo.Latest(ctx)
		if err != nil {
			continue
		}
		if !current.ExpiresWithin(s.cfg.ExpiryBuffer, s.now()) {
			return current, nil
		}
	}

	// The holder did not finish in time. A token inside the expiry buffer
	// must not be handed out, so this can only fail.
	if !stale.ExpiresWithin(s.cfg.ExpiryBuffer, s.now()) {
		return stale, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeRefreshFailed, "token refresh in progress elsewhere and current token near expiry")
}

func (s *service) callTokenEndpoint(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call bling token endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Error(ctx, "bling token endpoint rejected request", fmt.Errorf("status %d", resp.StatusCode))
		return nil, pkgerrors.New(pkgerrors.CodeRefreshFailed, fmt.Sprintf("bling token endpoint returned status %d", resp.StatusCode))
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode token response")
	}
	if parsed.AccessToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeRefreshFailed, "token response missing access token")
	}
	return &parsed, nil
}

func (s *service) store(ctx context.Context, resp *tokenResponse) error {
	expiresIn := time.Duration(resp.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = defaultExpiry
	}

	token := &models.OAuthToken{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    s.now().Add(expiresIn),
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Replace(ctx, token)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store bling token")
	}
	return nil
}

func (s *service) latestOrError(ctx context.Context) (*models.OAuthToken, error) {
	token, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload bling token")
	}
	return token, nil
}
