package catalog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/internal/erp"
	"github.com/danielbikeshop/backend/internal/products"
	"github.com/danielbikeshop/backend/pkg/db/models"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
	"github.com/danielbikeshop/backend/pkg/metrics"
)

const (
	syncLockName    = "catalog-sync"
	syncJobName     = "catalog_sync"
	defaultPageSize = 100
	defaultMaxPages = 50

	// Bling flags sellable products with situation "A".
	situationActive = "A"
)

type remoteCatalog interface {
	ListProducts(ctx context.Context, page, limit int) ([]erp.RemoteProduct, error)
}

type locker interface {
	AcquireLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name string) error
}

// Summary reports what one sync run did. Synced counts products written
// locally, Failed counts products that errored and were skipped.
type Summary struct {
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Service pulls the Bling catalog into the local store. Runs are serialized
// with a Redis lock so the worker and an admin-triggered sync cannot overlap.
type Service interface {
	Run(ctx context.Context) (*Summary, error)
}

type service struct {
	repo     *Repository
	remote   remoteCatalog
	locks    locker
	metrics  *metrics.CronJobMetrics
	logger   *logger.Logger
	pageSize int
	maxPages int
	lockTTL  time.Duration
	now      func() time.Time
}

// NewService builds the catalog sync service.
func NewService(
	repo *Repository,
	remote remoteCatalog,
	locks locker,
	m *metrics.CronJobMetrics,
	logg *logger.Logger,
	pageSize int,
	maxPages int,
	lockTTL time.Duration,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if remote == nil {
		return nil, fmt.Errorf("remote catalog required")
	}
	if locks == nil {
		return nil, fmt.Errorf("locker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &service{
		repo:     repo,
		remote:   remote,
		locks:    locks,
		metrics:  m,
		logger:   logg,
		pageSize: pageSize,
		maxPages: maxPages,
		lockTTL:  lockTTL,
		now:      time.Now,
	}, nil
}

func (s *service) Run(ctx context.Context) (*Summary, error) {
	acquired, err := s.locks.AcquireLock(ctx, syncLockName, uuid.NewString(), s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire sync lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "catalog sync already running")
	}
	defer func() {
		if err := s.locks.ReleaseLock(context.WithoutCancel(ctx), syncLockName); err != nil {
			s.logger.Warn(ctx, "sync lock release failed")
		}
	}()

	ctx = s.logger.WithJob(ctx, syncJobName)
	started := s.now()

	summary, err := s.sync(ctx)
	if s.metrics != nil {
		s.metrics.ObserveDuration(syncJobName, time.Since(started))
		if err != nil {
			s.metrics.IncFailure(syncJobName)
		} else {
			s.metrics.IncSuccess(syncJobName)
		}
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(s.logger.WithFields(ctx, map[string]any{
		"pages":   summary.Pages,
		"total":   summary.Total,
		"synced":  summary.Synced,
		"created": summary.Created,
		"updated": summary.Updated,
		"failed":  summary.Failed,
	}), "catalog sync finished")
	return summary, nil
}

func (s *service) sync(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	syncedAt := s.now()

	for page := 1; page <= s.maxPages; page++ {
		remote, err := s.remote.ListProducts(ctx, page, s.pageSize)
		if err != nil {
			return nil, err
		}
		if len(remote) == 0 {
			break
		}
		summary.Pages++
		summary.Total += len(remote)

		cache := make([]models.BlingProductCache, 0, len(remote))
		for _, item := range remote {
			cache = append(cache, cacheRow(item, syncedAt))
		}
		if err := s.repo.UpsertCache(ctx, cache); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert bling cache")
		}

		// One broken product must not sink the rest of the run.
		for _, item := range remote {
			created, err := s.syncProduct(ctx, item)
			if err != nil {
				summary.Failed++
				s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
					"bling_id": item.ID,
					"sku":      skuFor(item),
					"error":    err.Error(),
				}), "product sync failed")
				continue
			}
			summary.Synced++
			if created {
				summary.Created++
			} else {
				summary.Updated++
			}
		}

		if len(remote) < s.pageSize {
			break
		}
	}
	return summary, nil
}

// skuFor keys a remote entry by its Bling code, falling back to the remote
// id for products without one.
func skuFor(item erp.RemoteProduct) string {
	if item.Code != "" {
		return item.Code
	}
	return strconv.FormatInt(item.ID, 10)
}

func cacheRow(item erp.RemoteProduct, syncedAt time.Time) models.BlingProductCache {
	row := models.BlingProductCache{
		BlingID:  item.ID,
		Name:     item.Name,
		Price:    item.Price,
		SyncedAt: syncedAt,
	}
	if item.Code != "" {
		code := item.Code
		row.Code = &code
	}
	if item.Situation != "" {
		situation := item.Situation
		row.Situation = &situation
	}
	if item.Stock != nil {
		stock := int(item.Stock.VirtualBalance)
		if stock < 0 {
			stock = 0
		}
		row.Stock = &stock
	}
	return row
}

// effectivePrices maps Bling's price pair onto the storefront model: a
// positive promotional price becomes the selling price and the list price
// moves to compare-at.
func effectivePrices(item erp.RemoteProduct) (price decimal.Decimal, compareAt *decimal.Decimal) {
	if item.PromotionalPrice != nil && item.PromotionalPrice.IsPositive() {
		list := item.Price
		return *item.PromotionalPrice, &list
	}
	return item.Price, nil
}

// syncProduct upserts the storefront product for a remote entry, keyed by
// SKU. Returns whether a new product was created.
func (s *service) syncProduct(ctx context.Context, item erp.RemoteProduct) (bool, error) {
	stock := 0
	if item.Stock != nil && item.Stock.VirtualBalance > 0 {
		stock = int(item.Stock.VirtualBalance)
	}
	sku := skuFor(item)
	price, compareAt := effectivePrices(item)

	existing, err := s.repo.FindProductBySKU(ctx, sku)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product by sku")
		}

		blingID := item.ID
		product := &models.Product{
			Name:           item.Name,
			Slug:           products.Slugify(item.Name) + "-" + strconv.FormatInt(item.ID, 10),
			SKU:            &sku,
			Price:          price,
			CompareAtPrice: compareAt,
			Stock:          stock,
			IsActive:       item.Situation == situationActive,
			BlingID:        &blingID,
		}
		if desc := item.Description(); desc != "" {
			product.Description = &desc
		}
		if item.Brand != "" {
			brand := item.Brand
			product.Brand = &brand
		}
		if item.ImageURL != "" {
			product.Images = []models.ProductImage{{URL: item.ImageURL, Position: 0}}
		}
		if err := s.repo.CreateProduct(ctx, product); err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create synced product")
		}
		return true, nil
	}

	// Bling is the source of truth for listing data; slug, images and
	// featured flag stay curated locally.
	updates := map[string]any{
		"name":             item.Name,
		"price":            price,
		"compare_at_price": compareAt,
		"stock":            stock,
		"is_active":        item.Situation == situationActive,
		"bling_id":         item.ID,
	}
	if desc := item.Description(); desc != "" {
		updates["description"] = desc
	}
	if item.Brand != "" {
		updates["brand"] = item.Brand
	}
	if err := s.repo.UpdateProduct(ctx, existing, updates); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update synced product")
	}
	return false, nil
}
