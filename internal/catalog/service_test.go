package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/internal/erp"
	"github.com/danielbikeshop/backend/pkg/db/models"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type stubRemote struct {
	pages [][]erp.RemoteProduct
	err   error
	calls int
}

func (s *stubRemote) ListProducts(ctx context.Context, page, limit int) ([]erp.RemoteProduct, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if page > len(s.pages) {
		return nil, nil
	}
	return s.pages[page-1], nil
}

type stubLocker struct {
	denied   bool
	held     bool
	released bool
}

func (s *stubLocker) AcquireLock(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	if s.denied {
		return false, nil
	}
	s.held = true
	return true, nil
}

func (s *stubLocker) ReleaseLock(ctx context.Context, name string) error {
	s.released = true
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.ProductImage{}, &models.BlingProductCache{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

func newSyncService(t *testing.T, conn *gorm.DB, remote *stubRemote, locks *stubLocker, pageSize, maxPages int) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		remote,
		locks,
		nil,
		logger.New(logger.Options{ServiceName: "test"}),
		pageSize,
		maxPages,
		time.Minute,
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func remoteProduct(id int64, code, name string, price float64, stock float64, situation string) erp.RemoteProduct {
	return erp.RemoteProduct{
		ID:        id,
		Code:      code,
		Name:      name,
		Price:     decimal.NewFromFloat(price),
		Situation: situation,
		Stock:     &erp.RemoteStock{VirtualBalance: stock},
	}
}

func TestRunCreatesAndCachesProducts(t *testing.T) {
	conn := newTestDB(t)
	remote := &stubRemote{pages: [][]erp.RemoteProduct{
		{
			remoteProduct(1, "BIKE-001", "Bike Aro 29", 1899.90, 4, "A"),
			remoteProduct(2, "CAP-001", "Capacete MTB", 189.90, 12, "A"),
		},
		{
			remoteProduct(3, "", "Serviço de montagem", 0, 0, "I"),
		},
	}}
	locks := &stubLocker{}
	svc := newSyncService(t, conn, remote, locks, 2, 10)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Pages != 2 || summary.Total != 3 || summary.Created != 3 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !locks.released {
		t.Fatal("sync lock not released")
	}

	var product models.Product
	if err := conn.First(&product, "sku = ?", "BIKE-001").Error; err != nil {
		t.Fatalf("load synced product: %v", err)
	}
	if product.Slug != "bike-aro-29-1" {
		t.Fatalf("slug = %s, want bike-aro-29-1", product.Slug)
	}
	if product.Stock != 4 || !product.IsActive {
		t.Fatalf("unexpected product %+v", product)
	}
	if product.BlingID == nil || *product.BlingID != 1 {
		t.Fatalf("bling_id not set: %+v", product.BlingID)
	}

	// A product without a Bling code is keyed by its remote id.
	var noCode models.Product
	if err := conn.First(&noCode, "sku = ?", "3").Error; err != nil {
		t.Fatalf("load code-less product: %v", err)
	}
	if noCode.IsActive {
		t.Fatalf("inactive remote product must stay inactive: %+v", noCode)
	}

	var cached int64
	if err := conn.Model(&models.BlingProductCache{}).Count(&cached).Error; err != nil {
		t.Fatalf("count cache: %v", err)
	}
	if cached != 3 {
		t.Fatalf("cache rows = %d, want 3", cached)
	}
}

func TestRunUpdatesExistingProductKeepingCuration(t *testing.T) {
	conn := newTestDB(t)
	sku := "BIKE-001"
	existing := &models.Product{
		ID:       uuid.New(),
		Name:     "Bike Aro 29 Edição Especial",
		Slug:     "bike-aro-29-edicao-especial",
		SKU:      &sku,
		Price:    decimal.NewFromInt(1700),
		Stock:    1,
		IsActive: true,
	}
	if err := conn.Create(existing).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	remote := &stubRemote{pages: [][]erp.RemoteProduct{
		{remoteProduct(1, "BIKE-001", "Bike Aro 29", 1899.90, 9, "A")},
	}}
	svc := newSyncService(t, conn, remote, &stubLocker{}, 10, 10)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Created != 0 || summary.Updated != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	var reloaded models.Product
	if err := conn.First(&reloaded, "id = ?", existing.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.Stock != 9 || reloaded.Price.String() != "1899.9" {
		t.Fatalf("sync did not refresh stock/price: %+v", reloaded)
	}
	if reloaded.Name != "Bike Aro 29" {
		t.Fatalf("sync must refresh the name: %+v", reloaded)
	}
	if reloaded.Slug != existing.Slug {
		t.Fatalf("sync must not touch the slug: %+v", reloaded)
	}
}

func TestRunDeactivatesProductRemovedInBling(t *testing.T) {
	conn := newTestDB(t)
	sku := "BIKE-001"
	existing := &models.Product{
		Name:     "Bike Aro 29",
		Slug:     "bike-aro-29-1",
		SKU:      &sku,
		Price:    decimal.NewFromInt(1899),
		Stock:    4,
		IsActive: true,
	}
	if err := conn.Create(existing).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	remote := &stubRemote{pages: [][]erp.RemoteProduct{
		{remoteProduct(1, "BIKE-001", "Bike Aro 29", 1899.90, 0, "I")},
	}}
	svc := newSyncService(t, conn, remote, &stubLocker{}, 10, 10)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var reloaded models.Product
	if err := conn.First(&reloaded, "id = ?", existing.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if reloaded.IsActive {
		t.Fatal("product deactivated in Bling must become inactive")
	}
}

func TestRunSyncsPromoPriceBrandAndImage(t *testing.T) {
	conn := newTestDB(t)
	promo := decimal.NewFromFloat(1599.90)
	item := remoteProduct(1, "BIKE-001", "Bike Aro 29", 1899.90, 4, "A")
	item.PromotionalPrice = &promo
	item.ShortDescription = "Quadro de alumínio, 21 marchas"
	item.Brand = "Caloi"
	item.ImageURL = "https://cdn.bling.example/bike-aro-29.jpg"

	remote := &stubRemote{pages: [][]erp.RemoteProduct{{item}}}
	svc := newSyncService(t, conn, remote, &stubLocker{}, 10, 10)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var product models.Product
	if err := conn.Preload("Images").First(&product, "sku = ?", "BIKE-001").Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.Price.String() != "1599.9" {
		t.Fatalf("promo price must become the selling price, got %s", product.Price)
	}
	if product.CompareAtPrice == nil || product.CompareAtPrice.String() != "1899.9" {
		t.Fatalf("list price must move to compare-at, got %+v", product.CompareAtPrice)
	}
	if product.Brand == nil || *product.Brand != "Caloi" {
		t.Fatalf("brand not synced: %+v", product.Brand)
	}
	if product.Description == nil || *product.Description != "Quadro de alumínio, 21 marchas" {
		t.Fatalf("description not synced: %+v", product.Description)
	}
	if len(product.Images) != 1 || product.Images[0].URL != "https://cdn.bling.example/bike-aro-29.jpg" {
		t.Fatalf("image not created: %+v", product.Images)
	}
}

func TestRunContinuesPastFailedProduct(t *testing.T) {
	conn := newTestDB(t)
	otherSKU := "OTHER-001"
	// Occupies the slug the first remote product will want.
	blocker := &models.Product{
		Name:  "Bike Aro 29",
		Slug:  "bike-aro-29-1",
		SKU:   &otherSKU,
		Price: decimal.NewFromInt(100),
	}
	if err := conn.Create(blocker).Error; err != nil {
		t.Fatalf("create blocker: %v", err)
	}

	remote := &stubRemote{pages: [][]erp.RemoteProduct{
		{
			remoteProduct(1, "BIKE-001", "Bike Aro 29", 1899.90, 4, "A"),
			remoteProduct(2, "CAP-001", "Capacete MTB", 189.90, 12, "A"),
		},
	}}
	svc := newSyncService(t, conn, remote, &stubLocker{}, 10, 10)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 1 || summary.Created != 1 || summary.Synced != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	var helmet models.Product
	if err := conn.First(&helmet, "sku = ?", "CAP-001").Error; err != nil {
		t.Fatalf("product after the failed one must still be created: %v", err)
	}
}

func TestRunStopsAtMaxPages(t *testing.T) {
	conn := newTestDB(t)
	remote := &stubRemote{pages: [][]erp.RemoteProduct{
		{remoteProduct(1, "BIKE-001", "Bike Aro 29", 1899.90, 4, "A")},
		{remoteProduct(2, "CAP-001", "Capacete MTB", 189.90, 12, "A")},
		{remoteProduct(3, "LUV-001", "Luva MTB", 59.90, 30, "A")},
	}}
	svc := newSyncService(t, conn, remote, &stubLocker{}, 1, 2)

	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Pages != 2 || remote.calls != 2 {
		t.Fatalf("expected sync to stop after 2 pages, got %+v (%d calls)", summary, remote.calls)
	}
}

func TestRunDeniedWhenLockHeld(t *testing.T) {
	conn := newTestDB(t)
	svc := newSyncService(t, conn, &stubRemote{}, &stubLocker{denied: true}, 10, 10)

	_, err := svc.Run(context.Background())
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestRunRemoteFailureReleasesLock(t *testing.T) {
	conn := newTestDB(t)
	locks := &stubLocker{}
	remote := &stubRemote{err: errors.New("bling down")}
	svc := newSyncService(t, conn, remote, locks, 10, 10)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if !locks.released {
		t.Fatal("lock must be released on failure")
	}
}

func TestRunSecondSyncRefreshesCache(t *testing.T) {
	conn := newTestDB(t)
	remote := &stubRemote{pages: [][]erp.RemoteProduct{
		{remoteProduct(1, "BIKE-001", "Bike Aro 29", 1899.90, 4, "A")},
	}}
	svc := newSyncService(t, conn, remote, &stubLocker{}, 10, 10)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	remote.pages = [][]erp.RemoteProduct{
		{remoteProduct(1, "BIKE-001", "Bike Aro 29", 1999.90, 2, "A")},
	}
	summary, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.Created != 0 || summary.Updated != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	var row models.BlingProductCache
	if err := conn.First(&row, "bling_id = ?", 1).Error; err != nil {
		t.Fatalf("load cache row: %v", err)
	}
	if row.Stock == nil || *row.Stock != 2 || row.Price.String() != "1999.9" {
		t.Fatalf("cache not refreshed: %+v", row)
	}
}
