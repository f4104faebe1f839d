package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/internal/catalog"
	"github.com/danielbikeshop/backend/internal/coupons"
	"github.com/danielbikeshop/backend/internal/erptoken"
	"github.com/danielbikeshop/backend/internal/orders"
	"github.com/danielbikeshop/backend/internal/products"
	"github.com/danielbikeshop/backend/internal/settings"
	"github.com/danielbikeshop/backend/internal/stock"
	"github.com/danielbikeshop/backend/internal/stockcheck"
	"github.com/danielbikeshop/backend/pkg/config"
	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubProducts struct{}

func (stubProducts) List(context.Context, products.ListFilter) ([]models.Product, string, error) {
	return []models.Product{{ID: uuid.New(), Name: "Bike", Slug: "bike"}}, "", nil
}

func (stubProducts) GetBySlug(context.Context, string) (*models.Product, error) {
	return &models.Product{Name: "Bike", Slug: "bike"}, nil
}

func (stubProducts) Categories(context.Context) ([]models.Category, error) {
	return nil, nil
}

func (stubProducts) Create(context.Context, products.CreateInput) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubProducts) Update(context.Context, uuid.UUID, products.UpdateInput) (*models.Product, error) {
	return &models.Product{}, nil
}

type stubStockCheck struct{}

func (stubStockCheck) Validate(context.Context, []stockcheck.Item) (*stockcheck.Result, error) {
	return &stockcheck.Result{Valid: true}, nil
}

type stubOrders struct{}

func (stubOrders) Create(context.Context, orders.CreateInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrders) Get(context.Context, uuid.UUID) (*models.Order, error) {
	num := "12345"
	nfeNum := "000123"
	return &models.Order{
		ID:     uuid.New(),
		Status: enums.OrderStatusConfirmed,
		ErpLink: &models.ErpOrderLink{
			BlingOrderID:  9001,
			BlingOrderNum: &num,
			NfeNumber:     &nfeNum,
			Status:        enums.ErpLinkStatusNfeIssued,
		},
	}, nil
}

func (stubOrders) List(context.Context, orders.ListFilter) ([]models.Order, string, error) {
	return nil, "", nil
}

func (stubOrders) UpdateStatus(context.Context, uuid.UUID, string) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrders) SyncToERP(context.Context, uuid.UUID) error {
	return nil
}

type stubCoupons struct{}

func (stubCoupons) Validate(context.Context, string, decimal.Decimal) (*models.DiscountCoupon, decimal.Decimal, error) {
	return &models.DiscountCoupon{Code: "BIKE10"}, decimal.NewFromInt(10), nil
}

func (stubCoupons) Redeem(context.Context, *models.DiscountCoupon) error {
	return nil
}

func (stubCoupons) RedeemWithTx(context.Context, *gorm.DB, *models.DiscountCoupon) error {
	return nil
}

func (stubCoupons) List(context.Context) ([]models.DiscountCoupon, error) {
	return nil, nil
}

func (stubCoupons) Create(context.Context, coupons.CreateInput) (*models.DiscountCoupon, error) {
	return &models.DiscountCoupon{}, nil
}

type stubSettings struct{}

func (stubSettings) Get(context.Context) (*models.StoreSettings, error) {
	return &models.StoreSettings{StoreOpen: true}, nil
}

func (stubSettings) Update(context.Context, settings.UpdateInput) (*models.StoreSettings, error) {
	return &models.StoreSettings{}, nil
}

func (stubSettings) IsOpen(context.Context) (bool, error) {
	return true, nil
}

func (stubSettings) QuoteShipping(context.Context, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type stubStock struct{}

func (stubStock) Apply(context.Context, stock.ApplyInput) (*models.StockMovement, error) {
	return &models.StockMovement{}, nil
}

func (stubStock) ListByProduct(context.Context, uuid.UUID, int) ([]models.StockMovement, error) {
	return nil, nil
}

type stubCatalog struct{}

func (stubCatalog) Run(context.Context) (*catalog.Summary, error) {
	return &catalog.Summary{}, nil
}

type stubTokens struct{}

func (stubTokens) AccessToken(context.Context) (string, error) {
	return "token", nil
}

func (stubTokens) ExchangeCode(context.Context, string) error {
	return nil
}

func (stubTokens) Status(context.Context) (erptoken.ConnectionStatus, error) {
	return erptoken.ConnectionStatus{Connected: true}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = config.AppEnvDev
	cfg.Admin.APIToken = "admin-secret"

	return NewRouter(
		cfg,
		logger.New(logger.Options{ServiceName: "test"}),
		stubPinger{},
		nil,
		nil,
		Services{
			Products:   stubProducts{},
			StockCheck: stubStockCheck{},
			Orders:     stubOrders{},
			Coupons:    stubCoupons{},
			Settings:   stubSettings{},
			Stock:      stubStock{},
			Catalog:    stubCatalog{},
			ErpTokens:  stubTokens{},
		},
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
}

func TestPublicProductList(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var body struct {
		Data struct {
			Products []products.ProductResponse `json:"products"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data.Products) != 1 {
		t.Fatalf("expected one product, got %d", len(body.Data.Products))
	}
	if body.Data.Products[0].Slug != "bike" {
		t.Fatalf("unexpected product %+v", body.Data.Products[0])
	}
}

func TestOrderDetailCarriesBlingFields(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"blingOrderId", "blingOrderNumber", "nfeIssued", "nfeNumber"} {
		if _, ok := body.Data[key]; !ok {
			t.Errorf("response missing %s: %v", key, body.Data)
		}
	}
	var issued bool
	if err := json.Unmarshal(body.Data["nfeIssued"], &issued); err != nil || !issued {
		t.Fatalf("nfeIssued = %s, want true", body.Data["nfeIssued"])
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.Code)
	}

	authed := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	authed.Header.Set("X-Admin-Token", "admin-secret")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, authed)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
}

func TestBlingCallbackMissingCode(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/bling/oauth/callback", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}
