package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielbikeshop/backend/api/controllers"
	"github.com/danielbikeshop/backend/api/middleware"
	"github.com/danielbikeshop/backend/internal/catalog"
	"github.com/danielbikeshop/backend/internal/coupons"
	"github.com/danielbikeshop/backend/internal/erptoken"
	"github.com/danielbikeshop/backend/internal/orders"
	"github.com/danielbikeshop/backend/internal/products"
	"github.com/danielbikeshop/backend/internal/settings"
	"github.com/danielbikeshop/backend/internal/stock"
	"github.com/danielbikeshop/backend/internal/stockcheck"
	"github.com/danielbikeshop/backend/pkg/config"
	"github.com/danielbikeshop/backend/pkg/db"
	"github.com/danielbikeshop/backend/pkg/logger"
	"github.com/danielbikeshop/backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Products   products.Service
	StockCheck stockcheck.Service
	Orders     orders.Service
	Coupons    coupons.Service
	Settings   settings.Service
	Stock      stock.Service
	Catalog    catalog.Service
	ErpTokens  erptoken.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsReg *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsReg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
	}

	// The OAuth redirect lands here from the operator's browser, outside
	// both API surfaces.
	r.Get("/bling/oauth/callback", controllers.BlingCallback(svcs.ErpTokens, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(svcs.Products, logg))
			r.Get("/{slug}", controllers.ProductDetail(svcs.Products, logg))
		})
		r.Get("/categories", controllers.CategoryList(svcs.Products, logg))

		r.Post("/stock/validate", controllers.StockValidate(svcs.StockCheck, logg))
		r.Post("/coupons/validate", controllers.CouponValidate(svcs.Coupons, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderDetail(svcs.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.AdminKey(cfg.Admin.APIToken, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderDetail(svcs.Orders, logg))
			r.Patch("/{orderID}/status", controllers.AdminOrderStatusUpdate(svcs.Orders, logg))
			r.Post("/{orderID}/erp-sync", controllers.OrderErpSync(svcs.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(svcs.Products, logg))
			r.Patch("/{productID}", controllers.AdminProductUpdate(svcs.Products, logg))
		})

		r.Route("/stock/movements", func(r chi.Router) {
			r.Get("/", controllers.AdminStockMovementList(svcs.Stock, logg))
			r.Post("/", controllers.AdminStockMovementCreate(svcs.Stock, logg))
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.AdminCouponList(svcs.Coupons, logg))
			r.Post("/", controllers.AdminCouponCreate(svcs.Coupons, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminSettingsGet(svcs.Settings, logg))
			r.Put("/", controllers.AdminSettingsUpdate(svcs.Settings, logg))
		})

		r.Route("/bling", func(r chi.Router) {
			r.Get("/connection", controllers.BlingStatus(svcs.ErpTokens, logg))
			r.Post("/sync", controllers.CatalogSyncTrigger(svcs.Catalog, logg))
		})
	})

	return r
}
