package stockcheck

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/danielbikeshop/backend/internal/erp"
	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

// Item is one cart line to validate.
type Item struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

// ItemResult is the validation verdict for a single line.
type ItemResult struct {
	ProductID uuid.UUID            `json:"product_id"`
	OK        bool                 `json:"ok"`
	Reason    *enums.VerdictReason `json:"reason,omitempty"`
	Available int                  `json:"available"`
	Source    enums.StockSource    `json:"source"`
	Name      string               `json:"name,omitempty"`
}

// Result aggregates the verdicts for a cart. Error is set for conditions
// that reject the whole cart before any line is looked at.
type Result struct {
	Valid   bool         `json:"valid"`
	Error   string       `json:"error,omitempty"`
	Message string       `json:"message,omitempty"`
	Items   []ItemResult `json:"results"`
}

type productStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
}

type remoteCatalog interface {
	GetProductByCode(ctx context.Context, code string) (*erp.RemoteProduct, error)
}

type storeGate interface {
	IsOpen(ctx context.Context) (bool, error)
}

// Service validates cart lines against local stock, falling back to the
// live Bling balance for SKUs the ERP also tracks. The check is advisory:
// it does not reserve anything.
type Service interface {
	Validate(ctx context.Context, items []Item) (*Result, error)
}

type service struct {
	products productStore
	remote   remoteCatalog
	gate     storeGate
	logger   *logger.Logger
}

// NewService builds the stock validator.
func NewService(products productStore, remote remoteCatalog, gate storeGate, logg *logger.Logger) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if gate == nil {
		return nil, fmt.Errorf("store gate required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		products: products,
		remote:   remote,
		gate:     gate,
		logger:   logg,
	}, nil
}

func (s *service) Validate(ctx context.Context, items []Item) (*Result, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil || item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "items require product_id and positive qty")
		}
	}

	open, err := s.gate.IsOpen(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store settings")
	}
	if !open {
		return &Result{
			Valid:   false,
			Error:   "store_closed",
			Message: "A loja está temporariamente fechada",
		}, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	result := &Result{Valid: true}
	for _, item := range items {
		verdict := s.validateItem(ctx, item, byID[item.ProductID])
		if !verdict.OK {
			result.Valid = false
		}
		result.Items = append(result.Items, verdict)
	}
	return result, nil
}

func (s *service) validateItem(ctx context.Context, item Item, product *models.Product) ItemResult {
	if product == nil {
		reason := enums.VerdictReasonProductNotFound
		return ItemResult{
			ProductID: item.ProductID,
			Reason:    &reason,
			Source:    enums.StockSourceLocal,
		}
	}
	if !product.IsActive {
		reason := enums.VerdictReasonProductInactive
		return ItemResult{
			ProductID: item.ProductID,
			Reason:    &reason,
			Source:    enums.StockSourceLocal,
			Name:      product.Name,
		}
	}

	// The live ERP balance is authoritative for products it tracks; the
	// local balance only decides when Bling is disconnected or unreachable.
	if s.remote != nil && product.SKU != nil && *product.SKU != "" {
		if verdict, ok := s.checkRemote(ctx, item, product); ok {
			return verdict
		}
	}

	return verdictFor(item, product, product.Stock, enums.StockSourceLocal)
}

func (s *service) checkRemote(ctx context.Context, item Item, product *models.Product) (ItemResult, bool) {
	remote, err := s.remote.GetProductByCode(ctx, *product.SKU)
	if err != nil {
		if !pkgerrors.HasCode(err, pkgerrors.CodeNotConnected) {
			ctx = s.logger.WithSKU(ctx, *product.SKU)
			s.logger.Warn(ctx, "bling stock lookup failed, using local balance")
		}
		return ItemResult{}, false
	}
	if remote == nil || remote.Stock == nil {
		return ItemResult{}, false
	}

	available := int(remote.Stock.VirtualBalance)
	if available < 0 {
		available = 0
	}

	// Mirror the live balance locally so the storefront stays close to
	// the ERP between catalog syncs.
	if err := s.products.UpdateStock(ctx, product.ID, available); err != nil {
		ctx = s.logger.WithSKU(ctx, *product.SKU)
		s.logger.Warn(ctx, "stock write-back failed")
	}

	return verdictFor(item, product, available, enums.StockSourceBling), true
}

func verdictFor(item Item, product *models.Product, available int, source enums.StockSource) ItemResult {
	if available >= item.Qty {
		return ItemResult{
			ProductID: item.ProductID,
			OK:        true,
			Available: available,
			Source:    source,
			Name:      product.Name,
		}
	}
	reason := enums.VerdictReasonInsufficientStock
	return ItemResult{
		ProductID: item.ProductID,
		Reason:    &reason,
		Available: available,
		Source:    source,
		Name:      product.Name,
	}
}
