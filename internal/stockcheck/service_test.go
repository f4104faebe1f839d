package stockcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/danielbikeshop/backend/internal/erp"
	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type stubProducts struct {
	products map[uuid.UUID]models.Product
	writes   map[uuid.UUID]int
}

func (s *stubProducts) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProducts) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	if s.writes == nil {
		s.writes = map[uuid.UUID]int{}
	}
	s.writes[id] = stock
	return nil
}

type stubRemote struct {
	byCode map[string]*erp.RemoteProduct
	err    error
	calls  int
}

func (s *stubRemote) GetProductByCode(ctx context.Context, code string) (*erp.RemoteProduct, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.byCode[code], nil
}

type stubGate struct {
	open bool
}

func (s stubGate) IsOpen(ctx context.Context) (bool, error) {
	return s.open, nil
}

func newValidator(t *testing.T, products *stubProducts, remote *stubRemote, open bool) Service {
	t.Helper()
	svc, err := NewService(products, remote, stubGate{open: open}, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func productWithStock(sku string, stock int, active bool) models.Product {
	p := models.Product{
		ID:       uuid.New(),
		Name:     "Bike",
		Stock:    stock,
		IsActive: active,
	}
	if sku != "" {
		p.SKU = &sku
	}
	return p
}

func TestValidateStoreClosed(t *testing.T) {
	product := productWithStock("BIKE-001", 10, true)
	products := &stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}}
	svc := newValidator(t, products, nil, false)

	result, err := svc.Validate(context.Background(), []Item{{ProductID: product.ID, Qty: 1}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result when store closed")
	}
	if result.Error != "store_closed" {
		t.Fatalf("expected store_closed error, got %+v", result)
	}
	if len(result.Items) != 0 {
		t.Fatalf("closed store must not produce per-line verdicts, got %+v", result.Items)
	}
}

func TestValidateBlingOverridesLocalBalance(t *testing.T) {
	// Local stock looks sufficient but the ERP knows better.
	product := productWithStock("BIKE-001", 10, true)
	products := &stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}}
	remote := &stubRemote{byCode: map[string]*erp.RemoteProduct{
		"BIKE-001": {ID: 1, Code: "BIKE-001", Stock: &erp.RemoteStock{VirtualBalance: 2}},
	}}
	svc := newValidator(t, products, remote, true)

	result, err := svc.Validate(context.Background(), []Item{{ProductID: product.ID, Qty: 5}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatalf("live balance of 2 must reject qty 5, got %+v", result)
	}
	item := result.Items[0]
	if item.Source != enums.StockSourceBling || item.Available != 2 {
		t.Fatalf("unexpected item %+v", item)
	}
	if remote.calls != 1 {
		t.Fatalf("expected one remote lookup, got %d", remote.calls)
	}
	if got := products.writes[product.ID]; got != 2 {
		t.Fatalf("expected write-back of 2, got %d", got)
	}
}

func TestValidateSkipsRemoteForUntrackedProduct(t *testing.T) {
	product := productWithStock("", 10, true)
	products := &stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}}
	remote := &stubRemote{}
	svc := newValidator(t, products, remote, true)

	result, err := svc.Validate(context.Background(), []Item{{ProductID: product.ID, Qty: 3}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid || result.Items[0].Source != enums.StockSourceLocal {
		t.Fatalf("expected local verdict for product without SKU, got %+v", result)
	}
	if remote.calls != 0 {
		t.Fatal("remote lookup must be skipped for products without a SKU")
	}
}

func TestValidateNotConnectedUsesLocalOnly(t *testing.T) {
	product := productWithStock("BIKE-001", 10, true)
	products := &stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}}
	remote := &stubRemote{err: pkgerrors.New(pkgerrors.CodeNotConnected, "bling credentials not stored")}
	svc := newValidator(t, products, remote, true)

	result, err := svc.Validate(context.Background(), []Item{{ProductID: product.ID, Qty: 3}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected local-only approval, got %+v", result)
	}
	item := result.Items[0]
	if item.Source != enums.StockSourceLocal || item.Available != 10 {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestValidateUsesBlingBalanceAndWritesBack(t *testing.T) {
	product := productWithStock("BIKE-001", 1, true)
	products := &stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}}
	remote := &stubRemote{byCode: map[string]*erp.RemoteProduct{
		"BIKE-001": {ID: 1, Code: "BIKE-001", Stock: &erp.RemoteStock{VirtualBalance: 7}},
	}}
	svc := newValidator(t, products, remote, true)

	result, err := svc.Validate(context.Background(), []Item{{ProductID: product.ID, Qty: 5}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid result via bling, got %+v", result)
	}
	item := result.Items[0]
	if item.Source != enums.StockSourceBling || item.Available != 7 {
		t.Fatalf("unexpected item %+v", item)
	}
	if got := products.writes[product.ID]; got != 7 {
		t.Fatalf("expected write-back of 7, got %d", got)
	}
}

func TestValidateBlingInsufficient(t *testing.T) {
	product := productWithStock("BIKE-001", 1, true)
	products := &stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}}
	remote := &stubRemote{byCode: map[string]*erp.RemoteProduct{
		"BIKE-001": {ID: 1, Code: "BIKE-001", Stock: &erp.RemoteStock{VirtualBalance: 2}},
	}}
	svc := newValidator(t, products, remote, true)

	result, err := svc.Validate(context.Background(), []Item{{ProductID: product.ID, Qty: 5}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	item := result.Items[0]
	if *item.Reason != enums.VerdictReasonInsufficientStock || item.Source != enums.StockSourceBling {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestValidateRemoteFailureUsesLocalVerdict(t *testing.T) {
	product := productWithStock("BIKE-001", 1, true)
	products := &stubProducts{products: map[uuid.UUID]models.Product{product.ID: product}}
	remote := &stubRemote{err: errors.New("bling down")}
	svc := newValidator(t, products, remote, true)

	result, err := svc.Validate(context.Background(), []Item{{ProductID: product.ID, Qty: 5}})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	item := result.Items[0]
	if item.Source != enums.StockSourceLocal || item.Available != 1 {
		t.Fatalf("expected local verdict on remote failure, got %+v", item)
	}
}

func TestValidateUnknownAndInactiveProducts(t *testing.T) {
	inactive := productWithStock("", 10, false)
	products := &stubProducts{products: map[uuid.UUID]models.Product{inactive.ID: inactive}}
	svc := newValidator(t, products, nil, true)

	missingID := uuid.New()
	result, err := svc.Validate(context.Background(), []Item{
		{ProductID: missingID, Qty: 1},
		{ProductID: inactive.ID, Qty: 1},
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if *result.Items[0].Reason != enums.VerdictReasonProductNotFound {
		t.Fatalf("unexpected reason %s", *result.Items[0].Reason)
	}
	if *result.Items[1].Reason != enums.VerdictReasonProductInactive {
		t.Fatalf("unexpected reason %s", *result.Items[1].Reason)
	}
}

func TestValidateInputValidation(t *testing.T) {
	svc := newValidator(t, &stubProducts{}, nil, true)

	_, err := svc.Validate(context.Background(), nil)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty items, got %v", err)
	}

	_, err = svc.Validate(context.Background(), []Item{{ProductID: uuid.New(), Qty: 0}})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero qty, got %v", err)
	}
}
