package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/internal/erp"
	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productStore interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type couponRedeemer interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*models.DiscountCoupon, decimal.Decimal, error)
	RedeemWithTx(ctx context.Context, tx *gorm.DB, coupon *models.DiscountCoupon) error
}

type shippingQuoter interface {
	IsOpen(ctx context.Context) (bool, error)
	QuoteShipping(ctx context.Context, subtotal decimal.Decimal) (decimal.Decimal, error)
}

type erpGateway interface {
	FindOrCreateContact(ctx context.Context, params erp.ContactParams) (int64, error)
	CreateSalesOrder(ctx context.Context, params erp.SalesOrderParams) (*erp.SalesOrder, error)
	IssueInvoice(ctx context.Context, blingOrderID int64) (*erp.Invoice, error)
}

// Service creates storefront orders and reconciles them into Bling.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error)
	// SyncToERP pushes the order into Bling. Safe to call again for orders
	// whose push previously stopped short of the invoice.
	SyncToERP(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	repo     *Repository
	tx       txRunner
	products productStore
	coupons  couponRedeemer
	shipping shippingQuoter
	gateway  erpGateway
	logger   *logger.Logger
}

// NewService builds the order service.
func NewService(
	repo *Repository,
	tx txRunner,
	products productStore,
	coupons couponRedeemer,
	shipping shippingQuoter,
	gateway erpGateway,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product store required")
	}
	if shipping == nil {
		return nil, fmt.Errorf("shipping quoter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		coupons:  coupons,
		shipping: shipping,
		gateway:  gateway,
		logger:   logg,
	}, nil
}

// Create persists the order locally, then pushes it into Bling. The ERP push
// is best effort: a failure never rolls the order back, it only leaves the
// link behind for a later retry.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	open, err := s.shipping.IsOpen(ctx)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "store is closed for orders")
	}

	lines, subtotal, err := s.buildLines(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	var (
		coupon   *models.DiscountCoupon
		discount = decimal.Zero
	)
	if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
		if s.coupons == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupons are not enabled")
		}
		coupon, discount, err = s.coupons.Validate(ctx, *input.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
	}

	shippingCost, err := s.shipping.QuoteShipping(ctx, subtotal)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:             uuid.New(),
		CustomerName:   strings.TrimSpace(input.Customer.Name),
		CustomerEmail:  strings.TrimSpace(input.Customer.Email),
		CustomerPhone:  input.Customer.Phone,
		CustomerDoc:    input.Customer.Doc,
		ShippingStreet: input.Shipping.Street,
		ShippingNumber: input.Shipping.Number,
		ShippingCity:   input.Shipping.City,
		ShippingState:  input.Shipping.State,
		ShippingZip:    input.Shipping.Zip,
		Subtotal:       subtotal,
		ShippingCost:   shippingCost,
		Discount:       discount,
		Total:          subtotal.Sub(discount).Add(shippingCost),
		Status:         enums.OrderStatusPending,
		Notes:          input.Notes,
		Items:          lines,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		for _, line := range order.Items {
			if line.ProductID == nil {
				continue
			}
			if err := repo.DecrementStock(ctx, *line.ProductID, line.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
		}
		if coupon != nil {
			if err := s.coupons.RedeemWithTx(ctx, tx, coupon); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithOrderID(ctx, order.ID.String())
	if err := s.SyncToERP(ctx, order.ID); err != nil {
		// The local order stands regardless of what Bling said.
		s.logger.Warn(ctx, "erp push failed, order kept local")
	}

	return s.Get(ctx, order.ID)
}

func validateCreateInput(input CreateInput) error {
	if strings.TrimSpace(input.Customer.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	email := strings.TrimSpace(input.Customer.Email)
	if email == "" || !strings.Contains(email, "@") {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid customer email required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "items require product_id and positive qty")
		}
	}
	return nil
}

// buildLines snapshots the purchased products at their current price.
func (s *service) buildLines(ctx context.Context, items []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	found, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}
	byID := make(map[uuid.UUID]*models.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	lines := make([]models.OrderItem, 0, len(items))
	subtotal := decimal.Zero
	for _, item := range items {
		product := byID[item.ProductID]
		if product == nil {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		if !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		productID := product.ID
		total := product.Price.Mul(decimal.NewFromInt(int64(item.Qty)))
		lines = append(lines, models.OrderItem{
			ProductID: &productID,
			SKU:       product.SKU,
			Name:      product.Name,
			UnitPrice: product.Price,
			Qty:       item.Qty,
			Total:     total,
		})
		subtotal = subtotal.Add(total)
	}
	return lines, subtotal, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.Order, string, error) {
	if filter.Status != "" {
		if _, err := enums.ParseOrderStatus(filter.Status); err != nil {
			return nil, "", pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
	}
	list, next, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, next, nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	parsed, err := enums.ParseOrderStatus(status)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if err := s.repo.UpdateStatus(ctx, id, parsed.String()); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	return s.Get(ctx, id)
}

// SyncToERP runs the reconciliation pipeline: ensure the Bling contact,
// create the sales order, then issue and transmit the NF-e. Each stage the
// order already cleared is skipped, so re-running after a partial failure
// only does the remaining work.
func (s *service) SyncToERP(ctx context.Context, orderID uuid.UUID) error {
	if s.gateway == nil {
		return pkgerrors.New(pkgerrors.CodeNotConnected, "erp integration not configured")
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	ctx = s.logger.WithOrderID(ctx, order.ID.String())

	link, err := s.repo.FindErpLink(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load erp link")
	}
	if link != nil && link.Status == enums.ErpLinkStatusNfeIssued {
		return nil
	}

	if link == nil {
		link, err = s.pushOrder(ctx, order)
		if err != nil {
			return err
		}
	}

	invoice, err := s.gateway.IssueInvoice(ctx, link.BlingOrderID)
	if err != nil {
		// The sales order exists; the invoice can be retried later.
		s.logger.Warn(ctx, "nfe issuance failed")
		return err
	}

	updates := map[string]any{
		"nfe_id": invoice.ID,
		"status": enums.ErpLinkStatusNfeIssued,
	}
	if invoice.Number != "" {
		updates["nfe_number"] = invoice.Number
	}
	if invoice.AccessKey != "" {
		updates["nfe_access_key"] = invoice.AccessKey
	}
	if err := s.repo.UpdateErpLink(ctx, link.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update erp link")
	}

	s.logger.Info(ctx, "order reconciled with erp")
	return nil
}

func (s *service) pushOrder(ctx context.Context, order *models.Order) (*models.ErpOrderLink, error) {
	contactID, err := s.gateway.FindOrCreateContact(ctx, contactParams(order))
	if err != nil {
		return nil, err
	}

	remote, err := s.gateway.CreateSalesOrder(ctx, salesOrderParams(order, contactID))
	if err != nil {
		return nil, err
	}

	link := &models.ErpOrderLink{
		OrderID:      order.ID,
		BlingOrderID: remote.ID,
		ContactID:    contactID,
		Status:       enums.ErpLinkStatusOrderCreated,
	}
	if remote.Number != "" {
		number := remote.Number
		link.BlingOrderNum = &number
	}
	if err := s.repo.CreateErpLink(ctx, link); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist erp link")
	}

	// The sales order exists in Bling, so the order is confirmed even if
	// invoicing below still fails.
	if err := s.repo.UpdateStatus(ctx, order.ID, enums.OrderStatusConfirmed.String()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
	}
	return link, nil
}

func contactParams(order *models.Order) erp.ContactParams {
	params := erp.ContactParams{
		Name:  order.CustomerName,
		Email: order.CustomerEmail,
	}
	if order.CustomerPhone != nil {
		params.Phone = *order.CustomerPhone
	}
	if order.ShippingStreet != nil {
		params.Address = *order.ShippingStreet
	}
	if order.ShippingCity != nil {
		params.City = *order.ShippingCity
	}
	if order.ShippingState != nil {
		params.State = *order.ShippingState
	}
	if order.ShippingZip != nil {
		params.Zip = *order.ShippingZip
	}
	return params
}

func salesOrderParams(order *models.Order, contactID int64) erp.SalesOrderParams {
	items := make([]erp.SalesOrderItem, 0, len(order.Items))
	for _, line := range order.Items {
		item := erp.SalesOrderItem{
			Name:     line.Name,
			Quantity: line.Qty,
			Price:    line.UnitPrice,
		}
		if line.SKU != nil {
			item.SKU = *line.SKU
		}
		items = append(items, item)
	}
	params := erp.SalesOrderParams{
		ContactID: contactID,
		Items:     items,
		Shipping:  order.ShippingCost,
	}
	if order.Notes != nil {
		params.Notes = *order.Notes
	}
	return params
}
