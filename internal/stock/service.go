package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
)

const defaultMovementPageSize = 50

// ApplyInput describes one manual stock adjustment.
type ApplyInput struct {
	ProductID   uuid.UUID `json:"product_id" validate:"required"`
	Type        string    `json:"type" validate:"required"`
	Quantity    int       `json:"quantity" validate:"gte=0"`
	Reason      *string   `json:"reason,omitempty"`
	PerformedBy *string   `json:"performed_by,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service applies manual stock movements and serves the ledger.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*models.StockMovement, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error)
}

type service struct {
	repo *Repository
	tx   txRunner
}

// NewService builds the stock movement service.
func NewService(repo *Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Apply records a movement and moves the product balance in one transaction.
// entrada adds quantity, saida subtracts flooring at zero, ajuste sets the
// balance to the quantity.
func (s *service) Apply(ctx context.Context, input ApplyInput) (*models.StockMovement, error) {
	movementType, err := enums.ParseMovementType(input.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if movementType != enums.MovementTypeAjuste && input.Quantity == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var movement *models.StockMovement
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProduct(ctx, input.ProductID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		before := product.Stock
		after := applyMovement(movementType, before, input.Quantity)

		if err := repo.SetProductStock(ctx, product.ID, after); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product stock")
		}

		movement = &models.StockMovement{
			ProductID:   product.ID,
			Type:        movementType,
			Quantity:    input.Quantity,
			StockBefore: before,
			StockAfter:  after,
			Reason:      input.Reason,
			PerformedBy: input.PerformedBy,
		}
		if err := repo.Create(ctx, movement); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func applyMovement(movementType enums.MovementType, before, quantity int) int {
	switch movementType {
	case enums.MovementTypeEntrada:
		return before + quantity
	case enums.MovementTypeSaida:
		if quantity > before {
			return 0
		}
		return before - quantity
	default:
		return quantity
	}
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockMovement, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id required")
	}
	if limit <= 0 || limit > 200 {
		limit = defaultMovementPageSize
	}
	movements, err := s.repo.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	return movements, nil
}
