package stock

import (
	"time"

	"github.com/google/uuid"

	"github.com/danielbikeshop/backend/pkg/db/models"
	"github.com/danielbikeshop/backend/pkg/enums"
)

// MovementResponse is the API shape of one ledger entry.
type MovementResponse struct {
	ID          uuid.UUID          `json:"id"`
	ProductID   uuid.UUID          `json:"product_id"`
	Type        enums.MovementType `json:"type"`
	Quantity    int                `json:"quantity"`
	StockBefore int                `json:"stock_before"`
	StockAfter  int                `json:"stock_after"`
	Reason      *string            `json:"reason,omitempty"`
	PerformedBy *string            `json:"performed_by,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// NewMovementResponse maps a stored movement onto its API shape.
func NewMovementResponse(m *models.StockMovement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		ProductID:   m.ProductID,
		Type:        m.Type,
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Reason:      m.Reason,
		PerformedBy: m.PerformedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// NewMovementResponses maps a movement list onto its API shape.
func NewMovementResponses(list []models.StockMovement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for i := range list {
		out = append(out, NewMovementResponse(&list[i]))
	}
	return out
}
