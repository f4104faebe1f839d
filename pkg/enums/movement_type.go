package enums

import "fmt"

// MovementType classifies a stock ledger entry. The values mirror the
// Portuguese labels used across the admin surface.
type MovementType string

const (
	// MovementTypeEntrada adds quantity to the current stock.
	MovementTypeEntrada MovementType = "entrada"
	// MovementTypeSaida removes quantity, flooring at zero.
	MovementTypeSaida MovementType = "saida"
	// MovementTypeAjuste sets the stock to the movement quantity.
	MovementTypeAjuste MovementType = "ajuste"
)

var validMovementTypes = []MovementType{
	MovementTypeEntrada,
	MovementTypeSaida,
	MovementTypeAjuste,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
