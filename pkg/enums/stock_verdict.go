package enums

// VerdictReason explains why a cart line failed stock validation.
type VerdictReason string

const (
	VerdictReasonStoreClosed       VerdictReason = "store_closed"
	VerdictReasonProductNotFound   VerdictReason = "product_not_found"
	VerdictReasonProductInactive   VerdictReason = "product_inactive"
	VerdictReasonInsufficientStock VerdictReason = "insufficient_stock"
)

// StockSource identifies which system answered a stock question.
type StockSource string

const (
	StockSourceLocal StockSource = "local"
	StockSourceBling StockSource = "bling"
)
