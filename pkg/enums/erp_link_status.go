package enums

// ErpLinkStatus records how far ERP reconciliation got for an order.
type ErpLinkStatus string

const (
	// ErpLinkStatusOrderCreated means the remote sales order exists but no
	// invoice was issued.
	ErpLinkStatusOrderCreated ErpLinkStatus = "order_created"
	// ErpLinkStatusNfeIssued means the invoice was generated, transmitted,
	// and a document number was read back.
	ErpLinkStatusNfeIssued ErpLinkStatus = "nfe_issued"
)

// String implements fmt.Stringer.
func (s ErpLinkStatus) String() string {
	return string(s)
}
