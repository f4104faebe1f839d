package erp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonDigitRe = regexp.MustCompile(`\D`)

// ContactParams is the customer identity pushed into Bling.
type ContactParams struct {
	Name    string
	Email   string
	Phone   string
	Address string
	City    string
	State   string
	Zip     string
}

// SalesOrderItem is one line of the remote sales order.
type SalesOrderItem struct {
	SKU      string
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// SalesOrderParams describes the sales order pushed into Bling.
type SalesOrderParams struct {
	ContactID int64
	Items     []SalesOrderItem
	Shipping  decimal.Decimal
	Notes     string
}

// SalesOrder is the remote order identity returned by Bling.
type SalesOrder struct {
	ID     int64
	Number string
}

// Invoice is the issued NF-e identity.
type Invoice struct {
	ID        int64
	Number    string
	AccessKey string
}

// RemoteProduct is a Bling catalog entry.
type RemoteProduct struct {
	ID               int64            `json:"id"`
	Code             string           `json:"codigo"`
	Name             string           `json:"nome"`
	Price            decimal.Decimal  `json:"preco"`
	PromotionalPrice *decimal.Decimal `json:"precoPromocional,omitempty"`
	ShortDescription string           `json:"descricaoCurta"`
	Notes            string           `json:"observacoes"`
	Brand            string           `json:"marca"`
	ImageURL         string           `json:"imagemURL"`
	Situation        string           `json:"situacao"`
	Stock            *RemoteStock     `json:"estoque,omitempty"`
}

// Description picks the short description, falling back to the notes field
// the way Bling's own storefront export does.
func (p RemoteProduct) Description() string {
	if desc := strings.TrimSpace(p.ShortDescription); desc != "" {
		return desc
	}
	return strings.TrimSpace(p.Notes)
}

// RemoteStock carries Bling's virtual stock balance.
type RemoteStock struct {
	VirtualBalance float64 `json:"saldoVirtualTotal"`
}

// wire types

type listEnvelope[T any] struct {
	Data []T `json:"data"`
}

type itemEnvelope[T any] struct {
	Data T `json:"data"`
}

type contactData struct {
	ID int64 `json:"id"`
}

type contactAddress struct {
	Street       string `json:"endereco"`
	Number       string `json:"numero"`
	Neighborhood string `json:"bairro"`
	City         string `json:"municipio"`
	State        string `json:"uf"`
	Zip          string `json:"cep"`
}

type contactCreateRequest struct {
	Name       string         `json:"nome"`
	TradeName  string         `json:"fantasia"`
	Kind       string         `json:"tipo"`
	TaxProfile int            `json:"contribuinte"`
	Email      string         `json:"email"`
	Phone      string         `json:"telefone"`
	CellPhone  string         `json:"celular"`
	Address    contactAddress `json:"endereco"`
}

type salesOrderItemWire struct {
	Code        string          `json:"codigo"`
	Description string          `json:"descricao"`
	Unit        string          `json:"unidade"`
	Quantity    int             `json:"quantidade"`
	Price       decimal.Decimal `json:"valor"`
}

type salesOrderRequest struct {
	Contact struct {
		ID int64 `json:"id"`
	} `json:"contato"`
	Items     []salesOrderItemWire `json:"itens"`
	Transport struct {
		Freight decimal.Decimal `json:"frete"`
	} `json:"transporte"`
	Notes         string `json:"observacoes"`
	InternalNotes string `json:"observacoesInternas"`
}

// flexibleNumber decodes Bling's numero field, which arrives as a JSON
// string on some endpoints and as a bare number on others.
type flexibleNumber string

func (n *flexibleNumber) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*n = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = flexibleNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = flexibleNumber(num.String())
	return nil
}

func (n flexibleNumber) String() string { return string(n) }

type salesOrderData struct {
	ID     int64          `json:"id"`
	Number flexibleNumber `json:"numero"`
}

type invoiceGenerateRequest struct {
	SalesOrderIDs []int64 `json:"idsPedidosVendas"`
	Purpose       int     `json:"finalidade"`
	Kind          int     `json:"tipo"`
}

type invoiceData struct {
	ID        int64          `json:"id"`
	Number    flexibleNumber `json:"numero"`
	AccessKey string         `json:"chaveAcesso"`
}

// digitsOnly strips everything but 0-9, matching what Bling expects for
// phone and CEP fields.
func digitsOnly(value string) string {
	return nonDigitRe.ReplaceAllString(value, "")
}

func (p ContactParams) toRequest() contactCreateRequest {
	return contactCreateRequest{
		Name:       p.Name,
		TradeName:  p.Name,
		Kind:       "F",
		TaxProfile: 9,
		Email:      p.Email,
		Phone:      digitsOnly(p.Phone),
		CellPhone:  digitsOnly(p.Phone),
		Address: contactAddress{
			Street: p.Address,
			Number: "S/N",
			City:   p.City,
			State:  strings.ToUpper(p.State),
			Zip:    digitsOnly(p.Zip),
		},
	}
}

func (p SalesOrderParams) toRequest() salesOrderRequest {
	var req salesOrderRequest
	req.Contact.ID = p.ContactID
	req.Items = make([]salesOrderItemWire, 0, len(p.Items))
	for i, item := range p.Items {
		code := item.SKU
		if code == "" {
			code = fmt.Sprintf("PROD-%d", i)
		}
		req.Items = append(req.Items, salesOrderItemWire{
			Code:        code,
			Description: item.Name,
			Unit:        "UN",
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	req.Transport.Freight = p.Shipping
	notes := strings.TrimSpace(p.Notes)
	if notes == "" {
		notes = "Pedido realizado pelo site"
	}
	req.Notes = notes
	req.InternalNotes = "Pedido automático - Daniel Bike Shop Site"
	return req
}
