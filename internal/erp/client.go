package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/danielbikeshop/backend/pkg/config"
	pkgerrors "github.com/danielbikeshop/backend/pkg/errors"
	"github.com/danielbikeshop/backend/pkg/logger"
	"github.com/danielbikeshop/backend/pkg/metrics"
)

var (
	errLoggerRequired = errors.New("erp logger is required")
	errTokensRequired = errors.New("erp token provider is required")
)

type tokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client exposes Bling primitives with centralized auth, logging, and error
// mapping.
type Client struct {
	http           httpDoer
	baseURL        string
	tokens         tokenProvider
	logger         *logger.Logger
	metrics        *metrics.ErpMetrics
	invoiceTimeout time.Duration
}

// NewClient initializes the Bling wrapper.
func NewClient(cfg config.BlingConfig, tokens tokenProvider, client httpDoer, logg *logger.Logger, m *metrics.ErpMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	if tokens == nil {
		return nil, errTokensRequired
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	invoiceTimeout := cfg.InvoiceTimeout
	if invoiceTimeout <= 0 {
		invoiceTimeout = 20 * time.Second
	}
	return &Client{
		http:           client,
		baseURL:        strings.TrimRight(cfg.APIBaseURL, "/"),
		tokens:         tokens,
		logger:         logg,
		metrics:        m,
		invoiceTimeout: invoiceTimeout,
	}, nil
}

// FindOrCreateContact resolves the Bling contact id for a customer,
// creating the contact when the email search comes back empty. Search
// transport failures are surfaced rather than treated as not-found so a
// flaky API cannot fan out duplicate contacts.
func (c *Client) FindOrCreateContact(ctx context.Context, params ContactParams) (int64, error) {
	c.log(ctx, "request", "find_contact", map[string]any{"email": params.Email})

	var found listEnvelope[contactData]
	query := url.Values{"pesquisa": {params.Email}}
	if err := c.do(ctx, http.MethodGet, "/contatos?"+query.Encode(), nil, &found, "find_contact"); err != nil {
		return 0, err
	}
	if len(found.Data) > 0 {
		c.log(ctx, "response", "find_contact", map[string]any{"contact_id": found.Data[0].ID})
		return found.Data[0].ID, nil
	}

	c.log(ctx, "request", "create_contact", map[string]any{"email": params.Email})

	var created itemEnvelope[contactData]
	if err := c.do(ctx, http.MethodPost, "/contatos", params.toRequest(), &created, "create_contact"); err != nil {
		return 0, err
	}
	if created.Data.ID == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "bling contact create returned no id")
	}

	c.log(ctx, "response", "create_contact", map[string]any{"contact_id": created.Data.ID})
	return created.Data.ID, nil
}

// CreateSalesOrder pushes a sales order into Bling.
func (c *Client) CreateSalesOrder(ctx context.Context, params SalesOrderParams) (*SalesOrder, error) {
	if params.ContactID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact id required")
	}
	if len(params.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sales order requires items")
	}

	c.log(ctx, "request", "create_sales_order", map[string]any{
		"contact_id": params.ContactID,
		"items":      len(params.Items),
	})

	var resp itemEnvelope[salesOrderData]
	if err := c.do(ctx, http.MethodPost, "/pedidos/vendas", params.toRequest(), &resp, "create_sales_order"); err != nil {
		return nil, err
	}
	if resp.Data.ID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bling sales order returned no id")
	}

	order := &SalesOrder{ID: resp.Data.ID, Number: resp.Data.Number.String()}
	if order.Number == "" {
		order.Number = strconv.FormatInt(order.ID, 10)
	}

	c.log(ctx, "response", "create_sales_order", map[string]any{
		"order_id":     order.ID,
		"order_number": order.Number,
	})
	return order, nil
}

// IssueInvoice generates, transmits, and reads back the NF-e for a remote
// sales order. The whole sequence runs under its own timeout so a slow
// SEFAZ round-trip cannot stall order processing.
func (c *Client) IssueInvoice(ctx context.Context, blingOrderID int64) (*Invoice, error) {
	if blingOrderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "bling order id required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.invoiceTimeout)
	defer cancel()

	c.log(ctx, "request", "issue_invoice", map[string]any{"order_id": blingOrderID})

	generate := invoiceGenerateRequest{
		SalesOrderIDs: []int64{blingOrderID},
		Purpose:       1,
		Kind:          1,
	}
	var generated itemEnvelope[invoiceData]
	if err := c.do(ctx, http.MethodPost, "/nfe", generate, &generated, "generate_invoice"); err != nil {
		return nil, err
	}
	if generated.Data.ID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "bling invoice generation returned no id")
	}
	nfeID := generated.Data.ID

	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/nfe/%d/enviar", nfeID), nil, nil, "transmit_invoice"); err != nil {
		return nil, err
	}

	var details itemEnvelope[invoiceData]
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/nfe/%d", nfeID), nil, &details, "get_invoice"); err != nil {
		return nil, err
	}

	invoice := &Invoice{
		ID:        nfeID,
		Number:    details.Data.Number.String(),
		AccessKey: details.Data.AccessKey,
	}
	if invoice.Number == "" {
		invoice.Number = strconv.FormatInt(nfeID, 10)
	}

	c.log(ctx, "response", "issue_invoice", map[string]any{
		"nfe_id":     invoice.ID,
		"nfe_number": invoice.Number,
	})
	return invoice, nil
}

// ListProducts returns one page of the Bling catalog.
func (c *Client) ListProducts(ctx context.Context, page, limit int) ([]RemoteProduct, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}

	c.log(ctx, "request", "list_products", map[string]any{"page": page, "limit": limit})

	query := url.Values{
		"pagina": {strconv.Itoa(page)},
		"limite": {strconv.Itoa(limit)},
	}
	var resp listEnvelope[RemoteProduct]
	if err := c.do(ctx, http.MethodGet, "/produtos?"+query.Encode(), nil, &resp, "list_products"); err != nil {
		return nil, err
	}

	c.log(ctx, "response", "list_products", map[string]any{"page": page, "count": len(resp.Data)})
	return resp.Data, nil
}

// GetProductByCode looks up a single product by its SKU. A nil product
// means Bling has no entry for the code.
func (c *Client) GetProductByCode(ctx context.Context, code string) (*RemoteProduct, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product code required")
	}

	c.log(ctx, "request", "get_product_by_code", map[string]any{"code": code})

	query := url.Values{"codigo": {code}}
	var resp listEnvelope[RemoteProduct]
	if err := c.do(ctx, http.MethodGet, "/produtos?"+query.Encode(), nil, &resp, "get_product_by_code"); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		c.log(ctx, "response", "get_product_by_code", map[string]any{"code": code, "found": false})
		return nil, nil
	}

	product := resp.Data[0]
	c.log(ctx, "response", "get_product_by_code", map[string]any{"code": code, "product_id": product.ID})
	return &product, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any, op string) error {
	started := time.Now()
	err := c.doOnce(ctx, method, path, body, out, op)
	c.metrics.Observe(op, time.Since(started), err)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
	}
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any, out any, op string) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("encode %s payload", op))
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("build %s request", op))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("bling %s failed", op))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		code := domainCodeForStatus(resp.StatusCode)
		return pkgerrors.Wrap(code,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
			fmt.Sprintf("bling %s failed", op))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s response", op))
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("bling %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("bling %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"token", "secret", "email", "phone", "doc"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}
