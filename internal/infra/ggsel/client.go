// internal/infra/ggsel/client.go
package ggsel

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ggsel_notification_bot/internal/domain/invoice"
	"ggsel_notification_bot/internal/domain/marketplace"
)

const DefaultBaseURL = "https://seller.ggsel.net"

const (
	loginPath        = "/api_sellers/api/apilogin"
	lastSalesPath    = "/api_sellers/api/sellers/last_sales"
	orderInfoPath    = "/api_sellers/api/invoices/info"
	productInfoPath  = "/api_sellers/api/products/info"
	productsListPath = "/api_sellers/api/products/list"
	chatSendPath     = "/api_sellers/api/debates/create"
)

// renewalRetryDelay is how long the renewal task waits before re-trying a
// failed login.
const renewalRetryDelay = 30 * time.Second

// browserHeaders mimics the seller cabinet's web client; the API rejects
// bare requests.
var browserHeaders = map[string]string{
	"Accept":           "application/json, text/plain, */*",
	"Accept-Language":  "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
	"User-Agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"X-Requested-With": "XMLHttpRequest",
	"Referer":          "https://seller.ggsel.net/",
	"Origin":           "https://seller.ggsel.net",
	"locale":           "ru",
}

// Client implements marketplace.Client against the GGSel seller API.
// It owns its credential lifecycle: Login obtains a session token signed
// with the permanent seller token, and StartTokenRenewal keeps it fresh
// in the background. Callers never observe token state.
type Client struct {
	httpClient *http.Client
	baseURL    string
	baseToken  string
	sellerID   int64
	logger     *logrus.Entry

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewClient(baseURL, baseToken string, sellerID int64, logger *logrus.Entry) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		baseToken:  baseToken,
		sellerID:   sellerID,
		logger:     logger,
	}
}

// Login authenticates with the apilogin endpoint. The signature is the
// sha256 hex digest of the permanent token concatenated with a unix
// timestamp, both of which are echoed in the request body.
func (c *Client) Login(ctx context.Context) error {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	digest := sha256.Sum256([]byte(c.baseToken + ts))

	payload := map[string]any{
		"seller_id": c.sellerID,
		"timestamp": ts,
		"sign":      hex.EncodeToString(digest[:]),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ggsel login: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ggsel login: failed to build request: %w", err)
	}
	applyHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	var parsed loginResponse
	if err := c.do(req, &parsed); err != nil {
		return fmt.Errorf("ggsel login: %w", err)
	}
	if parsed.Token == "" {
		return fmt.Errorf("ggsel login: empty token in response (retval=%d, retdesc=%q)", parsed.Retval, parsed.Retdesc)
	}

	c.mu.Lock()
	c.token = parsed.Token
	c.expiresAt = parsed.ValidThru.Time
	c.mu.Unlock()

	c.logger.WithField("valid_thru", parsed.ValidThru.Time).Info("GGSel session token obtained")
	return nil
}

// StartTokenRenewal launches the self-perpetuating renewal task: wait for
// expiry, re-login, compute the next expiry, repeat. Login failures are
// logged and retried rather than terminating the task. Returns when ctx is
// cancelled.
func (c *Client) StartTokenRenewal(ctx context.Context) {
	go func() {
		for {
			c.mu.RLock()
			expiresAt := c.expiresAt
			c.mu.RUnlock()

			wait := time.Until(expiresAt)
			if wait < 0 {
				wait = 0
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				c.logger.Info("GGSel token renewal task stopped")
				return
			case <-timer.C:
			}

			if err := c.Login(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.WithError(err).Error("GGSel token renewal failed, will retry")
				select {
				case <-ctx.Done():
					return
				case <-time.After(renewalRetryDelay):
				}
			}
		}
	}()
}

func (c *Client) sessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ListRecentSales returns the newest entries of the sales feed, in feed order.
func (c *Client) ListRecentSales(ctx context.Context, limit int) ([]marketplace.Sale, error) {
	params := url.Values{}
	params.Set("token", c.sessionToken())
	params.Set("count", strconv.Itoa(limit))

	var parsed salesResponse
	if err := c.get(ctx, lastSalesPath, params, &parsed); err != nil {
		return nil, fmt.Errorf("ggsel last sales: %w", err)
	}
	if parsed.Retval != 0 {
		return nil, fmt.Errorf("ggsel last sales: API error retval=%d retdesc=%q", parsed.Retval, parsed.Retdesc)
	}

	sales := make([]marketplace.Sale, 0, len(parsed.Sales))
	for _, s := range parsed.Sales {
		sales = append(sales, marketplace.Sale{
			InvoiceID: s.InvoiceID,
			Date:      s.Date.Time,
			Product: marketplace.SaleProduct{
				ID:       s.Product.ID,
				Name:     s.Product.Name,
				PriceRUB: s.Product.PriceRUB,
				PriceUSD: s.Product.PriceUSD,
				PriceEUR: s.Product.PriceEUR,
			},
		})
	}
	return sales, nil
}

// GetOrderDetail fetches authoritative order state for a single invoice.
func (c *Client) GetOrderDetail(ctx context.Context, invoiceID int64) (*marketplace.OrderDetail, error) {
	params := url.Values{}
	params.Set("token", c.sessionToken())
	params.Set("invoice_id", strconv.FormatInt(invoiceID, 10))

	var parsed orderResponse
	if err := c.get(ctx, orderInfoPath, params, &parsed); err != nil {
		return nil, fmt.Errorf("ggsel order info: %w", err)
	}
	if parsed.Retval != 0 || parsed.Content == nil {
		// The API answers with a non-zero retval and no content for unknown
		// invoices; the feed and the detail endpoint can briefly disagree.
		return nil, fmt.Errorf("ggsel order info (retval=%d retdesc=%q): %w",
			parsed.Retval, parsed.Retdesc, marketplace.ErrOrderNotFound)
	}

	content := parsed.Content
	detail := &marketplace.OrderDetail{
		ItemID:   content.ItemID,
		Name:     content.Name,
		Amount:   content.Amount,
		Currency: content.CurrencyType,
		Status:   invoice.OrderStatus(content.InvoiceState),
		Profit:   content.Profit,
		Date:     content.PurchaseDate.Time,
		Buyer: marketplace.Buyer{
			Account:       content.BuyerInfo.Account,
			Email:         content.BuyerInfo.Email,
			PaymentMethod: content.BuyerInfo.PaymentMethod,
		},
	}
	if content.DatePay != nil && !content.DatePay.Time.IsZero() {
		t := content.DatePay.Time
		detail.DatePay = &t
	}
	return detail, nil
}

// GetProductDetail fetches a single product description.
func (c *Client) GetProductDetail(ctx context.Context, itemID int64) (*marketplace.ProductDetail, error) {
	params := url.Values{}
	params.Set("token", c.sessionToken())
	params.Set("product_id", strconv.FormatInt(itemID, 10))

	var parsed productResponse
	if err := c.get(ctx, productInfoPath, params, &parsed); err != nil {
		return nil, fmt.Errorf("ggsel product info: %w", err)
	}
	if parsed.Retval != 0 || parsed.Product == nil {
		return nil, fmt.Errorf("ggsel product info: API error retval=%d retdesc=%q", parsed.Retval, parsed.Retdesc)
	}

	return &marketplace.ProductDetail{
		ID:       parsed.Product.ID,
		Name:     parsed.Product.Name,
		Price:    parsed.Product.Price,
		Currency: parsed.Product.Currency,
		URL:      parsed.Product.URL,
	}, nil
}

// ListProducts returns one page of the seller's product list.
func (c *Client) ListProducts(ctx context.Context, page, count int) ([]marketplace.ProductListing, error) {
	params := url.Values{}
	params.Set("token", c.sessionToken())
	params.Set("ids", "")
	params.Set("page", strconv.Itoa(page))
	params.Set("count", strconv.Itoa(count))

	var parsed productsListResponse
	if err := c.get(ctx, productsListPath, params, &parsed); err != nil {
		return nil, fmt.Errorf("ggsel products list: %w", err)
	}
	if parsed.Retval != 0 {
		return nil, fmt.Errorf("ggsel products list: API error retval=%d retdesc=%q", parsed.Retval, parsed.Retdesc)
	}

	listings := make([]marketplace.ProductListing, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		listings = append(listings, marketplace.ProductListing{
			ID:       row.IDGoods,
			Name:     row.NameGoods,
			Price:    row.PriceRUR,
			Currency: row.Currency,
			InStock:  row.InStock,
		})
	}
	return listings, nil
}

// SendChatMessage posts a message into the invoice's buyer chat.
func (c *Client) SendChatMessage(ctx context.Context, invoiceID int64, text string) error {
	payload := map[string]any{
		"token":   c.sessionToken(),
		"id_i":    invoiceID,
		"message": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ggsel chat send: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatSendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ggsel chat send: failed to build request: %w", err)
	}
	applyHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	var parsed chatSendResponse
	if err := c.do(req, &parsed); err != nil {
		return fmt.Errorf("ggsel chat send: %w", err)
	}
	if parsed.Retval != 0 {
		return fmt.Errorf("ggsel chat send: API error retval=%d retdesc=%q", parsed.Retval, parsed.Retdesc)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	applyHeaders(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func applyHeaders(req *http.Request) {
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
}
