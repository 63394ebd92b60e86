// internal/infra/ggsel/models.go
package ggsel

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// apiTime parses the marketplace's ISO8601 timestamps, which arrive either
// with a zone offset, with a trailing "Z", or bare (implied UTC).
type apiTime struct {
	time.Time
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func (t *apiTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range apiTimeLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp format: %q", raw)
}

type loginResponse struct {
	Retval    int     `json:"retval"`
	Retdesc   string  `json:"retdesc"`
	Token     string  `json:"token"`
	ValidThru apiTime `json:"valid_thru"`
}

type saleProductPayload struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	PriceRUB decimal.Decimal `json:"price_rub"`
	PriceUSD decimal.Decimal `json:"price_usd"`
	PriceEUR decimal.Decimal `json:"price_eur"`
}

type salePayload struct {
	InvoiceID int64              `json:"invoice_id"`
	Date      apiTime            `json:"date"`
	Product   saleProductPayload `json:"product"`
}

type salesResponse struct {
	Retval  int           `json:"retval"`
	Retdesc string        `json:"retdesc"`
	Sales   []salePayload `json:"sales"`
}

type buyerInfoPayload struct {
	PaymentMethod string `json:"payment_method"`
	Account       string `json:"account"`
	Email         string `json:"email"`
}

type orderContentPayload struct {
	ItemID       int64            `json:"item_id"`
	ContentID    int64            `json:"content_id"`
	Name         string           `json:"name"`
	Amount       decimal.Decimal  `json:"amount"`
	CurrencyType string           `json:"currency_type"`
	InvoiceState int              `json:"invoice_state"`
	PurchaseDate apiTime          `json:"purchase_date"`
	DatePay      *apiTime         `json:"date_pay"`
	Profit       decimal.Decimal  `json:"profit"`
	BuyerInfo    buyerInfoPayload `json:"buyer_info"`
}

type orderResponse struct {
	Retval  int                  `json:"retval"`
	Retdesc string               `json:"retdesc"`
	Content *orderContentPayload `json:"content"`
}

type productPayload struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	URL      string          `json:"url"`
}

type productResponse struct {
	Retval  int             `json:"retval"`
	Retdesc string          `json:"retdesc"`
	Product *productPayload `json:"product"`
}

type productRowPayload struct {
	IDGoods   int64           `json:"id_goods"`
	NameGoods string          `json:"name_goods"`
	PriceRUR  decimal.Decimal `json:"price_rur"`
	Currency  string          `json:"currency"`
	InStock   int             `json:"in_stock"`
}

type productsListResponse struct {
	Retval  int                 `json:"retval"`
	Retdesc string              `json:"retdesc"`
	Page    int                 `json:"page"`
	Count   int                 `json:"count"`
	Rows    []productRowPayload `json:"rows"`
}

type chatSendResponse struct {
	Retval  int    `json:"retval"`
	Retdesc string `json:"retdesc"`
}
