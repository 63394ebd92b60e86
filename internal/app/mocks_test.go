package app

import (
	"context"
	"errors"
	"sync"

	"gopkg.in/telebot.v3"

	"ggsel_notification_bot/internal/domain/invoice"
	"ggsel_notification_bot/internal/domain/marketplace"
	idb "ggsel_notification_bot/internal/infra/database"
)

// Common test errors
var (
	ErrMockMarketplace = errors.New("mock marketplace error")
	ErrMockLedger      = errors.New("mock ledger error")
	ErrMockTelegram    = errors.New("mock telegram error")
	ErrMockCaptcha     = errors.New("mock captcha error")
)

// MockMarketplaceClient implements marketplace.Client for testing
type MockMarketplaceClient struct {
	mu sync.Mutex

	Sales    []marketplace.Sale
	Orders   map[int64]*marketplace.OrderDetail
	Products map[int64]*marketplace.ProductDetail
	Listings []marketplace.ProductListing

	ListSalesFunc      func(ctx context.Context, limit int) ([]marketplace.Sale, error)
	GetOrderDetailFunc func(ctx context.Context, invoiceID int64) (*marketplace.OrderDetail, error)

	ListSalesCalls   int
	OrderDetailCalls int
	ChatMessages     map[int64][]string
}

func NewMockMarketplaceClient() *MockMarketplaceClient {
	return &MockMarketplaceClient{
		Orders:       make(map[int64]*marketplace.OrderDetail),
		Products:     make(map[int64]*marketplace.ProductDetail),
		ChatMessages: make(map[int64][]string),
	}
}

func (m *MockMarketplaceClient) ListRecentSales(ctx context.Context, limit int) ([]marketplace.Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListSalesCalls++
	if m.ListSalesFunc != nil {
		return m.ListSalesFunc(ctx, limit)
	}
	if limit > len(m.Sales) {
		limit = len(m.Sales)
	}
	return m.Sales[:limit], nil
}

func (m *MockMarketplaceClient) GetOrderDetail(ctx context.Context, invoiceID int64) (*marketplace.OrderDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderDetailCalls++
	if m.GetOrderDetailFunc != nil {
		return m.GetOrderDetailFunc(ctx, invoiceID)
	}
	detail, ok := m.Orders[invoiceID]
	if !ok {
		return nil, marketplace.ErrOrderNotFound
	}
	return detail, nil
}

func (m *MockMarketplaceClient) GetProductDetail(ctx context.Context, itemID int64) (*marketplace.ProductDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.Products[itemID]
	if !ok {
		return nil, ErrMockMarketplace
	}
	return product, nil
}

func (m *MockMarketplaceClient) ListProducts(ctx context.Context, page, count int) ([]marketplace.ProductListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page > 1 {
		return nil, nil
	}
	return m.Listings, nil
}

func (m *MockMarketplaceClient) SendChatMessage(ctx context.Context, invoiceID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatMessages[invoiceID] = append(m.ChatMessages[invoiceID], text)
	return nil
}

// MockInvoiceRepository implements invoice.Repository in memory
type MockInvoiceRepository struct {
	mu      sync.Mutex
	Records map[int64]*invoice.Invoice

	FindFunc         func(ctx context.Context, invoiceID int64) (*invoice.Invoice, error)
	CreateFunc       func(ctx context.Context, inv *invoice.Invoice) error
	MarkNotifiedFunc func(ctx context.Context, invoiceID int64) error

	CreateCalls       int
	MarkNotifiedCalls int
}

func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{Records: make(map[int64]*invoice.Invoice)}
}

func (m *MockInvoiceRepository) FindByInvoiceID(ctx context.Context, invoiceID int64) (*invoice.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindFunc != nil {
		return m.FindFunc(ctx, invoiceID)
	}
	rec, ok := m.Records[invoiceID]
	if !ok {
		return nil, idb.ErrInvoiceNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inv)
	}
	if _, exists := m.Records[inv.InvoiceID]; exists {
		return idb.ErrDuplicateInvoice
	}
	copied := *inv
	m.Records[inv.InvoiceID] = &copied
	return nil
}

func (m *MockInvoiceRepository) MarkNotified(ctx context.Context, invoiceID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkNotifiedCalls++
	if m.MarkNotifiedFunc != nil {
		return m.MarkNotifiedFunc(ctx, invoiceID)
	}
	rec, ok := m.Records[invoiceID]
	if !ok {
		return idb.ErrInvoiceNotFound
	}
	rec.Notified = true
	return nil
}

// MockTelegramClient implements the domain telegram.Client for testing
type MockTelegramClient struct {
	mu       sync.Mutex
	SendFunc func(recipientChatID int64, text string, options *telebot.SendOptions) error

	Sent []SentMessage
}

type SentMessage struct {
	ChatID int64
	Text   string
}

func NewMockTelegramClient() *MockTelegramClient {
	return &MockTelegramClient{}
}

func (m *MockTelegramClient) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendFunc != nil {
		if err := m.SendFunc(recipientChatID, text, options); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, SentMessage{ChatID: recipientChatID, Text: text})
	return nil
}

func (m *MockTelegramClient) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockCaptchaSolver implements CaptchaSolver for testing
type MockCaptchaSolver struct {
	SolveFunc func(ctx context.Context, game string) (string, error)
	Calls     int
}

func (m *MockCaptchaSolver) Solve(ctx context.Context, game string) (string, error) {
	m.Calls++
	if m.SolveFunc != nil {
		return m.SolveFunc(ctx, game)
	}
	return "captcha-token", nil
}

// MockPinAuthClient implements PinAuthClient for testing
type MockPinAuthClient struct {
	StartFunc func(ctx context.Context, game, email, captchaToken string) error
	Calls     int
	LastToken string
}

func (m *MockPinAuthClient) StartPinAuth(ctx context.Context, game, email, captchaToken string) error {
	m.Calls++
	m.LastToken = captchaToken
	if m.StartFunc != nil {
		return m.StartFunc(ctx, game, email, captchaToken)
	}
	return nil
}
