package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"ggsel_notification_bot/internal/domain/marketplace"
)

type fakeMarket struct {
	marketplace.Client
	listings []marketplace.ProductListing
	listErr  error
}

func (f *fakeMarket) ListProducts(ctx context.Context, page, count int) ([]marketplace.ProductListing, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if page > 1 {
		return nil, nil
	}
	return f.listings, nil
}

type fakeTelegram struct {
	sent []string
	err  error
}

func (f *fakeTelegram) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}

func newTestServer(market *fakeMarket, tg *fakeTelegram) *Server {
	return NewServer("127.0.0.1:0", market, tg, testLogger(), 777, "production")
}

const validPayload = `{
	"ID_I": 1234, "ID_D": 7, "Amount": 299, "Currency": "RUB",
	"email": "buyer@mail.com", "Date": "2024-05-01", "SHA256": "abc", "ISMYPRODUCT": true
}`

func TestHandleIndex(t *testing.T) {
	srv := newTestServer(&fakeMarket{}, &fakeTelegram{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "welcome" {
		t.Errorf("GET / = %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandleNotification_OwnProduct(t *testing.T) {
	market := &fakeMarket{listings: []marketplace.ProductListing{{ID: 7, Name: "Gems"}}}
	tg := &fakeTelegram{}
	srv := newTestServer(market, tg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notification", strings.NewReader(validPayload))
	req.Header.Set("Content-Type", "application/json")
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", rec.Code, rec.Body.String())
	}
	if len(tg.sent) != 1 {
		t.Fatalf("expected one admin message, got %d", len(tg.sent))
	}
	if !strings.Contains(tg.sent[0], "Gems") {
		t.Errorf("admin message should name the product: %s", tg.sent[0])
	}
}

func TestHandleNotification_ForeignProduct(t *testing.T) {
	market := &fakeMarket{listings: []marketplace.ProductListing{{ID: 99, Name: "Other"}}}
	tg := &fakeTelegram{}
	srv := newTestServer(market, tg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notification", strings.NewReader(validPayload))
	req.Header.Set("Content-Type", "application/json")
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden || rec.Body.String() != "who are you?" {
		t.Errorf("expected 403 who are you?, got %d %q", rec.Code, rec.Body.String())
	}
	if len(tg.sent) != 0 {
		t.Errorf("no admin message expected, got %d", len(tg.sent))
	}
}

func TestHandleNotification_MalformedPayload(t *testing.T) {
	srv := newTestServer(&fakeMarket{}, &fakeTelegram{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notification", strings.NewReader(`{"ID_I": "nope"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleNotification_ProductLookupFailure(t *testing.T) {
	market := &fakeMarket{listErr: errors.New("upstream down")}
	tg := &fakeTelegram{}
	srv := newTestServer(market, tg)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notification", strings.NewReader(validPayload))
	req.Header.Set("Content-Type", "application/json")
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 on lookup failure, got %d", rec.Code)
	}
	if len(tg.sent) != 0 {
		t.Errorf("no admin message expected on lookup failure, got %d", len(tg.sent))
	}
}
