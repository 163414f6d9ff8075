package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestLocalPayoutGatewayDeterministicReference(t *testing.T) {
	gateway := NewLocalPayoutGateway()
	req := PayoutRequest{IdempotencyKey: PayoutIdempotencyKey("EXT-1")}
	first, err := gateway.Disburse(context.Background(), req)
	if err != nil {
		t.Fatalf("disburse failed: %v", err)
	}
	second, _ := gateway.Disburse(context.Background(), req)
	if first != second {
		t.Fatalf("same key should yield same reference: %s vs %s", first, second)
	}
	if _, err := gateway.Disburse(context.Background(), PayoutRequest{}); !errors.Is(err, ErrPayoutTaskFailed) {
		t.Fatalf("missing key should fail, got %v", err)
	}
}

func TestHTTPPayoutGatewaySendsIdempotencyKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reference":"tx-42"}`))
	}))
	defer server.Close()

	gateway := NewPayoutGateway(&config.PayoutConfig{Provider: "http", BaseURL: server.URL})
	ref, err := gateway.Disburse(context.Background(), PayoutRequest{
		IdempotencyKey: "order-payout-EXT-9",
		AffiliateEmail: "a@example.com",
		Amount:         models.NewMoneyFromDecimal(decimal.RequireFromString("12.50")),
	})
	if err != nil {
		t.Fatalf("disburse failed: %v", err)
	}
	if ref != "tx-42" || gotKey != "order-payout-EXT-9" {
		t.Fatalf("unexpected ref=%s key=%s", ref, gotKey)
	}
}

func TestHTTPPayoutGatewayErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gateway := NewHTTPPayoutGateway(&config.PayoutConfig{BaseURL: server.URL})
	if _, err := gateway.Disburse(context.Background(), PayoutRequest{IdempotencyKey: "k"}); !errors.Is(err, ErrPayoutTaskFailed) {
		t.Fatalf("expected ErrPayoutTaskFailed, got %v", err)
	}
}

func TestNewPayoutGatewaySelectsPayPal(t *testing.T) {
	gateway := NewPayoutGateway(&config.PayoutConfig{Provider: "paypal", ClientID: "cid", ClientSecret: "secret"})
	if _, ok := gateway.(*PayPalPayoutGateway); !ok {
		t.Fatalf("expected PayPal gateway, got %T", gateway)
	}
	if _, ok := NewPayoutGateway(&config.PayoutConfig{Provider: "paypal"}).(*LocalPayoutGateway); !ok {
		t.Fatalf("paypal without credentials should fall back to local")
	}
}

func TestPayPalPayoutGatewayDisburse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/v1/oauth2/token" {
			_, _ = w.Write([]byte(`{"access_token":"tok"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"batch_header":{"payout_batch_id":"PB-1","batch_status":"PENDING"}}`))
	}))
	defer server.Close()

	gateway := NewPayPalPayoutGateway(&config.PayoutConfig{ClientID: "cid", ClientSecret: "secret", BaseURL: server.URL})
	ref, err := gateway.Disburse(context.Background(), PayoutRequest{
		IdempotencyKey: "order-payout-EXT-3",
		AffiliateEmail: "a@example.com",
		OrderID:        "EXT-3",
		Amount:         models.NewMoneyFromDecimal(decimal.RequireFromString("7.5")),
	})
	if err != nil {
		t.Fatalf("disburse failed: %v", err)
	}
	if ref != "PB-1" {
		t.Fatalf("reference want PB-1 got %s", ref)
	}
}
