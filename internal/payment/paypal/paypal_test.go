package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	cfg := NewConfig("cid", "secret", "https://api-m.sandbox.paypal.com/", "")
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("ValidateConfig should pass, got: %v", err)
	}
	if cfg.BaseURL != "https://api-m.sandbox.paypal.com" {
		t.Fatalf("base url not normalized, got: %s", cfg.BaseURL)
	}
	if cfg.Currency != "USD" {
		t.Fatalf("currency should default to USD, got: %s", cfg.Currency)
	}
	if err := ValidateConfig(NewConfig("", "secret", "", "")); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("missing client id should fail, got: %v", err)
	}
}

func TestCreatePayout(t *testing.T) {
	var gotRequestID string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/oauth2/token":
			if user, pass, ok := r.BasicAuth(); !ok || user != "cid" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"tok-1"}`))
		case "/v1/payments/payouts":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			gotRequestID = r.Header.Get("PayPal-Request-Id")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"batch_header":{"payout_batch_id":"BATCH-9","batch_status":"pending"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := NewConfig("cid", "secret", server.URL, "eur")
	result, err := CreatePayout(context.Background(), cfg, PayoutInput{
		SenderBatchID: "order-payout-EXT-1",
		ReceiverEmail: "aff@example.com",
		Amount:        "12.50",
	})
	if err != nil {
		t.Fatalf("CreatePayout error: %v", err)
	}
	if result.BatchID != "BATCH-9" || result.Status != "PENDING" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotRequestID != "order-payout-EXT-1" {
		t.Fatalf("request id want order-payout-EXT-1 got %s", gotRequestID)
	}
	items, _ := gotBody["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected one payout item, got %+v", gotBody)
	}
	item, _ := items[0].(map[string]interface{})
	amount, _ := item["amount"].(map[string]interface{})
	if amount["currency"] != "EUR" || amount["value"] != "12.50" || item["receiver"] != "aff@example.com" {
		t.Fatalf("unexpected payout item: %+v", item)
	}
}

func TestCreatePayoutAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := NewConfig("cid", "bad", server.URL, "")
	if _, err := CreatePayout(context.Background(), cfg, PayoutInput{SenderBatchID: "k", ReceiverEmail: "a@example.com", Amount: "1.00"}); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}
