package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJupiterPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "mintA" {
			t.Errorf("unexpected ids %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"mintA":{"price":"0.000042"}}}`))
	}))
	defer server.Close()

	client := NewJupiterClient(server.URL)

	price, err := client.Price(context.Background(), "mintA")
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if price != 0.000042 {
		t.Errorf("expected price 0.000042, got %v", price)
	}
}

func TestJupiterUnknownToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := NewJupiterClient(server.URL)

	price, err := client.Price(context.Background(), "mintX")
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if price != 0 {
		t.Errorf("expected 0 for unknown token, got %v", price)
	}
}

func TestJupiterRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewJupiterClient(server.URL)

	_, err := client.Price(context.Background(), "mintA")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestJupiterVsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("vsToken"); got != "quoteMint" {
			t.Errorf("unexpected vsToken %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"mintA":{"price":"1.5"}}}`))
	}))
	defer server.Close()

	client := NewJupiterClient(server.URL, WithVsToken("quoteMint"))

	price, err := client.Price(context.Background(), "mintA")
	if err != nil {
		t.Fatalf("Price returned error: %v", err)
	}
	if price != 1.5 {
		t.Errorf("expected price 1.5, got %v", price)
	}
}
