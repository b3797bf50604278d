package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"medminer/internal/config"
	"medminer/pkg/circuitbreaker"
)

// helper function to create a breaker config for testing
func newTestBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2, // Open after 2 consecutive failures
		SuccessThreshold: 2,
		Timeout:          "10s",
	}
}

func TestNewClient_InvalidTimeout(t *testing.T) {
	cfg := newTestBreakerConfig()
	cfg.Timeout = "not-a-duration"

	if _, err := NewClient(cfg); err == nil {
		t.Error("NewClient() expected an error for an invalid timeout")
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/lookup" {
			t.Errorf("Expected path /v1/lookup, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("term") != "aspirin" {
			t.Errorf("Expected term=aspirin, got %s", r.URL.Query().Get("term"))
		}
		if r.Header.Get("X-Custom") != "yes" {
			t.Errorf("Expected custom header to be forwarded")
		}
		w.Write([]byte(`{"name":"aspirin"}`))
	}))
	defer srv.Close()

	client, err := NewClient(config.CircuitBreakerConfig{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	var out struct {
		Name string `json:"name"`
	}
	// Trailing slash on the base and leading slash on the path must not
	// produce a double slash.
	err = client.GetJSON(context.Background(), srv.URL+"/", "/v1/lookup",
		url.Values{"term": {"aspirin"}}, map[string]string{"X-Custom": "yes"}, &out)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Name != "aspirin" {
		t.Errorf("Expected name aspirin, got %s", out.Name)
	}
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such term", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := NewClient(config.CircuitBreakerConfig{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	err = client.GetJSON(context.Background(), srv.URL, "missing", nil, nil, nil)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected a *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", statusErr.StatusCode)
	}
	if !strings.Contains(statusErr.Body, "no such term") {
		t.Errorf("Expected body to carry the response, got %q", statusErr.Body)
	}
}

func TestPostForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Expected form content type, got %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Error(err)
			return
		}
		if r.PostForm.Get("grant_type") != "client_credentials" {
			t.Errorf("Expected grant_type field, got %s", r.PostForm.Get("grant_type"))
		}
		w.Write([]byte(`{"access_token":"tok"}`))
	}))
	defer srv.Close()

	client, err := NewClient(config.CircuitBreakerConfig{})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	if err := client.PostForm(context.Background(), srv.URL, form, &out); err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	if out.AccessToken != "tok" {
		t.Errorf("Expected token tok, got %s", out.AccessToken)
	}
}

func TestCircuitBreakerTripsOnServerErrors(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(newTestBreakerConfig())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	// First 2 requests should fail and trip the circuit
	for i := 0; i < 2; i++ {
		err := client.GetJSON(context.Background(), srv.URL, "fail", nil, nil, nil)
		if err == nil {
			t.Fatalf("Request %d expected an error", i+1)
		}
	}

	// The 3rd request should be blocked by the open circuit breaker
	err = client.GetJSON(context.Background(), srv.URL, "fail", nil, nil, nil)
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen on request 3, got %v", err)
	}
	if requests != 2 {
		t.Errorf("Expected the open circuit to block the request, server saw %d", requests)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	client, err := NewClient(newTestBreakerConfig())
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	// 4xx responses are the caller's problem, not the service's health.
	for i := 0; i < 5; i++ {
		err := client.GetJSON(context.Background(), srv.URL, "bad", nil, nil, nil)
		var statusErr *StatusError
		if !errors.As(err, &statusErr) {
			t.Fatalf("Request %d expected a *StatusError, got %v", i+1, err)
		}
	}
}
