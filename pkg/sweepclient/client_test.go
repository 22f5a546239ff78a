package sweepclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRunDailyGainsSendsKeyAndDecodesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/internal/sweeps/daily-gains" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Internal-API-Key") != "k" {
			t.Fatalf("missing internal key header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sweep":"daily-gains","evaluated":4,"credited":3,"skipped":1,"failed":0,"amount":4500}`))
	}))
	defer server.Close()

	result, err := NewClient(server.URL+"/", "k", time.Second).RunDailyGains(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sweep != "daily-gains" || result.Credited != 3 || result.Amount != 4500 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunMaturityReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/sweeps/maturity" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"sweep already running"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", time.Second).RunMaturity(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusConflict || statusErr.Message != "sweep already running" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}
