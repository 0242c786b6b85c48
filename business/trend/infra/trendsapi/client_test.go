package trendsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/logger"
)

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/trends" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "secret" {
			t.Errorf("missing api key header")
		}
		if kw := r.URL.Query().Get("keyword"); kw != "wireless earbuds" {
			t.Errorf("keyword = %q", kw)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"interest_score":85,"growth_rate":30,"social_mentions":15000,"competition":"high"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "secret"}, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	obs, err := client.Fetch(context.Background(), "wireless earbuds")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if obs.Keyword != "wireless earbuds" {
		t.Errorf("keyword should default to the query, got %q", obs.Keyword)
	}
	if obs.InterestScore == nil || *obs.InterestScore != 85 {
		t.Errorf("interest = %v", obs.InterestScore)
	}
	if obs.GrowthRate == nil || *obs.GrowthRate != 30 {
		t.Errorf("growth = %v", obs.GrowthRate)
	}
	if obs.SocialMentions == nil || *obs.SocialMentions != 15000 {
		t.Errorf("mentions = %v", obs.SocialMentions)
	}
	if obs.Competition != "high" {
		t.Errorf("competition = %q", obs.Competition)
	}
}

func TestClient_ErrorsTripBreaker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"upstream down"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL}, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	for i := 0; i < 5; i++ {
		_, err := client.Fetch(context.Background(), "yoga mat")
		if apperror.GetCode(err) != apperror.CodeTrendFetchFailed {
			t.Fatalf("attempt %d: expected CodeTrendFetchFailed, got %v", i, err)
		}
	}

	_, err = client.Fetch(context.Background(), "yoga mat")
	if apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Fatalf("expected CodeCircuitOpen once tripped, got %v", err)
	}
	if hits.Load() != 5 {
		t.Errorf("server hits = %d, open breaker must not call through", hits.Load())
	}
}

func TestNewClient_RequiresURL(t *testing.T) {
	if _, err := NewClient(Config{}, logger.NewDiscard()); apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("expected CodeConfigurationError, got %v", err)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"interest_score":"high"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL}, logger.NewDiscard())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if _, err := client.Fetch(context.Background(), "yoga mat"); apperror.GetCode(err) != apperror.CodeTrendFetchFailed {
		t.Fatalf("expected CodeTrendFetchFailed, got %v", err)
	}
}
