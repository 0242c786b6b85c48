package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

type trendBody struct {
	Keyword       string  `json:"keyword"`
	InterestScore float64 `json:"interest_score"`
}

func TestGetJSON_DecodesAndEscapesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/trends" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("keyword"); got != "wireless earbuds" {
			t.Errorf("keyword = %q", got)
		}
		if r.Header.Get("X-API-Key") != "secret" || r.Header.Get("User-Agent") != defaultUserAgent {
			t.Errorf("headers = %v", r.Header)
		}
		_, _ = w.Write([]byte(`{"keyword":"wireless earbuds","interest_score":85}`))
	}))
	defer server.Close()

	client, err := New(
		WithName("trends"),
		WithBaseURL(server.URL+"/"),
		WithTimeout(2*time.Second),
		WithHeader("x-api-key", "secret"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out trendBody
	resp, err := client.GetJSON(context.Background(), "/v1/trends",
		url.Values{"keyword": {"wireless earbuds"}}, &out, WithLabel("endpoint", "trends"))
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if resp.IsError() {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if out.Keyword != "wireless earbuds" || out.InterestScore != 85 {
		t.Errorf("decoded = %+v", out)
	}
}

func TestGetJSON_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	client, err := New(WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	throttled := errors.New("throttled")
	handler := func(status int, body []byte) error {
		if status == http.StatusTooManyRequests {
			return throttled
		}
		return nil
	}

	tests := []struct {
		name    string
		opts    []CallOption
		wantErr error
	}{
		{"handler maps status", []CallOption{WithErrorHandler(handler)}, throttled},
		{"no handler", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := trendBody{Keyword: "untouched"}
			resp, err := client.GetJSON(context.Background(), "/v1/trends", nil, &out, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if resp == nil || !resp.IsError() || string(resp.Body) != `{"error":"slow down"}` {
				t.Errorf("expected the error response to be returned, got %+v", resp)
			}
			if out.Keyword != "untouched" {
				t.Errorf("error bodies must not be decoded, got %+v", out)
			}
		})
	}
}

func TestGetJSON_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"keyword":`))
	}))
	defer server.Close()

	client, err := New(WithName("trends"), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out trendBody
	if _, err := client.GetJSON(context.Background(), "v1/trends", nil, &out); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestGetJSON_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client, err := New(WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.GetJSON(ctx, "/v1/trends", nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
