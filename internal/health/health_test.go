package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(s *Server) *gin.Engine {
	r := gin.New()
	s.RegisterRoutes(r)
	return r
}

func TestHealth_AllHealthy(t *testing.T) {
	s := NewServer(0, "v1.2.3", nil)
	s.RegisterCheck("catalog", func(ctx context.Context) (bool, string) { return true, "4 seasons" })

	w := httptest.NewRecorder()
	newRouter(s).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var status Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ok" || status.Version != "v1.2.3" {
		t.Errorf("unexpected status %+v", status)
	}
	if c := status.Checks["catalog"]; !c.Healthy || c.Message != "4 seasons" {
		t.Errorf("catalog check = %+v", c)
	}
}

func TestHealth_Degraded(t *testing.T) {
	s := NewServer(0, "dev", nil)
	s.RegisterCheck("redis", func(ctx context.Context) (bool, string) { return false, "connection refused" })
	s.RegisterCheck("catalog", func(ctx context.Context) (bool, string) { return true, "" })
	r := newRouter(s)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if w.Code != http.StatusServiceUnavailable || w.Body.String() != "not ready" {
		t.Errorf("ready = %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("live = %d", w.Code)
	}
}
