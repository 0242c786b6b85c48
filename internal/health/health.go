// Package health provides liveness, readiness and dependency health endpoints.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fd1az/product-scout/internal/logger"
)

const checkTimeout = 5 * time.Second

// Status represents the health check response.
type Status struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Check represents an individual health check.
type Check struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// CheckFunc is a function that performs a health check.
type CheckFunc func(ctx context.Context) (bool, string)

// Server provides health check HTTP endpoints.
type Server struct {
	port    int
	version string
	log     logger.LoggerInterface
	checks  map[string]CheckFunc
	mu      sync.RWMutex
	server  *http.Server
	now     func() time.Time
}

// NewServer creates a new health check server.
func NewServer(port int, version string, log logger.LoggerInterface) *Server {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Server{
		port:    port,
		version: version,
		log:     log,
		checks:  make(map[string]CheckFunc),
		now:     time.Now,
	}
}

// RegisterCheck registers a health check function.
func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// RegisterRoutes mounts /health, /ready and /live on r.
func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", s.handleHealth)
	r.GET("/ready", s.handleReady)
	r.GET("/live", s.handleLive)
}

// Start serves the endpoints on their own port in the background.
func (s *Server) Start() error {
	engine := gin.New()
	engine.Use(gin.Recovery())
	s.RegisterRoutes(engine)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "health server stopped", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the health check server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// run executes every check concurrently.
func (s *Server) run(ctx context.Context) map[string]Check {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	fns := make([]CheckFunc, len(names))
	for i, name := range names {
		fns[i] = s.checks[name]
	}
	s.mu.RUnlock()

	results := make([]Check, len(names))
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func(i int, fn CheckFunc) {
			defer wg.Done()
			healthy, msg := fn(ctx)
			results[i] = Check{Healthy: healthy, Message: msg}
		}(i, fn)
	}
	wg.Wait()

	out := make(map[string]Check, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	return out
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	status := Status{
		Status:    "ok",
		Checks:    s.run(ctx),
		Version:   s.version,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK
	for _, check := range status.Checks {
		if !check.Healthy {
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(code, status)
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	for _, check := range s.run(ctx) {
		if !check.Healthy {
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	c.String(http.StatusOK, "ready")
}

func (s *Server) handleLive(c *gin.Context) {
	c.String(http.StatusOK, "alive")
}
