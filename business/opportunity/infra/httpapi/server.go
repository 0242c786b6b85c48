package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/fd1az/product-scout/internal/health"
	"github.com/fd1az/product-scout/internal/logger"
)

// Server hosts the dashboard API and, when given, the health routes.
type Server struct {
	port   int
	engine *gin.Engine
	log    logger.LoggerInterface
	server *http.Server
}

// NewServer builds the router: recovery, tracing, API and health routes.
func NewServer(port int, serviceName string, h *Handler, hs *health.Server, log logger.LoggerInterface) *Server {
	if log == nil {
		log = logger.NewDiscard()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware(serviceName))

	h.RegisterRoutes(engine)
	if hs != nil {
		hs.RegisterRoutes(engine)
	}

	return &Server{port: port, engine: engine, log: log}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves the API in the background.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(context.Background(), "dashboard api stopped", "error", err)
		}
	}()

	s.log.Info(ctx, "dashboard api listening", "port", s.port)
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
