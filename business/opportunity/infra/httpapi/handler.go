// Package httpapi serves the dashboard JSON API.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	"github.com/fd1az/product-scout/internal/apperror"
)

const (
	defaultLimit = 20
	maxLimit     = 200
	maxRankItems = 100
)

// Scout is what the API needs from the opportunity scanner.
type Scout interface {
	Latest() *domain.Snapshot
	Analyze(ctx context.Context, item domain.WatchItem) (*domain.Verdict, error)
	Evaluate(ctx context.Context, items []domain.WatchItem) ([]domain.Opportunity, error)
}

type Handler struct {
	tracer trace.Tracer
	scout  Scout
}

func NewHandler(tracer trace.Tracer, scout Scout) *Handler {
	return &Handler{tracer: tracer, scout: scout}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/api/opportunities", h.GetOpportunities)
	r.GET("/api/summary", h.GetSummary)
	r.POST("/api/analyze", h.Analyze)
	r.POST("/api/rank", h.Rank)
}

type itemRequest struct {
	Keyword     string           `json:"keyword"`
	ProductName string           `json:"product_name"`
	Category    string           `json:"category"`
	BasePrice   decimal.Decimal  `json:"base_price"`
	ResalePrice *decimal.Decimal `json:"resale_price"`
}

// item converts the request. A blank keyword falls back to the product name.
func (r itemRequest) item() domain.WatchItem {
	name := strings.TrimSpace(r.ProductName)
	keyword := strings.TrimSpace(r.Keyword)
	if keyword == "" {
		keyword = name
	}
	return domain.WatchItem{
		Keyword:     keyword,
		ProductName: name,
		Category:    strings.TrimSpace(r.Category),
		BasePrice:   r.BasePrice,
		ResalePrice: r.ResalePrice,
	}
}

type rankRequest struct {
	Items []itemRequest `json:"items"`
}

// GetOpportunities returns the ranked opportunities of the latest scan.
func (h *Handler) GetOpportunities(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-opportunities")
	defer span.End()

	limit := defaultLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}

	snap := h.scout.Latest()
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"scan": 0, "opportunities": []domain.Opportunity{}})
		return
	}
	span.SetAttributes(attribute.Int64("scan", snap.Scan))

	c.JSON(http.StatusOK, gin.H{
		"scan":          snap.Scan,
		"scanned_at":    snap.ScannedAt,
		"evaluated":     snap.Evaluated,
		"opportunities": snap.Top(limit),
	})
}

// GetSummary returns the summary of the latest scan.
func (h *Handler) GetSummary(c *gin.Context) {
	snap := h.scout.Latest()
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"scan": 0, "summary": domain.Summarize(nil)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"scan":       snap.Scan,
		"scanned_at": snap.ScannedAt,
		"summary":    snap.Summary,
		"sources":    snap.Sources,
	})
}

// Analyze evaluates one product and reports whether it passes the gate.
func (h *Handler) Analyze(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	item := req.item()
	if item.Keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword or product_name is required"})
		return
	}
	span.SetAttributes(attribute.String("keyword", item.Keyword))

	verdict, err := h.scout.Analyze(ctx, item)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// Rank evaluates a batch of products and returns the ranked survivors.
func (h *Handler) Rank(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.rank")
	defer span.End()

	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Items) == 0 || len(req.Items) > maxRankItems {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items must contain between 1 and 100 products"})
		return
	}
	span.SetAttributes(attribute.Int("items", len(req.Items)))

	items := make([]domain.WatchItem, len(req.Items))
	for i, r := range req.Items {
		items[i] = r.item()
		if items[i].Keyword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("items[%d]: keyword or product_name is required", i)})
			return
		}
	}

	opps, err := h.scout.Evaluate(ctx, items)
	if err != nil {
		span.RecordError(err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"opportunities": opps,
		"summary":       domain.Summarize(opps),
	})
}

func writeError(c *gin.Context, err error) {
	status, body := apperror.HTTPResponse(c.Request.Context(), err)
	c.JSON(status, body)
}
