package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"echoloop/internal/domain"
)

// Ingester runs one ingestion pass on demand.
type Ingester interface {
	Ingest(ctx context.Context) ([]domain.MessageWithSummary, error)
}

// SummaryReader is the read/update slice of the summary store the API
// needs.
type SummaryReader interface {
	ListWithMessages(ctx context.Context, offset, limit int) ([]domain.MessageWithSummary, error)
	MarkSeen(ctx context.Context, summaryID int64) error
}

type Handler struct {
	ingester  Ingester
	summaries SummaryReader
	logger    *slog.Logger
}

func NewHandler(ingester Ingester, summaries SummaryReader, logger *slog.Logger) *Handler {
	return &Handler{
		ingester:  ingester,
		summaries: summaries,
		logger:    logger.With("component", "api"),
	}
}

// ListSummaries handles GET /api/v1/summaries?skip=&limit=.
func (h *Handler) ListSummaries(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	items, err := h.summaries.ListWithMessages(c.Request.Context(), skip, limit)
	if err != nil {
		h.logger.Error("list summaries failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}

	c.JSON(http.StatusOK, items)
}

// Refresh handles POST /api/v1/refresh: one synchronous pipeline run.
func (h *Handler) Refresh(c *gin.Context) {
	results, err := h.ingester.Ingest(c.Request.Context())
	if err != nil {
		h.logger.Error("ingestion run failed", "error", err, "processed", len(results))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "ingestion failed",
			"processed": len(results),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   fmt.Sprintf("Processed %d new emails", len(results)),
		"summaries": results,
	})
}

// MarkSeen handles PUT /api/v1/summaries/:id/seen.
func (h *Handler) MarkSeen(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid summary id"})
		return
	}

	if err := h.summaries.MarkSeen(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
			return
		}
		h.logger.Error("mark seen failed", "summary_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
