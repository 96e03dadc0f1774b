package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rmadesk/rma-qa/internal/buildinfo"
	"github.com/rmadesk/rma-qa/internal/config"
	domerrors "github.com/rmadesk/rma-qa/internal/errors"
	"github.com/rmadesk/rma-qa/internal/intent"
	"github.com/rmadesk/rma-qa/internal/storage"
)

const defaultHistoryLimit = 50

// readinessCheckTimeout bounds the database ping of /readyz.
const readinessCheckTimeout = 3 * time.Second

type askRequest struct {
	Question string `json:"question"`
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// respondError writes a JSON error and counts it by type and route.
func (a *Application) respondError(c *gin.Context, status int, errorType, message string) {
	a.metrics.RecordHTTPError(errorType, c.FullPath())
	c.AbortWithStatusJSON(status, errorBody{
		Error:     message,
		RequestID: c.Writer.Header().Get(requestIDHeader),
	})
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessCheckTimeout)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	if !a.store.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "dataset not loaded",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"dataset":  a.store.Info(),
		"features": gin.H{"llm_fallback": a.processor.FallbackEnabled()},
		"clients":  a.llmLimiter.ActiveCount(),
		"build":    buildinfo.Fields(),
	})
}

// handleAsk answers one question: POST /api/ask {"question": "..."}.
func (a *Application) handleAsk(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.respondError(c, http.StatusBadRequest, "bad_request", "request body must be JSON with a question field")
		return
	}

	reply, err := a.processor.Ask(c.Request.Context(), req.Question, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, domerrors.ErrEmptyQuestion), domerrors.IsInvalidInput(err):
			a.respondError(c, http.StatusBadRequest, "invalid_question", err.Error())
		case domerrors.IsDatasetNotLoaded(err):
			c.Header("Retry-After", "30")
			a.respondError(c, http.StatusServiceUnavailable, "dataset_unavailable", domerrors.GetUserMessage(err))
		case errors.Is(err, context.DeadlineExceeded):
			a.respondError(c, http.StatusGatewayTimeout, "timeout", "request timed out")
		default:
			a.logger.WithError(err).Error("Ask failed")
			a.respondError(c, http.StatusInternalServerError, "internal", domerrors.GetUserMessage(err))
		}
		return
	}

	c.JSON(http.StatusOK, reply)
}

// handleHistory lists recent questions: GET /api/history?limit=&intent=&q=.
func (a *Application) handleHistory(c *gin.Context) {
	filter := storage.HistoryFilter{
		Limit:  defaultHistoryLimit,
		Search: strings.TrimSpace(c.Query("q")),
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.respondError(c, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		filter.Limit = min(n, storage.MaxHistoryLimit)
	}

	if raw := c.Query("intent"); raw != "" {
		kind, ok := intent.ParseKind(raw)
		if !ok {
			a.respondError(c, http.StatusBadRequest, "unknown_intent", domerrors.ErrUnknownIntent.Error()+": "+raw)
			return
		}
		filter.Intent = kind.String()
	}

	records, err := a.db.RecentQuestions(c.Request.Context(), filter)
	if err != nil {
		a.logger.WithError(err).Error("History query failed")
		a.respondError(c, http.StatusInternalServerError, "internal", "history unavailable")
		return
	}
	if records == nil {
		records = []storage.QuestionRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(records),
		"questions": records,
	})
}

// handleIntents reports question counts per intent and the intent catalog:
// GET /api/intents?since=24h.
func (a *Application) handleIntents(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			a.respondError(c, http.StatusBadRequest, "bad_request", "since must be a positive duration such as 24h")
			return
		}
		since = time.Now().Add(-d)
	}

	stats, err := a.db.IntentStats(c.Request.Context(), since)
	if err != nil {
		a.logger.WithError(err).Error("Intent stats query failed")
		a.respondError(c, http.StatusInternalServerError, "internal", "intent statistics unavailable")
		return
	}
	if stats == nil {
		stats = []storage.IntentStat{}
	}

	c.JSON(http.StatusOK, gin.H{
		"intents":          stats,
		"catalog":          intent.AllKinds(),
		"fallback_enabled": a.processor.FallbackEnabled(),
	})
}

// handleReload re-reads the dataset: POST /api/dataset/reload.
func (a *Application) handleReload(c *gin.Context) {
	// A reload outlives a dropped connection; the swap is atomic anyway.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), config.RequestProcessing)
	defer cancel()

	info, err := a.reloadDataset(ctx, "api")
	if err != nil {
		if domerrors.IsInvalidInput(err) {
			a.respondError(c, http.StatusBadRequest, "reload_not_configured", err.Error())
			return
		}
		a.respondError(c, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "reloaded",
		"dataset": info,
	})
}
