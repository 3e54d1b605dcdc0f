package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/njpastrone/industry-trend-tracker/internal/pipeline"
)

// runLockTTL caps how long a stuck run can block new triggers.
const runLockTTL = 30 * time.Minute

// PipelineRunner is the trigger surface exposed over HTTP.
type PipelineRunner interface {
	Run(ctx context.Context) pipeline.RunSummary
	RunFinancials(ctx context.Context) (int, error)
}

// RunState guards against overlapping runs and caches the last summary.
// A nil RunState disables both behaviors.
type RunState interface {
	TryLock(ttl time.Duration) (bool, error)
	Unlock() error
	LastRun() (json.RawMessage, error)
}

type PipelineHandler struct {
	runner PipelineRunner
	state  RunState
}

func NewPipelineHandler(runner PipelineRunner, state RunState) *PipelineHandler {
	return &PipelineHandler{runner: runner, state: state}
}

// TriggerRun executes a full pipeline run synchronously and returns its
// summary. With Redis configured, concurrent triggers get a 409.
func (h *PipelineHandler) TriggerRun(c *gin.Context) {
	if h.state != nil {
		acquired, err := h.state.TryLock(runLockTTL)
		if err != nil {
			slog.Warn("run lock unavailable, proceeding without it", "error", err)
		} else if !acquired {
			c.JSON(http.StatusConflict, gin.H{"error": "Pipeline run already in progress"})
			return
		} else {
			defer func() {
				if err := h.state.Unlock(); err != nil {
					slog.Warn("releasing run lock failed", "error", err)
				}
			}()
		}
	}

	summary := h.runner.Run(c.Request.Context())
	c.JSON(http.StatusOK, summary)
}

// TriggerFinancials refreshes ETF performance without a full run.
func (h *PipelineHandler) TriggerFinancials(c *gin.Context) {
	count, err := h.runner.RunFinancials(c.Request.Context())
	if err != nil {
		slog.Error("financials refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, FinancialsRefreshResponse{FinancialsUpdated: count})
}

// GetLastRun serves the cached summary of the most recent run.
func (h *PipelineHandler) GetLastRun(c *gin.Context) {
	if h.state == nil {
		c.JSON(http.StatusOK, gin.H{"last_run": nil})
		return
	}

	raw, err := h.state.LastRun()
	if err != nil {
		slog.Error("error fetching last run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cache error"})
		return
	}
	if raw == nil {
		c.JSON(http.StatusOK, gin.H{"last_run": nil})
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}
