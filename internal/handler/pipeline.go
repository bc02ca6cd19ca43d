package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/pipeline"
)

// Runner defines the orchestration operations the handler triggers.
type Runner interface {
	Run(ctx context.Context, req pipeline.RunRequest) (*domain.PipelineReport, error)
	RunOutreach(ctx context.Context, campaignID uuid.UUID) (*domain.OutreachReport, error)
}

// PipelineHandler triggers pipeline and outreach runs over HTTP.
type PipelineHandler struct {
	runner Runner
}

// NewPipelineHandler creates a PipelineHandler.
func NewPipelineHandler(runner Runner) *PipelineHandler {
	return &PipelineHandler{runner: runner}
}

// RunPipeline handles POST /api/v1/pipeline/run. Item failures inside the run
// do not fail the request: the report carries them, and the caller decides
// what a partial result means.
func (h *PipelineHandler) RunPipeline(c *gin.Context) {
	var req pipeline.RunRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return
	}
	if req.SiteID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "site_id is required"})
		return
	}

	report, runErr := h.runner.Run(c.Request.Context(), req)
	if runErr != nil {
		if errors.Is(runErr, domain.ErrSiteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": runErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": runErr.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// RunOutreach handles POST /api/v1/outreach/:campaign_id/run.
func (h *PipelineHandler) RunOutreach(c *gin.Context) {
	campaignID, parseErr := uuid.Parse(c.Param("campaign_id"))
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	report, runErr := h.runner.RunOutreach(c.Request.Context(), campaignID)
	if runErr != nil {
		switch {
		case errors.Is(runErr, domain.ErrCampaignNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": runErr.Error()})
		case errors.Is(runErr, pipeline.ErrCampaignInactive):
			c.JSON(http.StatusConflict, gin.H{"error": runErr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": runErr.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, report)
}
