package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/gocampaign/internal/domain"
)

// CampaignStore defines the site and campaign persistence the management
// endpoints need.
type CampaignStore interface {
	CreateSite(ctx context.Context, siteDomain, name string) (*domain.Site, error)
	GetSite(ctx context.Context, id uuid.UUID) (*domain.Site, error)
	CreateCampaign(ctx context.Context, campaign *domain.OutreachCampaign) error
	GetCampaign(ctx context.Context, id uuid.UUID) (*domain.OutreachCampaign, error)
	EnsureTarget(ctx context.Context, campaignID uuid.UUID, targetDomain, email, contactName string) (*domain.OutreachTarget, error)
}

// CampaignHandler manages sites, campaigns, and campaign targets.
type CampaignHandler struct {
	store CampaignStore
}

// NewCampaignHandler creates a CampaignHandler.
func NewCampaignHandler(store CampaignStore) *CampaignHandler {
	return &CampaignHandler{store: store}
}

type createSiteRequest struct {
	Domain string `json:"domain" binding:"required"`
	Name   string `json:"name"`
}

// CreateSite handles POST /api/v1/sites.
func (h *CampaignHandler) CreateSite(c *gin.Context) {
	var req createSiteRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return
	}

	site, createErr := h.store.CreateSite(c.Request.Context(), req.Domain, req.Name)
	if createErr != nil {
		if errors.Is(createErr, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "site already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": createErr.Error()})
		return
	}

	c.JSON(http.StatusCreated, site)
}

// GetSite handles GET /api/v1/sites/:id.
func (h *CampaignHandler) GetSite(c *gin.Context) {
	id, parseErr := uuid.Parse(c.Param("id"))
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site id"})
		return
	}

	site, getErr := h.store.GetSite(c.Request.Context(), id)
	if getErr != nil {
		if errors.Is(getErr, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "site not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": getErr.Error()})
		return
	}

	c.JSON(http.StatusOK, site)
}

type createCampaignRequest struct {
	SiteID   uuid.UUID `json:"site_id"  binding:"required"`
	Name     string    `json:"name"     binding:"required"`
	Subject  string    `json:"subject"  binding:"required"`
	BodyTmpl string    `json:"body_tmpl" binding:"required"`
	Active   bool      `json:"active"`
}

// CreateCampaign handles POST /api/v1/campaigns.
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req createCampaignRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return
	}

	campaign := &domain.OutreachCampaign{
		SiteID:   req.SiteID,
		Name:     req.Name,
		Subject:  req.Subject,
		BodyTmpl: req.BodyTmpl,
		Active:   req.Active,
	}
	if createErr := h.store.CreateCampaign(c.Request.Context(), campaign); createErr != nil {
		if errors.Is(createErr, domain.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "campaign already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": createErr.Error()})
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

// GetCampaign handles GET /api/v1/campaigns/:id.
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, parseErr := uuid.Parse(c.Param("id"))
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	campaign, getErr := h.store.GetCampaign(c.Request.Context(), id)
	if getErr != nil {
		if errors.Is(getErr, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": getErr.Error()})
		return
	}

	c.JSON(http.StatusOK, campaign)
}

type addTargetRequest struct {
	Domain      string `json:"domain" binding:"required"`
	Email       string `json:"email"  binding:"required"`
	ContactName string `json:"contact_name"`
}

// AddTarget handles POST /api/v1/campaigns/:id/targets. Adding the same
// prospect domain twice returns the existing target.
func (h *CampaignHandler) AddTarget(c *gin.Context) {
	campaignID, parseErr := uuid.Parse(c.Param("id"))
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return
	}

	var req addTargetRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return
	}

	target, ensureErr := h.store.EnsureTarget(c.Request.Context(), campaignID, req.Domain, req.Email, req.ContactName)
	if ensureErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ensureErr.Error()})
		return
	}

	c.JSON(http.StatusCreated, target)
}
