// Package handler provides the HTTP handlers for the campaign engine:
// pipeline and outreach triggers, site and campaign management, engagement
// tracking endpoints, and health checks.
package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/gocampaign/internal/domain"
	"github.com/jonesrussell/gocampaign/internal/logger"
	"github.com/jonesrussell/gocampaign/internal/middleware"
	"github.com/jonesrussell/gocampaign/internal/tracking"
)

// uaHashLength is the number of hex characters kept from the user-agent
// hash. Enough to distinguish clients, never enough to reverse.
const uaHashLength = 12

// transparentGIF is a 1x1 transparent GIF, the pixel body.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackingHandler serves the open pixel and the click redirect.
type TrackingHandler struct {
	tracker *tracking.Tracker
	logger  logger.Logger
	maxAge  time.Duration
}

// NewTrackingHandler creates a TrackingHandler. maxAge bounds how old a
// signed link may be before it is treated as expired.
func NewTrackingHandler(tracker *tracking.Tracker, log logger.Logger, maxAge time.Duration) *TrackingHandler {
	return &TrackingHandler{
		tracker: tracker,
		logger:  log,
		maxAge:  maxAge,
	}
}

// HandleOpen handles GET /t/o/:id. It always answers with the pixel, whatever
// happened on the recording side: a broken image in a prospect's mail client
// is worse than a lost open, and an attacker probing signatures learns
// nothing from the response.
func (h *TrackingHandler) HandleOpen(c *gin.Context) {
	correlationID := c.Param("id")
	ts := c.Query("ts")
	sig := c.Query("sig")

	if middleware.IsBot(c) || h.expired(ts) {
		h.servePixel(c)
		return
	}

	err := h.tracker.RecordOpen(c.Request.Context(), correlationID, ts, sig, hashUA(c.Request.UserAgent()))
	if err != nil && !errors.Is(err, tracking.ErrBadSignature) && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Warn("Failed to record open",
			logger.String("correlation_id", correlationID),
			logger.Error(err),
		)
	}

	h.servePixel(c)
}

// HandleClick handles GET /t/c. The destination is part of the signed
// message, so a verified request is safe to redirect; a tampered one gets a
// 403 instead of an open redirect.
func (h *TrackingHandler) HandleClick(c *gin.Context) {
	correlationID := c.Query("cid")
	destination := c.Query("d")
	ts := c.Query("ts")
	sig := c.Query("sig")

	if correlationID == "" || destination == "" || ts == "" || sig == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required parameters (cid, d, ts, sig)"})
		return
	}

	if h.expired(ts) {
		c.JSON(http.StatusGone, gin.H{"error": "tracking link expired"})
		return
	}

	if middleware.IsBot(c) {
		// Verify without recording so scanners cannot inflate click counts,
		// but follow the link so link checkers see a working URL.
		if _, err := h.verifyOnly(correlationID, destination, ts, sig); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Redirect(http.StatusFound, destination)
		return
	}

	verified, err := h.tracker.RecordClick(
		c.Request.Context(), correlationID, destination, ts, sig, hashUA(c.Request.UserAgent()),
	)
	switch {
	case errors.Is(err, tracking.ErrBadSignature):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	case errors.Is(err, domain.ErrNotFound):
		// Signature checked out but the message is gone. Still redirect.
		verified = destination
	case err != nil:
		h.logger.Warn("Failed to record click",
			logger.String("correlation_id", correlationID),
			logger.Error(err),
		)
		verified = destination
	}

	c.Redirect(http.StatusFound, verified)
}

type statusRequest struct {
	CorrelationID string `json:"correlation_id" binding:"required"`
	Event         string `json:"event"          binding:"required"`
	Timestamp     string `json:"ts"             binding:"required"`
	Signature     string `json:"sig"            binding:"required"`
}

// HandleStatus handles POST /t/s, the mail provider's delivery-status
// callback. Callbacks are authenticated by the HMAC signature handed to the
// provider at send time, not by origin. A callback for a message that no
// longer exists is acknowledged so the provider stops retrying it.
func (h *TrackingHandler) HandleStatus(c *gin.Context) {
	var req statusRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status payload: " + bindErr.Error()})
		return
	}

	var err error
	switch tracking.StatusEvent(req.Event) {
	case tracking.StatusDelivered:
		err = h.tracker.RecordDelivered(c.Request.Context(), req.CorrelationID, req.Timestamp, req.Signature)
	case tracking.StatusBounced:
		err = h.tracker.RecordBounce(c.Request.Context(), req.CorrelationID, req.Timestamp, req.Signature)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event: " + req.Event})
		return
	}

	switch {
	case errors.Is(err, tracking.ErrBadSignature):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusOK, gin.H{"status": "skipped"})
	case err != nil:
		h.logger.Error("Failed to record delivery status",
			logger.String("correlation_id", req.CorrelationID),
			logger.String("event", req.Event),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record status"})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "recorded"})
	}
}

func (h *TrackingHandler) servePixel(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Data(http.StatusOK, "image/gif", transparentGIF)
}

// expired reports whether the signed timestamp is older than maxAge. An
// unparseable timestamp is not treated as expired; it will fail signature
// verification instead.
func (h *TrackingHandler) expired(ts string) bool {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	return time.Since(time.Unix(unix, 0)) > h.maxAge
}

func (h *TrackingHandler) verifyOnly(correlationID, destination, ts, sig string) (string, error) {
	// RecordClick with a background-free context would still write state, so
	// bot traffic goes through the signer alone.
	unix, _ := strconv.ParseInt(ts, 10, 64)
	params := tracking.ClickParams{
		CorrelationID: correlationID,
		Destination:   destination,
		Timestamp:     unix,
	}
	if !h.tracker.Signer().Verify(params.Message(), sig) {
		return "", tracking.ErrBadSignature
	}
	return destination, nil
}

func hashUA(ua string) string {
	if ua == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ua))
	return hex.EncodeToString(sum[:])[:uaHashLength]
}
