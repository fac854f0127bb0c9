package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hirewire/warden/internal/api/middleware"
	"github.com/hirewire/warden/internal/models"
	"github.com/hirewire/warden/internal/services"
)

// SecurityHandler exposes the management surface over the block registry,
// alert workflow, event log and dashboard aggregator.
type SecurityHandler struct {
	blocks    *services.BlockService
	events    *services.EventService
	alerts    *services.AlertService
	dashboard *services.DashboardService
}

// NewSecurityHandler creates a SecurityHandler.
func NewSecurityHandler(blocks *services.BlockService, events *services.EventService,
	alerts *services.AlertService, dashboard *services.DashboardService) *SecurityHandler {
	return &SecurityHandler{blocks: blocks, events: events, alerts: alerts, dashboard: dashboard}
}

// ActionRequest is one admin management action against a target.
type ActionRequest struct {
	Action        string `json:"action" binding:"required"`
	Target        string `json:"target" binding:"required"`
	Reason        string `json:"reason"`
	DurationHours int    `json:"duration_hours"`
}

const defaultBlockHours = 24

// PostAction dispatches a management action: block/unblock an IP, quarantine/
// unquarantine a user, acknowledge/dismiss an alert.
func (h *SecurityHandler) PostAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.DurationHours <= 0 {
		req.DurationHours = defaultBlockHours
	}
	adminID := c.GetString(middleware.AdminIDKey)

	switch req.Action {
	case "block_ip":
		h.block(c, models.BlockTypeIP, req)
	case "quarantine_user":
		h.block(c, models.BlockTypeUser, req)
	case "unblock_ip", "unquarantine_user":
		count, err := h.blocks.Unblock(req.Target)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unblock failed"})
			return
		}
		// Unblocking a target with no active entries is a no-op success.
		c.JSON(http.StatusOK, gin.H{"status": "ok", "deactivated": count})
	case "acknowledge_alert":
		alert, err := h.alerts.Acknowledge(req.Target, adminID)
		if h.alertError(c, err) {
			return
		}
		c.JSON(http.StatusOK, alert)
	case "dismiss_alert":
		alert, err := h.alerts.Dismiss(req.Target, adminID)
		if h.alertError(c, err) {
			return
		}
		c.JSON(http.StatusOK, alert)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}

func (h *SecurityHandler) block(c *gin.Context, blockType models.BlockType, req ActionRequest) {
	entry, err := h.blocks.Block(blockType, req.Target, req.Reason, req.DurationHours)
	if err != nil {
		if errors.Is(err, services.ErrBlockValueEmpty) || errors.Is(err, services.ErrBlockDuration) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "block failed"})
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *SecurityHandler) alertError(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrAlertNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
	case errors.Is(err, services.ErrAlertDismissed):
		c.JSON(http.StatusConflict, gin.H{"error": "alert already dismissed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "alert update failed"})
	}
	return true
}

// GetDashboard returns the aggregated security dashboard.
func (h *SecurityHandler) GetDashboard(c *gin.Context) {
	dashboard, err := h.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard aggregation failed"})
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// ListEvents returns recent security events, newest first.
func (h *SecurityHandler) ListEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	events, err := h.events.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ListAlerts returns alerts, open ones only unless all=true.
func (h *SecurityHandler) ListAlerts(c *gin.Context) {
	openOnly := c.DefaultQuery("all", "false") != "true"
	alerts, err := h.alerts.List(openOnly, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "alert query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// ListBlocks returns block entries; active=true filters to entries in effect.
func (h *SecurityHandler) ListBlocks(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "false") == "true"
	entries, err := h.blocks.List(activeOnly, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "block query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": entries})
}
