package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

// TrackerController manages the tracker allow-list.
type TrackerController struct {
	core *services.Core
}

// NewTrackerController creates a new TrackerController instance.
func NewTrackerController(core *services.Core) *TrackerController {
	return &TrackerController{core: core}
}

type authorizeRequest struct {
	Allowed *bool `json:"allowed" binding:"required"`
}

// List returns all allowed trackers and the activity tracker's own identity.
func (t *TrackerController) List(ctx *gin.Context) {
	rows, err := t.core.Gate.ListAuthorized(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"items":            rows,
		"owner":            t.core.Gate.Owner().Hex(),
		"tracker_identity": t.core.Tracker.Identity().Hex(),
	})
}

// Get reports whether an address is an allowed tracker.
func (t *TrackerController) Get(ctx *gin.Context) {
	addr, ok := paramAddress(ctx, "address")
	if !ok {
		return
	}
	allowed, err := t.core.Gate.IsAuthorized(ctx.Request.Context(), addr)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"address": addr.Hex(), "allowed": allowed})
}

// Authorize sets or clears the tracker flag. Owner only.
func (t *TrackerController) Authorize(ctx *gin.Context) {
	addr, ok := paramAddress(ctx, "address")
	if !ok {
		return
	}
	var req authorizeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, "allowed is required")
		return
	}
	if err := t.core.Gate.Authorize(ctx.Request.Context(), caller(ctx), addr, *req.Allowed); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"address": addr.Hex(), "allowed": *req.Allowed})
}
