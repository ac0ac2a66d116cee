package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shreshtthh/MetaScore/middleware"
	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

// ActivityController receives activity reports from verified sources.
type ActivityController struct {
	core *services.Core
}

// NewActivityController creates a new ActivityController instance.
func NewActivityController(core *services.Core) *ActivityController {
	return &ActivityController{core: core}
}

type trackRequest struct {
	User   string `json:"user" binding:"required"`
	Action string `json:"action"`
}

// Track credits the user with the reporting source's category and points.
func (a *ActivityController) Track(ctx *gin.Context) {
	source, ok := middleware.SourceAddress(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "source not identified")
		return
	}
	var req trackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40016, "user is required")
		return
	}
	user, err := scoring.ParseIdentity(strings.TrimSpace(req.User))
	if err != nil {
		respondError(ctx, err)
		return
	}
	act, rec, err := a.core.Tracker.Track(ctx.Request.Context(), source, user, utils.SanitizeText(req.Action))
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateRankings()
	tiers := a.core.Ledger.Tiers()
	utils.Success(ctx, gin.H{
		"activity":    act,
		"record_id":   rec.ID,
		"total_score": rec.TotalScore,
		"tier":        rec.CurrentTier,
		"tier_name":   tiers.Tier(rec.CurrentTier).Name,
		"streak_days": rec.StreakDays,
	})
}
