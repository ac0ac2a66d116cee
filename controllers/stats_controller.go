package controllers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

const (
	cachePrefix = "metascore:rank:"
	statsTTL    = 30 * time.Second
)

// StatsController serves the leaderboard, dashboard counters and service info.
type StatsController struct {
	core *services.Core
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(core *services.Core) *StatsController {
	return &StatsController{core: core}
}

// Leaderboard returns records ranked by total score.
func (s *StatsController) Leaderboard(ctx *gin.Context) {
	limit := services.LeaderboardLimit(queryLimit(ctx))
	key := cachePrefix + "leaderboard:" + strconv.Itoa(limit)

	var cached []services.LeaderboardEntry
	if utils.CacheGetJSON(key, &cached) {
		utils.Success(ctx, gin.H{"items": cached})
		return
	}
	entries, err := s.core.Stats.Leaderboard(ctx.Request.Context(), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(key, entries, statsTTL)
	utils.Success(ctx, gin.H{"items": entries})
}

// GetStats returns aggregate counters.
func (s *StatsController) GetStats(ctx *gin.Context) {
	key := cachePrefix + "stats"

	var cached services.DashboardStats
	if utils.CacheGetJSON(key, &cached) {
		utils.Success(ctx, cached)
		return
	}
	st, err := s.core.Stats.Dashboard(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.CacheSetJSON(key, st, statsTTL)
	utils.Success(ctx, st)
}

// Info describes the static configuration: categories, tiers, roles, streak rule.
func (s *StatsController) Info(ctx *gin.Context) {
	categories := make([]gin.H, len(scoring.Categories))
	for i, c := range scoring.Categories {
		categories[i] = gin.H{"index": i, "key": string(c), "label": c.Label()}
	}
	utils.Success(ctx, gin.H{
		"name":             "MetaScore",
		"categories":       categories,
		"tiers":            s.core.Ledger.Tiers().Tiers(),
		"streak_policy":    string(s.core.Ledger.StreakPolicy()),
		"owner":            s.core.Gate.Owner().Hex(),
		"tracker_identity": s.core.Tracker.Identity().Hex(),
	})
}
