package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

// RecordController exposes achievement records and their score ledger.
type RecordController struct {
	core *services.Core
}

// NewRecordController creates a new RecordController instance.
func NewRecordController(core *services.Core) *RecordController {
	return &RecordController{core: core}
}

type mintRequest struct {
	Address string `json:"address"`
}

type scoreRequest struct {
	Category string `json:"category" binding:"required"`
	Delta    uint64 `json:"delta"`
}

// RecordView is the JSON shape of a record with its derived fields.
type RecordView struct {
	ID             uint64            `json:"id"`
	Owner          string            `json:"owner"`
	TotalScore     uint64            `json:"total_score"`
	StreakDays     uint64            `json:"streak_days"`
	LastActivityAt int64             `json:"last_activity_at"`
	Tier           int               `json:"tier"`
	TierName       string            `json:"tier_name"`
	CategoryScores map[string]uint64 `json:"category_scores"`
	Progress       scoring.Progress  `json:"progress"`
}

func (r *RecordController) view(ctx *gin.Context, rec *models.Record) (*RecordView, error) {
	scores, err := r.core.Ledger.CategoryScores(ctx.Request.Context(), rec.ID)
	if err != nil {
		return nil, err
	}
	tiers := r.core.Ledger.Tiers()
	return &RecordView{
		ID:             rec.ID,
		Owner:          rec.Owner,
		TotalScore:     rec.TotalScore,
		StreakDays:     rec.StreakDays,
		LastActivityAt: rec.LastActivityAt,
		Tier:           rec.CurrentTier,
		TierName:       tiers.Tier(rec.CurrentTier).Name,
		CategoryScores: scores.Map(),
		Progress:       tiers.Progress(rec.TotalScore),
	}, nil
}

func (r *RecordController) respondRecord(ctx *gin.Context, rec *models.Record) {
	v, err := r.view(ctx, rec)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, v)
}

// Mint creates a record for the given address, or for the caller when omitted.
func (r *RecordController) Mint(ctx *gin.Context) {
	var req mintRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40011, "invalid request body")
			return
		}
	}
	to := caller(ctx)
	if strings.TrimSpace(req.Address) != "" {
		addr, err := scoring.ParseIdentity(strings.TrimSpace(req.Address))
		if err != nil {
			respondError(ctx, err)
			return
		}
		to = addr
	}
	rec, err := r.core.Ledger.Mint(ctx.Request.Context(), to)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateRankings()
	r.respondRecord(ctx, rec)
}

// ByOwner looks up the record owned by an address.
func (r *RecordController) ByOwner(ctx *gin.Context) {
	addr, ok := paramAddress(ctx, "address")
	if !ok {
		return
	}
	id, err := r.core.Ledger.RecordOf(ctx.Request.Context(), addr)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if id == 0 {
		respondError(ctx, scoring.ErrRecordNotFound)
		return
	}
	rec, err := r.core.Ledger.Record(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	r.respondRecord(ctx, rec)
}

// Get returns one record.
func (r *RecordController) Get(ctx *gin.Context) {
	id, ok := paramRecordID(ctx)
	if !ok {
		return
	}
	rec, err := r.core.Ledger.Record(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	r.respondRecord(ctx, rec)
}

// Categories returns all four category buckets.
func (r *RecordController) Categories(ctx *gin.Context) {
	id, ok := paramRecordID(ctx)
	if !ok {
		return
	}
	scores, err := r.core.Ledger.CategoryScores(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, scores.Map())
}

// Category returns one bucket.
func (r *RecordController) Category(ctx *gin.Context) {
	id, ok := paramRecordID(ctx)
	if !ok {
		return
	}
	category := ctx.Param("category")
	score, err := r.core.Ledger.CategoryScore(ctx.Request.Context(), id, category)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"record_id": id, "category": category, "score": score})
}

// Metadata returns the record's attribute document.
func (r *RecordController) Metadata(ctx *gin.Context) {
	id, ok := paramRecordID(ctx)
	if !ok {
		return
	}
	md, err := r.core.Ledger.Metadata(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, md)
}

// TokenURI returns the metadata as a base64 data URI.
func (r *RecordController) TokenURI(ctx *gin.Context) {
	id, ok := paramRecordID(ctx)
	if !ok {
		return
	}
	uri, err := r.core.Ledger.TokenURI(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"record_id": id, "token_uri": uri})
}

// Activities lists the newest tracked activities of a record.
func (r *RecordController) Activities(ctx *gin.Context) {
	id, ok := paramRecordID(ctx)
	if !ok {
		return
	}
	items, err := r.core.Tracker.Activities(ctx.Request.Context(), id, queryLimit(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": items})
}

// UpdateScore credits a category directly. Callers must be authorized trackers or the owner.
func (r *RecordController) UpdateScore(ctx *gin.Context) {
	id, ok := paramRecordID(ctx)
	if !ok {
		return
	}
	var req scoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, "category and delta are required")
		return
	}
	rec, err := r.core.Ledger.UpdateScore(ctx.Request.Context(), caller(ctx), id, req.Category, req.Delta)
	if err != nil {
		respondError(ctx, err)
		return
	}
	invalidateRankings()
	r.respondRecord(ctx, rec)
}

// TransferDisabled answers every transfer-style operation. Records are soulbound.
func (r *RecordController) TransferDisabled(ctx *gin.Context) {
	respondError(ctx, scoring.ErrTransfersDisabled)
}
