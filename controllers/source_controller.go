package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

// SourceController manages verified activity sources.
type SourceController struct {
	core *services.Core
}

// NewSourceController creates a new SourceController instance.
func NewSourceController(core *services.Core) *SourceController {
	return &SourceController{core: core}
}

type verifyRequest struct {
	Category string `json:"category" binding:"required"`
	Points   uint64 `json:"points"`
}

type verifyBatchRequest struct {
	Sources    []string `json:"sources"`
	Categories []string `json:"categories"`
	Points     []uint64 `json:"points"`
}

// List returns every verified source.
func (s *SourceController) List(ctx *gin.Context) {
	rows, err := s.core.Tracker.ListSources(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": rows})
}

// Get returns one source's registration. Unverified sources answer verified=false.
func (s *SourceController) Get(ctx *gin.Context) {
	addr, ok := paramAddress(ctx, "address")
	if !ok {
		return
	}
	src, err := s.core.Tracker.Source(ctx.Request.Context(), addr)
	if errors.Is(err, scoring.ErrSourceNotVerified) {
		utils.Success(ctx, gin.H{"address": addr.Hex(), "verified": false})
		return
	}
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, src)
}

// Verify registers a single source. Owner only.
func (s *SourceController) Verify(ctx *gin.Context) {
	addr, ok := paramAddress(ctx, "address")
	if !ok {
		return
	}
	var req verifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40014, "category and points are required")
		return
	}
	src, err := s.core.Tracker.Verify(ctx.Request.Context(), caller(ctx), addr, req.Category, req.Points)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, src)
}

// VerifyBatch registers parallel lists of sources atomically. Owner only.
func (s *SourceController) VerifyBatch(ctx *gin.Context) {
	var req verifyBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40015, "invalid request body")
		return
	}
	sources := make([]common.Address, len(req.Sources))
	for i, raw := range req.Sources {
		addr, err := scoring.ParseIdentity(strings.TrimSpace(raw))
		if err != nil {
			respondError(ctx, err)
			return
		}
		sources[i] = addr
	}
	if err := s.core.Tracker.VerifyBatch(ctx.Request.Context(), caller(ctx), sources, req.Categories, req.Points); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"verified": len(sources)})
}

// Revoke stops a source from reporting. Owner only.
func (s *SourceController) Revoke(ctx *gin.Context) {
	addr, ok := paramAddress(ctx, "address")
	if !ok {
		return
	}
	if err := s.core.Tracker.Revoke(ctx.Request.Context(), caller(ctx), addr); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"address": addr.Hex(), "verified": false})
}

// IssueKey creates a new API key for a source. The key is only shown once.
func (s *SourceController) IssueKey(ctx *gin.Context) {
	addr, ok := paramAddress(ctx, "address")
	if !ok {
		return
	}
	key, err := s.core.Tracker.IssueSourceKey(ctx.Request.Context(), caller(ctx), addr)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"address": addr.Hex(), "api_key": key})
}
