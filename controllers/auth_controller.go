package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Shreshtthh/MetaScore/config"
	"github.com/Shreshtthh/MetaScore/middleware"
	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

// AuthController handles wallet sign-in: nonce issue, signature login, logout.
type AuthController struct {
	core *services.Core
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(core *services.Core) *AuthController {
	return &AuthController{core: core}
}

type loginRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// Nonce issues a single-use nonce and the exact message the wallet must sign.
func (a *AuthController) Nonce(ctx *gin.Context) {
	addr, err := scoring.ParseIdentity(strings.TrimSpace(ctx.Query("address")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ttl := time.Duration(config.Get().NonceTTLSeconds) * time.Second
	nonce := utils.IssueNonce(addr.Hex(), ttl)
	utils.Success(ctx, gin.H{
		"address":    addr.Hex(),
		"nonce":      nonce,
		"message":    utils.LoginMessage(addr, nonce),
		"expires_in": int(ttl.Seconds()),
	})
}

// Login verifies a personal_sign signature over the issued message and returns a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "address and signature are required")
		return
	}
	addr, err := scoring.ParseIdentity(strings.TrimSpace(req.Address))
	if err != nil {
		respondError(ctx, err)
		return
	}
	nonce, ok := utils.TakeNonce(addr.Hex())
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40120, "nonce missing or expired")
		return
	}
	if !utils.VerifySignature(addr, utils.LoginMessage(addr, nonce), strings.TrimSpace(req.Signature)) {
		utils.Error(ctx, http.StatusUnauthorized, 40121, "signature does not match address")
		return
	}

	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(addr.Hex(), ttl)
	if err != nil {
		utils.Logger.Error("token generation failed", zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to generate token")
		return
	}
	utils.Logger.Info("wallet signed in", zap.String("address", addr.Hex()))
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": time.Now().Add(ttl).Unix(),
		"address":    addr.Hex(),
		"is_owner":   addr == a.core.Gate.Owner(),
	})
}

// Logout revokes the current token until it would have expired.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(token)
	if err == nil && claims.ExpiresAt != nil {
		utils.BlacklistToken(token, claims.ExpiresAt.Time)
	}
	utils.Success(ctx, gin.H{"logged_out": true})
}

// Me describes the signed-in identity's roles and record.
func (a *AuthController) Me(ctx *gin.Context) {
	addr := caller(ctx)
	reqCtx := ctx.Request.Context()

	isTracker, err := a.core.Gate.IsAuthorized(reqCtx, addr)
	if err != nil {
		respondError(ctx, err)
		return
	}
	isSource, err := a.core.Tracker.IsVerified(reqCtx, addr)
	if err != nil {
		respondError(ctx, err)
		return
	}
	recordID, err := a.core.Ledger.RecordOf(reqCtx, addr)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{
		"address":    addr.Hex(),
		"is_owner":   addr == a.core.Gate.Owner(),
		"is_tracker": isTracker,
		"is_source":  isSource,
		"record_id":  recordID,
	})
}
