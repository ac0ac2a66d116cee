package middleware

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/Shreshtthh/MetaScore/utils"
)

const (
	// ContextAddressKey stores the signed-in wallet address (common.Address).
	ContextAddressKey = "address"
	// ContextTokenKey stores the raw bearer token for logout.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request carries a valid, unrevoked wallet session JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !authenticate(ctx) {
			return
		}
		ctx.Next()
	}
}

// authenticate validates the session and stores the caller. On failure it
// has already written the error response and aborted.
func authenticate(ctx *gin.Context) bool {
	tokenString, ok := bearerToken(ctx)
	if !ok {
		return false
	}

	if utils.IsTokenBlacklisted(tokenString) {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
		ctx.Abort()
		return false
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil || !common.IsHexAddress(claims.Address) {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		ctx.Abort()
		return false
	}

	ctx.Set(ContextAddressKey, common.HexToAddress(claims.Address))
	ctx.Set(ContextTokenKey, tokenString)
	return true
}

// CallerAddress returns the authenticated address set by AuthRequired.
func CallerAddress(ctx *gin.Context) (common.Address, bool) {
	v, ok := ctx.Get(ContextAddressKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}

func bearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
		ctx.Abort()
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
		ctx.Abort()
		return "", false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
		ctx.Abort()
		return "", false
	}
	return tokenString, true
}
