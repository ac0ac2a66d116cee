package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/Shreshtthh/MetaScore/utils"
)

const (
	// ContextSourceKey stores the reporting source address (common.Address).
	ContextSourceKey = "source"

	headerSourceAddress = "X-Source-Address"
	headerSourceKey     = "X-Source-Key"
)

// SourceAuthenticator checks an API key issued to a verified source.
type SourceAuthenticator interface {
	AuthenticateSource(ctx context.Context, source common.Address, key string) bool
}

// SourceRequired identifies the reporting source. A source proves itself
// either with X-Source-Address plus X-Source-Key, or with a wallet session
// whose address is the source itself.
func SourceRequired(auth SourceAuthenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := strings.TrimSpace(ctx.GetHeader(headerSourceKey))
		if key == "" {
			if !authenticate(ctx) {
				return
			}
			addr, _ := CallerAddress(ctx)
			ctx.Set(ContextSourceKey, addr)
			ctx.Next()
			return
		}

		raw := strings.TrimSpace(ctx.GetHeader(headerSourceAddress))
		if !common.IsHexAddress(raw) {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "missing or invalid source address")
			ctx.Abort()
			return
		}
		source := common.HexToAddress(raw)
		if !auth.AuthenticateSource(ctx.Request.Context(), source, key) {
			utils.Error(ctx, http.StatusUnauthorized, 40111, "invalid source key")
			ctx.Abort()
			return
		}
		ctx.Set(ContextSourceKey, source)
		ctx.Next()
	}
}

// SourceAddress returns the source set by SourceRequired.
func SourceAddress(ctx *gin.Context) (common.Address, bool) {
	v, ok := ctx.Get(ContextSourceKey)
	if !ok {
		return common.Address{}, false
	}
	addr, ok := v.(common.Address)
	return addr, ok
}
