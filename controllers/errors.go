package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Shreshtthh/MetaScore/middleware"
	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/utils"
)

type errorMapping struct {
	err    error
	status int
	code   int
}

var domainErrors = []errorMapping{
	{scoring.ErrNotAuthorized, http.StatusForbidden, 40301},
	{scoring.ErrOwnerOnly, http.StatusForbidden, 40302},
	{scoring.ErrTransfersDisabled, http.StatusForbidden, 40303},
	{scoring.ErrSourceNotVerified, http.StatusForbidden, 40304},
	{scoring.ErrInvalidCategory, http.StatusBadRequest, 40001},
	{scoring.ErrLengthMismatch, http.StatusBadRequest, 40002},
	{scoring.ErrInvalidIdentity, http.StatusBadRequest, 40003},
	{scoring.ErrScoreOverflow, http.StatusBadRequest, 40004},
	{scoring.ErrRecordNotFound, http.StatusNotFound, 40401},
	{scoring.ErrAlreadyMinted, http.StatusConflict, 40901},
}

// respondError maps domain errors to their status and code; anything else is a 500.
func respondError(ctx *gin.Context, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			utils.Error(ctx, m.status, m.code, m.err.Error())
			return
		}
	}
	utils.Logger.Error("request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
	utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
}

func paramAddress(ctx *gin.Context, name string) (common.Address, bool) {
	addr, err := scoring.ParseIdentity(strings.TrimSpace(ctx.Param(name)))
	if err != nil {
		respondError(ctx, err)
		return common.Address{}, false
	}
	return addr, true
}

func paramRecordID(ctx *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid record id")
		return 0, false
	}
	// id 0 is never allocated
	if id == 0 {
		respondError(ctx, scoring.ErrRecordNotFound)
		return 0, false
	}
	return id, true
}

func queryLimit(ctx *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(ctx.Query("limit")))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// caller returns the signed-in address. Routes using it sit behind AuthRequired.
func caller(ctx *gin.Context) common.Address {
	addr, _ := middleware.CallerAddress(ctx)
	return addr
}

// invalidateRankings drops cached leaderboard and stats after a score change.
func invalidateRankings() {
	utils.InvalidateByPrefix(cachePrefix)
}
