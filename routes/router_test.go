package routes

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shreshtthh/MetaScore/config"
	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/services"
	"github.com/Shreshtthh/MetaScore/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type wallet struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newWallet(t *testing.T) wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return wallet{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func (w wallet) sign(t *testing.T, message string) string {
	t.Helper()
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig)
}

type harness struct {
	t      *testing.T
	router *gin.Engine
	core   *services.Core
	owner  wallet
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	owner := newWallet(t)
	config.Set(config.AppConfig{
		JWTSecret:           "router-test-secret",
		GinMode:             "test",
		GinPath:             filepath.Join(dir, "gin.log"),
		OwnerAddress:        owner.addr.Hex(),
		OwnerCanUpdateScore: true,
		LogLevel:            "silent",
	})

	db, err := config.Open(config.AppConfig{DBDriver: "sqlite", SQLitePath: filepath.Join(dir, "api.db"), LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	core, err := services.New(db, services.Options{Owner: owner.addr, OwnerBypass: true})
	require.NoError(t, err)
	// the in-memory cache outlives a single test
	utils.InvalidateByPrefix("metascore:")
	return &harness{t: t, router: SetupRouter(core), core: core, owner: owner}
}

func (h *harness) do(method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (h *harness) login(w wallet) string {
	h.t.Helper()
	rec, env := h.do(http.MethodGet, "/api/v1/auth/nonce?address="+url.QueryEscape(w.addr.Hex()), "", nil)
	require.Equal(h.t, http.StatusOK, rec.Code, env.Message)
	var nonce struct {
		Message string `json:"message"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &nonce))

	rec, env = h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"address":   w.addr.Hex(),
		"signature": w.sign(h.t, nonce.Message),
	})
	require.Equal(h.t, http.StatusOK, rec.Code, env.Message)
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &out))
	require.NotEmpty(h.t, out.Token)
	return out.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealthAndInfo(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := h.do(http.MethodGet, "/api/v1/info", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[struct {
		Categories []struct {
			Key   string `json:"key"`
			Label string `json:"label"`
		} `json:"categories"`
		Tiers        []scoring.Tier `json:"tiers"`
		StreakPolicy string         `json:"streak_policy"`
		Owner        string         `json:"owner"`
	}](t, env.Data)
	require.Len(t, info.Categories, 4)
	assert.Equal(t, "defi", info.Categories[0].Key)
	assert.Equal(t, "DeFi", info.Categories[0].Label)
	assert.Len(t, info.Tiers, 5)
	assert.Equal(t, "reset", info.StreakPolicy)
	assert.Equal(t, h.owner.addr.Hex(), info.Owner)

	rec, env = h.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40400, env.Code)
}

func TestLoginFlow(t *testing.T) {
	h := newHarness(t)
	alice := newWallet(t)
	mallory := newWallet(t)

	// signature from the wrong key
	_, env := h.do(http.MethodGet, "/api/v1/auth/nonce?address="+alice.addr.Hex(), "", nil)
	msg := decode[struct {
		Message string `json:"message"`
	}](t, env.Data).Message
	rec, env := h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"address": alice.addr.Hex(), "signature": mallory.sign(t, msg)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 40121, env.Code)

	// the nonce was consumed by the failed attempt
	rec, env = h.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"address": alice.addr.Hex(), "signature": alice.sign(t, msg)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 40120, env.Code)

	rec, env = h.do(http.MethodGet, "/api/v1/auth/nonce?address=not-an-address", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40003, env.Code)

	token := h.login(alice)
	rec, env = h.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct {
		Address  string `json:"address"`
		IsOwner  bool   `json:"is_owner"`
		RecordID uint64 `json:"record_id"`
	}](t, env.Data)
	assert.Equal(t, alice.addr.Hex(), me.Address)
	assert.False(t, me.IsOwner)
	assert.Zero(t, me.RecordID)

	rec, _ = h.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = h.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 40104, env.Code)

	rec, env = h.do(http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 40105, env.Code)
}

func TestRecordLifecycle(t *testing.T) {
	h := newHarness(t)
	alice := newWallet(t)
	aliceToken := h.login(alice)
	ownerToken := h.login(h.owner)

	rec, env := h.do(http.MethodPost, "/api/v1/records", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	view := decode[struct {
		ID         uint64 `json:"id"`
		Owner      string `json:"owner"`
		StreakDays uint64 `json:"streak_days"`
		TierName   string `json:"tier_name"`
	}](t, env.Data)
	assert.Equal(t, uint64(1), view.ID)
	assert.Equal(t, alice.addr.Hex(), view.Owner)
	assert.Equal(t, uint64(1), view.StreakDays)
	assert.Equal(t, "Bronze", view.TierName)

	rec, env = h.do(http.MethodPost, "/api/v1/records", aliceToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 40901, env.Code)

	rec, env = h.do(http.MethodPost, "/api/v1/records", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// alice is not a tracker
	rec, env = h.do(http.MethodPost, "/api/v1/records/1/score", aliceToken, gin.H{"category": "defi", "delta": 60})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 40301, env.Code)

	rec, env = h.do(http.MethodPost, "/api/v1/records/1/score", ownerToken, gin.H{"category": "defi", "delta": 60})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	updated := decode[struct {
		TotalScore uint64 `json:"total_score"`
		Tier       int    `json:"tier"`
		TierName   string `json:"tier_name"`
	}](t, env.Data)
	assert.Equal(t, uint64(60), updated.TotalScore)
	assert.Equal(t, 1, updated.Tier)
	assert.Equal(t, "Silver", updated.TierName)

	rec, env = h.do(http.MethodPost, "/api/v1/records/1/score", ownerToken, gin.H{"category": "gaming", "delta": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40001, env.Code)

	rec, env = h.do(http.MethodPost, "/api/v1/records/9/score", ownerToken, gin.H{"category": "nft", "delta": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40401, env.Code)

	rec, env = h.do(http.MethodGet, "/api/v1/records/by-owner/"+alice.addr.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), decode[struct {
		ID uint64 `json:"id"`
	}](t, env.Data).ID)

	rec, env = h.do(http.MethodGet, "/api/v1/records/1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]uint64{"defi": 60, "nft": 0, "social": 0, "developer": 0}, decode[map[string]uint64](t, env.Data))

	rec, env = h.do(http.MethodGet, "/api/v1/records/1/categories/defi", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(60), decode[struct {
		Score uint64 `json:"score"`
	}](t, env.Data).Score)

	rec, env = h.do(http.MethodGet, "/api/v1/records/1/metadata", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	md := decode[scoring.Metadata](t, env.Data)
	assert.Equal(t, "MetaScore #1", md.Name)
	assert.Equal(t, "Silver", md.TierName)

	rec, env = h.do(http.MethodGet, "/api/v1/records/1/token-uri", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	uri := decode[struct {
		TokenURI string `json:"token_uri"`
	}](t, env.Data).TokenURI
	decoded, err := scoring.DecodeTokenURI(uri)
	require.NoError(t, err)
	assert.Equal(t, md.Name, decoded.Name)

	rec, env = h.do(http.MethodGet, "/api/v1/records/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40010, env.Code)

	for _, path := range []string{"/api/v1/records/0", "/api/v1/records/0/metadata", "/api/v1/records/0/activities"} {
		rec, env = h.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, 40401, env.Code, path)
	}

	rec, env = h.do(http.MethodPost, "/api/v1/records/1/score", ownerToken, gin.H{"category": "nft", "delta": uint64(1 << 63)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40004, env.Code)
	rec, env = h.do(http.MethodGet, "/api/v1/records/1/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(0), decode[map[string]uint64](t, env.Data)["nft"])
}

func TestLeaderboardCachesClampedLimit(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodPost, "/api/v1/records", h.login(newWallet(t)), nil)

	for _, limit := range []string{"5000", "101", "100"} {
		rec, env := h.do(http.MethodGet, "/api/v1/leaderboard?limit="+limit, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, env.Message)
		assert.Len(t, decode[struct {
			Items []services.LeaderboardEntry `json:"items"`
		}](t, env.Data).Items, 1)
	}

	var cached []services.LeaderboardEntry
	assert.True(t, utils.CacheGetJSON("metascore:rank:leaderboard:100", &cached))
	assert.False(t, utils.CacheGetJSON("metascore:rank:leaderboard:5000", &cached))
	assert.False(t, utils.CacheGetJSON("metascore:rank:leaderboard:101", &cached))
}

func TestTransfersAlwaysRejected(t *testing.T) {
	h := newHarness(t)
	alice := newWallet(t)
	h.do(http.MethodPost, "/api/v1/records", h.login(alice), nil)
	ownerToken := h.login(h.owner)

	for _, path := range []string{"/api/v1/records/1/transfer", "/api/v1/records/1/approve", "/api/v1/records/42/transfer"} {
		rec, env := h.do(http.MethodPost, path, ownerToken, gin.H{"to": h.owner.addr.Hex()})
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, 40303, env.Code, path)
	}

	_, env := h.do(http.MethodGet, "/api/v1/records/1", "", nil)
	assert.Equal(t, alice.addr.Hex(), decode[struct {
		Owner string `json:"owner"`
	}](t, env.Data).Owner)
}

func TestAdministrationIsOwnerOnly(t *testing.T) {
	h := newHarness(t)
	alice := newWallet(t)
	aliceToken := h.login(alice)
	src := newWallet(t).addr.Hex()

	rec, env := h.do(http.MethodPut, "/api/v1/trackers/"+alice.addr.Hex(), aliceToken, gin.H{"allowed": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 40302, env.Code)

	rec, env = h.do(http.MethodPut, "/api/v1/sources/"+src, aliceToken, gin.H{"category": "defi", "points": 5})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 40302, env.Code)

	ownerToken := h.login(h.owner)
	rec, env = h.do(http.MethodPost, "/api/v1/sources/batch", ownerToken, gin.H{
		"sources":    []string{src},
		"categories": []string{"defi", "nft"},
		"points":     []uint64{5},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 40002, env.Code)

	rec, _ = h.do(http.MethodPut, "/api/v1/trackers/"+alice.addr.Hex(), ownerToken, gin.H{"allowed": true})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = h.do(http.MethodGet, "/api/v1/trackers/"+alice.addr.Hex(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[struct {
		Allowed bool `json:"allowed"`
	}](t, env.Data).Allowed)

	rec, env = h.do(http.MethodGet, "/api/v1/sources/"+src, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[struct {
		Verified bool `json:"verified"`
	}](t, env.Data).Verified)
}

func TestActivityReporting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := newWallet(t)
	source := newWallet(t)
	h.do(http.MethodPost, "/api/v1/records", h.login(alice), nil)
	ownerToken := h.login(h.owner)

	rec, env := h.do(http.MethodPut, "/api/v1/sources/"+source.addr.Hex(), ownerToken, gin.H{"category": "nft", "points": 20})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	rec, env = h.do(http.MethodPost, "/api/v1/sources/"+source.addr.Hex()+"/key", ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	key := decode[struct {
		APIKey string `json:"api_key"`
	}](t, env.Data).APIKey
	require.NotEmpty(t, key)

	headers := []string{"X-Source-Address", source.addr.Hex(), "X-Source-Key", key}
	body := gin.H{"user": alice.addr.Hex(), "action": "<b>mint</b>"}

	// tracker identity not authorized yet
	rec, env = h.do(http.MethodPost, "/api/v1/activities", "", body, headers...)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, 40301, env.Code)

	require.NoError(t, h.core.Gate.Authorize(ctx, h.owner.addr, h.core.Tracker.Identity(), true))
	rec, env = h.do(http.MethodPost, "/api/v1/activities", "", body, headers...)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	out := decode[struct {
		Activity   models.Activity `json:"activity"`
		TotalScore uint64          `json:"total_score"`
	}](t, env.Data)
	assert.Equal(t, uint64(20), out.TotalScore)
	assert.Equal(t, "mint", out.Activity.Action)
	assert.Equal(t, "nft", out.Activity.Category)

	// a source may also report with its own wallet session
	rec, env = h.do(http.MethodPost, "/api/v1/activities", h.login(source), body)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, env = h.do(http.MethodPost, "/api/v1/activities", "", body, "X-Source-Address", source.addr.Hex(), "X-Source-Key", "msk_wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 40111, env.Code)

	rec, env = h.do(http.MethodPost, "/api/v1/activities", "", gin.H{"user": newWallet(t).addr.Hex()}, headers...)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 40401, env.Code)

	rec, env = h.do(http.MethodGet, "/api/v1/records/1/activities?limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acts := decode[struct {
		Items []models.Activity `json:"items"`
	}](t, env.Data).Items
	assert.Len(t, acts, 2)

	rec, env = h.do(http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[struct {
		Items []services.LeaderboardEntry `json:"items"`
	}](t, env.Data).Items
	require.Len(t, board, 1)
	assert.Equal(t, uint64(40), board[0].TotalScore)

	rec, env = h.do(http.MethodDelete, "/api/v1/sources/"+source.addr.Hex(), ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	rec, env = h.do(http.MethodPost, "/api/v1/activities", "", body, headers...)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "revoked key no longer authenticates")

	rec, env = h.do(http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[services.DashboardStats](t, env.Data)
	assert.Equal(t, int64(1), st.TotalUsers)
	assert.Equal(t, int64(2), st.TotalActivities)
	assert.Equal(t, "nft", st.TopCategory)
}
