package client

import (
	"context"
	"crypto/ecdsa"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shreshtthh/MetaScore/config"
	"github.com/Shreshtthh/MetaScore/models"
	"github.com/Shreshtthh/MetaScore/routes"
	"github.com/Shreshtthh/MetaScore/scoring"
	"github.com/Shreshtthh/MetaScore/services"
)

func startServer(t *testing.T) (*httptest.Server, *services.Core, *ecdsa.PrivateKey) {
	t.Helper()
	dir := t.TempDir()
	ownerKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(ownerKey.PublicKey)

	config.Set(config.AppConfig{
		JWTSecret:           "client-test-secret",
		GinMode:             "test",
		GinPath:             filepath.Join(dir, "gin.log"),
		OwnerAddress:        owner.Hex(),
		OwnerCanUpdateScore: true,
	})
	db, err := config.Open(config.AppConfig{DBDriver: "sqlite", SQLitePath: filepath.Join(dir, "client.db"), LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))

	core, err := services.New(db, services.Options{Owner: owner, OwnerBypass: true})
	require.NoError(t, err)
	srv := httptest.NewServer(routes.SetupRouter(core))
	t.Cleanup(func() {
		srv.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return srv, core, ownerKey
}

func TestClientEndToEnd(t *testing.T) {
	srv, core, ownerKey := startServer(t)
	ctx := context.Background()
	owner := crypto.PubkeyToAddress(ownerKey.PublicKey)

	admin := New(srv.URL)
	addr, err := admin.Login(ctx, ownerKey)
	require.NoError(t, err)
	assert.Equal(t, owner, addr)

	info, err := admin.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner.Hex(), info.Owner)
	assert.Equal(t, core.Tracker.Identity().Hex(), info.TrackerIdentity)

	userKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	user := crypto.PubkeyToAddress(userKey.PublicKey)

	rec, err := admin.Mint(ctx, user.Hex())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rec.ID)
	assert.Equal(t, user.Hex(), rec.Owner)

	_, err = admin.Mint(ctx, user.Hex())
	assert.ErrorIs(t, err, scoring.ErrAlreadyMinted)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)

	source := common.HexToAddress("0x00000000000000000000000000000000000000f1")
	err = admin.VerifySources(ctx, []string{source.Hex()}, []string{"defi"}, []uint64{15, 20})
	assert.ErrorIs(t, err, scoring.ErrLengthMismatch)
	require.NoError(t, admin.VerifySources(ctx, []string{source.Hex()}, []string{"defi"}, []uint64{15}))
	require.NoError(t, admin.Authorize(ctx, info.TrackerIdentity, true))

	key, err := admin.IssueSourceKey(ctx, source.Hex())
	require.NoError(t, err)

	reporter := New(srv.URL)
	res, err := reporter.Track(ctx, source.Hex(), key, user.Hex(), "swap")
	require.NoError(t, err)
	assert.Equal(t, uint64(15), res.TotalScore)
	assert.Equal(t, "Bronze", res.TierName)

	_, err = reporter.Track(ctx, source.Hex(), key, user.Hex(), "swap")
	require.NoError(t, err)
	got, err := admin.UpdateScore(ctx, rec.ID, "developer", 25)
	require.NoError(t, err)
	assert.Equal(t, uint64(55), got.TotalScore)
	assert.Equal(t, "Silver", got.TierName)

	byOwner, err := reporter.RecordByOwner(ctx, user.Hex())
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"defi": 30, "nft": 0, "social": 0, "developer": 25}, byOwner.CategoryScores)

	acts, err := reporter.Activities(ctx, rec.ID, 10)
	require.NoError(t, err)
	assert.Len(t, acts, 2)

	md, err := reporter.Metadata(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "MetaScore #1", md.Name)

	board, err := reporter.Leaderboard(ctx, 5)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, uint64(55), board[0].TotalScore)

	require.NoError(t, admin.RevokeSource(ctx, source.Hex()))
	sources, err := admin.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)

	_, err = reporter.Record(ctx, 99)
	assert.ErrorIs(t, err, scoring.ErrRecordNotFound)

	// unauthenticated writes carry no domain error
	_, err = reporter.UpdateScore(ctx, rec.ID, "defi", 1)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Nil(t, apiErr.Unwrap())
}
