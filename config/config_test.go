package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSONConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"AppPort": "9090", "JWTSecret": "s3", "AllowedOrigins": ["https://a.example", "https://b.example"]},
		"metascore": {"OwnerAddress": "0xabc", "StreakPolicy": "freeze", "OwnerCanUpdateScore": false},
		"database": {"Driver": "sqlite", "SQLitePath": "/tmp/x.db"},
		"redis": {"RedisHost": "cache", "RedisPort": 6380},
		"log": {"Level": "debug", "Compress": true}
	}`), 0o600))

	c := AppConfig{OwnerCanUpdateScore: true}
	require.NoError(t, loadJSONConfig(path, &c))
	applyDefaults(&c)

	assert.Equal(t, "9090", c.AppPort)
	assert.Equal(t, "s3", c.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, "0xabc", c.OwnerAddress)
	assert.Equal(t, "freeze", c.StreakPolicy)
	assert.False(t, c.OwnerCanUpdateScore)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "/tmp/x.db", c.SQLitePath)
	assert.Equal(t, "cache", c.RedisHost)
	assert.Equal(t, 6380, c.RedisPort)
	assert.True(t, c.LogCompress)
	assert.Equal(t, 24, c.TokenTTLHours)
}

func TestLoadJSONConfigMissingFileIsIgnored(t *testing.T) {
	var c AppConfig
	assert.NoError(t, loadJSONConfig(filepath.Join(t.TempDir(), "absent.json"), &c))
}

func TestLoadJSONConfigRejectsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app": `), 0o600))
	var c AppConfig
	assert.Error(t, loadJSONConfig(path, &c))
}

func TestDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)
	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, 300, c.NonceTTLSeconds)
	assert.Equal(t, 60, c.RateLimitPerMinute)
	assert.Equal(t, []string{"*"}, c.AllowedOrigins)
	assert.Equal(t, "reset", c.StreakPolicy)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Empty(t, c.RedisHost, "redis stays disabled unless configured")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OWNER_ADDRESS", "0xowner")
	t.Setenv("STREAK_POLICY", "increment")
	t.Setenv("OWNER_CAN_UPDATE_SCORE", "false")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://x.example , ,https://y.example")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")

	c := AppConfig{OwnerCanUpdateScore: true}
	applyDefaults(&c)
	applyEnvOverrides(&c)

	assert.Equal(t, "0xowner", c.OwnerAddress)
	assert.Equal(t, "increment", c.StreakPolicy)
	assert.False(t, c.OwnerCanUpdateScore)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, c.AllowedOrigins)
	assert.Equal(t, 120, c.RateLimitPerMinute)
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	type probe struct {
		ID   uint
		Name string
	}
	db, err := Open(AppConfig{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "nested", "p.db"), LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db, &probe{}))
	require.NoError(t, db.Create(&probe{Name: "x"}).Error)

	var n int64
	require.NoError(t, db.Model(&probe{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	_, err = Open(AppConfig{DBDriver: "postgres"})
	assert.Error(t, err)
}
