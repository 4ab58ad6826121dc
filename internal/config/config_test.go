package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Overlay(t *testing.T) {
	path := writeConfig(t, `
dir = "./scene"
store = "Redis"
max_depth = 16
redis_addr = "cache:6379"
redis_db = 2
redis_ttl = "90s"
`)
	cfg, err := Load(path, false)
	require.NoError(t, err)

	assert.Equal(t, "./scene", cfg.Dir)
	assert.Equal(t, StoreRedis, cfg.Store)
	assert.Equal(t, 16, cfg.MaxDepth)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 90*time.Second, cfg.Redis.TTL)
	// Untouched keys keep their defaults.
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "strata:layer:", cfg.Redis.Prefix)
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), DefaultFile)

	cfg, err := Load(missing, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(missing, false)
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown store": `store = "s3"`,
		"bad depth":     `max_depth = 0`,
		"bad level":     `log_level = "loud"`,
		"bad ttl":       `redis_ttl = "soon"`,
		"empty dir":     `dir = ""`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body), false)
			assert.Error(t, err)
		})
	}
}

func TestLoad_Encryption(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	path := writeConfig(t, `
encryption_key = "`+key+`"
encryption_fallback_keys = ["`+key+`"]
`)
	cfg, err := Load(path, false)
	require.NoError(t, err)
	keys, err := cfg.Encryption.Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	_, err = Load(writeConfig(t, `encryption_key = "c2hvcnQ="`), false)
	assert.ErrorContains(t, err, "32 bytes")

	_, err = Load(writeConfig(t, "store = \"loam\"\nencryption_key = \""+key+"\""), false)
	assert.ErrorContains(t, err, "loam")
}
