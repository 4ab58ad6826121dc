package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/strata/internal/logging"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "strata.toml"

// Store kinds.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreLoam   = "loam"
	StoreMemory = "memory"
)

// Config holds the CLI runtime settings.
type Config struct {
	Dir        string
	Store      string
	LogLevel   string
	MaxDepth   int
	ListenAddr string
	Redis      RedisConfig
	Encryption EncryptionConfig
}

// EncryptionConfig holds base64 AES-256 keys for layer bytes at rest.
// An empty Key disables encryption.
type EncryptionConfig struct {
	Key          string
	FallbackKeys []string
}

// RedisConfig configures the redis asset store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// strata.toml key mapping.
type fileConfig struct {
	Dir           string   `toml:"dir"`
	Store         string   `toml:"store"`
	LogLevel      string   `toml:"log_level"`
	MaxDepth      int      `toml:"max_depth"`
	ListenAddr    string   `toml:"listen_addr"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	RedisPrefix   string   `toml:"redis_prefix"`
	RedisTTL      string   `toml:"redis_ttl"`
	EncryptionKey string   `toml:"encryption_key"`
	FallbackKeys  []string `toml:"encryption_fallback_keys"`
}

// Default returns the settings used when no file overrides them.
func Default() Config {
	return Config{
		Dir:        ".",
		Store:      StoreFile,
		LogLevel:   "info",
		MaxDepth:   64,
		ListenAddr: ":8080",
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "strata:layer:",
		},
	}
}

// Load overlays the keys defined in path onto Default and validates the
// result. A missing file is not an error when optional is true.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("dir") {
		cfg.Dir = strings.TrimSpace(raw.Dir)
	}
	if meta.IsDefined("store") {
		cfg.Store = strings.ToLower(strings.TrimSpace(raw.Store))
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("max_depth") {
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("redis_addr") {
		cfg.Redis.Addr = strings.TrimSpace(raw.RedisAddr)
	}
	if meta.IsDefined("redis_password") {
		cfg.Redis.Password = raw.RedisPassword
	}
	if meta.IsDefined("redis_db") {
		cfg.Redis.DB = raw.RedisDB
	}
	if meta.IsDefined("redis_prefix") {
		cfg.Redis.Prefix = strings.TrimSpace(raw.RedisPrefix)
	}
	if meta.IsDefined("redis_ttl") {
		ttl, err := time.ParseDuration(strings.TrimSpace(raw.RedisTTL))
		if err != nil {
			return Config{}, fmt.Errorf("load config: redis_ttl: %w", err)
		}
		cfg.Redis.TTL = ttl
	}
	if meta.IsDefined("encryption_key") {
		cfg.Encryption.Key = strings.TrimSpace(raw.EncryptionKey)
	}
	if meta.IsDefined("encryption_fallback_keys") {
		cfg.Encryption.FallbackKeys = raw.FallbackKeys
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot start with.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreLoam:
		if c.Dir == "" {
			return fmt.Errorf("store %q requires dir", c.Store)
		}
	case StoreRedis:
		if c.Redis.Addr == "" {
			return errors.New("store \"redis\" requires redis_addr")
		}
		if c.Redis.TTL < 0 {
			return errors.New("redis_ttl must not be negative")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported store %q (expected file, redis, loam or memory)", c.Store)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Encryption.Key != "" {
		if c.Store == StoreLoam {
			return errors.New("encryption is not supported with the loam store")
		}
		if _, err := c.Encryption.Keys(); err != nil {
			return err
		}
	}
	return nil
}

// Keys decodes the active key followed by the fallback keys.
func (e EncryptionConfig) Keys() ([][]byte, error) {
	encoded := append([]string{e.Key}, e.FallbackKeys...)
	keys := make([][]byte, 0, len(encoded))
	for i, k := range encoded {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("encryption key %d: %w", i, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("encryption key %d: must decode to 32 bytes, got %d", i, len(key))
		}
		keys = append(keys, key)
	}
	return keys, nil
}
