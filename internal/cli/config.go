package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/aretw0/catena"
	"github.com/aretw0/catena/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Backends accepted by Config.Backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Environment variables read by LoadConfig.
const (
	EnvBackend   = "CATENA_BACKEND"
	EnvRedisAddr = "CATENA_REDIS_ADDR"
	EnvDSN       = "CATENA_DSN"
	EnvLogLevel  = "CATENA_LOG_LEVEL"
	EnvLogFormat = "CATENA_LOG_FORMAT"
	EnvLockTTL   = "CATENA_LOCK_TTL"
	EnvCommands  = "CATENA_COMMANDS"

	EnvMaskColumns    = "CATENA_MASK_COLUMNS"
	EnvEncryptColumns = "CATENA_ENCRYPT_COLUMNS"
	EnvEncryptionKey  = "CATENA_ENCRYPTION_KEY"
	EnvFallbackKeys   = "CATENA_ENCRYPTION_FALLBACK_KEYS"
)

var envKeys = []string{
	EnvBackend, EnvRedisAddr, EnvDSN, EnvLogLevel, EnvLogFormat, EnvLockTTL, EnvCommands,
	EnvMaskColumns, EnvEncryptColumns, EnvEncryptionKey, EnvFallbackKeys,
}

// Config holds the settings shared by all commands.
type Config struct {
	RepoPath  string
	Backend   string
	RedisAddr string
	DSN       string
	LogLevel  string
	LogFormat string // "text" or "json"
	LockTTL   time.Duration

	// CommandsFile lists the external commands process.Run may execute. Empty allows none.
	CommandsFile string

	// MaskColumns are patterns of columns replaced by a mask before they are written.
	MaskColumns []string
	// EncryptColumns are patterns of columns encrypted at rest. Empty means all but "id".
	EncryptColumns []string
	// EncryptionKey enables encryption when set. It must decode to 32 bytes.
	EncryptionKey []byte
	// FallbackKeys decrypt values written before a key rotation.
	FallbackKeys [][]byte
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		RepoPath:  ".",
		Backend:   BackendMemory,
		RedisAddr: "localhost:6379",
		LogLevel:  "warn",
		LogFormat: "text",
		LockTTL:   catena.DefaultLockTTL,
	}
}

// LoadConfig reads the defaults, then envFile (if it exists), then the process environment.
// Later sources win; empty variables are ignored.
func LoadConfig(envFile string) (Config, error) {
	cfg := DefaultConfig()

	vars := map[string]string{}
	if envFile != "" {
		fileVars, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	for _, key := range envKeys {
		if v := os.Getenv(key); v != "" {
			vars[key] = v
		}
	}

	if v := vars[EnvBackend]; v != "" {
		cfg.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := vars[EnvRedisAddr]; v != "" {
		cfg.RedisAddr = v
	}
	if v := vars[EnvDSN]; v != "" {
		cfg.DSN = v
	}
	if v := vars[EnvLogLevel]; v != "" {
		cfg.LogLevel = v
	}
	if v := vars[EnvLogFormat]; v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v := vars[EnvLockTTL]; v != "" {
		ttl, err := cast.ToDurationE(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvLockTTL, err)
		}
		cfg.LockTTL = ttl
	}

	if v := vars[EnvCommands]; v != "" {
		cfg.CommandsFile = v
	}
	cfg.MaskColumns = splitList(vars[EnvMaskColumns])
	cfg.EncryptColumns = splitList(vars[EnvEncryptColumns])
	if v := vars[EnvEncryptionKey]; v != "" {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvEncryptionKey, err)
		}
		cfg.EncryptionKey = key
	}
	for _, v := range splitList(vars[EnvFallbackKeys]) {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvFallbackKeys, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}

	return cfg, cfg.Validate()
}

// splitList splits a comma separated list, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis:
	case BackendSQLite, BackendPostgres:
		if c.DSN == "" {
			return fmt.Errorf("backend %s requires %s", c.Backend, EnvDSN)
		}
	default:
		return fmt.Errorf("unknown backend %q (memory, redis, sqlite, postgres)", c.Backend)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (text, json)", c.LogFormat)
	}
	if c.EncryptionKey != nil && len(c.EncryptionKey) != 32 {
		return fmt.Errorf("%s must decode to 32 bytes, got %d", EnvEncryptionKey, len(c.EncryptionKey))
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("lock ttl must be positive, got %s", c.LockTTL)
	}
	return nil
}
