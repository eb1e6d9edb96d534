package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the server configuration, read from the environment
type Config struct {
	Port               int
	StorageType        string
	RedisURL           string
	LogLevel           slog.Level
	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration
	AuthSessionTTL     time.Duration
}

func Default() Config {
	return Config{
		Port:               8080,
		StorageType:        StorageMemory,
		LogLevel:           slog.LevelInfo,
		SessionIdleTimeout: 10 * time.Minute,
		SweepInterval:      time.Minute,
		AuthSessionTTL:     24 * time.Hour,
	}
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment, then builds the config from it. Missing files are fine;
// variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromFile builds a config from a dotenv file alone, ignoring the process
// environment
func FromFile(path string) (Config, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return Config{}, err
	}
	return FromLookup(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
}

// FromLookup builds a config from lookup, starting from Default
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := get(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
				return
			}
			*dst = d
		}
	}

	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("PORT: invalid port %q", v))
		} else {
			cfg.Port = port
		}
	}
	if v, ok := get("STORAGE_TYPE"); ok {
		cfg.StorageType = strings.ToLower(v)
	}
	if v, ok := get("REDIS_URL"); ok {
		cfg.RedisURL = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	duration("SESSION_IDLE_TIMEOUT", &cfg.SessionIdleTimeout)
	duration("SWEEP_INTERVAL", &cfg.SweepInterval)
	duration("AUTH_SESSION_TTL", &cfg.AuthSessionTTL)

	switch cfg.StorageType {
	case StorageMemory:
	case StorageRedis:
		if cfg.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL required when STORAGE_TYPE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_TYPE: must be %q or %q, got %q", StorageMemory, StorageRedis, cfg.StorageType))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
