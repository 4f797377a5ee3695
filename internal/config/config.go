// Package config provides environment-driven configuration. The dashboard
// has no config file and no subcommands: everything is an env var with a
// default, optionally seeded from a .env file at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the full runtime configuration.
type Config struct {
	// Store connection.
	RedisHost string
	RedisPort int
	RedisDB   int

	// HTTP server.
	Port  int
	Debug bool

	// Polling.
	PollInterval time.Duration
	StoreTimeout time.Duration
	StaleAfter   time.Duration
	LogTail      int

	// Optional features.
	HistoryPath string // empty disables the history archive
	ColorsFile  string
}

// Default returns the configuration used when no env vars are set.
func Default() *Config {
	return &Config{
		RedisHost:    "localhost",
		RedisPort:    6379,
		RedisDB:      0,
		Port:         8090,
		Debug:        false,
		PollInterval: 2 * time.Second,
		StoreTimeout: 500 * time.Millisecond,
		StaleAfter:   30 * time.Second,
		LogTail:      20,
		HistoryPath:  "",
		ColorsFile:   "./colors.yaml",
	}
}

// Load builds the configuration from the environment on top of defaults.
// Absent vars are fine; a var that is set but unparsable is a startup
// error.
func Load() (*Config, error) {
	cfg := Default()

	cfg.RedisHost = envString("REDIS_HOST", cfg.RedisHost)
	cfg.ColorsFile = envString("COLORS_FILE", cfg.ColorsFile)
	cfg.HistoryPath = envString("HISTORY_PATH", cfg.HistoryPath)

	var err error
	if cfg.RedisPort, err = envInt("REDIS_PORT", cfg.RedisPort); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = envInt("REDIS_DB", cfg.RedisDB); err != nil {
		return nil, err
	}
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return nil, err
	}
	if cfg.Debug, err = envBool("DEBUG", cfg.Debug); err != nil {
		return nil, err
	}
	if cfg.LogTail, err = envInt("LOG_TAIL", cfg.LogTail); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = envMillis("POLL_INTERVAL_MS", cfg.PollInterval); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = envMillis("STORE_TIMEOUT_MS", cfg.StoreTimeout); err != nil {
		return nil, err
	}
	if cfg.StaleAfter, err = envSeconds("STALE_AFTER_SECONDS", cfg.StaleAfter); err != nil {
		return nil, err
	}

	if cfg.LogTail <= 0 {
		return nil, fmt.Errorf("LOG_TAIL must be positive, got %d", cfg.LogTail)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	return cfg, nil
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return b, nil
}

func envMillis(key string, def time.Duration) (time.Duration, error) {
	n, err := envInt(key, int(def/time.Millisecond))
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Millisecond, nil
}

func envSeconds(key string, def time.Duration) (time.Duration, error) {
	n, err := envInt(key, int(def/time.Second))
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}
