// Package config reads the service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DevJWTSecret is used when JWT_SECRET is unset. It is only fit for local runs.
const DevJWTSecret = "card-heist-dev-secret"

// Config holds the service settings.
type Config struct {
	ListenAddr  string
	DatabaseURL string // empty keeps history in memory
	RedisAddr   string // empty disables the simulation cache
	JWTSecret   string

	PursuerThink  time.Duration
	PursuerReveal time.Duration
	PlayerIdle    time.Duration // zero disables auto-play

	LogLevel    logrus.Level
	SimWorkers  int
	SimCacheTTL time.Duration
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		ListenAddr:  str(getenv, "HEIST_LISTEN_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL"),
		RedisAddr:   getenv("REDIS_ADDR"),
		JWTSecret:   str(getenv, "JWT_SECRET", DevJWTSecret),
	}

	var err error
	if cfg.PursuerThink, err = millis(getenv, "PURSUER_THINK_MS", 900); err != nil {
		return cfg, err
	}
	if cfg.PursuerReveal, err = millis(getenv, "PURSUER_REVEAL_MS", 1500); err != nil {
		return cfg, err
	}
	if cfg.PlayerIdle, err = millis(getenv, "PLAYER_IDLE_MS", 0); err != nil {
		return cfg, err
	}
	if cfg.SimWorkers, err = integer(getenv, "SIM_WORKERS", 0); err != nil {
		return cfg, err
	}
	if cfg.SimCacheTTL, err = duration(getenv, "SIM_CACHE_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.LogLevel, err = logrus.ParseLevel(str(getenv, "LOG_LEVEL", "info")); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// NewLogger returns a logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(c.LogLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

func str(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func integer(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: want a non-negative integer, got %q", key, v)
	}
	return n, nil
}

func millis(getenv func(string) string, key string, def int) (time.Duration, error) {
	n, err := integer(getenv, key, def)
	return time.Duration(n) * time.Millisecond, err
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
