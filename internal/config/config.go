// Package config loads server settings from the environment, with an
// optional .env file for development.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                string
	ClientOrigin        string
	LogLevel            zerolog.Level
	MatchmakingInterval time.Duration
}

const (
	defaultPort                = "3000"
	defaultClientOrigin        = "http://localhost:5173"
	defaultMatchmakingInterval = time.Second
)

// Load reads .env if present, then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() Config {
	cfg := Config{
		Port:                getEnv("PORT", defaultPort),
		ClientOrigin:        getEnv("CLIENT_ORIGIN", defaultClientOrigin),
		LogLevel:            zerolog.InfoLevel,
		MatchmakingInterval: defaultMatchmakingInterval,
	}

	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil && lvl != zerolog.NoLevel {
		cfg.LogLevel = lvl
	} else {
		log.Warn().Str("LOG_LEVEL", os.Getenv("LOG_LEVEL")).Msg("invalid log level, using info")
	}

	if v := os.Getenv("MATCHMAKING_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Warn().Str("MATCHMAKING_INTERVAL", v).Msg("invalid duration, using default")
		} else {
			cfg.MatchmakingInterval = d
		}
	}
	return cfg
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
