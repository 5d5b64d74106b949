package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	DBPath     string
	JWTSecret  string
	TokenTTL   time.Duration
	RateLimits RateLimits

	// Build metadata, filled in by main from linker flags.
	Version   string
	Commit    string
	BuildTime string
}

type RateLimits struct {
	PostPerMinute    int
	CommentPerMinute int
	LikePerMinute    int
}

func Load() Config {
	addr := envString("FEEDLINE_ADDR", "")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}
	return Config{
		Addr:      addr,
		DBPath:    envString("FEEDLINE_DB", "feedline.db"),
		JWTSecret: envString("FEEDLINE_JWT_SECRET", "dev-jwt-secret"),
		TokenTTL:  envDuration("FEEDLINE_TOKEN_TTL", time.Hour),
		RateLimits: RateLimits{
			PostPerMinute:    envInt("FEEDLINE_RL_POST_PER_MIN", 10),
			CommentPerMinute: envInt("FEEDLINE_RL_COMMENT_PER_MIN", 30),
			LikePerMinute:    envInt("FEEDLINE_RL_LIKE_PER_MIN", 120),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
