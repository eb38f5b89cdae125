// Package bootstrap assembles the server from environment configuration.
package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server configuration read from the environment.
type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	SecureCookies  bool
	DatabaseURL    string
	SweepSchedule  string
	DispatchEvery  time.Duration
	Auth           AuthConfig
}

// AuthConfig captures authentication-related environment configuration.
type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// LoadConfig reads TASKHUB_* environment variables, falling back to
// development defaults for everything except the JWT secret.
func LoadConfig() Config {
	cfg := Config{
		Port:           envOr("TASKHUB_PORT", "8080"),
		Environment:    envOr("TASKHUB_ENV", "development"),
		AllowedOrigins: defaultAllowedOrigins,
		SecureCookies:  envBool("TASKHUB_SECURE_COOKIES", false),
		DatabaseURL:    strings.TrimSpace(os.Getenv("TASKHUB_DATABASE_URL")),
		SweepSchedule:  envOr("TASKHUB_SWEEP_SCHEDULE", "* * * * *"),
		DispatchEvery:  envDuration("TASKHUB_DISPATCH_INTERVAL", time.Minute),
		Auth: AuthConfig{
			JWTSecret:       strings.TrimSpace(os.Getenv("TASKHUB_JWT_SECRET")),
			AccessTokenTTL:  envDuration("TASKHUB_ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: envDuration("TASKHUB_REFRESH_TOKEN_TTL", 30*24*time.Hour),
		},
	}
	if origins := strings.TrimSpace(os.Getenv("TASKHUB_ALLOWED_ORIGINS")); origins != "" {
		var parsed []string
		for _, origin := range strings.Split(origins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				parsed = append(parsed, origin)
			}
		}
		if len(parsed) > 0 {
			cfg.AllowedOrigins = parsed
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
