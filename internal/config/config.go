package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
//
// The three compat flags preserve quirks of the API this server replaced:
// empty expense lists answered 404, and authorization failures on
// update/delete surfaced as a generic 500. EnforceReadOwnership closes the
// upstream hole where any authenticated user could read any expense by ID.
type Config struct {
	Port        string
	DatabaseURL string
	SQLitePath  string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string

	CompatEmptyList404   bool
	CompatForbiddenAs500 bool
	EnforceReadOwnership bool
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:  fallback(os.Getenv("SQLITE_PATH"), "expenses.db"),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "expense-api"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),

		CompatEmptyList404:   parseBool(os.Getenv("COMPAT_EMPTY_LIST_404"), true),
		CompatForbiddenAs500: parseBool(os.Getenv("COMPAT_FORBIDDEN_AS_500"), true),
		EnforceReadOwnership: parseBool(os.Getenv("ENFORCE_READ_OWNERSHIP"), false),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// UsesPostgres reports whether a Postgres URL was configured. Without one
// the server falls back to the local SQLite file.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseBool(value string, def bool) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
