package config

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	port         string
	databasePath string
	templatesDir string
	staticDir    string
	sessionTTL   time.Duration
}

func New() *Config {
	return &Config{
		port: func() string {
			port := os.Getenv("PORT")
			if port == "" {
				port = "8080"
			}
			slog.Debug("env", "PORT", port)
			return port
		}(),

		databasePath: func() string {
			path := os.Getenv("DATABASE_PATH")
			if path == "" {
				path = "larpnexus.db"
			}
			slog.Debug("env", "DATABASE_PATH", path)
			return path
		}(),

		templatesDir: func() string {
			dir := os.Getenv("TEMPLATES_DIR")
			if dir == "" {
				dir = "web/templates"
			}
			slog.Debug("env", "TEMPLATES_DIR", dir)
			return dir
		}(),

		staticDir: func() string {
			dir := os.Getenv("STATIC_DIR")
			if dir == "" {
				dir = "web/static"
			}
			slog.Debug("env", "STATIC_DIR", dir)
			return dir
		}(),

		sessionTTL: func() time.Duration {
			ttl := os.Getenv("SESSION_TTL")
			if ttl == "" {
				ttl = "24h"
			}
			duration, err := time.ParseDuration(ttl)
			if err != nil {
				slog.Error("invalid SESSION_TTL", "error", err)
				os.Exit(1)
			}
			slog.Debug("env", "SESSION_TTL", ttl, "duration", duration)
			return duration
		}(),
	}
}

// Get PORT env, default to 8080
func (c *Config) GetPort() string {
	return c.port
}

// Get DATABASE_PATH env, default to larpnexus.db
func (c *Config) GetDatabasePath() string {
	return c.databasePath
}

// Get TEMPLATES_DIR env, default to web/templates
func (c *Config) GetTemplatesDir() string {
	return c.templatesDir
}

// Get STATIC_DIR env, default to web/static
func (c *Config) GetStaticDir() string {
	return c.staticDir
}

// Get SESSION_TTL env, default to 24h
func (c *Config) GetSessionTTL() time.Duration {
	return c.sessionTTL
}
