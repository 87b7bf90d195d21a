package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dukerupert/todochat/internal/email"
	"github.com/dukerupert/todochat/internal/graph"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string
	Env          string
	LogLevel     string
	LogFormat    string
	CORSOrigins  string

	AdminLogin        string
	AdminPassword     string
	AdminSecurityCode string

	SMTP          email.SMTPConfig
	PostmarkToken string
}

// Load reads a .env file when present (without overriding variables that
// are already set) and then the environment. Explicit files must exist.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{
		Port:         getenv("PORT", "4000"),
		DatabasePath: getenv("DATABASE_PATH", "todochat.db"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		Env:          getenv("APP_ENV", "development"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    getenv("LOG_FORMAT", "text"),
		CORSOrigins:  getenv("CORS_ORIGINS", "*"),

		AdminLogin:        os.Getenv("ADMIN_LOGIN"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminSecurityCode: os.Getenv("ADMIN_SECURITY_CODE"),

		SMTP: email.SMTPConfig{
			Host:     os.Getenv("EMAIL_HOST"),
			Username: os.Getenv("EMAIL_USER"),
			Password: os.Getenv("EMAIL_PASSWORD"),
			From:     os.Getenv("EMAIL_FROM"),
		},
		PostmarkToken: os.Getenv("POSTMARK_TOKEN"),
	}

	port, err := strconv.Atoi(getenv("EMAIL_PORT", "587"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("EMAIL_PORT: invalid port %q", os.Getenv("EMAIL_PORT"))
	}
	cfg.SMTP.Port = port

	if v := os.Getenv("EMAIL_SECURE"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("EMAIL_SECURE: %w", err)
		}
		cfg.SMTP.Secure = secure
	}
	return cfg, nil
}

// Validate checks what serving requires. Missing admin settings are not
// fatal; only the operations that need them fail.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT: invalid port %q", c.Port)
	}
	return nil
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

// Graph returns the resolver settings.
func (c *Config) Graph() graph.Config {
	return graph.Config{
		AdminLogin:        c.AdminLogin,
		AdminPassword:     c.AdminPassword,
		AdminSecurityCode: c.AdminSecurityCode,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
