package config

import (
	"os"
	"path/filepath"
	"testing"
)

var keys = []string{
	"PORT", "DATABASE_PATH", "JWT_SECRET", "APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "CORS_ORIGINS",
	"ADMIN_LOGIN", "ADMIN_PASSWORD", "ADMIN_SECURITY_CODE",
	"EMAIL_HOST", "EMAIL_PORT", "EMAIL_SECURE", "EMAIL_USER", "EMAIL_PASSWORD", "EMAIL_FROM", "POSTMARK_TOKEN",
}

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(writeEnvFile(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "4000" || cfg.Addr() != ":4000" {
		t.Errorf("unexpected port %q", cfg.Port)
	}
	if cfg.DatabasePath != "todochat.db" {
		t.Errorf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.CORSOrigins != "*" {
		t.Errorf("unexpected origins %q", cfg.CORSOrigins)
	}
	if cfg.SMTP.Port != 587 || cfg.SMTP.Secure {
		t.Errorf("unexpected smtp defaults %+v", cfg.SMTP)
	}
	if cfg.Production() {
		t.Error("expected development by default")
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without JWT_SECRET")
	}
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	path := writeEnvFile(t, "PORT=1234\nJWT_SECRET=from-file\nAPP_ENV=production\nEMAIL_PORT=465\nEMAIL_SECURE=true\nADMIN_LOGIN=root\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("environment should win, got port %q", cfg.Port)
	}
	if cfg.JWTSecret != "from-file" {
		t.Errorf("expected secret from file, got %q", cfg.JWTSecret)
	}
	if !cfg.Production() {
		t.Error("expected production")
	}
	if cfg.SMTP.Port != 465 || !cfg.SMTP.Secure {
		t.Errorf("unexpected smtp %+v", cfg.SMTP)
	}
	if got := cfg.Graph().AdminLogin; got != "root" {
		t.Errorf("unexpected admin login %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"bad email port":    "EMAIL_PORT=smtp\n",
		"port out of range": "EMAIL_PORT=70000\n",
		"bad secure flag":   "EMAIL_SECURE=maybe\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(writeEnvFile(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error for a missing explicit file")
	}
}

func TestValidatePort(t *testing.T) {
	cfg := &Config{JWTSecret: "s", Port: "http"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-numeric port")
	}
}
