package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	for _, key := range []string{"PORT", "DATABASE_PATH", "BACKEND_URL", "REDIS_ADDR", "REDIS_DB",
		"CORS_ALLOWED_ORIGINS", "PROTECTED_ROLE_NAME", "JWT_EXPIRATION_HOURS", "EDITOR_IDLE_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Port != defaultPort || cfg.ProtectedRoleName != "Admin" {
		t.Errorf("Port=%q ProtectedRoleName=%q", cfg.Port, cfg.ProtectedRoleName)
	}
	if cfg.JWTExpiration != 24*time.Hour {
		t.Errorf("JWTExpiration = %v", cfg.JWTExpiration)
	}
	if cfg.EditorIdleTimeout != 15*time.Minute {
		t.Errorf("EditorIdleTimeout = %v", cfg.EditorIdleTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 1 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("BACKEND_URL", "https://api.example.com/")
	t.Setenv("BACKEND_EMAIL", "svc@example.com")
	t.Setenv("BACKEND_PASSWORD", "pw")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")
	t.Setenv("CATALOG_CACHE_TTL_SECONDS", "not-a-number")
	t.Setenv("REDIS_DB", "2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.BackendURL != "https://api.example.com" {
		t.Errorf("BackendURL = %q, want trailing slash trimmed", cfg.BackendURL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if cfg.CatalogCacheTTL != time.Duration(defaultCatalogCacheTTL)*time.Second {
		t.Errorf("CatalogCacheTTL = %v, want default on invalid input", cfg.CatalogCacheTTL)
	}
	if cfg.RedisDB != 2 {
		t.Errorf("RedisDB = %d", cfg.RedisDB)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() without JWT_SECRET succeeded")
	}

	t.Setenv("JWT_SECRET", "s")
	t.Setenv("BACKEND_URL", "https://api.example.com")
	t.Setenv("BACKEND_EMAIL", "")
	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() with BACKEND_URL but no credentials succeeded")
	}
}
