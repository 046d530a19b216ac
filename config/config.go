package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort                = "8080"
	defaultJWTExpirationHours  = 24
	defaultCatalogCacheTTL     = 300
	defaultEditorIdleTimeout   = 900
	defaultReportPageSize      = 10
	defaultEditorSweepInterval = 60
)

type Config struct {
	Port string

	// database path
	DatabasePath string

	// remote backend for permission editors; empty means the local database
	BackendURL      string
	BackendEmail    string
	BackendPassword string

	// authentication
	JWTSecret     []byte
	JWTExpiration time.Duration

	// role whose permissions cannot be edited and which always holds every permission
	ProtectedRoleName string

	CORSAllowedOrigins []string

	// redis catalog cache; an empty address falls back to an in-process cache
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	// permission editor sessions
	EditorIdleTimeout   time.Duration
	EditorSweepInterval time.Duration

	ReportPageSize int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// getEnvListOrDefault splits a comma-separated variable, dropping blank entries
func getEnvListOrDefault(envVar string, defaultVal []string) []string {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func LoadConfig() (Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	backendURL := strings.TrimRight(os.Getenv("BACKEND_URL"), "/")
	backendEmail := os.Getenv("BACKEND_EMAIL")
	backendPassword := os.Getenv("BACKEND_PASSWORD")
	if backendURL != "" && (backendEmail == "" || backendPassword == "") {
		return Config{}, fmt.Errorf("BACKEND_EMAIL and BACKEND_PASSWORD are required when BACKEND_URL is set")
	}

	redisDB, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return Config{}, fmt.Errorf("invalid REDIS_DB '%s'", os.Getenv("REDIS_DB"))
	}

	cfg := Config{
		Port:                getEnvOrDefault("PORT", defaultPort),
		DatabasePath:        getEnvOrDefault("DATABASE_PATH", "adminconsole.db"),
		BackendURL:          backendURL,
		BackendEmail:        backendEmail,
		BackendPassword:     backendPassword,
		JWTSecret:           []byte(secret),
		JWTExpiration:       time.Duration(getEnvIntOrDefault("JWT_EXPIRATION_HOURS", defaultJWTExpirationHours)) * time.Hour,
		ProtectedRoleName:   strings.TrimSpace(getEnvOrDefault("PROTECTED_ROLE_NAME", "Admin")),
		CORSAllowedOrigins:  getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:4200"}),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		CatalogCacheTTL:     seconds(getEnvIntOrDefault("CATALOG_CACHE_TTL_SECONDS", defaultCatalogCacheTTL)),
		EditorIdleTimeout:   seconds(getEnvIntOrDefault("EDITOR_IDLE_TIMEOUT_SECONDS", defaultEditorIdleTimeout)),
		EditorSweepInterval: seconds(getEnvIntOrDefault("EDITOR_SWEEP_INTERVAL_SECONDS", defaultEditorSweepInterval)),
		ReportPageSize:      getEnvIntOrDefault("REPORT_PAGE_SIZE", defaultReportPageSize),
	}

	return cfg, nil
}
