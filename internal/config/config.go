package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates runtime configuration for the authgate service.
type Config struct {
	Environment    string
	HTTPPort       int
	DataStore      string
	DatabaseURL    string
	RedisAddr      string
	LogLevel       string
	AllowedOrigins []string
	StaticDir      string
	Auth           AuthConfig
}

// AuthConfig holds the identity-provider settings. ClientSecret is
// confidential and is read from the environment exactly once at boot.
type AuthConfig struct {
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Load reads configuration from environment variables with sensible defaults
// for local development. The client secret is mandatory: the process refuses
// to start without it.
func Load() (Config, error) {
	clientSecret, err := getEnvOrFile("AUTH_CLIENT_SECRET", "/run/secrets/authgate_client_secret")
	if err != nil {
		return Config{}, err
	}
	if clientSecret == "" {
		return Config{}, errors.New("AUTH_CLIENT_SECRET must be set in your environment")
	}

	databaseURL, err := getEnvOrFile("DATABASE_URL", "/run/secrets/authgate_database_url")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:    getEnv("APP_ENV", "development"),
		DataStore:      strings.ToLower(getEnv("DATA_STORE", "memory")),
		DatabaseURL:    databaseURL,
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins: parseCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:8080")),
		StaticDir:      getEnv("STATIC_DIR", "static"),
		Auth: AuthConfig{
			Domain:       getEnv("AUTH_DOMAIN", ""),
			ClientID:     getEnv("AUTH_CLIENT_ID", ""),
			ClientSecret: strings.TrimSpace(clientSecret),
			RedirectURI:  getEnv("AUTH_REDIRECT_URI", ""),
		},
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8080"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	if cfg.Auth.Domain == "" {
		return Config{}, errors.New("AUTH_DOMAIN is required")
	}
	if cfg.Auth.ClientID == "" {
		return Config{}, errors.New("AUTH_CLIENT_ID is required")
	}
	if cfg.Auth.RedirectURI == "" {
		return Config{}, errors.New("AUTH_REDIRECT_URI is required")
	}

	switch cfg.DataStore {
	case "memory", "redis":
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATA_STORE is postgres but DATABASE_URL is not set")
		}
	default:
		return Config{}, fmt.Errorf("unknown DATA_STORE %q (want memory, redis, or postgres)", cfg.DataStore)
	}

	return cfg, nil
}

// HTTPAddress returns the address the HTTP server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvOrFile(key, defaultPath string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}

	fileKey := key + "_FILE"
	if path := os.Getenv(fileKey); path != "" {
		return readSecret(path, fileKey)
	}

	if defaultPath != "" {
		return readSecret(defaultPath, key)
	}

	return "", nil
}

func readSecret(path, name string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: reading %s (%s): %w", name, path, err)
	}

	value := strings.TrimSpace(string(contents))
	if value == "" {
		return "", fmt.Errorf("config: %s (%s) is empty", name, path)
	}
	return value, nil
}
