package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ProviderCredentials is one OAuth2 client registration.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

// Enabled reports whether the registration is configured at all. Providers
// without credentials are simply not mounted.
func (c ProviderCredentials) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type Config struct {
	TokenSecret string // Required: HMAC signing secret for issued tokens

	BaseURL                string        // Public base URL the providers redirect back to (default: http://localhost:8080)
	AuthorizedRedirectURIs []string      // Comma list of allowed post-login destinations
	AccessTTL              time.Duration // Access token lifetime (default: 30m)
	RefreshTTL             time.Duration // Refresh token lifetime (default: 14 days)

	Google   ProviderCredentials
	Facebook ProviderCredentials
	Naver    ProviderCredentials
	Kakao    ProviderCredentials

	DatabaseFile        string        // Path to SQLite database file (default: ./auth.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		TokenSecret: os.Getenv("AUTH_TOKEN_SECRET"),

		BaseURL:                getEnvOrDefault("AUTH_BASE_URL", "http://localhost:8080"),
		AuthorizedRedirectURIs: splitCommaList(os.Getenv("AUTH_AUTHORIZED_REDIRECT_URIS")),
		AccessTTL:              getEnvDurationOrDefault("AUTH_ACCESS_TTL", 30*time.Minute),
		RefreshTTL:             getEnvDurationOrDefault("AUTH_REFRESH_TTL", 14*24*time.Hour),

		Google:   loadProviderCredentials("GOOGLE"),
		Facebook: loadProviderCredentials("FACEBOOK"),
		Naver:    loadProviderCredentials("NAVER"),
		Kakao:    loadProviderCredentials("KAKAO"),

		DatabaseFile:        getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func loadProviderCredentials(name string) ProviderCredentials {
	return ProviderCredentials{
		ClientID:     os.Getenv("OAUTH2_" + name + "_CLIENT_ID"),
		ClientSecret: os.Getenv("OAUTH2_" + name + "_CLIENT_SECRET"),
	}
}

func splitCommaList(value string) []string {
	if value == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
