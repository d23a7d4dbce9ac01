package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Client    ClientConfig
	Authority AuthorityConfig
	Telemetry TelemetryConfig
	LogLevel  string
}

// ClientConfig configures the portal client and CLI.
type ClientConfig struct {
	APIBaseURL     string
	SessionFile    string
	PreviewDir     string
	RequestTimeout time.Duration
}

// AuthorityConfig configures the local authority served by "portal server".
type AuthorityConfig struct {
	ServerPort    int
	JWTSecret     string
	TokenTTL      time.Duration
	AvatarBackend string
	PublicURL     string
	Minio         MinioConfig
	GCS           GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type TelemetryConfig struct {
	Endpoint string
	Insecure bool
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	port := getEnvInt("SERVER_PORT", 8080)

	return Config{
		Client: ClientConfig{
			APIBaseURL:     strings.TrimRight(getEnv("PORTAL_API_BASE_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
			SessionFile:    getEnv("PORTAL_SESSION_FILE", defaultSessionFile()),
			PreviewDir:     getEnv("PORTAL_PREVIEW_DIR", ""),
			RequestTimeout: time.Duration(getEnvInt("PORTAL_REQUEST_TIMEOUT", 30)) * time.Second,
		},
		Authority: AuthorityConfig{
			ServerPort:    port,
			JWTSecret:     getEnv("JWT_SECRET", ""),
			TokenTTL:      time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
			AvatarBackend: getEnv("AVATAR_BACKEND", "memory"),
			PublicURL:     strings.TrimRight(getEnv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", "portal-avatars"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		Telemetry: TelemetryConfig{
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		},
		LogLevel: getEnv("PORTAL_LOG_LEVEL", "info"),
	}
}

// defaultSessionFile mirrors the XDG layout: $XDG_CONFIG_HOME/portal/session.json,
// falling back to ~/.config.
func defaultSessionFile() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "portal-session.json")
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "portal", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return defaultValue
}
