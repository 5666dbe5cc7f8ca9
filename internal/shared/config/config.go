package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	KurrentDB KurrentDBConfig
	Auth      AuthConfig
	AI        AIConfig
	Caregiver CaregiverConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

// StorageConfig selects the durable snapshot backend.
type StorageConfig struct {
	// Driver: "file", "postgres" or "memory"
	Driver string
	// Dir is the snapshot directory for the file driver
	Dir string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// KurrentDBConfig holds configuration for the optional KurrentDB
// (EventStoreDB) activity stream.
type KurrentDBConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
	Stream   string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// AIConfig holds configuration for the external conflict-suggestion service.
type AIConfig struct {
	// APIKey for the generative-text service; empty disables the client
	APIKey string
	// BaseURL of the service (Gemini-compatible generateContent endpoint)
	BaseURL string
	// Model name passed in the request path
	Model string
	// Timeout for a single suggestion request
	Timeout time.Duration
	// RequestsPerMinute caps outbound calls to the service
	RequestsPerMinute int
}

type CaregiverConfig struct {
	Name      string
	AvatarURL string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "file"),
			Dir:    getEnv("STORAGE_DIR", "./data"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "carebridge"),
			Password: getEnv("DB_PASSWORD", "carebridge"),
			Database: getEnv("DB_NAME", "carebridge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		KurrentDB: KurrentDBConfig{
			Enabled:  getEnvBool("KURRENTDB_ENABLED", false),
			Host:     getEnv("KURRENTDB_HOST", "localhost"),
			Port:     getEnvInt("KURRENTDB_PORT", 2113),
			Insecure: getEnvBool("KURRENTDB_INSECURE", true),
			Username: getEnv("KURRENTDB_USERNAME", ""),
			Password: getEnv("KURRENTDB_PASSWORD", ""),
			Stream:   getEnv("KURRENTDB_STREAM", "carebridge-activity"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 24)) * time.Hour,
		},
		AI: AIConfig{
			APIKey:            getEnv("AI_API_KEY", ""),
			BaseURL:           getEnv("AI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:             getEnv("AI_MODEL", "gemini-2.5-flash"),
			Timeout:           time.Duration(getEnvInt("AI_TIMEOUT_SECONDS", 30)) * time.Second,
			RequestsPerMinute: getEnvInt("AI_REQUESTS_PER_MINUTE", 10),
		},
		Caregiver: CaregiverConfig{
			Name:      getEnv("CAREGIVER_NAME", "Alex Johnson"),
			AvatarURL: getEnv("CAREGIVER_AVATAR_URL", ""),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
