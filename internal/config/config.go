package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	Port      string
	JWTSecret string

	DB    DBConfig
	Redis RedisConfig
	Blob  BlobConfig

	// RequireCommentApproval controls whether new comments start in the
	// moderation queue instead of being published immediately.
	RequireCommentApproval bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr string
}

type BlobConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load reads .env (if present) and builds the config from environment
// variables.
func Load() *Config {
	// Missing .env is fine in containers; env vars take over.
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "aqarhub"),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		},
		Blob: BlobConfig{
			Endpoint:  getEnv("BLOB_ENDPOINT", "127.0.0.1:9000"),
			AccessKey: os.Getenv("BLOB_ACCESS_KEY"),
			SecretKey: os.Getenv("BLOB_SECRET_KEY"),
			Bucket:    getEnv("BLOB_BUCKET", "aqarhub"),
			UseSSL:    getBoolEnv("BLOB_USE_SSL", false),
		},
		RequireCommentApproval: getBoolEnv("REQUIRE_COMMENT_APPROVAL", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
