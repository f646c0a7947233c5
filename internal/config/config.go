package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fracki1010/edu-cart-backend/internal/repository"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	DB repository.Credentials

	RedisAddr string

	JWTSecret      string
	TokenTTL       time.Duration
	BcryptCost     int
	LogLevel       string
	MigrateOnStart bool
}

// Load reads configuration from the environment, with an optional .env file
// for local development. Missing keys fall back to defaults suitable for a
// dev compose setup.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		AllowedOrigins:  strings.Split(getEnv("CORS_ORIGINS", "http://localhost:5173"), ","),
		DB: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "edu_cart"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "./internal/repository/migrations"),
		},
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:       getDuration("TOKEN_TTL", 2*time.Hour),
		BcryptCost:     getInt("BCRYPT_COST", 0),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MigrateOnStart: getEnv("MIGRATE_ON_START", "true") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
