package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret string
	RedisURL  string

	// AdminEmail and AdminPassword seed the first admin on an empty database.
	AdminEmail    string
	AdminPassword string

	LogLevel  string
	LogFormat string

	// RecomputeAttempts bounds the optimistic write loop of the rating engine.
	RecomputeAttempts int
	// ConflictRetries bounds how often a handler replays a moderation
	// transition that lost a compare-and-set race.
	ConflictRetries int
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBName:            getEnv("DB_NAME", "reviewhub"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		RecomputeAttempts: getEnvInt("RECOMPUTE_ATTEMPTS", 5),
		ConflictRetries:   getEnvInt("CONFLICT_RETRIES", 3),
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
