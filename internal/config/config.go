package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process-level settings. AI settings live in AIConfig.
type Config struct {
	MongoURI  string
	MongoDB   string
	RedisAddr string
	HTTPPort  string
	CacheTTL  time.Duration
	LogLevel  string
}

func Load() *Config {
	return &Config{
		MongoURI:  getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnvOrDefault("MONGO_DB", "sahayak_ai"),
		RedisAddr: redisAddr(),
		HTTPPort:  getEnvOrDefault("PORT", "8000"),
		CacheTTL:  cacheTTL(),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// redisAddr accepts both host:port and redis:// URL forms. An empty address
// (REDIS_ENABLED=false) runs the server without caching.
func redisAddr() string {
	if strings.EqualFold(os.Getenv("REDIS_ENABLED"), "false") {
		return ""
	}
	return strings.TrimPrefix(getEnvOrDefault("REDIS_URI", "localhost:6379"), "redis://")
}

func cacheTTL() time.Duration {
	const fallback = 7 * 24 * time.Hour
	raw := os.Getenv("CACHE_TTL_SECONDS")
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
