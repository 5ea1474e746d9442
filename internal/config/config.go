package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr          string
	ShopAPIURL        string
	RedisAddr         string
	RedisPassword     string
	SessionTTL        time.Duration
	SearchDebounce    time.Duration
	HTTPClientTimeout time.Duration
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		ShopAPIURL:        getenv("SHOP_API_URL", "https://shop.uzjoylar.uz"),
		RedisAddr:         getenv("REDIS_ADDR", ""),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		SessionTTL:        getenvDuration("SESSION_TTL", 12*time.Hour),
		SearchDebounce:    getenvDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
		HTTPClientTimeout: getenvDuration("HTTP_CLIENT_TIMEOUT", 15*time.Second),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
