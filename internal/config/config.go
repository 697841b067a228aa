package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port               string
	DatabaseURL        string
	Timezone           *time.Location
	RateLimitPerMinute int
	RateLimitBurst     int
	HubSendBuffer      int
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DB_DSN"),
		Timezone:           readLocation("TIMEZONE"),
		RateLimitPerMinute: readInt("RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:     readInt("RATE_LIMIT_BURST", 30),
		HubSendBuffer:      readInt("HUB_SEND_BUFFER", 16),
	}
}

func readLocation(key string) *time.Location {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		log.Printf("invalid %s %q, using host timezone", key, raw)
		return time.Local
	}
	return loc
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
