package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything main needs to boot the server. All values have
// working defaults so a bare `go run .` starts a usable instance.
type Config struct {
	Port           string
	AllowedOrigins string
	Debug          bool

	// Room garbage collection windows, checked by the lobby sweep.
	SweepInterval        time.Duration
	EmptyRoomGrace       time.Duration
	DisconnectedTimeout  time.Duration
	AbandonedGameTimeout time.Duration
}

func Load() Config {
	// Missing .env is fine, real deployments pass env vars directly.
	_ = godotenv.Load()

	return Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		Debug:          getBool("DEBUG", false),

		SweepInterval:        getDuration("SWEEP_INTERVAL", time.Minute),
		EmptyRoomGrace:       getDuration("EMPTY_ROOM_GRACE", 2*time.Minute),
		DisconnectedTimeout:  getDuration("DISCONNECTED_TIMEOUT", 10*time.Minute),
		AbandonedGameTimeout: getDuration("ABANDONED_GAME_TIMEOUT", 30*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
