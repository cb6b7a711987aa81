package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultKafkaTopic = "game-events"
	DefaultLeaderKey  = "connectFourLeaderboard"
)

type Config struct {
	Addr           string
	BotDelay       time.Duration
	IdleTimeout    time.Duration
	SweepInterval  time.Duration
	PostgresURL    string
	RedisURL       string
	RedisPassword  string
	LeaderboardKey string
	KafkaBrokers   []string
	KafkaTopic     string
	StaticDir      string
}

// LoadDotEnv reads .env from the working directory or its parent if present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			log.Println("No .env file found")
		}
	}
}

func Load() Config {
	// PORT wins when set (Render, Fly.io, Heroku, ...)
	addr := GetEnv("ADDR", ":8080")
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	return Config{
		Addr:           addr,
		BotDelay:       time.Duration(GetEnvAsInt("BOT_DELAY_MS", 1000)) * time.Millisecond,
		IdleTimeout:    time.Duration(GetEnvAsInt("IDLE_TIMEOUT", 1800)) * time.Second,
		SweepInterval:  time.Duration(GetEnvAsInt("SWEEP_INTERVAL", 60)) * time.Second,
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		LeaderboardKey: GetEnv("LEADERBOARD_KEY", DefaultLeaderKey),
		KafkaBrokers:   GetEnvAsList("KAFKA_BROKERS", nil),
		KafkaTopic:     GetEnv("KAFKA_TOPIC", DefaultKafkaTopic),
		StaticDir:      os.Getenv("STATIC_DIR"),
	}
}

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 {
		log.Printf("Invalid integer value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsList splits a comma separated value, dropping blanks.
func GetEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
