package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ADDR", "PORT", "BOT_DELAY_MS", "IDLE_TIMEOUT", "SWEEP_INTERVAL", "POSTGRES_URL",
		"REDIS_URL", "REDIS_PASSWORD", "LEADERBOARD_KEY", "KAFKA_BROKERS", "KAFKA_TOPIC", "STATIC_DIR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Second, cfg.BotDelay)
	assert.Equal(t, 30*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, DefaultLeaderKey, cfg.LeaderboardKey)
	assert.Equal(t, DefaultKafkaTopic, cfg.KafkaTopic)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.PostgresURL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":9000")
	t.Setenv("PORT", "7000")
	t.Setenv("BOT_DELAY_MS", "0")
	t.Setenv("IDLE_TIMEOUT", "60")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("REDIS_URL", "localhost:6379")

	cfg := Load()
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, time.Duration(0), cfg.BotDelay)
	assert.Equal(t, time.Minute, cfg.IdleTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "localhost:6379", cfg.RedisURL)
}

func TestGetEnvAsIntFallsBack(t *testing.T) {
	t.Setenv("BOT_DELAY_MS", "soon")
	assert.Equal(t, 250, GetEnvAsInt("BOT_DELAY_MS", 250))
	t.Setenv("BOT_DELAY_MS", "-5")
	assert.Equal(t, 250, GetEnvAsInt("BOT_DELAY_MS", 250))
}

func TestGetEnvAsListBlank(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	assert.Equal(t, []string{"x"}, GetEnvAsList("KAFKA_BROKERS", []string{"x"}))
}
