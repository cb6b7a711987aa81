package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"emittr/connectfour/internal/analytics"
	"emittr/connectfour/internal/config"
	"emittr/connectfour/internal/leaderboard"
	"emittr/connectfour/internal/server"
	"emittr/connectfour/internal/storage"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeKV := openKV(ctx, cfg)
	defer closeKV()

	producer := analytics.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	srv := server.New(server.Config{
		BotDelay:      cfg.BotDelay,
		IdleTimeout:   cfg.IdleTimeout,
		SweepInterval: cfg.SweepInterval,
		Leaderboard:   leaderboard.New(kv, cfg.LeaderboardKey),
		Analytics:     producer,
		StaticDir:     cfg.StaticDir,
	})

	log.Printf("server listening on %s", cfg.Addr)
	if err := srv.Run(ctx, cfg.Addr); err != nil {
		log.Fatal(err)
	}
	log.Println("server exited properly")
}

// openKV picks the leaderboard backend: Redis, then PostgreSQL, then memory.
func openKV(ctx context.Context, cfg config.Config) (storage.KV, func()) {
	if cfg.RedisURL != "" {
		rdb, err := storage.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			log.Printf("redis disabled: %v", err)
		} else {
			log.Printf("leaderboard stored in redis at %s", cfg.RedisURL)
			return rdb, func() { _ = rdb.Close() }
		}
	}
	if cfg.PostgresURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			log.Printf("postgres disabled: %v", err)
		} else if err := pg.EnsureTables(ctx); err != nil {
			log.Printf("postgres ensure tables failed: %v", err)
			pg.Close(context.Background())
		} else {
			log.Println("leaderboard stored in postgres")
			return pg, func() { pg.Close(context.Background()) }
		}
	}
	log.Println("leaderboard stored in memory")
	return storage.NewMemoryStore(), func() {}
}
