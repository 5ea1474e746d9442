package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"shopadmin/internal/config"
	internalhttp "shopadmin/internal/http"
	"shopadmin/internal/session"
	"shopadmin/internal/shopapi"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sessions session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
	} else {
		log.Printf("REDIS_ADDR not set, sessions are in-memory only")
		sessions = session.NewMemoryStore(cfg.SessionTTL)
	}

	api := shopapi.New(cfg.ShopAPIURL, &http.Client{Timeout: cfg.HTTPClientTimeout})
	server := internalhttp.NewServer(cfg, api, sessions)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("shopadmin listening on %s (shop api %s)", cfg.HTTPAddr, cfg.ShopAPIURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
