package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HAESOL87/beSpoked-bikes/internal/cache"
	"github.com/HAESOL87/beSpoked-bikes/internal/config"
	"github.com/HAESOL87/beSpoked-bikes/internal/httpapi"
	"github.com/HAESOL87/beSpoked-bikes/internal/partner"
	"github.com/HAESOL87/beSpoked-bikes/internal/service"
	"github.com/HAESOL87/beSpoked-bikes/internal/store"
	"github.com/HAESOL87/beSpoked-bikes/internal/store/memory"
	pgstore "github.com/HAESOL87/beSpoked-bikes/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres unavailable (%v) and DATABASE_URL is set; refusing to start with in-memory fallback", err)
		}
		repo = pg
		closers = append(closers, pg.Close)
		log.Println("repository: postgres")
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory (seeded)")
	}

	partnerCache := cache.PartnerCache(cache.NoopPartnerCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisPartnerCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			partnerCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	partnerClient := partner.NewClient(
		cfg.PartnerAPIURL,
		time.Duration(cfg.PartnerTimeoutSeconds)*time.Second,
		partnerCache,
		time.Duration(cfg.PartnerCacheTTLSeconds)*time.Second,
	)

	svc := service.New(repo)
	api := httpapi.New(svc, partnerClient, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("BeSpoked Bikes backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}
