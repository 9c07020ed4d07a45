// Command ticketbooth-stub starts the in-memory reservation backend.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ticketbooth/internal/limiter"
	"ticketbooth/internal/model"
	"ticketbooth/internal/stub"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// main parses configuration, seeds the store, and serves until interrupted.
func main() {
	_ = godotenv.Load()

	// Flags, with env fallbacks for container use
	addr := flag.String("addr", envOr("STUB_ADDR", ":8080"), "listen address")
	jwtKey := flag.String("jwt-key", os.Getenv("JWT_SECRET"), "HS256 signing key (required)")
	accessTTL := flag.Duration("access-ttl", time.Hour, "access token TTL")
	adminEmail := flag.String("admin-email", envOr("ADMIN_EMAIL", "admin@example.com"), "seeded admin email")
	adminPass := flag.String("admin-password", envOr("ADMIN_PASSWORD", "admin1234"), "seeded admin password")
	seedDemo := flag.Bool("seed-demo", false, "seed a few demo concerts")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	if *jwtKey == "" {
		logger.Fatal("missing jwt signing key (--jwt-key or JWT_SECRET)")
	}

	store := stub.NewStore()
	if _, err := store.CreateUser("Admin", *adminEmail, *adminPass, model.RoleAdmin); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}
	if *seedDemo {
		store.CreateConcert("Midnight Echoes", "Indie rock, standing room only", 120)
		store.CreateConcert("Symphony No. 9", "Full orchestra, reserved seating", 400)
		store.CreateConcert("Jazz at the Cellar", "Late set, limited tables", 40)
		logger.Info("seeded demo concerts")
	}

	lim := limiter.NewMemory(5, 15*time.Minute)
	srv := stub.NewServer(store, logger, []byte(*jwtKey), *accessTTL, lim)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	srv.Routes(e)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr))
		errCh <- e.Start(*addr)
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
