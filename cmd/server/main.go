package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fracki1010/edu-cart-backend/internal/auth"
	"github.com/fracki1010/edu-cart-backend/internal/cache"
	"github.com/fracki1010/edu-cart-backend/internal/config"
	h "github.com/fracki1010/edu-cart-backend/internal/http"
	"github.com/fracki1010/edu-cart-backend/internal/repository"
	"github.com/fracki1010/edu-cart-backend/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := config.Load()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("port", cfg.HTTPPort).
		Str("db", cfg.DB.DBName).
		Str("redis", cfg.RedisAddr).
		Msg("starting edu-cart backend")

	db, err := repository.Connect(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := repository.RunMigrations(db, &cfg.DB); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("migrations applied")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	authSvc := auth.NewService(auth.Config{
		Secret:     []byte(cfg.JWTSecret),
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
	})

	cartRepo := repository.NewCartRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)
	userRepo := repository.NewUserRepo(db)

	catalogSvc := service.NewCatalogService(catalogRepo)
	cartSvc := service.NewCartService(cartRepo, catalogSvc, cache.NewRedisCache(redisClient))
	userSvc := service.NewUserService(userRepo, authSvc)

	router := h.NewRouter(
		h.RouterConfig{
			RequestTimeout: cfg.RequestTimeout,
			AllowedOrigins: cfg.AllowedOrigins,
		},
		authSvc,
		h.NewAuthHandler(userSvc),
		h.NewProductHandler(catalogSvc),
		h.NewCategoryHandler(catalogSvc),
		h.NewCartHandler(cartSvc),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
