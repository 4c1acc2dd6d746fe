package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"techservice/internal/cache"
	"techservice/internal/config"
	"techservice/internal/database"
	"techservice/internal/middleware"
	"techservice/internal/modules/auth"
	"techservice/internal/modules/notify"
	"techservice/internal/pkg/token"
	"techservice/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	var rdb *redis.Client
	var sharedTier cache.Store
	if cfg.RedisAddr != "" {
		rdb, err = cache.OpenRedis(ctx, cache.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			log.Fatalf("redis connect failed: %v", err)
		}
		defer rdb.Close()
		sharedTier = cache.NewShared(rdb)
	} else {
		log.Printf("REDIS_ADDR not set, running without shared revocation tier and login throttle")
	}

	localTier := cache.NewLocal(cfg.LocalCacheTTL, cfg.LocalSweepInterval)
	defer localTier.Close()

	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	revokedRepo := repository.NewRevokedTokenRepository(db)

	tokens, err := token.NewManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		log.Fatalf("token manager: %v", err)
	}

	revocation := auth.NewRevocationChecker(
		localTier, sharedTier, revokedRepo,
		cfg.LocalCacheTTL, cfg.SharedCacheTTL, cfg.VerifyTimeout,
		cfg.DegradedLocalOnly,
	)

	hub := notify.NewHub()
	notifyHandler := notify.NewHandler(hub)

	authService := auth.NewService(userRepo, refreshRepo, revokedRepo, tokens, revocation, hub, cfg.RefreshTTL)

	var throttle *auth.LoginThrottle
	if rdb != nil {
		throttle = auth.NewLoginThrottle(rdb, cfg.ThrottleWindow, cfg.ThrottleMax)
	}
	authHandler := auth.NewHandler(authService, throttle)

	sweeper := auth.NewSweeper(refreshRepo, revokedRepo, cfg.SweepHour)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	r := gin.Default()
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(authService))
		{
			authHandler.RegisterProtectedRoutes(protected)
			notifyHandler.RegisterProtectedRoutes(protected)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(authService), middleware.AdminOnly())
		{
			authHandler.RegisterAdminRoutes(admin)
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalTokenAuth(cfg.InternalToken))
		{
			notifyHandler.RegisterInternalRoutes(internal)
		}
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		log.Printf("listening on :%s env=%s", cfg.Port, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
