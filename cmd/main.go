package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/daint2git/auth-service/config"
	"github.com/daint2git/auth-service/db"
	"github.com/daint2git/auth-service/internal/auth/handler"
	"github.com/daint2git/auth-service/internal/auth/provider"
	repo "github.com/daint2git/auth-service/internal/auth/repository/postgres"
	"github.com/daint2git/auth-service/internal/auth/service"
	"github.com/daint2git/auth-service/internal/auth/store"
	"github.com/daint2git/auth-service/internal/mailer"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := db.RunMigrations(ctx, cfg.DBURL); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient, err := db.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	userRepo := repo.NewPostgresRepository(dbPool)
	storeClient := store.New(redisClient)
	resend := mailer.NewResend(cfg.ResendAPIKey, cfg.ResendFromEmail)

	sessionService := service.NewSessionService(userRepo, cfg.SessionExpiryDays)
	verificationService := service.NewVerificationService(userRepo, storeClient, resend, logger)
	userService := service.NewUserService(userRepo, sessionService, verificationService, logger)
	oauthService := service.NewOAuthService(userRepo, sessionService, logger)

	google := provider.NewGoogle(cfg.Google)
	github := provider.NewGithub(cfg.Github)

	app := fiber.New()
	handler.RegisterRoutes(app,
		handler.NewAuthHandler(userService, sessionService, cfg, logger),
		handler.NewVerificationHandler(verificationService, logger),
		handler.NewOAuthHandler(oauthService, google, github, cfg, logger),
	)

	logger.Info("listening", "port", cfg.Port, "env", cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
