package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/tournament-tracker/config"
	"github.com/Dosada05/tournament-tracker/db"
	"github.com/Dosada05/tournament-tracker/events"
	"github.com/Dosada05/tournament-tracker/handlers"
	"github.com/Dosada05/tournament-tracker/live"
	"github.com/Dosada05/tournament-tracker/repositories"
	api "github.com/Dosada05/tournament-tracker/routes"
	"github.com/Dosada05/tournament-tracker/services"
	"github.com/Dosada05/tournament-tracker/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	// Инициализация хранилища логотипов (Cloudflare R2)
	var logoStore storage.ObjectStore
	if cfg.R2Enabled() {
		logoStore, err = storage.NewR2Store(ctx, storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 store initialized")
	} else {
		logger.Warn("R2 is not configured, logo uploads are disabled")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Рассылка таблицы: через Redis, если он настроен, иначе напрямую в hub
	var notifier services.StandingsNotifier = wsHub
	if cfg.RedisURL != "" {
		redisClient, err := events.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer closeRedis(redisClient, logger)

		notifier = events.NewRedisNotifier(redisClient)
		subscriber := events.NewSubscriber(redisClient, wsHub, logger)
		go func() {
			if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("standings subscriber stopped", slog.Any("error", err))
			}
		}()
		logger.Info("redis standings relay started", slog.String("channel", events.StandingsChannel))
	}

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	refreshRepo := repositories.NewPostgresRefreshTokenRepository(dbConn)
	sessionRepo := repositories.NewPostgresUserSessionRepository(dbConn)
	pushRepo := repositories.NewPostgresPushTokenRepository(dbConn)
	txRunner := db.NewTxRunner(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	emailService, err := services.NewEmailService(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}
	tokenService := services.NewTokenService(cfg, refreshRepo)
	authService := services.NewAuthService(userRepo, refreshRepo, tokenService, txRunner)
	userService := services.NewUserService(cfg, userRepo, teamRepo, sessionRepo, emailService, txRunner, logger)
	teamService := services.NewTeamService(teamRepo, matchRepo, userRepo, logoStore, logger)
	matchService := services.NewMatchService(matchRepo, teamRepo, txRunner, notifier, logger)
	pushService := services.NewPushService(pushRepo)
	dashboardService := services.NewDashboardService(userRepo, teamRepo, matchRepo)
	logger.Info("Services initialized")

	// Запуск планировщика пересчёта очков и очистки токенов
	scheduler := services.NewScheduler(matchService, refreshRepo, sessionRepo, logger)
	if err := scheduler.Register(cfg.RecalculateSchedule, cfg.TokenCleanupSchedule); err != nil {
		logger.Error("failed to register scheduled jobs", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, cfg.CookieSecure),
		User:      handlers.NewUserHandler(userService, pushService),
		Team:      handlers.NewTeamHandler(teamService),
		Match:     handlers.NewMatchHandler(matchService),
		Admin:     handlers.NewAdminHandler(teamService, matchService, dashboardService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSOrigins, logger),
	}
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, api.Options{
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      tokenService,
		Users:       userService,
		Logger:      logger,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
		stop()
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	scheduler.Stop(shutdownCtx)

	logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("failed to force close server", slog.Any("error", closeErr))
		}
	} else {
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close redis client", slog.Any("error", err))
	}
}
