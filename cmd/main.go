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

	"github.com/Dosada05/tournament-standings/config"
	"github.com/Dosada05/tournament-standings/db"
	"github.com/Dosada05/tournament-standings/handlers"
	"github.com/Dosada05/tournament-standings/live"
	"github.com/Dosada05/tournament-standings/metrics"
	"github.com/Dosada05/tournament-standings/middleware"
	"github.com/Dosada05/tournament-standings/repositories"
	api "github.com/Dosada05/tournament-standings/routes"
	"github.com/Dosada05/tournament-standings/scoring"
	"github.com/Dosada05/tournament-standings/services"
	"github.com/Dosada05/tournament-standings/storage"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("log_level", cfg.LogLevel.String()))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

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
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(dbConn, "standings"),
	)
	standingsMetrics := metrics.NewStandings(registry)

	var archiver services.Archiver
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewStandingsArchiver(uploader, "standings")
		logger.Info("standings archiving enabled", slog.String("bucket", cfg.R2BucketName))
	} else {
		logger.Info("standings archiving disabled, R2 is not configured")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run(ctx)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	formulaRepo := repositories.NewPostgresFormulaRepository(dbConn)
	standingRepo := repositories.NewPostgresTournamentStandingRepository(dbConn)

	history := services.NewGameHistoryStore(tournamentRepo, gameRepo)
	resolver := scoring.NewResolver(services.NewFormulaStore(tournamentRepo, formulaRepo), logger)
	engine := scoring.NewEngine(history, resolver)

	standingsService := services.NewStandingsService(services.StandingsServiceDeps{
		Engine:      engine,
		History:     history,
		Tournaments: tournamentRepo,
		Snapshots:   standingRepo,
		Hub:         wsHub,
		Archiver:    archiver,
		Metrics:     standingsMetrics,
		Logger:      logger,
	})
	authService := services.NewAuthService(userRepo, logger)
	userService := services.NewUserService(userRepo)
	adminService := services.NewAdminUserService(userRepo)
	dashboardService := services.NewDashboardService(userRepo, tournamentRepo, gameRepo, formulaRepo)
	teamService := services.NewTeamService(teamRepo, userRepo)
	formulaService := services.NewFormulaService(formulaRepo, tournamentRepo, standingsService, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, formulaRepo, standingsService, logger)
	participantService := services.NewParticipantService(participantRepo, teamRepo, tournamentRepo, logger)
	gameService := services.NewGameService(gameRepo, participantRepo, tournamentRepo, standingsService, logger)

	if err := formulaService.SeedTemplates(ctx); err != nil {
		logger.Error("failed to seed formula templates", slog.Any("error", err))
		os.Exit(1)
	}

	scheduler, err := services.NewScheduler(tournamentService, cfg.SchedulerInterval, logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, cfg.JWTSecretKey, logger),
		User:        handlers.NewUserHandler(userService, logger),
		Team:        handlers.NewTeamHandler(teamService, logger),
		Tournament:  handlers.NewTournamentHandler(tournamentService, logger),
		Participant: handlers.NewParticipantHandler(participantService, logger),
		Game:        handlers.NewGameHandler(gameService, logger),
		Standings:   handlers.NewStandingsHandler(standingsService, logger),
		Formula:     handlers.NewFormulaHandler(formulaService, logger),
		Admin:       handlers.NewAdminUserHandler(adminService, dashboardService, logger),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
	}, api.Options{
		JWTSecret:       []byte(cfg.JWTSecretKey),
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		AuthRateLimiter: middleware.NewIPRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst),
		Gatherer:        registry,
		DB:              dbConn,
		Logger:          logger,
	})

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			os.Exit(1)
		}
		logger.Info("server stopped")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
