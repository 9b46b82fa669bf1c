package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/audit"
	"github.com/onboardlens/onboardlens/pkg/auth"
	"github.com/onboardlens/onboardlens/pkg/config"
	"github.com/onboardlens/onboardlens/pkg/database"
	"github.com/onboardlens/onboardlens/pkg/events"
	"github.com/onboardlens/onboardlens/pkg/handlers"
	"github.com/onboardlens/onboardlens/pkg/llm"
	"github.com/onboardlens/onboardlens/pkg/mcp"
	mcpauth "github.com/onboardlens/onboardlens/pkg/mcp/auth"
	"github.com/onboardlens/onboardlens/pkg/mcp/tools"
	"github.com/onboardlens/onboardlens/pkg/middleware"
	"github.com/onboardlens/onboardlens/pkg/repositories"
	"github.com/onboardlens/onboardlens/pkg/services"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("redis", cfg.Redis.Host != ""),
		zap.Bool("mcp", cfg.MCP.Enabled))

	db, err := connectDB(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		if err := migrate(db, logger); err != nil {
			return err
		}
	}

	rdb := connectRedis(ctx, &cfg.Redis, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	validator, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		HMACSecret:         cfg.Auth.JWTSecret,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWT validation: %w", err)
	}
	defer validator.Close()
	if !cfg.Auth.EnableVerification {
		logger.Warn("JWT signature verification is disabled")
	}

	hub := events.NewHub(events.DefaultBuffer, logger)
	handler := buildHandler(ctx, cfg, db, rdb, hub, auth.NewAuthService(validator, cfg.Auth.CookieName, logger), logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting onboardlens",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		var err error
		if cfg.TLSCertPath != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		hub.Close()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))

	// Websocket streams are hijacked and not tracked by Shutdown.
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildHandler wires repositories, services and routes into the root handler.
func buildHandler(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	rdb *redis.Client,
	hub *events.Hub,
	authService auth.AuthService,
	logger *zap.Logger,
) http.Handler {
	auditor := audit.NewSecurityAuditor(logger)
	withUser := services.NewUserContextFunc(db)

	projectRepo := repositories.NewProjectRepository()
	reportRepo := repositories.NewReportRepository()
	insightRepo := repositories.NewInsightRepository()

	llmClient, err := llm.NewClientFromConfig(ctx, &cfg.LLM, rdb, cfg.Redis.CacheTTL, logger)
	switch {
	case errors.Is(err, apperrors.ErrNotConfigured):
		logger.Info("No LLM provider configured; insight generation is disabled")
	case err != nil:
		logger.Error("Failed to create LLM client; insight generation is disabled", zap.Error(err))
	}

	healthService := services.NewHealthService(db, cfg.Version, logger)
	projectService := services.NewProjectService(projectRepo, auditor, logger)
	reportService := services.NewReportService(projectRepo, reportRepo, nil, logger)
	insightService := services.NewInsightService(projectRepo, insightRepo, llmClient, cfg.LLM.Temperature, logger)
	dashboardService := services.NewDashboardService(projectRepo, reportRepo, insightRepo, withUser, logger)
	webhookService := services.NewWebhookService(projectRepo, withUser, hub, auditor, cfg.Webhook.Secret, logger)

	authMiddleware := auth.NewMiddleware(authService, logger)
	userMiddleware := handlers.UserMiddleware(database.WithUserContext(db, logger))

	mux := http.NewServeMux()

	handlers.NewHealthHandler(healthService, logger).RegisterRoutes(mux)
	handlers.NewProjectsHandler(projectService, logger).RegisterRoutes(mux, authMiddleware, userMiddleware)
	handlers.NewReportsHandler(reportService, logger).RegisterRoutes(mux, authMiddleware, userMiddleware)
	handlers.NewIngestHandler(reportService, logger).RegisterRoutes(mux, authMiddleware, userMiddleware)
	handlers.NewInsightsHandler(insightService, logger).RegisterRoutes(mux, authMiddleware, userMiddleware)
	handlers.NewDashboardHandler(dashboardService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewWebhooksHandler(webhookService, logger).RegisterRoutes(mux)
	handlers.NewEventsHandler(projectService, withUser, hub, cfg.CORS.AllowedOrigins, logger).RegisterRoutes(mux, authMiddleware)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("onboardlens", cfg.Version, mcp.NewAuditLogger(logger), logger)
		tools.RegisterHealthTool(mcpServer.MCP(), healthService)
		tools.RegisterFunnelTools(mcpServer.MCP(), nil)
		tools.RegisterProjectTools(mcpServer.MCP(), &tools.ProjectToolDeps{
			Projects: projectService,
			Reports:  reportService,
			Logger:   logger.Named("mcp-tools"),
		})
		handlers.NewMCPHandler(mcpServer, logger, cfg.MCP).
			RegisterRoutes(mux, mcpauth.NewMiddleware(authService, logger), userMiddleware)
	}

	var h http.Handler = mux
	h = middleware.ClientIP(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.CORS(cfg.CORS.AllowedOrigins)(h)
	return h
}
