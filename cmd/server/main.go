// Package main provides the entry point for the PhD talent HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/phd-talent-service/internal/config"
	"github.com/helixir/phd-talent-service/internal/database"
	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/llm"
	"github.com/helixir/phd-talent-service/internal/observability"
	"github.com/helixir/phd-talent-service/internal/repository"
	httpserver "github.com/helixir/phd-talent-service/internal/server/http"
	"github.com/helixir/phd-talent-service/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("phd-talent-service server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	// Run migrations if configured.
	if cfg.Database.MigrationAutoRun {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("phd_talent")
	}

	// Create repositories.
	repos := service.Repositories{
		Universities:    repository.NewPgUniversityRepository(db, cfg.Pipeline.PageSize),
		Candidates:      repository.NewPgCandidateRepository(db, cfg.Pipeline.PageSize),
		Publications:    repository.NewPgPublicationRepository(db, cfg.Pipeline.PageSize),
		AcademicMetrics: repository.NewPgAcademicMetricsRepository(db, cfg.Pipeline.PageSize),
	}

	chat, err := newChatProvider(&cfg.Chat, logger)
	if err != nil {
		return err
	}

	svc := service.New(repos, chat, service.Config{
		MaxCandidates: cfg.Pipeline.MaxCandidates,
		DefaultYears: domain.YearRange{
			Start: cfg.Pipeline.DefaultYearStart,
			End:   cfg.Pipeline.DefaultYearEnd,
		},
		DefaultComparisonYears: domain.YearRange{
			Start: cfg.Pipeline.DefaultComparisonStart,
			End:   cfg.Pipeline.DefaultComparisonEnd,
		},
	}, logger, metrics)

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		ChatRPS:         cfg.Chat.RateLimit.RPS,
		ChatBurst:       cfg.Chat.RateLimit.Burst,
	}
	httpSrv := httpserver.NewServer(httpCfg, svc, db, logger, metrics)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		logger.Info().
			Str("address", httpCfg.Address).
			Msg("HTTP server starting")
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().
		Str("http_address", httpCfg.Address).
		Bool("chat_enabled", chat != nil)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("phd-talent-service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down phd-talent-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("phd-talent-service shutdown complete")
	return nil
}

// newChatProvider returns nil when chat is disabled so the service answers
// chat requests with a not-configured error.
func newChatProvider(cfg *config.ChatConfig, logger zerolog.Logger) (llm.ChatProvider, error) {
	if !cfg.Enabled {
		logger.Info().Msg("candidate chat disabled")
		return nil, nil
	}

	provider, err := llm.NewChatProvider(llm.FactoryConfig{
		Provider:    cfg.Provider,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
		OpenAI: llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		},
		Anthropic: llm.AnthropicConfig{
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			BaseURL: cfg.Anthropic.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create chat provider: %w", err)
	}

	logger.Info().
		Str("provider", provider.Provider()).
		Str("model", provider.Model()).
		Msg("candidate chat enabled")
	return provider, nil
}
