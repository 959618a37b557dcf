package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/mamaguard/mamaguard/internal/config"
	"github.com/mamaguard/mamaguard/internal/domain/alert"
	"github.com/mamaguard/mamaguard/internal/domain/conversation"
	"github.com/mamaguard/mamaguard/internal/domain/ingest"
	"github.com/mamaguard/mamaguard/internal/domain/patient"
	"github.com/mamaguard/mamaguard/internal/platform/checkin"
	"github.com/mamaguard/mamaguard/internal/platform/db"
	"github.com/mamaguard/mamaguard/internal/platform/llm"
	"github.com/mamaguard/mamaguard/internal/platform/middleware"
	"github.com/mamaguard/mamaguard/internal/platform/speech"
	"github.com/mamaguard/mamaguard/internal/platform/whatsapp"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mamaguard-server",
		Short: "Maternal health messaging server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the messaging server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Domain services
	patientSvc := patient.NewService(patient.NewRepoPG(pool))
	conversationSvc := conversation.NewService(conversation.NewRepoPG(pool))
	alertSvc := alert.NewService(alert.NewRepoPG(pool))

	// Collaborators
	channel := whatsapp.NewClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
	replier := llm.NewReplier(openaiClient, cfg.OpenAIModel)
	transcriber := speech.NewTranscriber(openaiClient)

	var synthesizer ingest.Synthesizer
	if cfg.SpeechEnabled() {
		synthesizer = speech.NewSynthesizer(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID)
		logger.Info().Msg("voice replies enabled")
	}

	// Ingestion pipeline and worker pool
	pipeline := ingest.NewPipeline(patientSvc, conversationSvc, alertSvc,
		channel, transcriber, synthesizer, replier, logger)
	queue := ingest.NewQueue(pipeline, cfg.IngestWorkers, cfg.IngestQueueSize, logger)
	queue.Start()
	defer queue.Stop()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Dashboard API. The webhook endpoints stay outside the rate-limited
	// group; throttling the provider would turn into redelivery storms.
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	conversation.NewHandler(conversationSvc, patientSvc, channel, logger).RegisterRoutes(apiV1)
	alert.NewHandler(alertSvc).RegisterRoutes(apiV1)

	// Webhook receiver
	ingest.NewHandler(queue, cfg.VerifyToken, logger).RegisterRoutes(e)

	// Scheduled check-in: HTTP trigger always, in-process cron when a
	// schedule is configured.
	checkinRunner := checkin.NewRunner(patientSvc, replier, channel, logger)
	checkin.NewHandler(checkinRunner, cfg.CronSecret).RegisterRoutes(e)
	if cfg.CheckInSchedule != "" {
		scheduler, err := checkin.NewScheduler(checkinRunner, cfg.CheckInSchedule, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid check-in schedule")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
