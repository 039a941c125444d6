package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/voicescreen/voicescreen/internal/config"
	"github.com/voicescreen/voicescreen/internal/domain/assessment"
	"github.com/voicescreen/voicescreen/internal/domain/dashboard"
	"github.com/voicescreen/voicescreen/internal/domain/identity"
	"github.com/voicescreen/voicescreen/internal/domain/link"
	"github.com/voicescreen/voicescreen/internal/domain/scoring"
	"github.com/voicescreen/voicescreen/internal/platform/auth"
	"github.com/voicescreen/voicescreen/internal/platform/blobstore"
	"github.com/voicescreen/voicescreen/internal/platform/db"
	"github.com/voicescreen/voicescreen/internal/platform/middleware"
	"github.com/voicescreen/voicescreen/internal/platform/qr"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "voicescreen-server",
		Short: "VoiceScreen mental health screening API server",
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
		Short: "Start the API server",
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
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			return nil
		},
	})

	return cmd
}

// resolveJWTSecret turns the configured secret into signing key bytes. In
// development a missing secret is replaced by a random throwaway key, so
// sessions do not survive restarts. Outside development a secret is
// mandatory.
func resolveJWTSecret(configured string, dev bool) ([]byte, bool, error) {
	if configured != "" {
		return []byte(configured), false, nil
	}
	if !dev {
		return nil, false, fmt.Errorf("JWT_SECRET is required outside development")
	}

	buf := make([]byte, 32)
	if _, err := crypto_rand.Read(buf); err != nil {
		return nil, false, fmt.Errorf("generate jwt secret: %w", err)
	}
	return []byte(hex.EncodeToString(buf)), true, nil
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

	secret, generated, err := resolveJWTSecret(cfg.JWTSecret, cfg.IsDev())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve jwt secret")
	}
	if generated {
		logger.Warn().Msg("JWT_SECRET not set; generated a throwaway signing key, sessions will not survive restarts")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Recording storage. GCS when a bucket is configured, in-memory otherwise
	// so local development needs no cloud credentials.
	var store blobstore.Store
	if cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create storage client")
		}
		defer client.Close()
		store = blobstore.NewGCSStore(client, cfg.GCSBucket)
		logger.Info().Str("bucket", cfg.GCSBucket).Msg("recordings stored in GCS")
	} else {
		store = blobstore.NewInMemoryStore()
		logger.Warn().Msg("GCS_BUCKET not set; recordings held in memory and lost on restart")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M", "30M"))
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	rateLimit := middleware.RateLimit(rateLimitCfg)

	// API groups. Patient-facing routes live on the public group; recording
	// and submission endpoints additionally accept a clinician session via
	// optionalAuth. On the authed group the limiter runs after JWT so it can
	// key buckets by session instead of lumping every clinician behind one
	// NAT into a single IP bucket.
	public := e.Group("/api/v1", rateLimit)
	authed := e.Group("/api/v1", auth.JWTMiddleware(secret), rateLimit)
	optionalAuth := auth.OptionalJWTMiddleware(secret)

	encoder := qr.NewPNGEncoder()
	tokenTTL := time.Duration(cfg.TokenTTLHours) * time.Hour

	identitySvc := identity.NewService(identity.NewRepoPG(pool), encoder, cfg.BaseURL, secret, tokenTTL)
	identity.NewHandler(identitySvc).RegisterRoutes(public, authed)

	linkSvc := link.NewService(link.NewRepoPG(pool))
	link.NewHandler(linkSvc, encoder, cfg.BaseURL, cfg.LinkExpiryDays).RegisterRoutes(public, authed)

	assessmentRepo := assessment.NewRepoPG(pool)
	assessmentSvc := assessment.NewService(assessmentRepo, linkSvc)
	assessment.NewHandler(assessmentSvc).RegisterRoutes(public, authed, optionalAuth)

	dashboard.NewHandler(dashboard.NewService(assessmentRepo)).RegisterRoutes(authed)

	scoring.NewHandler().RegisterRoutes(public)

	blobstore.NewHandler(store, linkSvc, assessment.AudioTasks).RegisterRoutes(public, authed, optionalAuth)

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
