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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bhcms/bhcms/internal/config"
	"github.com/bhcms/bhcms/internal/domain/accounts"
	"github.com/bhcms/bhcms/internal/domain/appointments"
	"github.com/bhcms/bhcms/internal/domain/clinical"
	"github.com/bhcms/bhcms/internal/domain/patients"
	"github.com/bhcms/bhcms/internal/domain/screening"
	"github.com/bhcms/bhcms/internal/domain/staff"
	"github.com/bhcms/bhcms/internal/platform/auth"
	"github.com/bhcms/bhcms/internal/platform/authz"
	"github.com/bhcms/bhcms/internal/platform/cache"
	"github.com/bhcms/bhcms/internal/platform/db"
	"github.com/bhcms/bhcms/internal/platform/middleware"
	"github.com/bhcms/bhcms/internal/platform/privacy"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bhcms-server",
		Short: "Barangay Health Center Management System API Server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(keygenCmd())

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

	return cmd
}

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new field encryption key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key := make([]byte, 32)
			if _, err := crypto_rand.Read(key); err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}
			fmt.Printf("ENCRYPTION_KEY=%s\n", hex.EncodeToString(key))
			return nil
		},
	}
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

	// Grant snapshot cache: redis when configured, in-process otherwise.
	snapshots := authz.NewMemoryCache(authz.DefaultCacheTTL)
	if cfg.RedisURL != "" {
		client, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer client.Close()
		snapshots = authz.NewRedisCache(client, authz.DefaultCacheTTL)
		logger.Info().Msg("connected to redis")
	}

	// Authorization
	grantStore := authz.NewGrantStore(pool)
	resolver := authz.NewResolver(grantStore, snapshots, logger)

	// Field encryption
	privacySvc, err := privacy.NewService(cfg.EncryptionKey, resolver, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize field encryption")
	}
	registry := privacy.DefaultRegistry()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	// Auth middleware
	if cfg.IsDev() && cfg.JWTSigningKey == "" && cfg.AuthJWKSURL == "" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.JWTSigningKey),
			Skipper:    auth.Skipper,
		}))
	}

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// Response decryption for entitled viewers
	e.Use(middleware.DecryptResponse(privacySvc, registry, middleware.DefaultDecryptExclusions(), logger))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Accounts
	issuer := auth.NewTokenIssuer(cfg.AuthIssuer, cfg.AuthAudience, []byte(cfg.JWTSigningKey), 0)
	userRepo := accounts.NewUserRepo(pool, privacySvc)
	accountSvc := accounts.NewService(userRepo, issuer, resolver)
	accounts.NewHandler(accountSvc, privacySvc, resolver).RegisterRoutes(e, apiV1)

	// Patients
	patientRepo := patients.NewRepo(pool, privacySvc)
	patientSvc := patients.NewService(patientRepo)
	patients.NewHandler(patientSvc, privacySvc, resolver).RegisterRoutes(apiV1)

	// Appointments
	apptRepo := appointments.NewRepositoryPG(pool, privacySvc)
	apptSvc := appointments.NewService(apptRepo)
	appointments.NewHandler(apptSvc, privacySvc, resolver).RegisterRoutes(apiV1)

	// Clinical
	recordRepo := clinical.NewRecordRepositoryPG(pool, privacySvc)
	prescriptionRepo := clinical.NewPrescriptionRepositoryPG(pool, privacySvc)
	vitalsRepo := clinical.NewVitalsRepositoryPG(pool)
	clinicalSvc := clinical.NewService(recordRepo, prescriptionRepo, vitalsRepo)
	clinical.NewHandler(clinicalSvc, privacySvc, resolver).RegisterRoutes(apiV1)

	// Screening
	ncdRepo := screening.NewNCDRepositoryPG(pool, privacySvc)
	heeadsssRepo := screening.NewHEEADSSSRepositoryPG(pool, privacySvc)
	screeningSvc := screening.NewService(ncdRepo, heeadsssRepo)
	screening.NewHandler(screeningSvc, privacySvc, resolver).RegisterRoutes(apiV1)

	// Staff and grant administration
	staffRepo := staff.NewRepositoryPG(pool)
	grantRepo := staff.NewGrantRepositoryPG(pool)
	staffSvc := staff.NewService(staffRepo, grantRepo, resolver)
	staff.NewHandler(staffSvc, resolver).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
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
