package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/imdcare/ward/internal/config"
	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
	"github.com/imdcare/ward/internal/export"
	"github.com/imdcare/ward/internal/platform/auth"
	"github.com/imdcare/ward/internal/platform/db"
	"github.com/imdcare/ward/internal/platform/middleware"
	"github.com/imdcare/ward/internal/report"
	"github.com/imdcare/ward/internal/store"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:          "ward-server",
		Short:        "IMD-Care ward dashboard API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(appointmentsCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the ward API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// newServer builds the echo instance with global middleware and the health
// route. Domain routes are registered on the returned /api/v1 group.
func newServer(cfg *config.Config, logger zerolog.Logger) (*echo.Echo, *echo.Group, error) {
	key, err := cfg.SigningKey()
	if err != nil {
		return nil, nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 15 * time.Second
	e.Server.WriteTimeout = 60 * time.Second

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Disposition", "X-Archive-Key"},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(echomw.BodyLimit("1M"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	jwtCfg := auth.JWTConfig{
		Issuer:     cfg.AuthIssuer,
		Audience:   cfg.AuthAudience,
		JWKSURL:    cfg.AuthJWKSURL,
		SigningKey: key,
	}
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware(jwtCfg))
	} else {
		apiV1.Use(auth.JWTMiddleware(jwtCfg))
	}
	return e, apiV1, nil
}

// registerRoutes mounts every domain handler. Writes go through the stores
// so the cached collections stay current.
func registerRoutes(api *echo.Group, stores *store.Stores, exp *export.Exporter) {
	patient.NewHandler(stores.Patients).RegisterRoutes(api)
	consultation.NewHandler(stores.Consultations).RegisterRoutes(api)
	appointment.NewHandler(stores.Appointments).RegisterRoutes(api)

	store.NewHandler(stores).RegisterRoutes(api)
	report.NewHandler(stores).RegisterRoutes(api)
	export.NewHandler(exp, stores).RegisterRoutes(api)
}

func runServer() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer a.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	// a failed collection keeps serving empty and is retried on refresh
	if err := a.stores.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial store refresh incomplete")
	}

	exp, err := newExporter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure report export")
	}

	e, apiV1, err := newServer(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure server")
	}
	e.GET("/health/db", db.HealthHandler(a.pool, func() *db.PoolStats { return db.GetPoolStats(a.pool) }))
	registerRoutes(apiV1, a.stores, exp)

	if cfg.AppointmentPurgeInterval > 0 {
		expirer := appointment.NewExpirer(a.appointments, a.stores.Appointments.Fetch,
			cfg.AppointmentPurgeInterval, logger.With().Str("component", "expiry").Logger())
		expirer.Start()
		defer expirer.Close()
		logger.Info().Dur("interval", cfg.AppointmentPurgeInterval).Dur("ttl", cfg.AppointmentTTL).Msg("appointment expiry started")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
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
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
