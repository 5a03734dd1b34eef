package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/imdcare/ward/internal/config"
	"github.com/imdcare/ward/internal/domain/appointment"
	"github.com/imdcare/ward/internal/domain/consultation"
	"github.com/imdcare/ward/internal/domain/patient"
	"github.com/imdcare/ward/internal/export"
	"github.com/imdcare/ward/internal/platform/blobstore"
	"github.com/imdcare/ward/internal/platform/db"
	"github.com/imdcare/ward/internal/platform/events"
	"github.com/imdcare/ward/internal/platform/notification"
	"github.com/imdcare/ward/internal/store"
)

// newLogger builds the root logger. Unknown levels fall back to info.
func newLogger(out io.Writer, env, level string) zerolog.Logger {
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: out}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, newLogger(os.Stdout, os.Getenv("ENV"), ""), err
	}
	return cfg, newLogger(os.Stdout, cfg.Env, cfg.LogLevel), nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Schema:   cfg.DBSchema,
	})
}

// app holds the components shared by serve and the maintenance commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool

	patients      *patient.Service
	consultations *consultation.Service
	appointments  *appointment.Service
	stores        *store.Stores

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, pool: pool}
	a.closers = append(a.closers, pool.Close)

	publisher := a.publisher()

	a.patients = patient.NewService(patient.NewRepo(pool))
	a.patients.SetTxRunner(db.NewTxRunner(pool))
	a.patients.SetPublisher(publisher)

	a.consultations = consultation.NewService(consultation.NewRepo(pool))
	a.consultations.SetPublisher(publisher)

	a.appointments = appointment.NewService(appointment.NewRepo(pool), cfg.AppointmentTTL)
	a.appointments.SetPublisher(publisher)

	a.stores = store.New(a.patients, a.consultations, a.appointments,
		logger.With().Str("component", "store").Logger())
	return a, nil
}

func (a *app) publisher() events.Publisher {
	logger := a.logger.With().Str("component", "events").Logger()
	if len(a.cfg.KafkaBrokers) == 0 {
		return events.Logged(events.Nop{}, logger)
	}
	kp := events.NewKafkaPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, logger)
	a.closers = append(a.closers, func() {
		if err := kp.Close(); err != nil {
			logger.Warn().Err(err).Msg("close kafka writer")
		}
	})
	logger.Info().Strs("brokers", a.cfg.KafkaBrokers).Str("topic", a.cfg.KafkaTopic).Msg("publishing ward events")
	return events.Logged(kp, logger)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newExporter wires the archive and notice queue selected by EXPORT_STORE.
func newExporter(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*export.Exporter, error) {
	exp := export.NewExporter(cfg.ReportTitle, logger)

	switch cfg.ExportStore {
	case "", "none":
	case "file":
		fs, err := blobstore.NewFileStore(cfg.ExportDir)
		if err != nil {
			return nil, fmt.Errorf("export archive: %w", err)
		}
		exp.SetArchive(fs, cfg.ExportDir)
	case "s3":
		client, awsCfg, err := blobstore.NewS3Client(ctx)
		if err != nil {
			return nil, fmt.Errorf("export archive: %w", err)
		}
		exp.SetArchive(blobstore.NewS3Store(client, cfg.ExportS3Bucket), cfg.ExportS3Bucket)
		if cfg.ExportSQSQueue != "" {
			exp.SetNotifier(notification.NewSQSNotifier(notification.NewSQSClient(awsCfg), cfg.ExportSQSQueue))
		}
	default:
		return nil, fmt.Errorf("unknown EXPORT_STORE %q", cfg.ExportStore)
	}
	return exp, nil
}
