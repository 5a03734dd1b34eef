package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	DBSchema    string `mapstructure:"DB_SCHEMA"`

	AuthIssuer     string `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL    string `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience   string `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey string `mapstructure:"AUTH_SIGNING_KEY"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`

	AppointmentTTL           time.Duration `mapstructure:"APPOINTMENT_TTL"`
	AppointmentPurgeInterval time.Duration `mapstructure:"APPOINTMENT_PURGE_INTERVAL"`

	ReportTitle    string `mapstructure:"REPORT_TITLE"`
	ExportStore    string `mapstructure:"EXPORT_STORE"`
	ExportDir      string `mapstructure:"EXPORT_DIR"`
	ExportS3Bucket string `mapstructure:"EXPORT_S3_BUCKET"`
	ExportSQSQueue string `mapstructure:"EXPORT_SQS_QUEUE"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`
}

var envKeys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "DB_SCHEMA",
	"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"APPOINTMENT_TTL", "APPOINTMENT_PURGE_INTERVAL",
	"REPORT_TITLE", "EXPORT_STORE", "EXPORT_DIR", "EXPORT_S3_BUCKET", "EXPORT_SQS_QUEUE",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("APPOINTMENT_TTL", "24h")
	v.SetDefault("APPOINTMENT_PURGE_INTERVAL", "15m")
	v.SetDefault("REPORT_TITLE", "IMD-Care Report")
	v.SetDefault("EXPORT_STORE", "none")
	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("KAFKA_TOPIC", "ward-events")

	for _, key := range envKeys {
		v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper only splits list values it read from a config file
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	cfg.KafkaBrokers = splitList(v.GetString("KAFKA_BROKERS"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// SigningKey decodes AUTH_SIGNING_KEY. It returns nil when unset.
func (c *Config) SigningKey() ([]byte, error) {
	if c.AuthSigningKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.AuthSigningKey)
	if err != nil {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY is not valid hex: %w", err)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Validate checks settings that depend on each other. Load does not call it
// so that the migrate command can run with a partial configuration.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthIssuer == "" && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_ISSUER or AUTH_SIGNING_KEY must be set when ENV=%q", c.Env)
	}
	if _, err := c.SigningKey(); err != nil {
		return err
	}

	if c.AppointmentTTL <= 0 {
		return fmt.Errorf("APPOINTMENT_TTL must be positive, got %s", c.AppointmentTTL)
	}
	if c.AppointmentPurgeInterval < 0 {
		return fmt.Errorf("APPOINTMENT_PURGE_INTERVAL must not be negative")
	}

	switch c.ExportStore {
	case "", "none":
	case "file":
		if c.ExportDir == "" {
			return fmt.Errorf("EXPORT_DIR is required when EXPORT_STORE is \"file\"")
		}
	case "s3":
		if c.ExportS3Bucket == "" {
			return fmt.Errorf("EXPORT_S3_BUCKET is required when EXPORT_STORE is \"s3\"")
		}
	default:
		return fmt.Errorf("EXPORT_STORE must be \"none\", \"file\" or \"s3\", got %q", c.ExportStore)
	}

	if c.ExportSQSQueue != "" && c.ExportStore != "s3" {
		return fmt.Errorf("EXPORT_SQS_QUEUE requires EXPORT_STORE=s3")
	}
	return nil
}
