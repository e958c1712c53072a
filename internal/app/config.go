package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/cadenza-backend/internal/clients/redis"
	"github.com/yungbote/cadenza-backend/internal/observability"
	"github.com/yungbote/cadenza-backend/internal/platform/envutil"
	"github.com/yungbote/cadenza-backend/internal/platform/gcp"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
	"github.com/yungbote/cadenza-backend/internal/platform/policy"
)

type Config struct {
	Port            string
	ShutdownGrace   time.Duration
	AllowOrigins    []string
	ActorSecret     string
	AutoMigrate     bool
	SlowWrite       time.Duration
	LockTimeout     time.Duration
	RedisAddr       string
	AuditChannel    string
	CertificateFont string

	CertificateBucket gcp.BucketConfig

	MetricsEnabled bool
	MetricsAddr    string
	ScrapeInterval time.Duration

	Otel   observability.OtelConfig
	Policy policy.Policy
}

// LoadDotEnv reads .env (or ENV_FILE) into the process environment. Values
// already set win; a missing file is not an error.
func LoadDotEnv(log *logger.Logger) {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warn("Could not load env file", "path", path, "error", err)
		return
	}
	log.Info("Loaded env file", "path", path)
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:            envutil.String("PORT", "8080", log),
		ShutdownGrace:   envutil.Duration("SHUTDOWN_GRACE", 15*time.Second, log),
		AllowOrigins:    envutil.List("CORS_ALLOW_ORIGINS", nil, log),
		ActorSecret:     envutil.String("ACTOR_JWT_SECRET", "", log),
		AutoMigrate:     envutil.Bool("DB_AUTO_MIGRATE", true, log),
		SlowWrite:       envutil.Duration("AGGREGATE_SLOW_THRESHOLD", 500*time.Millisecond, log),
		LockTimeout:     envutil.Duration("WRITE_LOCK_TIMEOUT", 5*time.Second, log),
		RedisAddr:       envutil.String("REDIS_ADDR", "", log),
		AuditChannel:    envutil.String("AUDIT_CHANNEL", redis.DefaultAuditChannel, log),
		CertificateFont: envutil.String("CERTIFICATE_FONT_PATH", "", log),

		CertificateBucket: gcp.BucketConfig{
			Name:          envutil.String("CERTIFICATE_GCS_BUCKET_NAME", "", log),
			CDNDomain:     envutil.String("CERTIFICATE_CDN_DOMAIN", "", log),
			EmulatorHost:  envutil.String("STORAGE_EMULATOR_HOST", "", log),
			PublicBaseURL: envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", "", log),
		},

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false, log),
		MetricsAddr:    envutil.String("METRICS_ADDR", "", log),
		ScrapeInterval: envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second, log),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", observability.DefaultServiceName, log),
			Environment: envutil.String("APP_ENV", "development", log),
			Version:     envutil.String("APP_VERSION", "dev", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "", log)),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1, log),
		},
		Policy: policy.Load(log),
	}
}
