package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/cadenza-backend/internal/data/db"
	"github.com/yungbote/cadenza-backend/internal/data/repos"
	apphttp "github.com/yungbote/cadenza-backend/internal/http"
	"github.com/yungbote/cadenza-backend/internal/observability"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics
	Server   *apphttp.Server

	store        *db.PostgresService
	shutdownOtel func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	LoadDotEnv(log)
	cfg := LoadConfig(log)

	shutdownOtel := observability.InitOTel(context.Background(), log, cfg.Otel)

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.Init(log, cfg.ScrapeInterval)
	}

	store, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	theDB := store.DB()
	if cfg.AutoMigrate {
		if err := db.AutoMigrateAll(theDB); err != nil {
			log.Sync()
			return nil, fmt.Errorf("database automigrate: %w", err)
		}
		if err := db.EnsureSchoolIndexes(theDB); err != nil {
			log.Sync()
			return nil, fmt.Errorf("database indexes: %w", err)
		}
	}

	reposet := repos.NewSet(theDB, log)

	clients, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close(log)
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(theDB, serviceset)
	server := apphttp.NewServer(apphttp.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ServiceName:         cfg.Otel.ServiceName,
		AllowOrigins:        cfg.AllowOrigins,
		ActorSecret:         cfg.ActorSecret,
		ExposeMetrics:       metrics != nil && strings.TrimSpace(cfg.MetricsAddr) == "",
		HealthHandler:       handlerset.Health,
		AttendanceHandler:   handlerset.Attendance,
		PayrollHandler:      handlerset.Payroll,
		ExaminationHandler:  handlerset.Examination,
		CertificateHandler:  handlerset.Certificate,
		GradeHistoryHandler: handlerset.GradeHistory,
		RequisitionHandler:  handlerset.Requisition,
		ReportHandler:       handlerset.Report,
		AuditHandler:        handlerset.Audit,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		Server:       server,
		store:        store,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Start launches background collectors. Safe to call more than once.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Metrics == nil {
		return
	}
	a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
	if addr := strings.TrimSpace(a.Cfg.RedisAddr); addr != "" {
		a.Metrics.StartRedisCollector(ctx, a.Log, addr)
	}
	if addr := strings.TrimSpace(a.Cfg.MetricsAddr); addr != "" {
		a.Metrics.StartServer(ctx, a.Log, addr)
	}
}

// Run serves the API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start()
	addr := ":" + strings.TrimPrefix(strings.TrimSpace(a.Cfg.Port), ":")
	a.Log.Info("Serving API", "addr", addr)
	return a.Server.Run(ctx, addr, a.Cfg.ShutdownGrace)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close(a.Log)
	if a.shutdownOtel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownGrace)
		if err := a.shutdownOtel(ctx); err != nil {
			a.Log.Warn("OpenTelemetry shutdown failed", "error", err)
		}
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Log.Warn("Closing database failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
