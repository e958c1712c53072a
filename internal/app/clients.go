package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/cadenza-backend/internal/clients/redis"
	"github.com/yungbote/cadenza-backend/internal/platform/gcp"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
)

type Clients struct {
	AuditBus           redis.AuditBus
	CertificateArchive gcp.BucketService
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var bus redis.AuditBus
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		b, err := redis.NewAuditBus(log, cfg.RedisAddr, cfg.AuditChannel)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis audit bus: %w", err)
		}
		bus = b
	} else {
		log.Info("REDIS_ADDR not set; audit events stay in the database only")
	}

	// Gcs
	var archive gcp.BucketService
	if strings.TrimSpace(cfg.CertificateBucket.Name) != "" {
		b, err := gcp.NewBucketService(context.Background(), log, cfg.CertificateBucket)
		if err != nil {
			if bus != nil {
				_ = bus.Close()
			}
			return Clients{}, fmt.Errorf("init certificate bucket: %w", err)
		}
		archive = b
	}

	return Clients{AuditBus: bus, CertificateArchive: archive}, nil
}

func (c Clients) Close(log *logger.Logger) {
	if c.AuditBus != nil {
		if err := c.AuditBus.Close(); err != nil {
			log.Warn("Closing audit bus failed", "error", err)
		}
	}
	if c.CertificateArchive != nil {
		if err := c.CertificateArchive.Close(); err != nil {
			log.Warn("Closing storage client failed", "error", err)
		}
	}
}
