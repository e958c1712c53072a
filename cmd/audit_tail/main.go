package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/cadenza-backend/internal/app"
	"github.com/yungbote/cadenza-backend/internal/clients/redis"
	"github.com/yungbote/cadenza-backend/internal/domain/audit"
	"github.com/yungbote/cadenza-backend/internal/platform/envutil"
	"github.com/yungbote/cadenza-backend/internal/platform/logger"
	"github.com/yungbote/cadenza-backend/internal/platform/shutdown"
)

// audit_tail prints audit events from the redis channel as JSON lines.
func main() {
	var addr, channel, entity string
	var asJSON bool
	flag.StringVar(&addr, "addr", "", "redis address (defaults to REDIS_ADDR)")
	flag.StringVar(&channel, "channel", "", "channel name (defaults to AUDIT_CHANNEL)")
	flag.StringVar(&entity, "entity", "", "only print events for this entity")
	flag.BoolVar(&asJSON, "json", false, "print raw JSON instead of summaries")
	flag.Parse()

	log, err := logger.New("production")
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	app.LoadDotEnv(log)
	if addr == "" {
		addr = envutil.String("REDIS_ADDR", "localhost:6379", log)
	}
	if channel == "" {
		channel = envutil.String("AUDIT_CHANNEL", redis.DefaultAuditChannel, log)
	}

	bus, err := redis.NewAuditBus(log, addr, channel)
	if err != nil {
		log.Error("Connecting to redis failed", "addr", addr, "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	entity = strings.TrimSpace(entity)
	enc := json.NewEncoder(os.Stdout)
	err = bus.StartForwarder(ctx, func(ev audit.Event) {
		if entity != "" && ev.EntityName != entity {
			return
		}
		if asJSON {
			_ = enc.Encode(ev)
			return
		}
		fmt.Printf("%s %s %s\n", ev.OccurredAt.Format("2006-01-02T15:04:05Z07:00"), ev.ChangeSetID, ev.Summary)
	})
	if err != nil {
		log.Error("Subscribing failed", "channel", channel, "error", err)
		os.Exit(1)
	}
	log.Info("Tailing audit events", "channel", channel)
	<-ctx.Done()
}
