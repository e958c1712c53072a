package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/cadenza-backend/internal/app"
	domainagg "github.com/yungbote/cadenza-backend/internal/domain/aggregates"
	"github.com/yungbote/cadenza-backend/internal/platform/shutdown"
	"github.com/yungbote/cadenza-backend/internal/services"
)

func main() {
	var (
		companyID uint
		actorID   uint
		from, to  string
		dryRun    bool
	)
	flag.UintVar(&companyID, "company", 0, "company whose Draft payrolls are recalculated")
	flag.StringVar(&from, "from", "", "period start (YYYY-MM-DD)")
	flag.StringVar(&to, "to", "", "period end (YYYY-MM-DD)")
	flag.BoolVar(&dryRun, "dry-run", false, "report the changes without writing them")
	flag.UintVar(&actorID, "actor", 0, "user id recorded in the audit trail")
	flag.Parse()

	if companyID == 0 {
		fmt.Println("-company is required")
		os.Exit(2)
	}
	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		fmt.Printf("bad -from: %v\n", err)
		os.Exit(2)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		fmt.Printf("bad -to: %v\n", err)
		os.Exit(2)
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	actor := domainagg.Actor{At: time.Now().UTC()}
	if actorID != 0 {
		actor.UserID = &actorID
	}
	res, err := application.Services.Payroll.RecalculatePeriod(ctx, services.RecalculatePeriodInput{
		Actor:     actor,
		CompanyID: companyID,
		From:      start,
		To:        end,
		DryRun:    dryRun,
	})
	if err != nil {
		application.Log.Error("Recalculation failed", "company_id", companyID, "error", err)
		application.Close()
		os.Exit(1)
	}

	changed := 0
	for _, c := range res.Changes {
		if c.Changed() {
			changed++
		}
	}
	application.Log.Info("Recalculation finished",
		"company_id", companyID,
		"dry_run", res.DryRun,
		"payrolls", len(res.Changes),
		"changed", changed,
		"failed", res.Failed,
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
	if res.Failed > 0 {
		application.Close()
		os.Exit(1)
	}
}
