// Command report builds one dashboard report and prints it to stdout. It
// exercises the same wiring as the server and is handy for checking
// reservation-source credentials.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samirwankhede/stayinsights/internal/analytics"
	"github.com/samirwankhede/stayinsights/internal/app"
	"github.com/samirwankhede/stayinsights/internal/config"
	"github.com/samirwankhede/stayinsights/internal/logger"
)

func main() {
	role := flag.String("role", analytics.RoleAdmin, "caller role")
	owner := flag.String("owner", "", "owner id for scoped roles")
	months := flag.Int("months", 0, "window length in months (0 uses REPORT_WINDOW_MONTHS)")
	year := flag.Int("year", 0, "build the history report for this year instead")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	engine, err := app.NewEngine(ctx, cfg, log)
	if err != nil {
		log.Fatal("engine init failed", zap.Error(err))
	}
	defer engine.Close()

	caller := analytics.Caller{Role: *role, OwnerID: *owner}
	var out []byte
	if *year > 0 {
		out, err = engine.Service.History(ctx, caller, *year)
	} else {
		out, err = engine.Service.Dashboard(ctx, caller, *months)
	}
	if err != nil {
		log.Fatal("report failed", zap.Error(err), zap.String("role", *role), zap.String("owner", *owner))
	}
	if _, err := os.Stdout.Write(append(out, '\n')); err != nil {
		log.Fatal("write report", zap.Error(err))
	}
}
