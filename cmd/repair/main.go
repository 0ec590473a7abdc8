// ABOUTME: Repair utility for engagements left half-created or drifted by interrupted writes.
// ABOUTME: Re-runs the idempotent creation steps and re-derives stored fields, with a dry-run report.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harperreed/pursuit/cli"
	"github.com/harperreed/pursuit/config"
	"github.com/harperreed/pursuit/db"
	"github.com/harperreed/pursuit/engine"
)

func main() {
	dsn := flag.String("dsn", "", "Store DSN (default from config)")
	dryRun := flag.Bool("dry-run", false, "Report engagements missing phases or owners without changing anything")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "err", err)
	}
	if *dsn != "" {
		cfg.StoreDSN = *dsn
	}
	logger := config.NewLogger(cfg.LogLevel)

	if err := run(context.Background(), cfg, logger, *dryRun, flag.Args()); err != nil {
		logger.Fatal("repair failed", "err", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger, dryRun bool, args []string) error {
	store, err := db.Open(ctx, cfg.StoreDSN, db.Options{Charm: cfg.Charm()})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close() }()

	coord, err := engine.New(engine.Options{
		Store:              store,
		Logger:             logger,
		UserID:             cfg.UserID,
		StaleThresholdDays: cfg.StaleThresholdDays,
	})
	if err != nil {
		return err
	}
	if err := coord.Load(ctx); err != nil {
		return err
	}

	if dryRun {
		return report(coord)
	}
	return cli.RepairCommand(ctx, coord, args)
}

// report lists engagements whose cached view shows placeholder phases or no owners.
func report(coord *engine.Coordinator) error {
	found := 0
	for _, vm := range coord.List() {
		missing := 0
		for _, p := range vm.Phases {
			if p.ID == "" {
				missing++
			}
		}
		if missing == 0 && len(vm.OwnerIDs) > 0 {
			continue
		}
		found++
		fmt.Fprintf(os.Stdout, "%s  %s: %d missing phase(s), %d owner(s)\n", vm.ID, vm.Company, missing, len(vm.OwnerIDs))
	}
	fmt.Fprintf(os.Stdout, "%d of %d engagement(s) need repair\n", found, len(coord.List()))
	return nil
}
