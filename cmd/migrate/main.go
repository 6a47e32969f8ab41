// Command migrate manages the ViralPik database schema.
//
//	migrate up             apply pending SQL migrations
//	migrate auto           run GORM AutoMigrate regardless of DB_SCHEMA_MODE
//	migrate apply          run whatever DB_SCHEMA_MODE selects for APP_ENV
//	migrate status         print the plan and the ledger
//	migrate down <version> revert one migration
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"viralpik/internal/config"
	"viralpik/internal/database"
	"viralpik/internal/middleware"
)

var errUsage = errors.New("usage: migrate <up|auto|apply|status|down> [version]")

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return errUsage
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	ctx := context.Background()

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		m, err := database.NewMigrator(db)
		if err != nil {
			return err
		}
		applied, err := m.Up(ctx)
		for _, mig := range applied {
			middleware.Logger.Info("migration applied", "migration", mig)
		}
		if err != nil {
			return err
		}
		middleware.Logger.Info("migrations complete", "applied", len(applied))
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
		middleware.Logger.Info("automigrate complete")
	case "apply":
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return err
		}
		middleware.Logger.Info("schema applied", "mode", cfg.DBSchemaMode)
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status: %w", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "mode\t%s\n", status.Mode)
		fmt.Fprintf(w, "env\t%s\n", status.Environment)
		fmt.Fprintf(w, "sql migrations\t%t\n", status.SQL)
		fmt.Fprintf(w, "automigrate\t%t\n", status.AutoMigrate)
		fmt.Fprintf(w, "applied\t%d\n", len(status.Applied))
		for _, mig := range status.Pending {
			fmt.Fprintf(w, "pending\t%s\n", mig)
		}
		return w.Flush()
	case "down":
		if flag.NArg() < 2 {
			return errUsage
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		m, err := database.NewMigrator(db)
		if err != nil {
			return err
		}
		if err := m.Down(ctx, version); err != nil {
			return err
		}
		middleware.Logger.Info("migration reverted", "version", version)
	default:
		return errUsage
	}
	return nil
}
