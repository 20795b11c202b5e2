// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pbruhn/accountd/internal/config"
	"github.com/pbruhn/accountd/internal/database"
	"github.com/pbruhn/accountd/internal/server"
	"github.com/urfave/cli/v3"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Optional .env file, mirrors the desktop app's deployment setup
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:    "accountd",
		Usage:   "Account management service for the desktop client",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags:   config.Flags(),
		Action:  server.Run,
		Commands: []*cli.Command{
			{
				Name:   "migrate-down",
				Usage:  "Roll back the most recent database migration",
				Flags:  config.Flags(),
				Action: runMigrateDown,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runMigrateDown(_ context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)

	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return database.MigrateDown(db.DB)
}
