// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/carterperez-dev/meetstack/backend/internal/config"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/migrations"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	steps := flag.Int("steps", 1, "migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [flags] up|down|version\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	_ = godotenv.Load() //nolint:errcheck // .env is optional

	if err := run(*configPath, flag.Arg(0), *steps); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, command string, steps int) error {
	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	switch command {
	case "up":
		if err := migrations.Up(db.DB.DB); err != nil {
			return err
		}
	case "down":
		if err := migrations.Down(db.DB.DB, steps); err != nil {
			return err
		}
	case "version":
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}

	version, dirty, err := migrations.Version(db.DB.DB)
	if err != nil {
		return err
	}

	slog.Info("schema version", "version", version, "dirty", dirty)
	return nil
}
