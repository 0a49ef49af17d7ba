package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"serialvault/internal/config"
	"serialvault/internal/database"
	"serialvault/internal/errors"
	"serialvault/internal/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to configuration file")
	envFile := fs.String("env-file", ".env", "Load environment variables from this file if it exists")
	printOnly := fs.Bool("print", false, "Print the schema instead of applying it")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errors.ExitOK
		}
		return errors.ExitUsage
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(stderr, "Failed to load env file: %v\n", err)
		return errors.ExitConfig
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return errors.ExitConfig
	}
	driver, table := cfg.Database.Driver, cfg.Database.Table

	if *printOnly {
		schema, err := migrations.GetInitialSchema(driver, table)
		if err != nil {
			fmt.Fprintf(stderr, "No schema for %s: %v\n", driver, err)
			return errors.ExitConfig
		}
		fmt.Fprint(stdout, schema)
		return errors.ExitOK
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open database: %v\n", err)
		return errors.ExitCode(err)
	}
	defer db.Close()

	applied, err := migrations.Apply(ctx, db, driver, table)
	if stderrors.Is(err, migrations.ErrNoSchema) {
		fmt.Fprintf(stdout, "No bundled schema for %s, table %s is managed outside serialvault\n", driver, table)
		return errors.ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Migration failed: %v\n", err)
		return errors.ExitUnavailable
	}

	if len(applied) == 0 {
		fmt.Fprintf(stdout, "Table %s is up to date\n", table)
		return errors.ExitOK
	}
	for _, version := range applied {
		fmt.Fprintf(stdout, "Applied migration %d to %s\n", version, table)
	}
	return errors.ExitOK
}
