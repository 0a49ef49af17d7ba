package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"serialvault/internal/config"
	"serialvault/internal/database"
	"serialvault/internal/envelope"
	"serialvault/internal/errors"
	"serialvault/internal/metrics"
	"serialvault/internal/models"
	"serialvault/internal/serials"
	"serialvault/internal/service"
	"serialvault/internal/tracing"
	"serialvault/internal/validation"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type options struct {
	configPath string
	envFile    string
	count      int
	product    int
	verbose    bool
	version    bool
	find       string
	list       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("serialkeys", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file (defaults and environment only when empty)")
	fs.StringVar(&opts.envFile, "env-file", ".env", "Load environment variables from this file if it exists")
	fs.IntVar(&opts.count, "count", 0, "Number of keys to generate (overrides serials.count)")
	fs.IntVar(&opts.product, "product", 0, "Product ID for new keys (overrides defaults.product_id)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging (includes plaintext keys)")
	fs.BoolVar(&opts.version, "version", false, "Show version information")
	fs.StringVar(&opts.find, "find", "", "Look up a plaintext key instead of generating")
	fs.BoolVar(&opts.list, "list", false, "List the keys of the product instead of generating")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: serialkeys [flags]\n\nGenerate serial keys and store them encrypted.\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment:\n%s", config.CipherUsage())
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.find != "" && opts.list {
		return nil, fmt.Errorf("-find and -list cannot be combined")
	}
	if opts.count < 0 {
		return nil, fmt.Errorf("-count cannot be negative")
	}
	if opts.product < 0 {
		return nil, fmt.Errorf("-product cannot be negative")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return errors.ExitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return errors.ExitUsage
	}

	if opts.version {
		fmt.Fprintf(stdout, "serialkeys %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		return errors.ExitOK
	}

	logger := errors.NewLogger()
	logger.SetOutput(stderr)

	if err := execute(ctx, opts, logger, stdout); err != nil {
		logger.LogError(err, "serialkeys failed")
		fmt.Fprintf(stderr, "Error: %s\n", errors.GetUserMessage(err))
		return errors.ExitCode(err)
	}
	return errors.ExitOK
}

func execute(ctx context.Context, opts *options, logger *errors.Logger, stdout io.Writer) error {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidConfig, "failed to load env file").
			WithUserMessage("Could not read the env file")
	}

	cipherCfg, err := config.LoadCipherConfig()
	if err != nil {
		return configError(err)
	}
	env, err := envelope.New(cipherCfg)
	if err != nil {
		return configError(err)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidConfig, "failed to load config").
			WithContext("path", opts.configPath).
			WithUserMessage("Configuration error")
	}
	applyOverrides(cfg, opts)

	logger.SetLevelFromConfig(cfg.LogLevel, opts.verbose)
	if opts.verbose {
		logger.Info("Verbose logging enabled - plaintext keys will be logged")
	}
	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Debug("Starting serialkeys")

	tracingManager := tracing.NewTracingManager(cfg.Tracing, Version, logger.Logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	db, err := database.Open(cfg.Database, env)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.WithContext(logrus.Fields{
		service.LogFieldDriver: db.Driver(),
		service.LogFieldTable:  db.Table(),
	}).Debug("Database connected")

	if db.Driver() == database.DriverSQLite || cfg.Database.EnsureSchema {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	switch {
	case opts.find != "":
		return findKey(ctx, db, cfg.Serials, opts.find, stdout)
	case opts.list:
		return listKeys(ctx, db, cfg.Defaults.ProductID, stdout)
	}

	generator, err := serials.NewGenerator(cfg.Serials)
	if err != nil {
		return err
	}

	registry := metrics.GetRegistry()
	inserter := service.NewSerialKeyInserter(db, generator, cfg.Defaults, logger.Logger, registry)

	result, err := inserter.Run(service.WithVerbose(ctx, opts.verbose), cfg.Serials.Count)
	if err != nil {
		return err
	}

	for _, key := range result.Keys {
		fmt.Fprintln(stdout, key)
	}

	logger.WithContext(logrus.Fields{
		service.LogFieldBatchID:  result.BatchID,
		service.LogFieldCount:    result.Inserted,
		service.LogFieldDuration: result.Duration.Milliseconds(),
		"metrics":                registry.Snapshot(),
	}).Info("Run summary")

	return nil
}

func applyOverrides(cfg *models.Config, opts *options) {
	if opts.count > 0 {
		cfg.Serials.Count = opts.count
	}
	if opts.product > 0 {
		cfg.Defaults.ProductID = opts.product
	}
}

func findKey(ctx context.Context, db *database.Database, format models.SerialConfig, key string, stdout io.Writer) error {
	if err := validation.ValidateSerialKey(key, format); err != nil {
		return err
	}

	row, err := db.FindBySerialKey(ctx, key)
	if err != nil {
		return err
	}
	if row == nil {
		return errors.NewNotFoundError("serial key", "").WithUserMessage("Serial key not found")
	}
	return writeJSON(stdout, row)
}

func listKeys(ctx context.Context, db *database.Database, productID int, stdout io.Writer) error {
	rows, err := db.ListSerialKeys(ctx, productID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fmt.Fprintf(stdout, "%d\t%s\t%s\n", row.ID, row.SerialKey, row.Status)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// configError classifies a failure to build the envelope
func configError(err error) error {
	appErr := errors.NewCryptoError("configure", err)
	if appErr.Code == errors.ErrCodeEncryption {
		appErr.Code = errors.ErrCodeInvalidConfig
	}
	return appErr
}
