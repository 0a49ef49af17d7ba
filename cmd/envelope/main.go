package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"serialvault/internal/config"
	"serialvault/internal/constants"
	"serialvault/internal/envelope"
	"serialvault/internal/errors"
	"serialvault/internal/metrics"
	"serialvault/internal/validation"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// operation maps one value to its output line
type operation func(env *envelope.Envelope, value string) (string, error)

var commands = map[string]struct {
	name    string
	summary string
	apply   operation
}{
	"encrypt": {
		name:    "encrypt",
		summary: "Encrypt values (tokens pass through unchanged)",
		apply:   func(env *envelope.Envelope, v string) (string, error) { return env.Encrypt(v) },
	},
	"decrypt": {
		name:    "decrypt",
		summary: "Decrypt tokens",
		apply:   func(env *envelope.Envelope, v string) (string, error) { return env.Decrypt(v) },
	},
	"check": {
		name:    "check",
		summary: "Print true for values that look like tokens, false otherwise",
		apply: func(env *envelope.Envelope, v string) (string, error) {
			return fmt.Sprintf("%t", env.IsEncrypted(v)), nil
		},
	},
	"maybe-encrypt": {
		name:    "maybe-encrypt",
		summary: "Encrypt values that are not tokens yet",
		apply:   func(env *envelope.Envelope, v string) (string, error) { return env.MaybeEncrypt(v) },
	},
	"maybe-decrypt": {
		name:    "maybe-decrypt",
		summary: "Decrypt tokens and pass other values through",
		apply:   func(env *envelope.Envelope, v string) (string, error) { return env.MaybeDecrypt(v) },
	},
}

var commandOrder = []string{"encrypt", "decrypt", "check", "maybe-encrypt", "maybe-decrypt"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return errors.ExitUsage
	}

	switch args[0] {
	case "help", "-h", "--help":
		printUsage(stdout)
		return errors.ExitOK
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "envelope %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		return errors.ExitOK
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		printUsage(stderr)
		return errors.ExitUsage
	}

	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	envFile := fs.String("env-file", ".env", "Load environment variables from this file if it exists")
	keepGoing := fs.Bool("keep-going", false, "Report failing values on stderr and continue")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: envelope %s [flags] [value ...]\n\n%s. Values are read from stdin, one per line, when none are given.\n\nFlags:\n", cmd.name, cmd.summary)
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nEnvironment:\n%s", config.CipherUsage())
	}
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return errors.ExitOK
		}
		return errors.ExitUsage
	}

	env, err := newEnvelope(*envFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", errors.GetUserMessage(err))
		fmt.Fprintf(stderr, "%v\n", err)
		return errors.ExitCode(err)
	}

	values := fs.Args()
	next := sliceSource(values)
	if len(values) == 0 {
		next = scannerSource(stdin)
	}

	exit := errors.ExitOK
	registry := metrics.GetRegistry()
	for {
		if ctx.Err() != nil {
			return errors.ExitFailure
		}

		value, ok, err := next()
		if err != nil {
			fmt.Fprintf(stderr, "Error: failed to read input: %v\n", err)
			return errors.ExitFailure
		}
		if !ok {
			break
		}

		start := time.Now()
		out, err := apply(cmd.name, cmd.apply, env, value)
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		registry.RecordEnvelopeOp(cmd.name, outcome, time.Since(start))

		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			exit = errors.ExitCode(err)
			if !*keepGoing {
				return exit
			}
			continue
		}
		fmt.Fprintln(stdout, out)
	}

	return exit
}

func newEnvelope(envFile string) (*envelope.Envelope, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "failed to load env file").
			WithUserMessage("Could not read the env file")
	}

	cipherCfg, err := config.LoadCipherConfig()
	if err != nil {
		return nil, configError(err)
	}

	env, err := envelope.New(cipherCfg)
	if err != nil {
		return nil, configError(err)
	}
	return env, nil
}

// configError classifies a failure to build the envelope. Anything that is
// not a missing secret is a bad setting.
func configError(err error) error {
	appErr := errors.NewCryptoError("configure", err)
	if appErr.Code == errors.ErrCodeEncryption {
		appErr.Code = errors.ErrCodeInvalidConfig
	}
	return appErr
}

func apply(name string, op operation, env *envelope.Envelope, value string) (string, error) {
	if err := validation.ValidatePlaintext(value); err != nil {
		return "", err
	}

	out, err := op(env, value)
	if err != nil {
		opName := "encrypt"
		if strings.Contains(name, "decrypt") {
			opName = "decrypt"
		}
		return "", errors.NewCryptoError(opName, err)
	}
	return out, nil
}

type source func() (string, bool, error)

func sliceSource(values []string) source {
	i := 0
	return func() (string, bool, error) {
		if i >= len(values) {
			return "", false, nil
		}
		i++
		return values[i-1], true, nil
	}
}

func scannerSource(r io.Reader) source {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), constants.MaxScannerLineBytes)
	return func() (string, bool, error) {
		if !scanner.Scan() {
			return "", false, scanner.Err()
		}
		return strings.TrimSuffix(scanner.Text(), "\r"), true, nil
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "envelope - encrypt and decrypt stored values")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  envelope <command> [flags] [value ...]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(w, "  %-14s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "  version        Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  envelope encrypt 1234                 # print the token for 1234")
	fmt.Fprintln(w, "  envelope decrypt xAZ0Jwi2QgOXSqYHwANcpw==")
	fmt.Fprintln(w, "  cat serials.txt | envelope maybe-encrypt")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use 'envelope <command> -h' for the flags and environment of a command.")
}
