package service

import (
	"context"

	"serialvault/internal/privacy"
	"serialvault/internal/tracing"

	"github.com/sirupsen/logrus"
)

// ContextKey is a package-local type to prevent context key collisions
// See staticcheck SA1029 guidance
type ContextKey string

// VerboseContextKey is the strongly-typed context key for verbose logging flag
const VerboseContextKey ContextKey = "verbose"

// WithVerbose marks ctx so plaintext keys may be logged
func WithVerbose(ctx context.Context, verbose bool) context.Context {
	return context.WithValue(ctx, VerboseContextKey, verbose)
}

// IsVerboseLogging checks if verbose logging is enabled from context
func IsVerboseLogging(ctx context.Context) bool {
	if verbose, ok := ctx.Value(VerboseContextKey).(bool); ok {
		return verbose
	}
	return false
}

// LogWithContext returns an entry carrying the batch and trace IDs in ctx
func LogWithContext(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	return logger.WithFields(tracing.LogFields(ctx))
}

// LogGeneratedKey logs one drawn key. The plaintext appears only in verbose
// mode.
func LogGeneratedKey(ctx context.Context, logger *logrus.Logger, index, total int, serial, separator string) {
	shown := privacy.MaskSerialKey(serial, separator)
	if IsVerboseLogging(ctx) {
		shown = serial
	}

	LogWithContext(ctx, logger).WithFields(logrus.Fields{
		LogFieldIndex:     index + 1,
		LogFieldRequested: total,
		LogFieldSerial:    shown,
	}).Debug("Generated serial key")
}
