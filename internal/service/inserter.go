package service

import (
	"context"
	"strconv"
	"time"

	"serialvault/internal/constants"
	"serialvault/internal/errors"
	"serialvault/internal/metrics"
	"serialvault/internal/models"
	"serialvault/internal/tracing"
	"serialvault/internal/validation"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// SerialKeyStore persists generated keys
type SerialKeyStore interface {
	InsertSerialKeys(ctx context.Context, keys []*models.SerialKey) (int, error)
}

// KeyGenerator draws distinct serial keys
type KeyGenerator interface {
	GenerateN(n int) ([]string, error)
	Config() models.SerialConfig
}

// RunResult describes one finished insert run
type RunResult struct {
	BatchID   string
	ProductID int
	Requested int
	Inserted  int
	Keys      []string
	Duration  time.Duration
}

// SerialKeyInserter generates serial keys and stores them encrypted
type SerialKeyInserter struct {
	store     SerialKeyStore
	generator KeyGenerator
	defaults  models.SerialDefaults
	logger    *logrus.Logger
	metrics   *metrics.Registry
	now       func() time.Time
}

// NewSerialKeyInserter wires an inserter. A nil registry records into the
// global one.
func NewSerialKeyInserter(store SerialKeyStore, generator KeyGenerator, defaults models.SerialDefaults, logger *logrus.Logger, registry *metrics.Registry) *SerialKeyInserter {
	if registry == nil {
		registry = metrics.GetRegistry()
	}
	return &SerialKeyInserter{
		store:     store,
		generator: generator,
		defaults:  defaults,
		logger:    logger,
		metrics:   registry,
		now:       time.Now,
	}
}

// Run draws n keys, stores them in one batch and returns the plaintext keys.
// The batch is all or nothing: on error Inserted is 0.
func (s *SerialKeyInserter) Run(ctx context.Context, n int) (*RunResult, error) {
	ctx = tracing.WithBatch(ctx)
	result := &RunResult{
		BatchID:   tracing.GetBatchID(ctx),
		ProductID: s.defaults.ProductID,
		Requested: n,
	}

	ctx, span := tracing.StartSpan(ctx, "serialkeys.insert",
		attribute.String(LogFieldBatchID, result.BatchID),
		attribute.Int(LogFieldProductID, s.defaults.ProductID),
		attribute.Int(LogFieldRequested, n),
	)
	defer span.End()

	logger := LogWithContext(ctx, s.logger)
	logger.WithFields(logrus.Fields{
		LogFieldRequested: n,
		LogFieldProductID: s.defaults.ProductID,
	}).Info("Starting serial key batch")

	err := s.run(ctx, n, result)
	result.Duration = tracing.Duration(ctx)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		tracing.RecordError(ctx, err)
		logger.WithField(LogFieldErrorCode, errors.GetCode(err)).WithError(err).Error("Failed to insert serial key batch")
	}
	s.metrics.RecordBatch(strconv.Itoa(s.defaults.ProductID), len(result.Keys), result.Inserted, outcome, result.Duration)

	if err != nil {
		return result, err
	}

	tracing.AddSpanAttributes(ctx, attribute.Int("inserted", result.Inserted))
	logger.WithFields(logrus.Fields{
		LogFieldCount:     result.Inserted,
		LogFieldProductID: s.defaults.ProductID,
		LogFieldDuration:  result.Duration.Milliseconds(),
	}).Info("Serial key batch committed")

	return result, nil
}

func (s *SerialKeyInserter) run(ctx context.Context, n int, result *RunResult) error {
	if err := validation.ValidateCount(n); err != nil {
		return err
	}

	keys, err := s.generator.GenerateN(n)
	if err != nil {
		return err
	}
	result.Keys = keys

	separator := s.generator.Config().Separator
	createdDate := s.now().Format(constants.DefaultCreatedDateLayout)

	rows := make([]*models.SerialKey, len(keys))
	for i, key := range keys {
		LogGeneratedKey(ctx, s.logger, i, n, key, separator)
		rows[i] = s.newRow(key, createdDate)
	}

	inserted, err := s.store.InsertSerialKeys(ctx, rows)
	if err != nil {
		return err
	}
	result.Inserted = inserted
	return nil
}

// newRow fills the columns the shop expects for a fresh, unsold key
func (s *SerialKeyInserter) newRow(serial, createdDate string) *models.SerialKey {
	return &models.SerialKey{
		SerialKey:       serial,
		ProductID:       s.defaults.ProductID,
		ActivationLimit: s.defaults.ActivationLimit,
		Status:          s.defaults.Status,
		Validity:        s.defaults.Validity,
		ExpireDate:      s.defaults.ExpireDate,
		OrderDate:       s.defaults.OrderDate,
		UUID:            s.defaults.UUID,
		Source:          s.defaults.Source,
		CreatedDate:     createdDate,
	}
}
