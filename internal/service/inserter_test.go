package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"serialvault/internal/constants"
	"serialvault/internal/database"
	"serialvault/internal/envelope"
	apperrors "serialvault/internal/errors"
	"serialvault/internal/metrics"
	"serialvault/internal/models"
	"serialvault/internal/serials"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testDefaults() models.SerialDefaults {
	return models.SerialDefaults{
		ProductID:       constants.DefaultProductID,
		ActivationLimit: constants.DefaultActivationLimit,
		Status:          models.SerialKeyStatusAvailable,
		Validity:        constants.DefaultValidity,
		Source:          constants.DefaultSerialSource,
	}
}

func testSerialConfig() models.SerialConfig {
	return models.SerialConfig{
		Blocks:         constants.DefaultSerialBlocks,
		DigitsPerBlock: constants.DefaultSerialDigitsPerBlock,
		Separator:      constants.DefaultSerialSeparator,
		Alphabet:       constants.DefaultSerialAlphabet,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestSerialKeyInserter_Run(t *testing.T) {
	store := new(mockSerialKeyStore)
	generator := &mockKeyGenerator{config: testSerialConfig()}
	registry := metrics.NewRegistry()

	keys := []string{"ABCD-EFGH-IJKL-MNOP-QRST-0123", "ZYXW-VUTS-RQPO-NMLK-JIHG-9876"}
	generator.On("GenerateN", 2).Return(keys, nil)
	store.On("InsertSerialKeys", mock.Anything, mock.MatchedBy(func(rows []*models.SerialKey) bool {
		if len(rows) != 2 {
			return false
		}
		for i, row := range rows {
			if row.SerialKey != keys[i] || row.ProductID != 38 || row.ActivationLimit != 1 ||
				row.Status != "available" || row.Validity != 0 || row.Source != "custom_source" ||
				row.ActivationCount != 0 || row.OrderID != 0 || row.VendorID != 0 ||
				row.CreatedDate != "2024-05-01 12:30:00" {
				return false
			}
		}
		return true
	})).Return(2, nil)

	inserter := NewSerialKeyInserter(store, generator, testDefaults(), quietLogger(), registry)
	inserter.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	result, err := inserter.Run(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 38, result.ProductID)
	assert.Equal(t, keys, result.Keys)
	_, err = uuid.Parse(result.BatchID)
	assert.NoError(t, err)

	product := map[string]string{"product_id": "38"}
	assert.Equal(t, 2.0, registry.CounterValue(metrics.KeysInserted, product))
	assert.Equal(t, 1.0, registry.CounterValue(metrics.InsertBatches, map[string]string{"outcome": metrics.OutcomeOK}))

	store.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestSerialKeyInserter_Run_StoreFailure(t *testing.T) {
	store := new(mockSerialKeyStore)
	generator := &mockKeyGenerator{config: testSerialConfig()}
	registry := metrics.NewRegistry()

	generator.On("GenerateN", 1).Return([]string{"ABCD-EFGH-IJKL-MNOP-QRST-0123"}, nil)
	storeErr := apperrors.NewDatabaseError("insert", errors.New("database is locked"))
	store.On("InsertSerialKeys", mock.Anything, mock.Anything).Return(0, storeErr)

	inserter := NewSerialKeyInserter(store, generator, testDefaults(), quietLogger(), registry)

	result, err := inserter.Run(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.Zero(t, result.Inserted)
	assert.NotEmpty(t, result.BatchID)

	assert.Equal(t, 1.0, registry.CounterValue(metrics.InsertBatches, map[string]string{"outcome": metrics.OutcomeError}))
	assert.Equal(t, 1.0, registry.CounterValue(metrics.KeysGenerated, map[string]string{"product_id": "38"}))
}

func TestSerialKeyInserter_Run_GeneratorFailure(t *testing.T) {
	store := new(mockSerialKeyStore)
	generator := &mockKeyGenerator{config: testSerialConfig()}

	generator.On("GenerateN", 3).Return(nil, errors.New("entropy exhausted"))

	inserter := NewSerialKeyInserter(store, generator, testDefaults(), quietLogger(), metrics.NewRegistry())

	_, err := inserter.Run(context.Background(), 3)
	require.Error(t, err)
	store.AssertNotCalled(t, "InsertSerialKeys", mock.Anything, mock.Anything)
}

func TestSerialKeyInserter_Run_InvalidCount(t *testing.T) {
	store := new(mockSerialKeyStore)
	generator := &mockKeyGenerator{config: testSerialConfig()}

	inserter := NewSerialKeyInserter(store, generator, testDefaults(), quietLogger(), metrics.NewRegistry())

	_, err := inserter.Run(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
	generator.AssertNotCalled(t, "GenerateN", mock.Anything)
}

func TestSerialKeyInserter_LogsMaskedKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)

	store := new(mockSerialKeyStore)
	generator := &mockKeyGenerator{config: testSerialConfig()}
	generator.On("GenerateN", 1).Return([]string{"QWER-TYUI-OPAS-DFGH-JKLZ-XCVB"}, nil)
	store.On("InsertSerialKeys", mock.Anything, mock.Anything).Return(1, nil)

	inserter := NewSerialKeyInserter(store, generator, testDefaults(), logger, metrics.NewRegistry())

	_, err := inserter.Run(context.Background(), 1)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "****-****-****-****-****-XCVB")
	assert.NotContains(t, output, "QWER-TYUI")
	assert.Contains(t, output, `"batch_id"`)
	assert.Contains(t, output, "Serial key batch committed")

	buf.Reset()
	_, err = inserter.Run(WithVerbose(context.Background(), true), 1)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "QWER-TYUI-OPAS-DFGH-JKLZ-XCVB")
}

func TestSerialKeyInserter_WithSQLite(t *testing.T) {
	env, err := envelope.New(models.CipherConfig{Secret: "integration-secret", IV: []byte("fedcba9876543210")})
	require.NoError(t, err)

	db, err := database.Open(models.DatabaseConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "serials.db"),
	}, env)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.EnsureSchema(context.Background()))

	generator, err := serials.NewGenerator(testSerialConfig())
	require.NoError(t, err)

	inserter := NewSerialKeyInserter(db, generator, testDefaults(), quietLogger(), metrics.NewRegistry())

	result, err := inserter.Run(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 5, result.Inserted)

	rows, err := db.ListSerialKeys(context.Background(), constants.DefaultProductID)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	for i, row := range rows {
		assert.Equal(t, result.Keys[i], row.SerialKey)
		assert.Len(t, strings.Split(row.SerialKey, "-"), 6)
	}

	found, err := db.FindBySerialKey(context.Background(), result.Keys[2])
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, rows[2].ID, found.ID)
}
