package service

// Standard field names for serialvault log entries. Use these exact names so
// entries from the inserter, the store and the commands line up.
const (
	// Core identifiers
	LogFieldBatchID   = "batch_id"
	LogFieldProductID = "product_id"
	LogFieldSerial    = "serial"
	LogFieldToken     = "token"
	LogFieldRowID     = "row_id"

	// Service and operation fields
	LogFieldOperation = "operation"
	LogFieldComponent = "component"
	LogFieldDriver    = "driver"
	LogFieldTable     = "table"

	// Performance and metrics
	LogFieldDuration  = "duration_ms"
	LogFieldCount     = "count"
	LogFieldRequested = "requested"
	LogFieldIndex     = "index"

	// Error and debugging
	LogFieldErrorCode = "error_code"
)

// Log Level Usage Guidelines
//
// DEBUG: per-key progress, exporter selection, schema checks.
// INFO: run start and summary, configuration loaded.
// WARN: insecure settings in use (zero IV), retryable store errors.
// ERROR: a run that committed nothing.
//
// Plaintext serial keys are logged only in verbose mode; otherwise they go
// through privacy.MaskSerialKey.

// Example Usage:
//
// logger.WithFields(logrus.Fields{
//     LogFieldBatchID:   batchID,
//     LogFieldProductID: productID,
//     LogFieldCount:     inserted,
//     LogFieldDuration:  duration.Milliseconds(),
// }).Info("Serial key batch committed")
