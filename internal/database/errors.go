package database

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"strings"

	"serialvault/internal/errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// MySQL server error numbers that clear up on their own
const (
	mysqlErrTooManyConnections = 1040
	mysqlErrLockWaitTimeout    = 1205
	mysqlErrDeadlock           = 1213
)

// isTransientDBError reports whether err is likely to succeed if the caller
// runs the whole operation again. Nothing in this package retries.
func isTransientDBError(err error) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrIoErr:
			return true
		}
		return false
	}

	var mysqlErr *mysql.MySQLError
	if stderrors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrTooManyConnections, mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return true
		}
		return false
	}

	if stderrors.Is(err, driver.ErrBadConn) || stderrors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host")
}

// wrapQueryError turns a driver error into a DATABASE_QUERY AppError
func wrapQueryError(operation string, err error) error {
	appErr := errors.NewDatabaseError(operation, err)
	appErr.Retryable = isTransientDBError(err)
	return appErr
}

// wrapConnectionError turns an open or ping failure into a DATABASE_CONNECTION AppError
func wrapConnectionError(driverName string, err error) error {
	appErr := errors.NewConnectionError(driverName, err)
	appErr.Retryable = isTransientDBError(err)
	return appErr
}
