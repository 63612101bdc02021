package database

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

// Classify wraps a driver error as a StoreError tagged with op. Errors that
// a retry might clear (connectivity, timeouts, resource exhaustion,
// serialization conflicts) are marked transient. A nil err yields nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *apperrors.StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return apperrors.NewStoreError(op, isTransient(err), err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // connection exception
			return true
		case strings.HasPrefix(pgErr.Code, "53"): // insufficient resources
			return true
		}
		switch pgErr.Code {
		case "57014", // query_canceled (statement_timeout)
			"57P01", "57P02", "57P03", // admin/crash shutdown, cannot connect now
			"40001", "40P01": // serialization failure, deadlock
			return true
		}
		return false
	}

	return isConnectionError(err)
}

// isConnectionError returns true if the error looks like a transient connection
// problem rather than a SQL syntax or constraint error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	connPatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"connect: connection",
		"dial tcp",
		"EOF",
		"connection timed out",
		"server closed the connection unexpectedly",
		"could not connect",
		"closed pool",
	}
	for _, p := range connPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
