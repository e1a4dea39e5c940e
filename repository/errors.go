package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"gamenight/service"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"
)

const uniqueViolationCode = "23505"

// storeError wraps err with msg and tags it with the matching service taxonomy error
func storeError(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %w", msg, service.ErrConflict, err)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %w", msg, service.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// isUnavailable reports whether err means the server could not be reached or the
// connection broke, as opposed to the server rejecting the statement
func isUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// admin_shutdown, crash_shutdown, cannot_connect_now
		return pgErr.Code == "57P01" || pgErr.Code == "57P02" || pgErr.Code == "57P03"
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, puddle.ErrClosedPool)
}
