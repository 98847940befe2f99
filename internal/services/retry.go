package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that mean the statement lost a race for rows and the
// whole transaction can simply be run again.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
	pgCheckViolation       = "23514"
	pgNumericOutOfRange    = "22003"
)

type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     500 * time.Millisecond,
	}
}

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx)
}

// retryTransient runs op until it succeeds, fails with a non-transient error,
// or the policy is exhausted. Transient failures that survive every attempt
// come back as ErrUnavailable so callers can tell them from business errors.
func retryTransient(ctx context.Context, p RetryPolicy, op func() error) error {
	err := backoff.Retry(func() error {
		err := op()
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, p.newBackOff(ctx))

	if err != nil && (isTransient(err) || errors.Is(err, context.DeadlineExceeded)) {
		return unavailable("storage is busy, try again", err)
	}
	return err
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return true
		}
		return false
	}
	return pgconn.Timeout(err) || pgconn.SafeToRetry(err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isOutOfRange reports a value the schema refused: a CHECK that failed after
// NUMERIC rounding, or a number too wide for its column.
func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgCheckViolation || pgErr.Code == pgNumericOutOfRange
}

// writeFailure classifies an error from a write so that refused values and
// busy storage do not surface as internal faults.
func writeFailure(msg string, err error) error {
	switch {
	case isOutOfRange(err):
		return ErrAmountOutOfRange
	case isTransient(err):
		return unavailable("storage is busy, try again", err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
