package sqlstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Write contention backoff: 10ms, 20ms, 40ms, 80ms between five attempts.
const (
	writeAttempts  = 5
	firstBackoff   = 10 * time.Millisecond
	backoffCeiling = 200 * time.Millisecond
)

// retryable reports whether err is a lock conflict the dialect resolves by
// running the statement again: SQLITE_BUSY / SQLITE_LOCKED for sqlite,
// serialization failures and deadlocks for postgres.
func (d Dialect) retryable(err error) bool {
	if err == nil {
		return false
	}
	switch d {
	case Postgres:
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return pqErr.Code == "40001" || pqErr.Code == "40P01"
		}
		return false
	default:
		var coded interface{ Code() int }
		if errors.As(err, &coded) {
			switch coded.Code() & 0xff {
			case 5, 6:
				return true
			}
		}
		msg := err.Error()
		return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
	}
}

// withRetry runs op until it succeeds, fails with a non-retryable error, or
// the attempts run out.
func (s *Store) withRetry(ctx context.Context, op func() error) error {
	wait := firstBackoff
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || attempt == writeAttempts || !s.dialect.retryable(err) {
			return err
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = min(wait*2, backoffCeiling)
	}
}
