package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrConflict signals that a concurrent writer modified the ledger between
// our read and write. Stores retry it per the configured policy.
var ErrConflict = errors.New("ledger was modified concurrently")

// AppendResult says what an Append actually did.
type AppendResult int

const (
	// Appended means the row was written.
	Appended AppendResult = iota
	// SkippedDuplicate means a row for the commit SHA already existed and
	// the append was an idempotent no-op.
	SkippedDuplicate
)

// Store is the ledger access contract. Append must leave the resource
// parseable under concurrent and repeated invocations; ReadAll returns the
// history in append order.
type Store interface {
	ReadAll(ctx context.Context) (*Ledger, error)
	Append(ctx context.Context, rec Record) (AppendResult, error)
}

// RetryPolicy bounds the read-modify-write retry loop on append conflicts.
type RetryPolicy struct {
	MaxAttempts     uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy matches the CI setting: a handful of quick retries,
// well under a CI step timeout.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     4 * time.Second,
	}
}

func (p RetryPolicy) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, attempts-1), ctx)
}
