package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/courtsite/attribution/pkg/cache"
)

// CachedLedger wraps a Ledger with an in-process lookup cache for processed
// delivery ids. Processed is a terminal, immutable state, so a positive answer
// is safe to cache forever; negative answers are never cached because another
// process may mark the delivery at any moment.
type CachedLedger struct {
	inner     Ledger
	processed *cache.LoaderCache[bool]
}

// NewCachedLedger creates a cached ledger holding up to maxEntries positive lookups.
func NewCachedLedger(inner Ledger, maxEntries int) (*CachedLedger, error) {
	processed, err := cache.New[bool](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create processed-lookup cache: %w", err)
	}
	return &CachedLedger{inner: inner, processed: processed}, nil
}

// CheckProcessed answers from cache when the delivery id is known processed,
// otherwise consults the inner ledger.
func (l *CachedLedger) CheckProcessed(ctx context.Context, webhookEventID string) (bool, error) {
	if _, err := l.processed.Get(ctx, webhookEventID, func(ctx context.Context, key string) (bool, error) {
		processed, err := l.inner.CheckProcessed(ctx, key)
		if err != nil {
			return false, err
		}
		if !processed {
			return false, errNotProcessed
		}
		return true, nil
	}); err != nil {
		if errors.Is(err, errNotProcessed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// errNotProcessed keeps unprocessed lookups out of the cache.
var errNotProcessed = errors.New("not processed")

// MarkProcessed delegates to the inner ledger and primes the cache on any
// outcome that implies the delivery id is settled.
func (l *CachedLedger) MarkProcessed(ctx context.Context, reservationID uuid.UUID, webhookEventID string) (MarkOutcome, error) {
	outcome, err := l.inner.MarkProcessed(ctx, reservationID, webhookEventID)
	if err != nil {
		return outcome, err
	}
	if outcome == MarkClaimed || outcome == MarkAlreadyProcessed {
		l.processed.Add(webhookEventID, true)
	}
	return outcome, nil
}
