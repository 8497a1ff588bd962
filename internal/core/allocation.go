package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// sortForConsumption orders batches by the allocation policy:
//
//  1. a batch holding an opened unit comes first (soonest open_expires_at
//     wins if there is somehow more than one),
//  2. then soonest expiration date, nulls last,
//  3. then oldest entry date,
//  4. then lowest id as a stable tie-break.
//
// The opened-unit rule overrides expiry ordering entirely: an unsealed unit
// is always used up before touching sealed stock.
func sortForConsumption(batches []Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := &batches[i], &batches[j]
		if a.Opened() != b.Opened() {
			return a.Opened()
		}
		if a.Opened() && b.Opened() {
			if c := compareDatePtr(a.OpenExpiresAt, b.OpenExpiresAt); c != 0 {
				return c < 0
			}
		}
		if c := compareDatePtr(a.ExpirationDate, b.ExpirationDate); c != 0 {
			return c < 0
		}
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		return a.ID < b.ID
	})
}

// compareDatePtr orders optional dates ascending, nil (no expiration) last.
func compareDatePtr(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	default:
		return 0
	}
}

// totalAvailable sums the remaining quantity across batches.
func totalAvailable(batches []Batch) decimal.Decimal {
	total := decimal.Zero
	for i := range batches {
		total = total.Add(batches[i].Quantity)
	}
	return total
}

// planAllocation decides how a requested quantity is drawn from the given
// candidate batches. It mutates nothing: callers apply the returned takes to
// locked rows inside their transaction.
//
// The caller passes every lockable candidate (quantity > 0, not depleted) of
// one product. Preconditions checked here:
//
//   - requested must be positive (InvalidQuantity),
//   - the batch total must cover the request (InsufficientStock, with
//     available/requested metadata, nothing consumed),
//   - a shortfall discovered only while iterating means a concurrent writer
//     got there first (ConcurrencyConflict) — the caller must abort the
//     whole transaction, never commit a partial allocation.
//
// On success the takes sum to exactly the requested quantity. A take that
// drains a batch marks it depleted; any draw from a batch holding an opened
// unit consumes that unit first and clears the open state.
func planAllocation(batches []Batch, requested decimal.Decimal) ([]BatchTake, error) {
	if !requested.IsPositive() {
		return nil, Errf(ErrInvalidQuantity, "requested quantity must be positive, got %s", requested).
			WithMeta("requested", requested.String())
	}

	available := totalAvailable(batches)
	if available.LessThan(requested) {
		return nil, Errf(ErrInsufficientStock, "requested %s but only %s available", requested, available).
			WithMeta("available", available.String()).
			WithMeta("requested", requested.String())
	}

	sortForConsumption(batches)

	var takes []BatchTake
	need := requested
	for i := range batches {
		if !need.IsPositive() {
			break
		}
		b := &batches[i]
		if b.IsDepleted || !b.Quantity.IsPositive() {
			continue
		}
		take := decimal.Min(b.Quantity, need)
		newQty := b.Quantity.Sub(take)
		takes = append(takes, BatchTake{
			BatchID:     b.ID,
			Taken:       take,
			NewQuantity: newQty,
			depleted:    newQty.IsZero(),
			clearedOpen: b.Opened(),
		})
		need = need.Sub(take)
	}

	if need.IsPositive() {
		return nil, Errf(ErrConcurrencyConflict, "stock changed underneath the allocation, %s still unfilled", need).
			WithMeta("unfilled", need.String()).
			WithMeta("requested", requested.String())
	}
	return takes, nil
}

// pickOpenTarget returns the batch a new opened unit should come from: the
// first batch in consumption order with stock remaining. Returns nil when no
// batch has quantity left.
func pickOpenTarget(batches []Batch) *Batch {
	sortForConsumption(batches)
	for i := range batches {
		if !batches[i].IsDepleted && batches[i].Quantity.IsPositive() {
			return &batches[i]
		}
	}
	return nil
}

// findOpened returns the batch currently holding an opened unit, or nil.
// With more than one (which the state machine forbids), the soonest
// open-expiry wins so consumption stays deterministic.
func findOpened(batches []Batch) *Batch {
	var found *Batch
	for i := range batches {
		b := &batches[i]
		if !b.Opened() {
			continue
		}
		if found == nil || compareDatePtr(b.OpenExpiresAt, found.OpenExpiresAt) < 0 {
			found = b
		}
	}
	return found
}
