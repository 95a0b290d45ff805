package shopsession

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// AddPendingItem buffers an anonymous add-to-cart intent. Re-adding a
// buffered product increments its quantity instead of duplicating the entry.
//
// The buffer is pure intent capture: no stock or price validation, and every
// storage failure degrades to a silent no-op — losing a buffered add is
// accepted, surfacing a storage error to a shopper is not.
func (e *Engine) AddPendingItem(ctx context.Context, productID string, quantity int) error {
	if e == nil || e.pending == nil {
		return ErrEngineNotReady
	}
	if productID == "" {
		return errors.New("product id must not be empty")
	}
	if quantity < 1 {
		return errors.New("quantity must be at least 1")
	}

	if err := e.pending.Add(ctx, productID, quantity); err != nil {
		e.metricInc(MetricPendingStoreDegraded)
		e.emitAudit(ctx, auditEventPendingAdd, false, nil, ErrStateStoreUnavailable, func() map[string]string {
			return map[string]string{"product_id": productID}
		})
		return nil
	}

	e.metricInc(MetricPendingAdd)
	return nil
}

// PendingItems returns the buffered intents in insertion order. Storage
// failures degrade to an empty buffer.
func (e *Engine) PendingItems(ctx context.Context) []PendingItem {
	if e == nil || e.pending == nil {
		return []PendingItem{}
	}

	entries, err := e.pending.List(ctx)
	if err != nil {
		e.metricInc(MetricPendingStoreDegraded)
		return []PendingItem{}
	}

	items := make([]PendingItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, PendingItem{ProductID: entry.ProductID, Quantity: entry.Quantity})
	}
	return items
}

// ClearPending deletes the buffer. Storage failures degrade to a no-op.
func (e *Engine) ClearPending(ctx context.Context) {
	if e == nil || e.pending == nil {
		return
	}
	if err := e.pending.Clear(ctx); err != nil {
		e.metricInc(MetricPendingStoreDegraded)
	}
}

// reconcileLocked drains the pending buffer into the server cart and adopts
// the authoritative cart. Callers hold opMu and have just established (or
// confirmed) an authenticated-customer session.
//
// Per-entry add calls fan out concurrently — they are independent set-merge
// operations. The buffer is cleared only after every call settles, and it is
// cleared unconditionally: a buffer that partially failed to apply must not
// be replayed on a later login, or quantities balloon on retry. The server's
// cart response, not the buffer, defines what is actually in the cart.
//
// A connectivity failure on the authoritative fetch keeps the session (the
// token was just confirmed); a 401 means the token died mid-operation and
// tears the session down like any other failed validation.
func (e *Engine) reconcileLocked(ctx context.Context, token, generation string) error {
	e.metricInc(MetricReconcileRun)

	entries := e.PendingItems(ctx)
	var applied, failed atomic.Uint64

	if len(entries) > 0 {
		var g errgroup.Group
		g.SetLimit(e.config.Cart.MaxParallelAdds)
		for _, entry := range entries {
			entry := entry
			g.Go(func() error {
				if _, err := e.backend.AddCartItem(ctx, token, entry.ProductID, entry.Quantity); err != nil {
					failed.Add(1)
					return nil
				}
				applied.Add(1)
				return nil
			})
		}
		_ = g.Wait()

		e.ClearPending(ctx)
	}

	e.metricAdd(MetricReconcileItemApplied, applied.Load())
	e.metricAdd(MetricReconcileItemFailed, failed.Load())

	cart, err := e.backend.Cart(ctx, token)
	if err != nil {
		e.emitAudit(ctx, auditEventCartReconciled, false, nil, err, func() map[string]string {
			return reconcileMetadata(len(entries), applied.Load(), failed.Load())
		})
		if errors.Is(err, ErrUnauthorized) {
			e.teardownLocked(ctx, auditEventRefreshTeardown, err)
			return fmt.Errorf("%w: %v", ErrSessionInvalid, err)
		}
		return nil
	}

	e.updateIfCurrent(generation, func(s *sessionState) {
		s.cart = &cart
	})
	e.metricInc(MetricCartAdopted)
	e.emitAudit(ctx, auditEventCartReconciled, true, nil, nil, func() map[string]string {
		return reconcileMetadata(len(entries), applied.Load(), failed.Load())
	})
	return nil
}

func reconcileMetadata(buffered int, applied, failed uint64) map[string]string {
	return map[string]string{
		"buffered": strconv.Itoa(buffered),
		"applied":  strconv.FormatUint(applied, 10),
		"failed":   strconv.FormatUint(failed, 10),
	}
}
