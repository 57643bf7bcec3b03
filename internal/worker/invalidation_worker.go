package worker

import (
	"context"
	"log/slog"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/ledger"
)

// Invalidator drops cached ledger data for an account.
type Invalidator interface {
	Invalidate(accountID string) int
}

// Consumer delivers ledger-changed messages until ctx ends.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler amqp.Handler) error
}

// InvalidationWorker keeps the cached ledger source fresh by reacting to
// ledger-changed notifications. After invalidating it can warm the full
// history so the next dashboard request is served from cache.
type InvalidationWorker struct {
	cache  Invalidator
	warmer ledger.TransactionSource
}

func NewInvalidationWorker(cache Invalidator, warmer ledger.TransactionSource) *InvalidationWorker {
	return &InvalidationWorker{cache: cache, warmer: warmer}
}

// Handle processes one ledger-changed message.
func (w *InvalidationWorker) Handle(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	dropped := w.cache.Invalidate(msg.AccountID)
	slog.InfoContext(ctx, "Ledger cache invalidated",
		"message_id", msg.ID,
		"account_id", msg.AccountID,
		"entries", dropped)

	if w.warmer == nil {
		return nil
	}
	// The dashboard always reads full history.
	if _, err := w.warmer.FetchTransactions(ctx, msg.AccountID, core.AllTime()); err != nil {
		// Warming is best effort; the next request fetches again.
		slog.WarnContext(ctx, "Failed to warm ledger cache",
			"account_id", msg.AccountID,
			"error", err)
	}
	return nil
}

// Run consumes from c until ctx is cancelled.
func (w *InvalidationWorker) Run(ctx context.Context, c Consumer) error {
	slog.InfoContext(ctx, "Starting invalidation worker")
	err := c.ConsumeLedgerChanged(ctx, w.Handle)
	if ctx.Err() != nil {
		slog.InfoContext(ctx, "Invalidation worker stopped")
		return nil
	}
	return err
}
