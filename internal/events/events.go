// Package events defines the outbound notifications the dashboard emits.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"saldo/internal/core"
)

// InconsistencyReport records the inconsistency warnings raised by one
// aggregation of an account's ledger.
type InconsistencyReport struct {
	ID         string                      `json:"id"`
	AccountID  string                      `json:"account_id"`
	Period     core.DateRange              `json:"period"`
	Warnings   []core.InconsistencyWarning `json:"warnings"`
	OccurredAt time.Time                   `json:"occurred_at"`
}

func NewInconsistencyReport(accountID string, period core.DateRange, warnings []core.InconsistencyWarning) InconsistencyReport {
	return InconsistencyReport{
		ID:         uuid.NewString(),
		AccountID:  accountID,
		Period:     period,
		Warnings:   warnings,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends an event to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

func (r InconsistencyReport) PartitionKey() string { return r.AccountID }
