// Package worker consumes expense events from AMQP and writes an audit
// trail. It runs as a separate process so that the API server never blocks
// on downstream consumers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"expenseintel/internal/amqp"
	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

// AuditWorker records every expense event as a structured log line. Created
// and updated events are enriched with the current record; deleted events
// carry only the IDs from the message.
type AuditWorker struct {
	expenses storage.ExpenseRepository
	handled  atomic.Int64
}

func NewAuditWorker(expenses storage.ExpenseRepository) *AuditWorker {
	return &AuditWorker{expenses: expenses}
}

// HandleEvent processes one expense event. A missing record is not an error:
// the expense may have been deleted between publish and consumption, so the
// event is logged as-is and acknowledged rather than requeued.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	if !msg.Action.IsValid() {
		return fmt.Errorf("invalid event action %q", msg.Action)
	}

	switch msg.Action {
	case amqp.ActionDeleted:
		slog.InfoContext(ctx, "Expense deleted",
			"expense_id", msg.ExpenseID,
			"owner_id", msg.OwnerID,
			"event_time", msg.Timestamp)
	default:
		expense, err := w.expenses.Get(ctx, msg.ExpenseID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				slog.WarnContext(ctx, "Expense event for missing record",
					"action", msg.Action,
					"expense_id", msg.ExpenseID,
					"owner_id", msg.OwnerID)
				break
			}
			return fmt.Errorf("load expense %s: %w", msg.ExpenseID, err)
		}
		slog.InfoContext(ctx, "Expense "+string(msg.Action),
			"expense_id", expense.ID,
			"owner_id", expense.UserID,
			"title", expense.Title,
			"amount_cents", expense.Amount.Cents,
			"category", expense.Category,
			"date", expense.Date.String(),
			"event_time", msg.Timestamp)
	}

	w.handled.Add(1)
	return nil
}

// Handled reports how many events this worker has processed.
func (w *AuditWorker) Handled() int64 {
	return w.handled.Load()
}
