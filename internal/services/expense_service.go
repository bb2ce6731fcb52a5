// Package services holds the application logic between HTTP and storage.
// Authorization lives here: repositories fetch by ID, services decide whether
// the caller may see the result.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"expenseintel/internal/amqp"
	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

// EventPublisher is satisfied by *amqp.Client. A nil publisher disables
// eventing without changing any call site.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error
}

type ExpenseService struct {
	expenses storage.ExpenseRepository
	events   EventPublisher
}

func NewExpenseService(expenses storage.ExpenseRepository, events EventPublisher) *ExpenseService {
	return &ExpenseService{expenses: expenses, events: events}
}

func (s *ExpenseService) Create(ctx context.Context, ownerID uuid.UUID, e core.Expense) (core.Expense, error) {
	e.UserID = ownerID
	e.Title = strings.TrimSpace(e.Title)
	e.Category = strings.TrimSpace(e.Category)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.expenses.Create(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.publish(ctx, amqp.ActionCreated, created.ID, ownerID)
	return created, nil
}

func (s *ExpenseService) Get(ctx context.Context, ownerID, id uuid.UUID) (core.Expense, error) {
	return s.authorize(ctx, ownerID, id)
}

func (s *ExpenseService) List(ctx context.Context, ownerID uuid.UUID, f storage.ExpenseFilter) (core.ExpenseList, error) {
	if err := f.Validate(); err != nil {
		return core.ExpenseList{}, err
	}
	list, err := s.expenses.ListByOwner(ctx, ownerID, f)
	if err != nil {
		return core.ExpenseList{}, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}

func (s *ExpenseService) Update(ctx context.Context, ownerID, id uuid.UUID, upd core.ExpenseUpdate) (core.Expense, error) {
	current, err := s.authorize(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}

	merged := applyExpenseUpdate(current, upd)
	if err := merged.Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.expenses.Update(ctx, id, upd)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, amqp.ActionUpdated, id, ownerID)
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.authorize(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.expenses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.ActionDeleted, id, ownerID)
	return nil
}

func (s *ExpenseService) MonthlySummary(ctx context.Context, ownerID uuid.UUID, year, month int) (core.MonthlySummary, error) {
	return s.expenses.MonthlySummary(ctx, ownerID, year, month)
}

// authorize resolves the record and checks ownership. Lookup failure surfaces
// before the ownership check, so a missing record is 404 and someone else's
// record is 403.
func (s *ExpenseService) authorize(ctx context.Context, ownerID, id uuid.UUID) (core.Expense, error) {
	e, err := s.expenses.Get(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if e.UserID != ownerID {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrForbidden)
	}
	return e, nil
}

// publish sends a change event without affecting the request outcome. The
// record is already persisted; a broker hiccup is logged, not returned.
func (s *ExpenseService) publish(ctx context.Context, action amqp.EventAction, expenseID, ownerID uuid.UUID) {
	if s.events == nil {
		return
	}
	msg := amqp.NewExpenseEventMessage(action, expenseID, ownerID)
	if err := s.events.PublishExpenseEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"action", action,
			"expense_id", expenseID,
			"error", err)
	}
}

func applyExpenseUpdate(e core.Expense, upd core.ExpenseUpdate) core.Expense {
	if upd.Title != nil {
		e.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Category != nil {
		e.Category = strings.TrimSpace(*upd.Category)
	}
	if upd.Emotion != nil {
		e.Emotion = *upd.Emotion
	}
	if upd.IsAvoidable != nil {
		e.IsAvoidable = *upd.IsAvoidable
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	return e
}
