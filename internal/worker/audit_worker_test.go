package worker

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"expenseintel/internal/amqp"
	"expenseintel/internal/core"
	"expenseintel/internal/storage/memory"
)

func newWorkerFixture(t *testing.T) (*AuditWorker, core.Expense) {
	t.Helper()

	store := memory.New()
	ctx := context.Background()

	owner, err := store.Users().Create(ctx, core.User{
		Email:          "ada@example.com",
		HashedPassword: "x",
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	date, _ := core.ParseDate("2024-03-05")
	expense, err := store.Expenses().Create(ctx, core.Expense{
		UserID:   owner.ID,
		Title:    "Groceries",
		Amount:   core.Money{Cents: 4250},
		Category: "Food",
		Date:     date,
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	return NewAuditWorker(store.Expenses()), expense
}

func TestHandleEvent_CountsProcessedEvents(t *testing.T) {
	w, expense := newWorkerFixture(t)
	ctx := context.Background()

	for _, action := range []amqp.EventAction{amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted} {
		msg := amqp.NewExpenseEventMessage(action, expense.ID, expense.UserID)
		if err := w.HandleEvent(ctx, msg); err != nil {
			t.Fatalf("HandleEvent(%s): %v", action, err)
		}
	}

	if got := w.Handled(); got != 3 {
		t.Errorf("Handled() = %d, want 3", got)
	}
}

func TestHandleEvent_MissingRecordIsAcked(t *testing.T) {
	w, expense := newWorkerFixture(t)
	ctx := context.Background()

	// An event can arrive after the record is gone. The worker must not
	// requeue it forever.
	msg := amqp.NewExpenseEventMessage(amqp.ActionUpdated, uuid.New(), expense.UserID)
	if err := w.HandleEvent(ctx, msg); err != nil {
		t.Errorf("HandleEvent for missing record = %v, want nil", err)
	}
	if got := w.Handled(); got != 1 {
		t.Errorf("Handled() = %d, want 1", got)
	}
}

func TestHandleEvent_InvalidAction(t *testing.T) {
	w, expense := newWorkerFixture(t)

	msg := &amqp.ExpenseEventMessage{Action: "exploded", ExpenseID: expense.ID, OwnerID: expense.UserID}
	if err := w.HandleEvent(context.Background(), msg); err == nil {
		t.Error("HandleEvent with invalid action should fail")
	}
	if got := w.Handled(); got != 0 {
		t.Errorf("Handled() = %d, want 0", got)
	}
}
