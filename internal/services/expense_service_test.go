package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"expenseintel/internal/amqp"
	"expenseintel/internal/core"
	"expenseintel/internal/storage"
	"expenseintel/internal/storage/memory"
)

type capturingPublisher struct {
	messages []*amqp.ExpenseEventMessage
	err      error
}

func (p *capturingPublisher) PublishExpenseEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func newExpenseFixture(t *testing.T) (*ExpenseService, *capturingPublisher, uuid.UUID) {
	t.Helper()
	store := memory.New()
	user, err := store.Users().Create(context.Background(), core.User{
		Email:          "owner@example.com",
		HashedPassword: "x",
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	pub := &capturingPublisher{}
	return NewExpenseService(store.Expenses(), pub), pub, user.ID
}

func validExpense() core.Expense {
	return core.Expense{
		Title:    "Groceries",
		Amount:   core.Money{Cents: 4250},
		Category: "Food",
		Date:     core.NewDate(2024, 3, 5),
	}
}

func TestExpenseService_CreateValidatesAndPublishes(t *testing.T) {
	svc, pub, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ownerID, validExpense())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.UserID != ownerID {
		t.Errorf("UserID = %v, want %v", created.UserID, ownerID)
	}
	if created.ID == uuid.Nil {
		t.Error("Create should assign an ID")
	}

	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	if pub.messages[0].Action != amqp.ActionCreated {
		t.Errorf("action = %v, want created", pub.messages[0].Action)
	}
	if pub.messages[0].ExpenseID != created.ID {
		t.Errorf("message expense_id = %v, want %v", pub.messages[0].ExpenseID, created.ID)
	}
}

func TestExpenseService_CreateRejectsInvalid(t *testing.T) {
	svc, pub, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*core.Expense)
	}{
		{"empty title", func(e *core.Expense) { e.Title = "  " }},
		{"zero amount", func(e *core.Expense) { e.Amount = core.Money{} }},
		{"negative amount", func(e *core.Expense) { e.Amount = core.Money{Cents: -100} }},
		{"empty category", func(e *core.Expense) { e.Category = "" }},
		{"missing date", func(e *core.Expense) { e.Date = core.Date{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			if _, err := svc.Create(ctx, ownerID, e); !errors.Is(err, core.ErrValidation) {
				t.Errorf("Create error = %v, want ErrValidation", err)
			}
		})
	}

	if len(pub.messages) != 0 {
		t.Errorf("rejected creates must not publish events, got %d", len(pub.messages))
	}
}

func TestExpenseService_OwnershipChain(t *testing.T) {
	svc, _, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ownerID, validExpense())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stranger := uuid.New()

	// Unknown ID is not found, regardless of who asks.
	if _, err := svc.Get(ctx, ownerID, uuid.New()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get unknown = %v, want ErrNotFound", err)
	}

	// Existing record owned by someone else is forbidden, not hidden.
	if _, err := svc.Get(ctx, stranger, created.ID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("Get as stranger = %v, want ErrForbidden", err)
	}
	if _, err := svc.Update(ctx, stranger, created.ID, core.ExpenseUpdate{}); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("Update as stranger = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, stranger, created.ID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("Delete as stranger = %v, want ErrForbidden", err)
	}

	// Owner still sees the record untouched.
	got, err := svc.Get(ctx, ownerID, created.ID)
	if err != nil {
		t.Fatalf("Get as owner: %v", err)
	}
	if got.Title != "Groceries" {
		t.Errorf("Title = %q, want Groceries", got.Title)
	}
}

func TestExpenseService_UpdateMergesAndPublishes(t *testing.T) {
	svc, pub, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ownerID, validExpense())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newTitle := "Groceries (market)"
	newAmount := core.Money{Cents: 5000}
	updated, err := svc.Update(ctx, ownerID, created.ID, core.ExpenseUpdate{
		Title:  &newTitle,
		Amount: &newAmount,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != newTitle {
		t.Errorf("Title = %q, want %q", updated.Title, newTitle)
	}
	if updated.Amount.Cents != 5000 {
		t.Errorf("Amount = %d, want 5000", updated.Amount.Cents)
	}
	// Untouched fields survive a partial update.
	if updated.Category != "Food" {
		t.Errorf("Category = %q, want Food", updated.Category)
	}

	last := pub.messages[len(pub.messages)-1]
	if last.Action != amqp.ActionUpdated {
		t.Errorf("last action = %v, want updated", last.Action)
	}
}

func TestExpenseService_UpdateRejectsInvalidMerge(t *testing.T) {
	svc, _, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ownerID, validExpense())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	empty := ""
	if _, err := svc.Update(ctx, ownerID, created.ID, core.ExpenseUpdate{Title: &empty}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Update error = %v, want ErrValidation", err)
	}

	// The record is unchanged after a rejected update.
	got, err := svc.Get(ctx, ownerID, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Groceries" {
		t.Errorf("Title = %q, want Groceries", got.Title)
	}
}

func TestExpenseService_DeletePublishesAndRemoves(t *testing.T) {
	svc, pub, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, ownerID, validExpense())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, ownerID, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, ownerID, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, ownerID, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}

	last := pub.messages[len(pub.messages)-1]
	if last.Action != amqp.ActionDeleted {
		t.Errorf("last action = %v, want deleted", last.Action)
	}
}

func TestExpenseService_PublishFailureDoesNotFailRequest(t *testing.T) {
	svc, pub, ownerID := newExpenseFixture(t)
	pub.err = errors.New("broker down")

	if _, err := svc.Create(context.Background(), ownerID, validExpense()); err != nil {
		t.Fatalf("Create should succeed despite publish failure: %v", err)
	}
}

func TestExpenseService_NilPublisher(t *testing.T) {
	store := memory.New()
	svc := NewExpenseService(store.Expenses(), nil)

	if _, err := svc.Create(context.Background(), uuid.New(), validExpense()); err != nil {
		t.Fatalf("Create with nil publisher: %v", err)
	}
}

func TestExpenseService_MonthlySummary(t *testing.T) {
	svc, _, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	add := func(cents int64, category string, date core.Date) {
		t.Helper()
		e := validExpense()
		e.Amount = core.Money{Cents: cents}
		e.Category = category
		e.Date = date
		if _, err := svc.Create(ctx, ownerID, e); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	add(91250, "Rent", core.NewDate(2024, 3, 1))
	add(800, "Food", core.NewDate(2024, 3, 31))
	add(1500, "Food", core.NewDate(2024, 4, 1))

	summary, err := svc.MonthlySummary(ctx, ownerID, 2024, 3)
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if summary.TotalAmount.Cents != 92050 {
		t.Errorf("TotalAmount = %d, want 92050", summary.TotalAmount.Cents)
	}
	if summary.Count != 2 {
		t.Errorf("Count = %d, want 2", summary.Count)
	}
	if summary.LifetimeTotal.Cents != 93550 {
		t.Errorf("LifetimeTotal = %d, want 93550", summary.LifetimeTotal.Cents)
	}
	if summary.CategoryBreakdown["Rent"].Cents != 91250 {
		t.Errorf("Rent breakdown = %d, want 91250", summary.CategoryBreakdown["Rent"].Cents)
	}

	if _, err := svc.MonthlySummary(ctx, ownerID, 2024, 13); !errors.Is(err, core.ErrValidation) {
		t.Errorf("month 13 error = %v, want ErrValidation", err)
	}
}

func TestExpenseService_ListRejectsInvertedDateRange(t *testing.T) {
	svc, _, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, ownerID, validExpense()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	start := core.NewDate(2024, 4, 1)
	end := core.NewDate(2024, 3, 1)
	_, err := svc.List(ctx, ownerID, storage.ExpenseFilter{StartDate: &start, EndDate: &end})
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("List error = %v, want ErrValidation", err)
	}

	// Same-day range stays legal: both bounds are inclusive.
	sameDay := core.NewDate(2024, 3, 5)
	list, err := svc.List(ctx, ownerID, storage.ExpenseFilter{StartDate: &sameDay, EndDate: &sameDay})
	if err != nil {
		t.Fatalf("List same-day range: %v", err)
	}
	if list.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", list.TotalCount)
	}
}

func TestExpenseService_ListAggregates(t *testing.T) {
	svc, _, ownerID := newExpenseFixture(t)
	ctx := context.Background()

	avoidable := validExpense()
	avoidable.IsAvoidable = true
	avoidable.Amount = core.Money{Cents: 2000}
	if _, err := svc.Create(ctx, ownerID, avoidable); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, ownerID, validExpense()); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := svc.List(ctx, ownerID, storage.ExpenseFilter{Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// Aggregates cover the whole filtered set, not just the returned page.
	if len(list.Items) != 1 {
		t.Errorf("page size = %d, want 1", len(list.Items))
	}
	if list.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", list.TotalCount)
	}
	if list.TotalAmount.Cents != 6250 {
		t.Errorf("TotalAmount = %d, want 6250", list.TotalAmount.Cents)
	}
	if list.TotalAvoidableAmount.Cents != 2000 {
		t.Errorf("TotalAvoidableAmount = %d, want 2000", list.TotalAvoidableAmount.Cents)
	}
}
