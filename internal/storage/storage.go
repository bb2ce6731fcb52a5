// Package storage defines the persistence contract shared by the relational,
// document and in-memory backends. Implementations must be observationally
// equivalent: identical records yield identical aggregates.
package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"expenseintel/internal/core"
)

type SortField string

const (
	SortByDate      SortField = "date"
	SortByAmount    SortField = "amount"
	SortByTitle     SortField = "title"
	SortByCreatedAt SortField = "created_at"
)

func (f SortField) IsValid() bool {
	switch f {
	case SortByDate, SortByAmount, SortByTitle, SortByCreatedAt:
		return true
	default:
		return false
	}
}

type SortOrder int

const (
	Descending SortOrder = -1
	Ascending  SortOrder = 1
)

// ExpenseFilter selects a subset of one owner's expenses. All set fields are
// AND-combined. StartDate/EndDate are inclusive calendar-day bounds; open
// ended when nil.
type ExpenseFilter struct {
	Category  string
	Avoidable *bool
	Search    string // case-insensitive substring match on title
	StartDate *core.Date
	EndDate   *core.Date

	Skip  int
	Limit int

	SortBy    SortField
	SortOrder SortOrder
}

// Validate rejects filters that can only ever match nothing. An inverted
// date range is a caller mistake, not an empty result.
func (f ExpenseFilter) Validate() error {
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(f.EndDate.Time) {
		return fmt.Errorf("%w: start_date %s is after end_date %s", core.ErrValidation, f.StartDate, f.EndDate)
	}
	return nil
}

// Normalize fills defaults: date-descending sort, page size 10, capped at
// 100. Mirrors the query bounds the HTTP layer advertises.
func (f ExpenseFilter) Normalize() ExpenseFilter {
	if !f.SortBy.IsValid() {
		f.SortBy = SortByDate
	}
	if f.SortOrder != Ascending {
		f.SortOrder = Descending
	}
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}

// ExpenseRepository is the persistence contract for expense records.
// Implementations assign identity and audit timestamps on Create, reject
// non-positive amounts regardless of upstream validation, and surface
// storage-engine failures unmodified. Ownership checks are not their job;
// the service layer owns authorization.
type ExpenseRepository interface {
	Create(ctx context.Context, e core.Expense) (core.Expense, error)
	Get(ctx context.Context, id uuid.UUID) (core.Expense, error)
	Update(ctx context.Context, id uuid.UUID, upd core.ExpenseUpdate) (core.Expense, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner returns a sorted page plus aggregates over the whole
	// filtered set in at most two round trips, never one per row.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, f ExpenseFilter) (core.ExpenseList, error)

	// MonthlySummary aggregates one calendar month together with the
	// owner's lifetime total. An empty month is a zero-valued result, not
	// an error.
	MonthlySummary(ctx context.Context, ownerID uuid.UUID, year, month int) (core.MonthlySummary, error)
}

type UserRepository interface {
	Create(ctx context.Context, u core.User) (core.User, error)
	Get(ctx context.Context, id uuid.UUID) (core.User, error)
	GetByEmail(ctx context.Context, email string) (core.User, error)

	// Update applies a partial profile change. An email change is subject to
	// the same uniqueness rule as Create.
	Update(ctx context.Context, id uuid.UUID, upd core.UserUpdate) (core.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hashed string) error
}

type PotRepository interface {
	Create(ctx context.Context, p core.Pot) (core.Pot, error)
	Get(ctx context.Context, id uuid.UUID) (core.Pot, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]core.Pot, error)
	Update(ctx context.Context, id uuid.UUID, upd core.PotUpdate) (core.Pot, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c core.Category) (core.Category, error)
	Get(ctx context.Context, id uuid.UUID) (core.Category, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]core.Category, error)
	Update(ctx context.Context, id uuid.UUID, upd core.CategoryUpdate) (core.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store bundles the per-entity repositories of one backend.
type Store interface {
	Expenses() ExpenseRepository
	Users() UserRepository
	Pots() PotRepository
	Categories() CategoryRepository
	Close(ctx context.Context) error
}
