// Package storagetest holds the conformance suite every storage backend must
// pass. The backends are interchangeable only if identical records produce
// identical pages and aggregates, so the suite is shared rather than
// duplicated per backend.
package storagetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

// Factory builds a fresh, empty store for one test.
type Factory func(t *testing.T) storage.Store

type Suite struct {
	suite.Suite
	factory Factory

	ctx   context.Context
	store storage.Store
	owner core.User
}

func New(factory Factory) *Suite {
	return &Suite{factory: factory}
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.factory(s.T())

	owner, err := s.store.Users().Create(s.ctx, core.User{
		Email:          "owner@example.com",
		HashedPassword: "hash",
		IsActive:       true,
	})
	s.Require().NoError(err)
	s.owner = owner
}

func (s *Suite) TearDownTest() {
	s.Require().NoError(s.store.Close(context.Background()))
}

func (s *Suite) mustCreate(title string, cents int64, category, date string, avoidable bool) core.Expense {
	s.T().Helper()

	d, err := core.ParseDate(date)
	s.Require().NoError(err)

	e, err := s.store.Expenses().Create(s.ctx, core.Expense{
		UserID:      s.owner.ID,
		Title:       title,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		IsAvoidable: avoidable,
		Date:        d,
	})
	s.Require().NoError(err)
	return e
}

func (s *Suite) otherUser(email string) core.User {
	s.T().Helper()
	u, err := s.store.Users().Create(s.ctx, core.User{
		Email:          email,
		HashedPassword: "hash",
		IsActive:       true,
	})
	s.Require().NoError(err)
	return u
}

func (s *Suite) TestExpenseCreateAssignsIdentity() {
	e := s.mustCreate("Rent", 91250, "Housing", "2024-03-01", false)

	s.NotEqual(uuid.Nil, e.ID)
	s.Equal(s.owner.ID, e.UserID)
	s.False(e.CreatedAt.IsZero())
	s.False(e.UpdatedAt.IsZero())

	got, err := s.store.Expenses().Get(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Equal(e.ID, got.ID)
	s.Equal("Rent", got.Title)
	s.Equal(int64(91250), got.Amount.Cents)
	s.Equal("2024-03-01", got.Date.String())
}

func (s *Suite) TestExpenseCreateRejectsNonPositiveAmount() {
	for _, cents := range []int64{0, -100} {
		_, err := s.store.Expenses().Create(s.ctx, core.Expense{
			UserID:   s.owner.ID,
			Title:    "Broken",
			Amount:   core.Money{Cents: cents},
			Category: "Misc",
			Date:     core.NewDate(2024, 3, 1),
		})
		s.ErrorIs(err, core.ErrValidation, "cents=%d", cents)
	}
}

func (s *Suite) TestExpenseGetUnknown() {
	_, err := s.store.Expenses().Get(s.ctx, uuid.New())
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *Suite) TestExpensePartialUpdate() {
	e := s.mustCreate("Coffee", 450, "Food", "2024-03-05", true)

	title := "Espresso"
	updated, err := s.store.Expenses().Update(s.ctx, e.ID, core.ExpenseUpdate{Title: &title})
	s.Require().NoError(err)

	s.Equal("Espresso", updated.Title)
	s.Equal(int64(450), updated.Amount.Cents, "untouched fields keep their value")
	s.Equal("Food", updated.Category)
	s.True(updated.IsAvoidable)
	s.Equal("2024-03-05", updated.Date.String())
}

func (s *Suite) TestExpenseUpdateUnknown() {
	title := "x"
	_, err := s.store.Expenses().Update(s.ctx, uuid.New(), core.ExpenseUpdate{Title: &title})
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *Suite) TestExpenseDelete() {
	e := s.mustCreate("Coffee", 450, "Food", "2024-03-05", true)

	s.Require().NoError(s.store.Expenses().Delete(s.ctx, e.ID))

	_, err := s.store.Expenses().Get(s.ctx, e.ID)
	s.ErrorIs(err, core.ErrNotFound)
	s.ErrorIs(s.store.Expenses().Delete(s.ctx, e.ID), core.ErrNotFound)
}

func (s *Suite) TestListAggregatesWholeFilteredSet() {
	s.mustCreate("Rent", 91250, "Housing", "2024-03-01", false)
	s.mustCreate("Coffee", 450, "Food", "2024-03-05", true)
	s.mustCreate("Cinema", 1550, "Fun", "2024-03-10", true)
	s.mustCreate("Groceries", 4250, "Food", "2024-03-12", false)

	list, err := s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{Limit: 2})
	s.Require().NoError(err)

	s.Len(list.Items, 2, "page obeys the limit")
	s.Equal(int64(4), list.TotalCount, "count covers the whole set")
	s.Equal(int64(97500), list.TotalAmount.Cents)
	s.Equal(int64(2000), list.TotalAvoidableAmount.Cents)
}

func (s *Suite) TestListFilters() {
	s.mustCreate("Rent", 91250, "Housing", "2024-03-01", false)
	s.mustCreate("Coffee", 450, "Food", "2024-03-05", true)
	s.mustCreate("Groceries", 4250, "Food", "2024-03-12", false)

	byCategory, err := s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{Category: "Food"})
	s.Require().NoError(err)
	s.Equal(int64(2), byCategory.TotalCount)
	s.Equal(int64(4700), byCategory.TotalAmount.Cents)

	avoidable := true
	byAvoidable, err := s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{Avoidable: &avoidable})
	s.Require().NoError(err)
	s.Equal(int64(1), byAvoidable.TotalCount)

	bySearch, err := s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{Search: "coff"})
	s.Require().NoError(err)
	s.Require().Len(bySearch.Items, 1)
	s.Equal("Coffee", bySearch.Items[0].Title)
}

func (s *Suite) TestListDateRangeIsInclusive() {
	s.mustCreate("First", 1000, "Misc", "2024-03-01", false)
	s.mustCreate("Mid", 2000, "Misc", "2024-03-15", false)
	s.mustCreate("Last", 3000, "Misc", "2024-03-31", false)
	s.mustCreate("April", 4000, "Misc", "2024-04-01", false)

	start, _ := core.ParseDate("2024-03-01")
	end, _ := core.ParseDate("2024-03-31")
	list, err := s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	s.Require().NoError(err)

	s.Equal(int64(3), list.TotalCount, "both boundary days are in range")
	s.Equal(int64(6000), list.TotalAmount.Cents)
}

func (s *Suite) TestListSorting() {
	s.mustCreate("B", 2000, "Misc", "2024-03-02", false)
	s.mustCreate("A", 3000, "Misc", "2024-03-01", false)
	s.mustCreate("C", 1000, "Misc", "2024-03-03", false)

	list, err := s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{})
	s.Require().NoError(err)
	s.Require().Len(list.Items, 3)
	s.Equal("C", list.Items[0].Title, "default sort is date descending")
	s.Equal("A", list.Items[2].Title)

	list, err = s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{
		SortBy:    storage.SortByAmount,
		SortOrder: storage.Ascending,
	})
	s.Require().NoError(err)
	s.Equal("C", list.Items[0].Title)
	s.Equal("A", list.Items[2].Title)
}

func (s *Suite) TestListPagination() {
	for i := 1; i <= 5; i++ {
		s.mustCreate(fmt.Sprintf("Item %d", i), int64(i*100), "Misc",
			fmt.Sprintf("2024-03-%02d", i), false)
	}

	page, err := s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{
		Skip:      2,
		Limit:     2,
		SortBy:    storage.SortByDate,
		SortOrder: storage.Ascending,
	})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 2)
	s.Equal("Item 3", page.Items[0].Title)
	s.Equal("Item 4", page.Items[1].Title)
	s.Equal(int64(5), page.TotalCount)
}

func (s *Suite) TestOwnerIsolation() {
	stranger := s.otherUser("stranger@example.com")
	s.mustCreate("Mine", 1000, "Misc", "2024-03-01", false)

	_, err := s.store.Expenses().Create(s.ctx, core.Expense{
		UserID:   stranger.ID,
		Title:    "Theirs",
		Amount:   core.Money{Cents: 2000},
		Category: "Misc",
		Date:     core.NewDate(2024, 3, 2),
	})
	s.Require().NoError(err)

	mine, err := s.store.Expenses().ListByOwner(s.ctx, s.owner.ID, storage.ExpenseFilter{})
	s.Require().NoError(err)
	s.Equal(int64(1), mine.TotalCount)
	s.Equal("Mine", mine.Items[0].Title)

	summary, err := s.store.Expenses().MonthlySummary(s.ctx, s.owner.ID, 2024, 3)
	s.Require().NoError(err)
	s.Equal(int64(1000), summary.TotalAmount.Cents)
}

func (s *Suite) TestMonthlySummary() {
	s.mustCreate("Rent", 91250, "Housing", "2024-03-01", false)
	s.mustCreate("Coffee", 800, "Food", "2024-03-31", true)
	s.mustCreate("April rent", 91250, "Housing", "2024-04-01", false)

	summary, err := s.store.Expenses().MonthlySummary(s.ctx, s.owner.ID, 2024, 3)
	s.Require().NoError(err)

	s.Equal(int64(92050), summary.TotalAmount.Cents, "last day of the month counts, first of the next does not")
	s.Equal(int64(2), summary.Count)
	s.Equal(int64(183300), summary.LifetimeTotal.Cents, "lifetime ignores the month filter")
	s.Equal(int64(91250), summary.CategoryBreakdown["Housing"].Cents)
	s.Equal(int64(800), summary.CategoryBreakdown["Food"].Cents)
}

func (s *Suite) TestMonthlySummaryEmptyMonth() {
	s.mustCreate("Rent", 91250, "Housing", "2024-03-01", false)

	summary, err := s.store.Expenses().MonthlySummary(s.ctx, s.owner.ID, 2024, 7)
	s.Require().NoError(err)

	s.Zero(summary.TotalAmount.Cents)
	s.Zero(summary.Count)
	s.Empty(summary.CategoryBreakdown)
	s.Equal(int64(91250), summary.LifetimeTotal.Cents)
}

func (s *Suite) TestMonthlySummaryDecember() {
	s.mustCreate("NYE", 5000, "Fun", "2024-12-31", true)
	s.mustCreate("NYD", 3000, "Fun", "2025-01-01", true)

	summary, err := s.store.Expenses().MonthlySummary(s.ctx, s.owner.ID, 2024, 12)
	s.Require().NoError(err)
	s.Equal(int64(5000), summary.TotalAmount.Cents)
	s.Equal(int64(1), summary.Count)
}

func (s *Suite) TestMonthlySummaryInvalidMonth() {
	_, err := s.store.Expenses().MonthlySummary(s.ctx, s.owner.ID, 2024, 13)
	s.ErrorIs(err, core.ErrValidation)
}

func (s *Suite) TestUserEmailUniqueness() {
	_, err := s.store.Users().Create(s.ctx, core.User{
		Email:          "owner@example.com",
		HashedPassword: "hash",
	})
	s.ErrorIs(err, core.ErrValidation)

	// Email lookup and uniqueness are case-insensitive.
	_, err = s.store.Users().Create(s.ctx, core.User{
		Email:          "OWNER@example.com",
		HashedPassword: "hash",
	})
	s.ErrorIs(err, core.ErrValidation)

	got, err := s.store.Users().GetByEmail(s.ctx, "OWNER@EXAMPLE.COM")
	s.Require().NoError(err)
	s.Equal(s.owner.ID, got.ID)
}

func (s *Suite) TestUserUpdatePassword() {
	s.Require().NoError(s.store.Users().UpdatePassword(s.ctx, s.owner.ID, "newhash"))

	got, err := s.store.Users().Get(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Equal("newhash", got.HashedPassword)

	s.ErrorIs(s.store.Users().UpdatePassword(s.ctx, uuid.New(), "x"), core.ErrNotFound)
}

func (s *Suite) TestUserProfileUpdate() {
	name := "Ada Lovelace"
	currency := "EUR"
	updated, err := s.store.Users().Update(s.ctx, s.owner.ID, core.UserUpdate{
		FullName: &name,
		Currency: &currency,
	})
	s.Require().NoError(err)
	s.Equal("Ada Lovelace", updated.FullName)
	s.Equal("EUR", updated.Currency)
	// Untouched fields survive a partial update.
	s.Equal(s.owner.Email, updated.Email)

	email := "ada@example.com"
	updated, err = s.store.Users().Update(s.ctx, s.owner.ID, core.UserUpdate{Email: &email})
	s.Require().NoError(err)
	s.Equal("ada@example.com", updated.Email)

	got, err := s.store.Users().GetByEmail(s.ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal("Ada Lovelace", got.FullName)

	_, err = s.store.Users().Update(s.ctx, uuid.New(), core.UserUpdate{FullName: &name})
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *Suite) TestUserProfileUpdateEmailUniqueness() {
	other, err := s.store.Users().Create(s.ctx, core.User{
		Email:          "taken@example.com",
		HashedPassword: "hash",
		IsActive:       true,
	})
	s.Require().NoError(err)

	// Claiming another account's address fails, case-insensitively.
	email := "TAKEN@example.com"
	_, err = s.store.Users().Update(s.ctx, s.owner.ID, core.UserUpdate{Email: &email})
	s.ErrorIs(err, core.ErrValidation)

	// Re-stating your own address is not a conflict.
	own := other.Email
	_, err = s.store.Users().Update(s.ctx, other.ID, core.UserUpdate{Email: &own})
	s.NoError(err)
}

func (s *Suite) TestPotLifecycle() {
	created, err := s.store.Pots().Create(s.ctx, core.Pot{
		UserID:        s.owner.ID,
		Title:         "Holiday",
		TargetAmount:  core.Money{Cents: 100000},
		CurrentAmount: core.Money{Cents: 25000},
		TargetDate:    core.NewDate(2025, 6, 1),
		Priority:      core.PriorityHigh,
	})
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, created.ID)

	amount := core.Money{Cents: 50000}
	updated, err := s.store.Pots().Update(s.ctx, created.ID, core.PotUpdate{CurrentAmount: &amount})
	s.Require().NoError(err)
	s.Equal(int64(50000), updated.CurrentAmount.Cents)
	s.Equal("Holiday", updated.Title)

	pots, err := s.store.Pots().ListByOwner(s.ctx, s.owner.ID, 0, 0)
	s.Require().NoError(err)
	s.Len(pots, 1)

	s.Require().NoError(s.store.Pots().Delete(s.ctx, created.ID))
	_, err = s.store.Pots().Get(s.ctx, created.ID)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *Suite) TestPotDefaultPriority() {
	created, err := s.store.Pots().Create(s.ctx, core.Pot{
		UserID:       s.owner.ID,
		Title:        "Emergency",
		TargetAmount: core.Money{Cents: 500000},
		TargetDate:   core.NewDate(2026, 1, 1),
	})
	s.Require().NoError(err)
	s.Equal(core.PriorityMedium, created.Priority)
}

func (s *Suite) TestCategoryLifecycle() {
	created, err := s.store.Categories().Create(s.ctx, core.Category{
		UserID: s.owner.ID,
		Name:   "Transport",
	})
	s.Require().NoError(err)
	s.Equal("Tag", created.Icon, "icon defaults when omitted")
	s.Equal("#3b82f6", created.Color)

	_, err = s.store.Categories().Create(s.ctx, core.Category{
		UserID: s.owner.ID,
		Name:   "Entertainment",
		Icon:   "Film",
		Color:  "#ff0000",
	})
	s.Require().NoError(err)

	categories, err := s.store.Categories().ListByOwner(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Require().Len(categories, 2)
	s.Equal("Entertainment", categories[0].Name, "listing is name ascending")
	s.Equal("Transport", categories[1].Name)

	name := "Mobility"
	updated, err := s.store.Categories().Update(s.ctx, created.ID, core.CategoryUpdate{Name: &name})
	s.Require().NoError(err)
	s.Equal("Mobility", updated.Name)
	s.Equal("Tag", updated.Icon)

	s.Require().NoError(s.store.Categories().Delete(s.ctx, created.ID))
	_, err = s.store.Categories().Get(s.ctx, created.ID)
	s.ErrorIs(err, core.ErrNotFound)
}

// Run executes the conformance suite against one backend.
func Run(t *testing.T, factory Factory) {
	require.NotNil(t, factory)
	suite.Run(t, New(factory))
}
