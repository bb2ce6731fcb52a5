// Package memory is an in-process Store used for tests and local runs. It is
// the behavioral reference the persistent backends are checked against.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

type Store struct {
	mu         sync.RWMutex
	expenses   map[uuid.UUID]core.Expense
	users      map[uuid.UUID]core.User
	pots       map[uuid.UUID]core.Pot
	categories map[uuid.UUID]core.Category
}

func New() *Store {
	return &Store{
		expenses:   make(map[uuid.UUID]core.Expense),
		users:      make(map[uuid.UUID]core.User),
		pots:       make(map[uuid.UUID]core.Pot),
		categories: make(map[uuid.UUID]core.Category),
	}
}

func (s *Store) Expenses() storage.ExpenseRepository    { return (*expenseRepo)(s) }
func (s *Store) Users() storage.UserRepository          { return (*userRepo)(s) }
func (s *Store) Pots() storage.PotRepository            { return (*potRepo)(s) }
func (s *Store) Categories() storage.CategoryRepository { return (*categoryRepo)(s) }
func (s *Store) Close(ctx context.Context) error        { return nil }

type expenseRepo Store

func (r *expenseRepo) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Amount.Cents <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	e.ID = uuid.New()
	e.CreatedAt = now
	e.UpdatedAt = now
	r.expenses[e.ID] = e
	return e, nil
}

func (r *expenseRepo) Get(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (r *expenseRepo) Update(ctx context.Context, id uuid.UUID, upd core.ExpenseUpdate) (core.Expense, error) {
	if upd.Amount != nil && upd.Amount.Cents <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Category != nil {
		e.Category = *upd.Category
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
	e.UpdatedAt = time.Now().UTC()
	r.expenses[id] = e
	return e, nil
}

func (r *expenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.expenses[id]; !ok {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	delete(r.expenses, id)
	return nil
}

func (r *expenseRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, f storage.ExpenseFilter) (core.ExpenseList, error) {
	f = f.Normalize()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []core.Expense
	for _, e := range r.expenses {
		if e.UserID != ownerID || !matches(e, f) {
			continue
		}
		matched = append(matched, e)
	}

	result := core.ExpenseList{Items: []core.Expense{}}
	for _, e := range matched {
		result.TotalCount++
		result.TotalAmount.Cents += e.Amount.Cents
		if e.IsAvoidable {
			result.TotalAvoidableAmount.Cents += e.Amount.Cents
		}
	}

	sortExpenses(matched, f.SortBy, f.SortOrder)

	start := f.Skip
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	result.Items = append(result.Items, matched[start:end]...)
	return result, nil
}

func (r *expenseRepo) MonthlySummary(ctx context.Context, ownerID uuid.UUID, year, month int) (core.MonthlySummary, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	summary := core.MonthlySummary{CategoryBreakdown: map[string]core.Money{}}
	for _, e := range r.expenses {
		if e.UserID != ownerID {
			continue
		}
		summary.LifetimeTotal.Cents += e.Amount.Cents
		if e.Date.Before(start.Time) || !e.Date.Before(end.Time) {
			continue
		}
		summary.Count++
		summary.TotalAmount.Cents += e.Amount.Cents
		b := summary.CategoryBreakdown[e.Category]
		b.Cents += e.Amount.Cents
		summary.CategoryBreakdown[e.Category] = b
	}
	return summary, nil
}

func matches(e core.Expense, f storage.ExpenseFilter) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Avoidable != nil && e.IsAvoidable != *f.Avoidable {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.StartDate != nil && e.Date.Before(f.StartDate.Time) {
		return false
	}
	if f.EndDate != nil && !e.Date.Before(f.EndDate.EndOfDayExclusive()) {
		return false
	}
	return true
}

func sortExpenses(items []core.Expense, by storage.SortField, order storage.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if order != storage.Ascending {
			a, b = b, a
		}
		switch by {
		case storage.SortByAmount:
			return a.Amount.Cents < b.Amount.Cents
		case storage.SortByTitle:
			return a.Title < b.Title
		case storage.SortByCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return a.Date.Before(b.Date.Time)
		}
	})
}

type userRepo Store

func (r *userRepo) Create(ctx context.Context, u core.User) (core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, fmt.Errorf("%w: email already registered", core.ErrValidation)
		}
	}
	if u.Currency == "" {
		u.Currency = "USD"
	}
	now := time.Now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = u
	return u, nil
}

func (r *userRepo) Get(ctx context.Context, id uuid.UUID) (core.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (core.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", email, core.ErrNotFound)
}

func (r *userRepo) Update(ctx context.Context, id uuid.UUID, upd core.UserUpdate) (core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	if upd.Email != nil {
		for otherID, existing := range r.users {
			if otherID != id && strings.EqualFold(existing.Email, *upd.Email) {
				return core.User{}, fmt.Errorf("%w: email already registered", core.ErrValidation)
			}
		}
		u.Email = *upd.Email
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.Currency != nil {
		u.Currency = *upd.Currency
	}
	if upd.HashedPassword != nil {
		u.HashedPassword = *upd.HashedPassword
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return u, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, core.ErrNotFound)
	}
	u.HashedPassword = hashed
	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u
	return nil
}

type potRepo Store

func (r *potRepo) Create(ctx context.Context, p core.Pot) (core.Pot, error) {
	if p.TargetAmount.Cents <= 0 {
		return core.Pot{}, core.ErrInvalidAmount
	}
	if p.Priority == "" {
		p.Priority = core.PriorityMedium
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.pots[p.ID] = p
	return p, nil
}

func (r *potRepo) Get(ctx context.Context, id uuid.UUID) (core.Pot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pots[id]
	if !ok {
		return core.Pot{}, fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (r *potRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]core.Pot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pots []core.Pot
	for _, p := range r.pots {
		if p.UserID == ownerID {
			pots = append(pots, p)
		}
	}
	sort.SliceStable(pots, func(i, j int) bool {
		return pots[i].CreatedAt.Before(pots[j].CreatedAt)
	})
	if skip > len(pots) {
		skip = len(pots)
	}
	end := len(pots)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	return pots[skip:end], nil
}

func (r *potRepo) Update(ctx context.Context, id uuid.UUID, upd core.PotUpdate) (core.Pot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pots[id]
	if !ok {
		return core.Pot{}, fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	if upd.Title != nil {
		p.Title = *upd.Title
	}
	if upd.TargetAmount != nil {
		p.TargetAmount = *upd.TargetAmount
	}
	if upd.CurrentAmount != nil {
		p.CurrentAmount = *upd.CurrentAmount
	}
	if upd.TargetDate != nil {
		p.TargetDate = *upd.TargetDate
	}
	if upd.Priority != nil {
		p.Priority = *upd.Priority
	}
	p.UpdatedAt = time.Now().UTC()
	r.pots[id] = p
	return p, nil
}

func (r *potRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pots[id]; !ok {
		return fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	delete(r.pots, id)
	return nil
}

type categoryRepo Store

func (r *categoryRepo) Create(ctx context.Context, c core.Category) (core.Category, error) {
	if c.Icon == "" {
		c.Icon = "Tag"
	}
	if c.Color == "" {
		c.Color = "#3b82f6"
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.categories[c.ID] = c
	return c, nil
}

func (r *categoryRepo) Get(ctx context.Context, id uuid.UUID) (core.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (r *categoryRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]core.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cats []core.Category
	for _, c := range r.categories {
		if c.UserID == ownerID {
			cats = append(cats, c)
		}
	}
	sort.SliceStable(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (r *categoryRepo) Update(ctx context.Context, id uuid.UUID, upd core.CategoryUpdate) (core.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Icon != nil {
		c.Icon = *upd.Icon
	}
	if upd.Color != nil {
		c.Color = *upd.Color
	}
	c.UpdatedAt = time.Now().UTC()
	r.categories[id] = c
	return c, nil
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	delete(r.categories, id)
	return nil
}
