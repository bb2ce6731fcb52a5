package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

type expenseRepo struct {
	db *sql.DB
}

const expenseColumns = "id, user_id, title, amount_cents, category, emotion, is_avoidable, date, created_at, updated_at"

var sortColumns = map[storage.SortField]string{
	storage.SortByDate:      "date",
	storage.SortByAmount:    "amount_cents",
	storage.SortByTitle:     "title",
	storage.SortByCreatedAt: "created_at",
}

func (r *expenseRepo) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Amount.Cents <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}

	now := time.Now().UTC()
	e.ID = uuid.New()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.UserID.String(), e.Title, e.Amount.Cents, e.Category, e.Emotion,
		boolToInt(e.IsAvoidable), e.Date.String(), fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt),
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (r *expenseRepo) Get(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id.String())
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *expenseRepo) Update(ctx context.Context, id uuid.UUID, upd core.ExpenseUpdate) (core.Expense, error) {
	if upd.Amount != nil && upd.Amount.Cents <= 0 {
		return core.Expense{}, core.ErrInvalidAmount
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id.String())
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expense for update: %w", err)
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

	_, err = tx.ExecContext(ctx,
		`UPDATE expenses
		 SET title = ?, amount_cents = ?, category = ?, emotion = ?, is_avoidable = ?, date = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title, e.Amount.Cents, e.Category, e.Emotion, boolToInt(e.IsAvoidable),
		e.Date.String(), fmtTime(e.UpdatedAt), id.String(),
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit update: %w", err)
	}
	return e, nil
}

func (r *expenseRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// expensePredicate builds the WHERE clause once; the page query and the
// aggregate query reuse it verbatim so they always agree on the filtered set.
func expensePredicate(ownerID uuid.UUID, f storage.ExpenseFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{ownerID.String()}

	if f.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, f.Category)
	}
	if f.Avoidable != nil {
		clauses = append(clauses, "is_avoidable = ?")
		args = append(args, boolToInt(*f.Avoidable))
	}
	if f.Search != "" {
		clauses = append(clauses, `lower(title) LIKE '%' || lower(?) || '%' ESCAPE '\'`)
		args = append(args, escapeLike(f.Search))
	}
	// The date column holds canonical zero-padded YYYY-MM-DD, so string
	// comparison equals date comparison. The inclusive end bound becomes a
	// half-open one against the next day.
	if f.StartDate != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, f.StartDate.String())
	}
	if f.EndDate != nil {
		clauses = append(clauses, "date < ?")
		args = append(args, f.EndDate.NextDay().String())
	}
	return strings.Join(clauses, " AND "), args
}

func (r *expenseRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, f storage.ExpenseFilter) (core.ExpenseList, error) {
	f = f.Normalize()
	where, args := expensePredicate(ownerID, f)

	result := core.ExpenseList{Items: []core.Expense{}}

	// One aggregate row over the full filtered set, then one page query:
	// two round trips regardless of page size.
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(amount_cents), 0),
		        COALESCE(SUM(CASE WHEN is_avoidable = 1 THEN amount_cents ELSE 0 END), 0)
		 FROM expenses WHERE `+where, args...,
	).Scan(&result.TotalCount, &result.TotalAmount.Cents, &result.TotalAvoidableAmount.Cents)
	if err != nil {
		return core.ExpenseList{}, fmt.Errorf("aggregate expenses: %w", err)
	}

	dir := "DESC"
	if f.SortOrder == storage.Ascending {
		dir = "ASC"
	}
	pageArgs := append(append([]any{}, args...), f.Limit, f.Skip)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE `+where+
			` ORDER BY `+sortColumns[f.SortBy]+` `+dir+`, id ASC LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return core.ExpenseList{}, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return core.ExpenseList{}, fmt.Errorf("scan expense: %w", err)
		}
		result.Items = append(result.Items, e)
	}
	if err := rows.Err(); err != nil {
		return core.ExpenseList{}, fmt.Errorf("iterate expenses: %w", err)
	}
	return result, nil
}

func (r *expenseRepo) MonthlySummary(ctx context.Context, ownerID uuid.UUID, year, month int) (core.MonthlySummary, error) {
	start, end, err := core.MonthRange(year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}

	owner := ownerID.String()
	summary := core.MonthlySummary{CategoryBreakdown: map[string]core.Money{}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := r.db.QueryRowContext(gctx,
			`SELECT COALESCE(SUM(amount_cents), 0), COUNT(*)
			 FROM expenses WHERE user_id = ? AND date >= ? AND date < ?`,
			owner, start.String(), end.String(),
		).Scan(&summary.TotalAmount.Cents, &summary.Count)
		if err != nil {
			return fmt.Errorf("month totals: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		rows, err := r.db.QueryContext(gctx,
			`SELECT category, SUM(amount_cents)
			 FROM expenses WHERE user_id = ? AND date >= ? AND date < ?
			 GROUP BY category`,
			owner, start.String(), end.String(),
		)
		if err != nil {
			return fmt.Errorf("category breakdown: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var category string
			var cents int64
			if err := rows.Scan(&category, &cents); err != nil {
				return fmt.Errorf("scan breakdown row: %w", err)
			}
			summary.CategoryBreakdown[category] = core.Money{Cents: cents}
		}
		return rows.Err()
	})

	g.Go(func() error {
		err := r.db.QueryRowContext(gctx,
			`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = ?`,
			owner,
		).Scan(&summary.LifetimeTotal.Cents)
		if err != nil {
			return fmt.Errorf("lifetime total: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.MonthlySummary{}, err
	}
	return summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		id, userID, title, category, emotion, date, createdAt, updatedAt string
		cents                                                            int64
		avoidable                                                        int
	)
	if err := row.Scan(&id, &userID, &title, &cents, &category, &emotion, &avoidable, &date, &createdAt, &updatedAt); err != nil {
		return core.Expense{}, err
	}

	e := core.Expense{
		Title:       title,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Emotion:     emotion,
		IsAvoidable: avoidable != 0,
	}
	var err error
	if e.ID, err = uuid.Parse(id); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense id: %w", err)
	}
	if e.UserID, err = uuid.Parse(userID); err != nil {
		return core.Expense{}, fmt.Errorf("parse owner id: %w", err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Expense{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
