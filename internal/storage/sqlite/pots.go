package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenseintel/internal/core"
)

type potRepo struct {
	db *sql.DB
}

const potColumns = "id, user_id, title, target_amount_cents, current_amount_cents, target_date, priority, created_at, updated_at"

func (r *potRepo) Create(ctx context.Context, p core.Pot) (core.Pot, error) {
	if p.TargetAmount.Cents <= 0 {
		return core.Pot{}, core.ErrInvalidAmount
	}

	now := time.Now().UTC()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Priority == "" {
		p.Priority = core.PriorityMedium
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pots (`+potColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.UserID.String(), p.Title, p.TargetAmount.Cents, p.CurrentAmount.Cents,
		p.TargetDate.String(), string(p.Priority), fmtTime(p.CreatedAt), fmtTime(p.UpdatedAt),
	)
	if err != nil {
		return core.Pot{}, fmt.Errorf("insert pot: %w", err)
	}
	return p, nil
}

func (r *potRepo) Get(ctx context.Context, id uuid.UUID) (core.Pot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+potColumns+` FROM pots WHERE id = ?`, id.String())
	p, err := scanPot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Pot{}, fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Pot{}, fmt.Errorf("get pot: %w", err)
	}
	return p, nil
}

func (r *potRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]core.Pot, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+potColumns+` FROM pots WHERE user_id = ?
		 ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`,
		ownerID.String(), limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("list pots: %w", err)
	}
	defer rows.Close()

	pots := []core.Pot{}
	for rows.Next() {
		p, err := scanPot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pot: %w", err)
		}
		pots = append(pots, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pots: %w", err)
	}
	return pots, nil
}

func (r *potRepo) Update(ctx context.Context, id uuid.UUID, upd core.PotUpdate) (core.Pot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Pot{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+potColumns+` FROM pots WHERE id = ?`, id.String())
	p, err := scanPot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Pot{}, fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Pot{}, fmt.Errorf("load pot for update: %w", err)
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

	_, err = tx.ExecContext(ctx,
		`UPDATE pots
		 SET title = ?, target_amount_cents = ?, current_amount_cents = ?, target_date = ?, priority = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.TargetAmount.Cents, p.CurrentAmount.Cents, p.TargetDate.String(),
		string(p.Priority), fmtTime(p.UpdatedAt), id.String(),
	)
	if err != nil {
		return core.Pot{}, fmt.Errorf("update pot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Pot{}, fmt.Errorf("commit update: %w", err)
	}
	return p, nil
}

func (r *potRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pots WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete pot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pot %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func scanPot(row rowScanner) (core.Pot, error) {
	var (
		id, userID, title, targetDate, priority, createdAt, updatedAt string
		targetCents, currentCents                                     int64
	)
	if err := row.Scan(&id, &userID, &title, &targetCents, &currentCents, &targetDate, &priority, &createdAt, &updatedAt); err != nil {
		return core.Pot{}, err
	}

	p := core.Pot{
		Title:         title,
		TargetAmount:  core.Money{Cents: targetCents},
		CurrentAmount: core.Money{Cents: currentCents},
		Priority:      core.PotPriority(priority),
	}
	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return core.Pot{}, fmt.Errorf("parse pot id: %w", err)
	}
	if p.UserID, err = uuid.Parse(userID); err != nil {
		return core.Pot{}, fmt.Errorf("parse owner id: %w", err)
	}
	if p.TargetDate, err = core.ParseDate(targetDate); err != nil {
		return core.Pot{}, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Pot{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Pot{}, err
	}
	return p, nil
}
