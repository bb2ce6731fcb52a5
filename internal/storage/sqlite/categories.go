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

type categoryRepo struct {
	db *sql.DB
}

const categoryColumns = "id, user_id, name, icon, color, is_default, created_at, updated_at"

func (r *categoryRepo) Create(ctx context.Context, c core.Category) (core.Category, error) {
	now := time.Now().UTC()
	c.ID = uuid.New()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Icon == "" {
		c.Icon = "Tag"
	}
	if c.Color == "" {
		c.Color = "#3b82f6"
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.UserID.String(), c.Name, c.Icon, c.Color,
		boolToInt(c.IsDefault), fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) Get(ctx context.Context, id uuid.UUID) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id.String())
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ?
		 ORDER BY name ASC, id ASC`,
		ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepo) Update(ctx context.Context, id uuid.UUID, upd core.CategoryUpdate) (core.Category, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Category{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id.String())
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("load category for update: %w", err)
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

	_, err = tx.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, color = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Icon, c.Color, fmtTime(c.UpdatedAt), id.String(),
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Category{}, fmt.Errorf("commit update: %w", err)
	}
	return c, nil
}

func (r *categoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		id, userID, name, icon, color, createdAt, updatedAt string
		isDefault                                           int
	)
	if err := row.Scan(&id, &userID, &name, &icon, &color, &isDefault, &createdAt, &updatedAt); err != nil {
		return core.Category{}, err
	}

	c := core.Category{
		Name:      name,
		Icon:      icon,
		Color:     color,
		IsDefault: isDefault != 0,
	}
	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return core.Category{}, fmt.Errorf("parse category id: %w", err)
	}
	if c.UserID, err = uuid.Parse(userID); err != nil {
		return core.Category{}, fmt.Errorf("parse owner id: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Category{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Category{}, err
	}
	return c, nil
}
