package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

type CategoryService struct {
	categories storage.CategoryRepository
}

func NewCategoryService(categories storage.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, ownerID uuid.UUID, c core.Category) (core.Category, error) {
	c.UserID = ownerID
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	created, err := s.categories.Create(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return created, nil
}

func (s *CategoryService) List(ctx context.Context, ownerID uuid.UUID) ([]core.Category, error) {
	categories, err := s.categories.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id uuid.UUID, upd core.CategoryUpdate) (core.Category, error) {
	current, err := s.authorize(ctx, ownerID, id)
	if err != nil {
		return core.Category{}, err
	}

	merged := current
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		upd.Name = &trimmed
		merged.Name = trimmed
	}
	if upd.Icon != nil {
		merged.Icon = *upd.Icon
	}
	if upd.Color != nil {
		merged.Color = *upd.Color
	}
	if err := merged.Validate(); err != nil {
		return core.Category{}, err
	}

	updated, err := s.categories.Update(ctx, id, upd)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.authorize(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (s *CategoryService) authorize(ctx context.Context, ownerID, id uuid.UUID) (core.Category, error) {
	c, err := s.categories.Get(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if c.UserID != ownerID {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrForbidden)
	}
	return c, nil
}
