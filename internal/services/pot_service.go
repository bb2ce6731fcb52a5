package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"expenseintel/internal/core"
	"expenseintel/internal/storage"
)

type PotService struct {
	pots storage.PotRepository
}

func NewPotService(pots storage.PotRepository) *PotService {
	return &PotService{pots: pots}
}

func (s *PotService) Create(ctx context.Context, ownerID uuid.UUID, p core.Pot) (core.Pot, error) {
	p.UserID = ownerID
	p.Title = strings.TrimSpace(p.Title)
	if p.Priority == "" {
		p.Priority = core.PriorityMedium
	}
	if err := p.Validate(); err != nil {
		return core.Pot{}, err
	}

	created, err := s.pots.Create(ctx, p)
	if err != nil {
		return core.Pot{}, fmt.Errorf("create pot: %w", err)
	}
	return created, nil
}

func (s *PotService) Get(ctx context.Context, ownerID, id uuid.UUID) (core.Pot, error) {
	return s.authorize(ctx, ownerID, id)
}

func (s *PotService) List(ctx context.Context, ownerID uuid.UUID, skip, limit int) ([]core.Pot, error) {
	pots, err := s.pots.ListByOwner(ctx, ownerID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list pots: %w", err)
	}
	return pots, nil
}

func (s *PotService) Update(ctx context.Context, ownerID, id uuid.UUID, upd core.PotUpdate) (core.Pot, error) {
	current, err := s.authorize(ctx, ownerID, id)
	if err != nil {
		return core.Pot{}, err
	}

	merged := applyPotUpdate(current, upd)
	if err := merged.Validate(); err != nil {
		return core.Pot{}, err
	}

	updated, err := s.pots.Update(ctx, id, upd)
	if err != nil {
		return core.Pot{}, fmt.Errorf("update pot: %w", err)
	}
	return updated, nil
}

func (s *PotService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.authorize(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.pots.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete pot: %w", err)
	}
	return nil
}

func (s *PotService) authorize(ctx context.Context, ownerID, id uuid.UUID) (core.Pot, error) {
	p, err := s.pots.Get(ctx, id)
	if err != nil {
		return core.Pot{}, err
	}
	if p.UserID != ownerID {
		return core.Pot{}, fmt.Errorf("pot %s: %w", id, core.ErrForbidden)
	}
	return p, nil
}

func applyPotUpdate(p core.Pot, upd core.PotUpdate) core.Pot {
	if upd.Title != nil {
		p.Title = strings.TrimSpace(*upd.Title)
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
	return p
}
