package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TitleMaxLen    = 120
	CategoryMaxLen = 50
	EmotionMaxLen  = 50
)

// Error taxonomy. Every layer wraps one of these sentinels so callers can
// classify failures with errors.Is regardless of which backend produced them.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("permission denied")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")

	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidMonth  = fmt.Errorf("%w: invalid month", ErrValidation)
	ErrEmptyTitle    = fmt.Errorf("%w: empty title", ErrValidation)
	ErrEmptyCategory = fmt.Errorf("%w: empty category", ErrValidation)
)

type PotPriority string

const (
	PriorityLow      PotPriority = "low"
	PriorityMedium   PotPriority = "medium"
	PriorityHigh     PotPriority = "high"
	PriorityCritical PotPriority = "critical"
)

func (p PotPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name,omitempty"`
	Currency       string    `json:"currency"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserUpdate is a partial profile update. HashedPassword carries an already
// hashed credential; plaintext never reaches the storage layer.
type UserUpdate struct {
	Email          *string
	FullName       *string
	Currency       *string
	HashedPassword *string
}

type Expense struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Amount      Money     `json:"amount"`
	Category    string    `json:"category"`
	Emotion     string    `json:"emotion,omitempty"`
	IsAvoidable bool      `json:"is_avoidable"`
	Date        Date      `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExpenseUpdate is a partial update: nil fields keep their current value.
type ExpenseUpdate struct {
	Title       *string `json:"title"`
	Amount      *Money  `json:"amount"`
	Category    *string `json:"category"`
	Emotion     *string `json:"emotion"`
	IsAvoidable *bool   `json:"is_avoidable"`
	Date        *Date   `json:"date"`
}

type Pot struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	Title         string      `json:"title"`
	TargetAmount  Money       `json:"target_amount"`
	CurrentAmount Money       `json:"current_amount"`
	TargetDate    Date        `json:"target_date"`
	Priority      PotPriority `json:"priority"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type PotUpdate struct {
	Title         *string      `json:"title"`
	TargetAmount  *Money       `json:"target_amount"`
	CurrentAmount *Money       `json:"current_amount"`
	TargetDate    *Date        `json:"target_date"`
	Priority      *PotPriority `json:"priority"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryUpdate struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > TitleMaxLen {
		return fmt.Errorf("%w: title too long (max %d characters)", ErrValidation, TitleMaxLen)
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if len(e.Category) > CategoryMaxLen {
		return fmt.Errorf("%w: category too long (max %d characters)", ErrValidation, CategoryMaxLen)
	}
	if len(e.Emotion) > EmotionMaxLen {
		return fmt.Errorf("%w: emotion too long (max %d characters)", ErrValidation, EmotionMaxLen)
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (p Pot) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrEmptyTitle
	}
	if len(p.Title) > TitleMaxLen {
		return fmt.Errorf("%w: title too long (max %d characters)", ErrValidation, TitleMaxLen)
	}
	if err := p.TargetAmount.Validate(); err != nil {
		return err
	}
	if p.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if p.CurrentAmount.Cents > p.TargetAmount.Cents {
		return fmt.Errorf("%w: current amount cannot exceed target of %s", ErrValidation, p.TargetAmount)
	}
	if err := p.TargetDate.Validate(); err != nil {
		return err
	}
	if !p.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", ErrValidation, p.Priority)
	}
	return nil
}

// Progress reports completion percentage (clamped to [0, 100]) and the
// remaining amount (never negative).
func (p Pot) Progress() (float64, Money) {
	if p.TargetAmount.Cents <= 0 {
		return 0, Money{}
	}
	pct := float64(p.CurrentAmount.Cents) / float64(p.TargetAmount.Cents) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	remaining := p.TargetAmount.Cents - p.CurrentAmount.Cents
	if remaining < 0 {
		remaining = 0
	}
	return pct, Money{Cents: remaining}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: empty category name", ErrValidation)
	}
	if len(c.Name) > CategoryMaxLen {
		return fmt.Errorf("%w: category name too long (max %d characters)", ErrValidation, CategoryMaxLen)
	}
	return nil
}
