package core

import (
	"errors"
	"strings"
	"testing"
)

func validExpense() Expense {
	return Expense{
		Title:    "Groceries",
		Amount:   Money{Cents: 4250},
		Category: "Food",
		Date:     NewDate(2024, 3, 5),
	}
}

func TestExpense_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Expense)
		wantErr error
	}{
		{"valid", func(e *Expense) {}, nil},
		{"empty title", func(e *Expense) { e.Title = "" }, ErrEmptyTitle},
		{"blank title", func(e *Expense) { e.Title = "   " }, ErrEmptyTitle},
		{"title too long", func(e *Expense) { e.Title = strings.Repeat("x", TitleMaxLen+1) }, ErrValidation},
		{"zero amount", func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -100} }, ErrInvalidAmount},
		{"empty category", func(e *Expense) { e.Category = "" }, ErrEmptyCategory},
		{"category too long", func(e *Expense) { e.Category = strings.Repeat("x", CategoryMaxLen+1) }, ErrValidation},
		{"emotion too long", func(e *Expense) { e.Emotion = strings.Repeat("x", EmotionMaxLen+1) }, ErrValidation},
		{"zero date", func(e *Expense) { e.Date = Date{} }, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)

			err := e.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func validPot() Pot {
	return Pot{
		Title:         "Holiday",
		TargetAmount:  Money{Cents: 100000},
		CurrentAmount: Money{Cents: 25000},
		TargetDate:    NewDate(2025, 6, 1),
		Priority:      PriorityHigh,
	}
}

func TestPot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Pot)
		wantErr error
	}{
		{"valid", func(p *Pot) {}, nil},
		{"zero current amount is fine", func(p *Pot) { p.CurrentAmount = Money{} }, nil},
		{"empty title", func(p *Pot) { p.Title = "" }, ErrEmptyTitle},
		{"zero target", func(p *Pot) { p.TargetAmount = Money{} }, ErrInvalidAmount},
		{"negative current", func(p *Pot) { p.CurrentAmount = Money{Cents: -1} }, ErrInvalidAmount},
		{"current exceeds target", func(p *Pot) { p.CurrentAmount = Money{Cents: 100001} }, ErrValidation},
		{"zero target date", func(p *Pot) { p.TargetDate = Date{} }, ErrValidation},
		{"bad priority", func(p *Pot) { p.Priority = "urgent" }, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPot()
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPot_Progress(t *testing.T) {
	tests := []struct {
		name          string
		target        int64
		current       int64
		wantPct       float64
		wantRemaining int64
	}{
		{"quarter", 100000, 25000, 25, 75000},
		{"complete", 100000, 100000, 100, 0},
		{"empty", 100000, 0, 0, 100000},
		{"overfunded clamps", 100000, 150000, 100, 0},
		{"zero target", 0, 500, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Pot{TargetAmount: Money{Cents: tt.target}, CurrentAmount: Money{Cents: tt.current}}
			pct, remaining := p.Progress()
			if pct != tt.wantPct {
				t.Errorf("pct = %v, want %v", pct, tt.wantPct)
			}
			if remaining.Cents != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", remaining.Cents, tt.wantRemaining)
			}
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	c := Category{Name: "Transport"}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	c.Name = "  "
	if err := c.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("blank name: Validate() = %v, want ErrValidation", err)
	}

	c.Name = strings.Repeat("x", CategoryMaxLen+1)
	if err := c.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("long name: Validate() = %v, want ErrValidation", err)
	}
}

func TestPotPriority_IsValid(t *testing.T) {
	for _, p := range []PotPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		if !p.IsValid() {
			t.Errorf("%q should be valid", p)
		}
	}
	for _, p := range []PotPriority{"", "urgent", "HIGH"} {
		if p.IsValid() {
			t.Errorf("%q should be invalid", p)
		}
	}
}
