package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"912.50", 91250, false},
		{"8", 800, false},
		{"8.5", 850, false},
		{"12.345", 1234, false}, // rounds down
		{"12.346", 1235, false}, // rounds up
		{"0.005", 1, false},
		{".50", 50, false},
		{"0", 0, true},
		{"0.00", 0, true},
		{"-5", 0, true},
		{"+5", 0, true},
		{"", 0, true},
		{"  ", 0, true},
		{"abc", 0, true},
		{"1.2.3", 0, true},
		{"1e5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.in, got)
				}
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error %v should wrap ErrValidation", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoney_String(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{91250, "912.50"},
		{5, "0.05"},
		{100, "1.00"},
		{0, "0.00"},
		{-1234, "-12.34"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := Money{Cents: 91250}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"912.50"` {
		t.Errorf("marshal = %s, want \"912.50\"", data)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != m {
		t.Errorf("round trip = %+v, want %+v", back, m)
	}
}

func TestMoney_UnmarshalAcceptsNumbers(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`42.10`), &m); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if m.Cents != 4210 {
		t.Errorf("Cents = %d, want 4210", m.Cents)
	}

	// Zero is tolerated at decode time; Validate rejects it.
	if err := json.Unmarshal([]byte(`"0.00"`), &m); err != nil {
		t.Fatalf("unmarshal zero: %v", err)
	}
	if err := m.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Validate() = %v, want ErrInvalidAmount", err)
	}
}

func TestMoney_UnmarshalRejectsNegatives(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`"-5.00"`), &m); err == nil {
		t.Error("negative amount should be rejected")
	}
	if err := json.Unmarshal([]byte(`-5`), &m); err == nil {
		t.Error("negative number should be rejected")
	}
}

func TestMoneyFromFloat(t *testing.T) {
	if got := MoneyFromFloat(912.50); got.Cents != 91250 {
		t.Errorf("MoneyFromFloat(912.50) = %d, want 91250", got.Cents)
	}
	if got := MoneyFromFloat(0.1 + 0.2); got.Cents != 30 {
		t.Errorf("MoneyFromFloat(0.1+0.2) = %d, want 30", got.Cents)
	}
}
