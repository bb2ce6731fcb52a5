package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestMonthRange(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     int
		wantStart string
		wantEnd   string
	}{
		{"mid year", 2024, 3, "2024-03-01", "2024-04-01"},
		{"december rolls to january", 2024, 12, "2024-12-01", "2025-01-01"},
		{"february leap year", 2024, 2, "2024-02-01", "2024-03-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := MonthRange(tt.year, tt.month)
			if err != nil {
				t.Fatalf("MonthRange(%d, %d): %v", tt.year, tt.month, err)
			}
			if start.String() != tt.wantStart {
				t.Errorf("start = %s, want %s", start, tt.wantStart)
			}
			if end.String() != tt.wantEnd {
				t.Errorf("end = %s, want %s", end, tt.wantEnd)
			}
		})
	}
}

func TestMonthRange_Invalid(t *testing.T) {
	for _, month := range []int{0, 13, -1} {
		if _, _, err := MonthRange(2024, month); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("MonthRange(2024, %d) = %v, want ErrInvalidMonth", month, err)
		}
	}
	if _, _, err := MonthRange(0, 5); !errors.Is(err, ErrValidation) {
		t.Error("year 0 should be rejected")
	}
	if _, _, err := MonthRange(10000, 5); !errors.Is(err, ErrValidation) {
		t.Error("year 10000 should be rejected")
	}
}

func TestDate_NextDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-05", "2024-03-06"},
		{"2024-03-31", "2024-04-01"},
		{"2024-12-31", "2025-01-01"},
		{"2024-02-28", "2024-02-29"}, // leap year
		{"2023-02-28", "2023-03-01"},
	}
	for _, tt := range tests {
		d, err := ParseDate(tt.in)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tt.in, err)
		}
		if got := d.NextDay().String(); got != tt.want {
			t.Errorf("NextDay(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2024-03-05" {
		t.Errorf("String() = %q", d.String())
	}
	if d.Location() != time.UTC {
		t.Error("parsed date should be UTC")
	}

	for _, in := range []string{"2024-3-5", "05-03-2024", "2024/03/05", "not a date", ""} {
		if _, err := ParseDate(in); !errors.Is(err, ErrValidation) {
			t.Errorf("ParseDate(%q) = %v, want ErrValidation", in, err)
		}
	}
}

func TestDateOf_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 03:30 on March 6 in UTC+9 is still March 5 in UTC.
	instant := time.Date(2024, 3, 6, 3, 30, 0, 0, loc)

	if got := DateOf(instant).String(); got != "2024-03-05" {
		t.Errorf("DateOf = %s, want 2024-03-05", got)
	}
}

func TestDate_DayBounds(t *testing.T) {
	d := NewDate(2024, 3, 5)

	if !d.StartOfDay().Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("StartOfDay = %v", d.StartOfDay())
	}
	if !d.EndOfDayExclusive().Equal(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("EndOfDayExclusive = %v", d.EndOfDayExclusive())
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 3, 5)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-03-05"` {
		t.Errorf("marshal = %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip = %v, want %v", back, d)
	}

	if err := json.Unmarshal([]byte(`"03/05/2024"`), &back); err == nil {
		t.Error("non-canonical format should be rejected")
	}
	if err := json.Unmarshal([]byte(`20240305`), &back); err == nil {
		t.Error("numeric date should be rejected")
	}
}
