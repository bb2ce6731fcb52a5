package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// dateLayout is the canonical wire and storage form for calendar dates.
// Zero-padded ISO dates compare correctly both as strings and as parsed
// values, which keeps date predicates identical across backends.
const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day semantics. Internally it is
// pinned to midnight UTC.
type Date struct {
	time.Time
}

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", ErrValidation, s)
	}
	return Date{Time: t.UTC()}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	return nil
}

// String renders the canonical zero-padded form, e.g. "2024-03-05".
func (d Date) String() string {
	return d.Format(dateLayout)
}

// NextDay returns the following calendar day, normalizing month and year
// rollover.
func (d Date) NextDay() Date {
	return Date{Time: d.AddDate(0, 0, 1)}
}

// StartOfDay is the lower timestamp bound for storage engines that keep
// dates in a timestamp-typed column.
func (d Date) StartOfDay() time.Time {
	return d.Time
}

// EndOfDayExclusive is the matching exclusive upper bound: the first instant
// of the next day. Filtering t >= StartOfDay && t < EndOfDayExclusive covers
// the whole day without the 23:59:59 off-by-one.
func (d Date) EndOfDayExclusive() time.Time {
	return d.NextDay().Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: invalid date", ErrValidation)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MonthRange returns the half-open interval [start, end) covering one
// calendar month: start is the first day of the month, end the first day of
// the next month. December rolls over to January of year+1.
//
// All month predicates, in every backend, are built from this interval; no
// query ever matches on a serialized date's string pattern.
func MonthRange(year, month int) (Date, Date, error) {
	if month < 1 || month > 12 {
		return Date{}, Date{}, ErrInvalidMonth
	}
	if year < 1 || year > 9999 {
		return Date{}, Date{}, fmt.Errorf("%w: invalid year %d", ErrValidation, year)
	}
	start := NewDate(year, month, 1)
	var end Date
	if month == 12 {
		end = NewDate(year+1, 1, 1)
	} else {
		end = NewDate(year, month+1, 1)
	}
	return start, end, nil
}
