package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

// DateLayout is the wire format for transaction dates. Dates carry no
// time-of-day semantics; everything is normalized to midnight UTC.
const DateLayout = "2006-01-02"

type (
	// Type discriminates the sign of a transaction. The amount itself is
	// always a non-negative magnitude.
	Type string

	Date struct {
		time.Time
	}

	// Transaction is the single ledger entity. ID, CreatedAt and UpdatedAt
	// are assigned by the remote repository, never locally.
	Transaction struct {
		ID        string          `json:"id"`
		UserID    string          `json:"userId"`
		Date      Date            `json:"date"`
		Amount    decimal.Decimal `json:"amount"`
		Type      Type            `json:"type"`
		Category  string          `json:"category"`
		Notes     string          `json:"notes,omitempty"`
		CreatedAt time.Time       `json:"createdAt,omitempty"`
		UpdatedAt time.Time       `json:"updatedAt,omitempty"`
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyUser       = errors.New("empty user id")
	ErrCategoryTooLong = errors.New("category too long (max 100 characters)")
	ErrNotesTooLong    = errors.New("notes too long (max 500 characters)")
)

func (t Type) IsValid() bool {
	return t == Income || t == Expense
}

// NewDate builds a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string into a Date. Calendar
// validity is enforced: "2024-02-30" is rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t.UTC()}, nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month, 1-12
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty reports whether the date is unset; empty dates mark
// unbounded range endpoints.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool  { return d.Time.After(other.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the invariants enforced at the create/update boundary.
// The aggregation layer assumes transactions already passed this check.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > 100 {
		return ErrCategoryTooLong
	}
	if len(t.Notes) > 500 {
		return ErrNotesTooLong
	}
	return nil
}
