package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-05", true},
		{"2024-02-29", true}, // leap year
		{"2023-02-29", false},
		{"2024-02-30", false},
		{"2024-13-01", false},
		{"05/01/2024", false},
		{"", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q: expected ok, got %v", tc.in, err)
			}
			if d.String() != tc.in {
				t.Fatalf("%q: round-trip gave %q", tc.in, d.String())
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 3, 31)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-03-31"` {
		t.Fatalf("unexpected JSON: %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round-trip mismatch: %v != %v", back, d)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:     NewDate(2024, 1, 5),
		Amount:   decimal.NewFromInt(100),
		Type:     Income,
		Category: "Stipendio",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Zero amount is legal: the invariant is amount >= 0.
	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should validate, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Transaction)
		want error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"negative amount", func(tx *Transaction) { tx.Amount = decimal.NewFromInt(-1) }, ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"blank category", func(tx *Transaction) { tx.Category = "   " }, ErrEmptyCategory},
	}
	for _, tc := range cases {
		tx := good
		tc.mut(&tx)
		err := tx.Validate()
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
