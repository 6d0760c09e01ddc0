package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted wire format for transaction dates.
const DateLayout = "2006-01-02"

// MaxDescriptionLength is measured in characters after trimming.
const MaxDescriptionLength = 255

// TransactionType is the closed vocabulary for the kind of a transaction.
type TransactionType uint8

const (
	Credit TransactionType = iota + 1
	Debit
)

const (
	creditToken = "credit"
	debitToken  = "debit"
)

type (
	// Date is a calendar day in UTC. The zero Date is unset, which is distinct
	// from the valid day 0001-01-01.
	Date struct {
		time.Time
		set bool
	}

	Transaction struct {
		ID          int64
		Date        Date
		Description string
		Value       Amount
		Type        TransactionType
	}

	// Patch carries a partial update; nil fields are left unchanged.
	Patch struct {
		Date        *Date
		Description *string
		Value       *Amount
		Type        *TransactionType
	}

	// DateRange bounds a listing; a nil bound leaves that side open.
	DateRange struct {
		Start *Date
		End   *Date
	}
)

var ErrInvalidTransactionType = errors.New("invalid transaction type")

// ParseTransactionType maps a wire token to the enum. Matching is exact and case-sensitive.
func ParseTransactionType(s string) (TransactionType, error) {
	switch s {
	case creditToken:
		return Credit, nil
	case debitToken:
		return Debit, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
	}
}

func (t TransactionType) String() string {
	switch t {
	case Credit:
		return creditToken
	case Debit:
		return debitToken
	default:
		return ""
	}
}

// Valid reports whether t is one of the declared kinds.
func (t TransactionType) Valid() bool {
	return t == Credit || t == Debit
}

func (t TransactionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrInvalidTransactionType
	}
	return []byte(t.String()), nil
}

func (t *TransactionType) UnmarshalText(b []byte) error {
	parsed, err := ParseTransactionType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), set: true}
}

// ParseDate parses a strict YYYY-MM-DD string. Out-of-range days such as
// 2023-02-30 are rejected rather than normalised.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t, set: true}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the "YYYY-MM" grouping key.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
}

// IsEmpty reports whether the date was never set.
func (d Date) IsEmpty() bool {
	return !d.set
}

// Ptr returns a pointer to a copy of d, for use as a DateRange bound.
func (d Date) Ptr() *Date {
	return &d
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsEmpty() {
		return json.Marshal("")
	}
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

type transactionJSON struct {
	ID          int64           `json:"id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Value       Amount          `json:"value"`
	Type        TransactionType `json:"type"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON(t))
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var tj transactionJSON
	if err := json.Unmarshal(b, &tj); err != nil {
		return err
	}
	*t = Transaction(tj)
	return nil
}

// Signed returns the value with the sign implied by the transaction type.
func (t Transaction) Signed() Amount {
	if t.Type == Debit {
		return Amount{Decimal: t.Value.Neg()}
	}
	return t.Value
}

// Apply returns a copy of t with the non-nil patch fields applied.
func (t Transaction) Apply(p Patch) Transaction {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Value != nil {
		t.Value = *p.Value
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Date == nil && p.Description == nil && p.Value == nil && p.Type == nil
}

// Contains reports whether d falls inside the range, bounds inclusive.
func (r DateRange) Contains(d Date) bool {
	if r.Start != nil && d.Before(r.Start.Time) {
		return false
	}
	if r.End != nil && d.After(r.End.Time) {
		return false
	}
	return true
}

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool {
	return r.Start == nil && r.End == nil
}
