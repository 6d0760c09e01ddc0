// Package core provides money parsing and handling utilities.
//
// This file contains the decimal Amount type and the coercion helpers used by
// validation (strict) and aggregation (safe, zero on failure).
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a decimal monetary value. It serialises as a JSON number.
type Amount struct {
	decimal.Decimal
}

var ErrInvalidAmount = errors.New("invalid amount")

// NewAmount builds an Amount from a decimal literal; it panics on bad input
// and is meant for constants and tests.
func NewAmount(s string) Amount {
	return Amount{Decimal: decimal.RequireFromString(s)}
}

// ZeroAmount is the additive identity.
func ZeroAmount() Amount {
	return Amount{Decimal: decimal.Zero}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Decimal.IsPositive()
}

func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Sub(b.Decimal)}
}

func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAmount coerces a loosely typed value to an Amount. Numbers, numeric
// strings and json.Number are accepted; anything else, including NaN and
// infinities, yields ErrInvalidAmount. The sign is not checked here.
func ParseAmount(v any) (Amount, error) {
	switch val := v.(type) {
	case Amount:
		return val, nil
	case decimal.Decimal:
		return Amount{Decimal: val}, nil
	case json.Number:
		return parseAmountString(val.String())
	case string:
		return parseAmountString(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return Amount{}, ErrInvalidAmount
		}
		return Amount{Decimal: decimal.NewFromFloat(val)}, nil
	case float32:
		return ParseAmount(float64(val))
	case int:
		return Amount{Decimal: decimal.NewFromInt(int64(val))}, nil
	case int32:
		return Amount{Decimal: decimal.NewFromInt32(val)}, nil
	case int64:
		return Amount{Decimal: decimal.NewFromInt(val)}, nil
	default:
		return Amount{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

func parseAmountString(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Amount{Decimal: d}, nil
}

// SafeAmount is the aggregation-side coercion: any value that fails to parse
// contributes zero instead of poisoning a total.
func SafeAmount(v any) Amount {
	a, err := ParseAmount(v)
	if err != nil {
		return ZeroAmount()
	}
	return a
}
