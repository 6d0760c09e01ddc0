package core

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Record is an untyped input record as decoded from a request body.
type Record map[string]any

// ValidationResult is the outcome of a validation pass.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Errors: r.Errors}
}

// Field names as they appear on the wire.
const (
	FieldID          = "id"
	FieldDate        = "date"
	FieldDescription = "description"
	FieldValue       = "value"
	FieldType        = "type"
	FieldGeneral     = "general"
)

const (
	msgDateRequired        = "Date is required"
	msgDateFormat          = "Date must be in YYYY-MM-DD format"
	msgDateCalendar        = "Date must be a valid calendar date"
	msgDescriptionRequired = "Description is required and must be a non-empty string"
	msgValueRequired       = "Value is required"
	msgValuePositive       = "Value must be a positive number"
	msgTypeRequired        = "Type is required"
	msgIDRequired          = "Valid ID is required for update"
	msgGeneral             = "validation error occurred"
)

var (
	msgDescriptionTooLong = fmt.Sprintf("Description must not exceed %d characters", MaxDescriptionLength)
	msgTypeEnum           = fmt.Sprintf("Type must be either '%s' or '%s'", Credit, Debit)
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// fieldRule returns the messages for a present value, or nil when it is acceptable.
type fieldRule struct {
	field string
	check func(v any) []string
}

// Check order is also the order of reported errors.
var fieldRules = []fieldRule{
	{FieldDate, checkDate},
	{FieldDescription, checkDescription},
	{FieldValue, checkValue},
	{FieldType, checkType},
}

// collector accumulates field errors instead of stopping at the first one.
type collector struct {
	errs []FieldError
}

func (c *collector) add(field string, value any, messages ...string) {
	c.errs = append(c.errs, FieldError{Field: field, Value: value, Messages: messages})
}

func (c *collector) result() ValidationResult {
	if len(c.errs) == 0 {
		return ValidationResult{Valid: true}
	}
	return ValidationResult{Valid: false, Errors: c.errs}
}

// ValidateForCreate checks that raw carries every field of a new transaction.
func ValidateForCreate(raw Record) ValidationResult {
	return runValidation(func() ValidationResult {
		var c collector
		for _, rule := range fieldRules {
			v := raw[rule.field]
			if msgs := rule.check(v); len(msgs) > 0 {
				c.add(rule.field, v, msgs...)
			}
		}
		return c.result()
	})
}

// ValidateForUpdate checks the id, then every field present in raw. Absent
// fields are not required; whether the record exists is the caller's concern.
func ValidateForUpdate(id int64, raw Record) ValidationResult {
	return runValidation(func() ValidationResult {
		var c collector
		if id <= 0 {
			c.add(FieldID, id, msgIDRequired)
			return c.result()
		}
		for _, rule := range fieldRules {
			v, present := raw[rule.field]
			if !present {
				continue
			}
			if msgs := rule.check(v); len(msgs) > 0 {
				c.add(rule.field, v, msgs...)
			}
		}
		return c.result()
	})
}

// ParseID parses a path id and reports the same field error as ValidateForUpdate.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Errors: []FieldError{{Field: FieldID, Value: s, Messages: []string{msgIDRequired}}}}
	}
	return id, nil
}

// runValidation turns an unexpected panic into the generic field error.
func runValidation(fn func() ValidationResult) (res ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Unexpected fault during validation", "panic", r)
			res = ValidationResult{
				Valid:  false,
				Errors: []FieldError{{Field: FieldGeneral, Value: nil, Messages: []string{msgGeneral}}},
			}
		}
	}()
	return fn()
}

func checkDate(v any) []string {
	if v == nil {
		return []string{msgDateRequired}
	}
	s, ok := v.(string)
	if !ok {
		return []string{msgDateFormat}
	}
	if s == "" {
		return []string{msgDateRequired}
	}
	if !datePattern.MatchString(s) {
		return []string{msgDateFormat}
	}
	if _, err := ParseDate(s); err != nil {
		return []string{msgDateCalendar}
	}
	return nil
}

func checkDescription(v any) []string {
	s, ok := v.(string)
	if !ok {
		return []string{msgDescriptionRequired}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{msgDescriptionRequired}
	}
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		return []string{msgDescriptionTooLong}
	}
	return nil
}

func checkValue(v any) []string {
	if v == nil {
		return []string{msgValueRequired}
	}
	a, err := ParseAmount(v)
	if err != nil || !a.IsPositive() {
		return []string{msgValuePositive}
	}
	return nil
}

func checkType(v any) []string {
	if v == nil || v == "" {
		return []string{msgTypeRequired}
	}
	s, ok := v.(string)
	if !ok {
		return []string{msgTypeEnum}
	}
	if _, err := ParseTransactionType(s); err != nil {
		return []string{msgTypeEnum}
	}
	return nil
}

// BuildTransaction converts a record accepted by ValidateForCreate into a
// Transaction, trimming the description and coercing value and type.
func BuildTransaction(raw Record) (Transaction, error) {
	if res := ValidateForCreate(raw); !res.Valid {
		return Transaction{}, res.Err()
	}
	date, _ := ParseDate(raw[FieldDate].(string))
	value, _ := ParseAmount(raw[FieldValue])
	typ, _ := ParseTransactionType(raw[FieldType].(string))
	return Transaction{
		Date:        date,
		Description: strings.TrimSpace(raw[FieldDescription].(string)),
		Value:       value,
		Type:        typ,
	}, nil
}

// BuildPatch converts the present fields of an update record into a Patch.
// The id is validated by the caller through ValidateForUpdate or ParseID.
func BuildPatch(raw Record) (Patch, error) {
	if res := ValidateForUpdate(1, raw); !res.Valid {
		return Patch{}, res.Err()
	}
	var p Patch
	if v, ok := raw[FieldDate]; ok {
		d, _ := ParseDate(v.(string))
		p.Date = &d
	}
	if v, ok := raw[FieldDescription]; ok {
		s := strings.TrimSpace(v.(string))
		p.Description = &s
	}
	if v, ok := raw[FieldValue]; ok {
		a, _ := ParseAmount(v)
		p.Value = &a
	}
	if v, ok := raw[FieldType]; ok {
		t, _ := ParseTransactionType(v.(string))
		p.Type = &t
	}
	return p, nil
}
