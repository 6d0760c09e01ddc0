package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func validRecord() Record {
	return Record{
		"date":        "2024-03-15",
		"description": "Salary",
		"value":       1500.5,
		"type":        "credit",
	}
}

func fieldsOf(res ValidationResult) []string {
	out := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestValidateForCreate_Valid(t *testing.T) {
	cases := []Record{
		validRecord(),
		{"date": "2024-02-29", "description": "  leap  ", "value": "0.01", "type": "debit"},
		{"date": "2023-12-31", "description": "int value", "value": 7, "type": "credit"},
		{"date": "2023-01-01", "description": "json number", "value": json.Number("12.30"), "type": "debit"},
		{"date": "2023-01-01", "description": strings.Repeat("é", MaxDescriptionLength), "value": 1, "type": "debit"},
	}
	for i, rec := range cases {
		res := ValidateForCreate(rec)
		if !res.Valid {
			t.Fatalf("case %d expected valid, got %+v", i, res.Errors)
		}
		if len(res.Errors) != 0 {
			t.Fatalf("case %d expected no errors, got %+v", i, res.Errors)
		}
	}
}

func TestValidateForCreate_MissingFields(t *testing.T) {
	for _, field := range []string{FieldDate, FieldDescription, FieldValue, FieldType} {
		t.Run(field, func(t *testing.T) {
			rec := validRecord()
			delete(rec, field)
			res := ValidateForCreate(rec)
			if res.Valid {
				t.Fatalf("expected invalid when %s is missing", field)
			}
			got := fieldsOf(res)
			if len(got) != 1 || got[0] != field {
				t.Fatalf("expected single %s error, got %v", field, got)
			}
		})
	}
}

func TestValidateForCreate_CollectsAllErrorsInOrder(t *testing.T) {
	res := ValidateForCreate(Record{
		"type":        "CREDIT",
		"value":       -3,
		"description": "   ",
		"date":        "15/03/2024",
	})
	if res.Valid {
		t.Fatal("expected invalid")
	}
	want := []string{FieldDate, FieldDescription, FieldValue, FieldType}
	got := fieldsOf(res)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("error order = %v, want %v", got, want)
	}
	if res.Errors[0].Value != "15/03/2024" {
		t.Fatalf("rejected value not echoed: %v", res.Errors[0].Value)
	}
}

func TestValidateForCreate_FieldRules(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   any
		message string
	}{
		{"impossible calendar date", FieldDate, "2023-02-30", msgDateCalendar},
		{"month 13", FieldDate, "2023-13-01", msgDateCalendar},
		{"date with time", FieldDate, "2023-01-01T10:00:00Z", msgDateFormat},
		{"short date", FieldDate, "2023-1-1", msgDateFormat},
		{"empty date", FieldDate, "", msgDateRequired},
		{"numeric date", FieldDate, 20230101, msgDateFormat},
		{"null date", FieldDate, nil, msgDateRequired},
		{"blank description", FieldDescription, " \t ", msgDescriptionRequired},
		{"non-string description", FieldDescription, 42, msgDescriptionRequired},
		{"long description", FieldDescription, strings.Repeat("a", MaxDescriptionLength+1), msgDescriptionTooLong},
		{"zero value", FieldValue, 0, msgValuePositive},
		{"negative value", FieldValue, "-1.5", msgValuePositive},
		{"non-numeric value", FieldValue, "abc", msgValuePositive},
		{"empty string value", FieldValue, "", msgValuePositive},
		{"bool value", FieldValue, true, msgValuePositive},
		{"null value", FieldValue, nil, msgValueRequired},
		{"upper-case type", FieldType, "CREDIT", msgTypeEnum},
		{"unknown type", FieldType, "transfer", msgTypeEnum},
		{"empty type", FieldType, "", msgTypeRequired},
		{"numeric type", FieldType, 1, msgTypeEnum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			rec[tt.field] = tt.value
			res := ValidateForCreate(rec)
			if res.Valid {
				t.Fatalf("expected invalid for %s=%v", tt.field, tt.value)
			}
			if len(res.Errors) != 1 {
				t.Fatalf("expected one error, got %+v", res.Errors)
			}
			fe := res.Errors[0]
			if fe.Field != tt.field {
				t.Fatalf("field = %s, want %s", fe.Field, tt.field)
			}
			if len(fe.Messages) != 1 || fe.Messages[0] != tt.message {
				t.Fatalf("messages = %v, want [%s]", fe.Messages, tt.message)
			}
		})
	}
}

func TestValidateForCreate_LowercaseTokensOnly(t *testing.T) {
	res := ValidateForCreate(Record{"date": "2023-02-30", "description": "x", "value": 1, "type": "credit"})
	if res.Valid {
		t.Fatal("expected invalid calendar date")
	}
	if got := fieldsOf(res); len(got) != 1 || got[0] != FieldDate {
		t.Fatalf("expected only date error, got %v", got)
	}
}

func TestValidateForUpdate(t *testing.T) {
	t.Run("invalid id short-circuits", func(t *testing.T) {
		for _, id := range []int64{0, -5} {
			res := ValidateForUpdate(id, Record{"value": -3, "type": "nope"})
			if res.Valid {
				t.Fatalf("id %d: expected invalid", id)
			}
			if got := fieldsOf(res); len(got) != 1 || got[0] != FieldID {
				t.Fatalf("id %d: expected single id error, got %v", id, got)
			}
		}
	})

	t.Run("only present fields are checked", func(t *testing.T) {
		res := ValidateForUpdate(5, Record{"value": -3})
		if res.Valid {
			t.Fatal("expected invalid")
		}
		if got := fieldsOf(res); len(got) != 1 || got[0] != FieldValue {
			t.Fatalf("expected only value error, got %v", got)
		}
	})

	t.Run("empty update is valid", func(t *testing.T) {
		if res := ValidateForUpdate(5, Record{}); !res.Valid {
			t.Fatalf("expected valid, got %+v", res.Errors)
		}
	})

	t.Run("explicit null is checked", func(t *testing.T) {
		res := ValidateForUpdate(5, Record{"description": nil})
		if got := fieldsOf(res); len(got) != 1 || got[0] != FieldDescription {
			t.Fatalf("expected description error, got %v", got)
		}
	})

	t.Run("full valid record", func(t *testing.T) {
		if res := ValidateForUpdate(9, validRecord()); !res.Valid {
			t.Fatalf("expected valid, got %+v", res.Errors)
		}
	})
}

func TestRunValidationRecoversPanics(t *testing.T) {
	res := runValidation(func() ValidationResult { panic("boom") })
	if res.Valid {
		t.Fatal("expected invalid result")
	}
	if len(res.Errors) != 1 || res.Errors[0].Field != FieldGeneral || res.Errors[0].Messages[0] != msgGeneral {
		t.Fatalf("unexpected result %+v", res.Errors)
	}
}

func TestParseID(t *testing.T) {
	if id, err := ParseID("42"); err != nil || id != 42 {
		t.Fatalf("ParseID(42) = %d, %v", id, err)
	}
	for _, in := range []string{"", "abc", "0", "-1", "1.5"} {
		if _, err := ParseID(in); err == nil {
			t.Fatalf("ParseID(%q) expected error", in)
		}
	}
}

func TestBuildTransaction(t *testing.T) {
	tx, err := BuildTransaction(Record{
		"date":        "2024-03-15",
		"description": "  Groceries ",
		"value":       "42.10",
		"type":        "debit",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Description != "Groceries" {
		t.Fatalf("description not trimmed: %q", tx.Description)
	}
	if tx.Type != Debit || !tx.Value.Equal(NewAmount("42.1")) || tx.Date.String() != "2024-03-15" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	if _, err := BuildTransaction(Record{"date": "x"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuildPatch(t *testing.T) {
	p, err := BuildPatch(Record{"value": 10, "description": " new "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Date != nil || p.Type != nil {
		t.Fatal("absent fields should stay nil")
	}
	if p.Value == nil || !p.Value.Equal(NewAmount("10")) {
		t.Fatalf("value = %v", p.Value)
	}
	if p.Description == nil || *p.Description != "new" {
		t.Fatalf("description = %v", p.Description)
	}

	if _, err := BuildPatch(Record{"type": "other"}); err == nil {
		t.Fatal("expected validation error")
	}
}
