package parser

import (
	"testing"
	"time"
)

func TestParseDate_DayFirst(t *testing.T) {
	t.Parallel()

	field := ParseDate("05/03/2024")
	if !field.Valid {
		t.Fatalf("expected valid date")
	}
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	if !field.Time.Equal(want) {
		t.Fatalf("05/03/2024 want=%v got=%v", want, field.Time)
	}
	if field.Raw != "05/03/2024" {
		t.Fatalf("raw not preserved: %q", field.Raw)
	}
}

func TestParseDate_Serial(t *testing.T) {
	t.Parallel()

	// Serial 45356 is 2024-03-05 on the legacy spreadsheet epoch.
	field := ParseDate("45356")
	if !field.Valid {
		t.Fatalf("expected valid date")
	}
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	if !field.Time.Equal(want) {
		t.Fatalf("serial 45356 want=%v got=%v", want, field.Time)
	}
}

func TestParseDate_Native(t *testing.T) {
	t.Parallel()

	field := ParseDate("2024-03-05")
	if !field.Valid {
		t.Fatalf("expected valid date")
	}
	if field.Time.Day() != 5 || field.Time.Month() != time.March || field.Time.Year() != 2024 {
		t.Fatalf("unexpected date: %v", field.Time)
	}
}

func TestParseDate_Unparseable(t *testing.T) {
	t.Parallel()

	field := ParseDate("bientôt")
	if field.Valid {
		t.Fatalf("expected invalid date")
	}
	if field.Raw != "bientôt" {
		t.Fatalf("raw not preserved: %q", field.Raw)
	}

	if got := ParseDate(""); got.Valid || got.Raw != "" {
		t.Fatalf("empty cell should yield empty invalid field, got %+v", got)
	}
}
