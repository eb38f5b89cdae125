package domain

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestResolveDueInstantDateOnly(t *testing.T) {
	got := ResolveDueInstant(strPtr("2026-03-10"), nil, time.UTC)
	if got == nil {
		t.Fatal("expected an instant")
	}
	want := time.Date(2026, 3, 10, 23, 59, 59, 999_000_000, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestResolveDueInstantDateAndTime(t *testing.T) {
	got := ResolveDueInstant(strPtr("2026-03-10"), strPtr("17:00"), time.UTC)
	if got == nil {
		t.Fatal("expected an instant")
	}
	want := time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestResolveDueInstantHonorsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	got := ResolveDueInstant(strPtr("2026-03-10"), strPtr("09:30"), loc)
	if got == nil {
		t.Fatal("expected an instant")
	}
	if got.UTC().Hour() != 7 || got.UTC().Minute() != 30 {
		t.Fatalf("expected 07:30 UTC, got %v", got.UTC())
	}
}

func TestResolveDueInstantNoDate(t *testing.T) {
	if got := ResolveDueInstant(nil, strPtr("17:00"), time.UTC); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := ResolveDueInstant(strPtr(""), nil, time.UTC); got != nil {
		t.Fatalf("expected nil for empty date, got %v", got)
	}
}

func TestResolveDueInstantUnparseable(t *testing.T) {
	if got := ResolveDueInstant(strPtr("next tuesday"), nil, time.UTC); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := ResolveDueInstant(strPtr("2026-03-10"), strPtr("5pm"), time.UTC); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestValidateDueFields(t *testing.T) {
	if err := ValidateDueFields(strPtr("2026-03-10"), strPtr("17:00")); err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}
	if err := ValidateDueFields(strPtr("03/10/2026"), nil); err == nil {
		t.Fatal("expected bad date format to fail")
	}
	if err := ValidateDueFields(strPtr("2026-03-10"), strPtr("25:00")); err == nil {
		t.Fatal("expected bad time format to fail")
	}
	if err := ValidateDueFields(nil, strPtr("17:00")); err == nil {
		t.Fatal("expected time without date to fail")
	}
}
