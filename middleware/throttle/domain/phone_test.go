package domain

import (
	"errors"
	"testing"
)

func TestNormalizePhone_SwedishLocalFormats(t *testing.T) {
	inputs := []string{
		"070-123 45 67",
		"0701234567",
		"+46 70 123 45 67",
		"0046701234567",
	}
	for _, in := range inputs {
		got, err := NormalizePhone(in)
		if err != nil {
			t.Fatalf("NormalizePhone(%q) unexpected error: %v", in, err)
		}
		if got != "+46701234567" {
			t.Fatalf("NormalizePhone(%q) = %q, want +46701234567", in, got)
		}
	}
}

func TestNormalizePhone_KeepsForeignNumbers(t *testing.T) {
	got, err := NormalizePhone("+47 412 34 567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "+4741234567" {
		t.Fatalf("expected +4741234567, got %q", got)
	}
}

func TestNormalizePhone_RejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "123"} {
		if _, err := NormalizePhone(in); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("NormalizePhone(%q) expected ErrInvalidArgument, got %v", in, err)
		}
	}
}
