package registry

import (
	"strconv"
	"strings"
	"testing"
)

func TestNewCodeGenerator(t *testing.T) {
	gen := newCodeGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := gen()

		if len(code) != CodeLength {
			t.Fatalf("generated code %q has length %d, want %d", code, len(code), CodeLength)
		}
		if !IsValidCode(code) {
			t.Fatalf("generated code %q contains characters outside the alphabet", code)
		}
		seen[code] = true
	}

	// 1000 draws from a 36^6 space should essentially never collide.
	if len(seen) < 990 {
		t.Errorf("got %d distinct codes out of 1000 draws", len(seen))
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already normalized", input: "ABC123", want: "ABC123"},
		{name: "lowercase", input: "abc123", want: "ABC123"},
		{name: "mixed case", input: "aBc12z", want: "ABC12Z"},
		{name: "surrounding whitespace", input: "  ABC123 ", want: "ABC123"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCode(tt.input); got != tt.want {
				t.Errorf("NormalizeCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "valid letters", code: "ABCDEF", want: true},
		{name: "valid mixed", code: "A1B2C3", want: true},
		{name: "valid digits", code: "123456", want: true},
		{name: "too short", code: "ABC12", want: false},
		{name: "too long", code: "ABC1234", want: false},
		{name: "lowercase", code: "abc123", want: false},
		{name: "punctuation", code: "ABC-12", want: false},
		{name: "empty", code: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidCode(tt.code); got != tt.want {
				t.Errorf("IsValidCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()

	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		t.Fatalf("NewMessageID() = %q, want <millis>-<suffix>", id)
	}

	if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
		t.Errorf("NewMessageID() prefix %q is not a timestamp: %v", parts[0], err)
	}
	if len(parts[1]) != 6 {
		t.Errorf("NewMessageID() suffix %q has length %d, want 6", parts[1], len(parts[1]))
	}

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		seen[NewMessageID()] = true
	}
	if len(seen) != 1000 {
		t.Errorf("got %d distinct ids out of 1000", len(seen))
	}
}
