package security

import (
	"strings"
	"testing"
)

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "[2] > [1] > [3]", "[2] > [1] > [3]"},
		{"newlines", "Ranking:\n[1]\r\n", "Ranking:\\n[1]\\r\\n"},
		{"tab", "a\tb", "a\\tb"},
		{"control", "a\x00b\x1bc", "abc"},
		{"turkish", "İşçi ılık", "İşçi ılık"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeForLog(tt.input); got != tt.expected {
				t.Errorf("SanitizeForLog(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeForLogWithLength(t *testing.T) {
	got := SanitizeForLogWithLength(strings.Repeat("x", 50), 10)
	if got != strings.Repeat("x", 10)+"..." {
		t.Errorf("unexpected truncation: %q", got)
	}

	long := SanitizeForLog(strings.Repeat("ş", 500))
	if n := len([]rune(long)); n != DefaultLogLength+3 {
		t.Errorf("expected %d runes, got %d", DefaultLogLength+3, n)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"short", "****"},
		{"AIzaSyD-example-key-1234", "****1234"},
	}

	for _, tt := range tests {
		if got := MaskSecret(tt.input); got != tt.expected {
			t.Errorf("MaskSecret(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
