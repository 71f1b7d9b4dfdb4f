package render

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean", "Canción", "Canción"},
		{"control chars", "a\x1b[31mb\x07", "a[31mb"},
		{"keeps tab", "a\tb", "a\tb"},
		{"nbsp", "a\u00a0b", "a b"},
		{"invalid utf8", "a\xffb", "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact fit", "hello", 5, "hello"},
		{"truncated", "hello world", 6, "hello…"},
		{"zero width", "hello", 0, ""},
		{"wide chars", "日本語です", 5, "日本…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestPad(t *testing.T) {
	if got := Pad("ab", 4); got != "ab  " {
		t.Errorf("Pad = %q, want %q", got, "ab  ")
	}
	if got := Pad("abcdef", 4); lipgloss.Width(got) != 4 {
		t.Errorf("Pad width = %d, want 4", lipgloss.Width(got))
	}
}

func TestRow(t *testing.T) {
	got := Row("left", "right", 12)
	if got != "left   right" {
		t.Errorf("Row = %q, want %q", got, "left   right")
	}
	if got := Row("left", "right", 3); got != "left right" {
		t.Errorf("Row narrow = %q, want one space gap", got)
	}
}
