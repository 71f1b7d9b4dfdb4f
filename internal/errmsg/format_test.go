//nolint:goconst // test cases intentionally repeat strings for readability
package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpConnect,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with operation",
			op:       OpConnect,
			err:      errors.New("connection refused"),
			expected: "Failed to connect to streaming service: connection refused",
		},
		{
			name:     "send operation",
			op:       OpSend,
			err:      errors.New("not connected"),
			expected: "Failed to send command: not connected",
		},
		{
			name:     "decode operation",
			op:       OpDecodeMsg,
			err:      errors.New("unexpected end of JSON input"),
			expected: "Failed to process server message: unexpected end of JSON input",
		},
		{
			name:     "media operation",
			op:       OpLoadMedia,
			err:      errors.New("unsupported format"),
			expected: "Failed to load audio: unsupported format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpPlay,
			context:  "s1",
			err:      nil,
			expected: "",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpPlay,
			context:  "",
			err:      errors.New("not connected"),
			expected: "Failed to play track: not connected",
		},
		{
			name:     "includes context",
			op:       OpStream,
			context:  "s1",
			err:      errors.New("server error"),
			expected: "Failed to stream track 's1': server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestWarning(t *testing.T) {
	if got := Warning(OpStream, "s1", ""); got != "" {
		t.Errorf("Warning with empty message = %q, want empty", got)
	}
	want := "Cannot stream track 's1': no tiene audio disponible"
	if got := Warning(OpStream, "s1", "no tiene audio disponible"); got != want {
		t.Errorf("Warning() = %q, want %q", got, want)
	}
	want = "Cannot stream track: gone"
	if got := Warning(OpStream, "", "gone"); got != want {
		t.Errorf("Warning() = %q, want %q", got, want)
	}
}
