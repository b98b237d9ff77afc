package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatError(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "invalid frame",
				Problem: "missing Content-Length header",
			},
			contains: []string{
				"❌",
				"INVALID FRAME",
				"missing Content-Length header",
			},
		},
		{
			name: "error with suggestions",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Problem:     "cannot serialize",
				Suggestions: []string{"drop NaN values", "break the cycle"},
			},
			contains: []string{
				"Try: drop NaN values",
				"Try: break the cycle",
			},
		},
		{
			name: "error with help commands",
			opts: ErrorOptions{
				Level:        ErrorLevelError,
				Context:      "TRANSPORT FAILED",
				Problem:      "connection refused",
				HelpCommands: []string{"Get help: lspfeed emit --help"},
			},
			contains: []string{
				"→ Get help: lspfeed emit --help",
			},
		},
		{
			name: "warning message",
			opts: ErrorOptions{
				Level:   ErrorLevelWarning,
				Problem: "server sent no responses",
			},
			contains: []string{
				"⚠️",
				"server sent no responses",
			},
		},
		{
			name: "info message",
			opts: ErrorOptions{
				Level:   ErrorLevelInfo,
				Problem: "3 frames written",
			},
			contains: []string{
				"ℹ️",
				"3 frames written",
			},
		},
		{
			name: "error with consequence",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Problem:     "broken pipe",
				Consequence: "Later frames were not sent.",
			},
			contains: []string{
				"broken pipe",
				"Later frames were not sent.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatError(tt.opts)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("FormatError() output missing expected string:\nExpected to contain: %q\nGot: %q", expected, result)
				}
			}
		})
	}
}

func TestSerializationError(t *testing.T) {
	result := SerializationError(`cannot serialize "initialize" message: json: unsupported value: NaN`, true)

	expected := []string{
		"SERIALIZATION FAILED",
		`"initialize"`,
		"No frame was written for this message.",
		"lspfeed emit --help",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("SerializationError() missing expected string: %q", exp)
		}
	}
}

func TestTransportError(t *testing.T) {
	result := TransportError("tcp://localhost:5000", "connection refused", true)

	expected := []string{
		"TRANSPORT FAILED",
		"connection refused",
		"tcp://localhost:5000",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("TransportError() missing expected string: %q", exp)
		}
	}
}

func TestFrameError(t *testing.T) {
	result := FrameError("negative Content-Length -1", true)

	if !strings.Contains(result, "INVALID FRAME") {
		t.Errorf("FrameError() missing context")
	}
	if !strings.Contains(result, "negative Content-Length -1") {
		t.Errorf("FrameError() missing message")
	}
}

func TestConfigError(t *testing.T) {
	result := ConfigError("framing must be 'compat' or 'strict'", true)

	expected := []string{
		"CONFIGURATION ERROR",
		"framing must be 'compat' or 'strict'",
		"View config: cat lspfeed.yaml",
	}

	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("ConfigError() missing expected string: %q", exp)
		}
	}
}

func TestNoColorOutputHasNoEscapes(t *testing.T) {
	result := SerializationError("boom", true)
	if strings.Contains(result, "\x1b[") {
		t.Errorf("expected no ANSI escapes with noColor, got %q", result)
	}
}

func TestWriteError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	WriteError(&buf, ErrorOptions{
		Level:   ErrorLevelError,
		Context: "TEST ERROR",
		Problem: "This is a test",
	})

	if !strings.Contains(buf.String(), "TEST ERROR") {
		t.Errorf("WriteError() did not write to buffer correctly")
	}
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "3 frames sent to stdout", true)

	output := buf.String()
	if !strings.Contains(output, "✓") {
		t.Errorf("WriteSuccess() missing checkmark")
	}
	if !strings.Contains(output, "3 frames sent to stdout") {
		t.Errorf("WriteSuccess() missing message")
	}
}

func TestWarningAndInfo(t *testing.T) {
	warning := Warning("server exited early", []string{"pass --log-level debug"}, true)
	if !strings.Contains(warning, "⚠️") || !strings.Contains(warning, "Try: pass --log-level debug") {
		t.Errorf("Warning() unexpected output: %q", warning)
	}

	info := Info("decoding stdin", true)
	if !strings.Contains(info, "ℹ️") || !strings.Contains(info, "decoding stdin") {
		t.Errorf("Info() unexpected output: %q", info)
	}
}
