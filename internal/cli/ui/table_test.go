package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTable(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	table := NewTable(&buf, []string{"#", "Length", "Kind", "Method"}, &TableOptions{NoColor: true})

	table.AddRow("1", "75", "request", "initialize")
	table.AddRow("2", "44", "request", "shutdown")
	table.AddRow("3", "33", "notification", "exit")

	if table.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", table.Len())
	}
	if err := table.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"length", "kind", "method", "initialize", "shutdown", "notification", "75"} {
		if !strings.Contains(strings.ToLower(output), want) {
			t.Errorf("Table output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "\x1b[") {
		t.Errorf("expected no ANSI escapes with NoColor, got %q", output)
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{}, &TableOptions{NoColor: true})

	if err := table.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if buf.String() != "" {
		t.Errorf("Expected empty output for table with no headers, got: %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kvTable := NewKeyValueTable(&buf, true)

	kvTable.AddRow("Frames", "3")
	kvTable.AddRow("Bytes", "152")

	kvTable.Render()

	output := buf.String()
	if !strings.Contains(output, "Frames: 3") {
		t.Errorf("KeyValueTable output missing 'Frames: 3', got %q", output)
	}
	if !strings.Contains(output, "Bytes:  152") {
		t.Errorf("KeyValueTable output not aligned, got %q", output)
	}
}

func TestKeyValueTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewKeyValueTable(&buf, true).Render()

	if buf.String() != "" {
		t.Errorf("Expected empty output, got %q", buf.String())
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"ab", 4, "ab  "},
		{"abcd", 2, "abcd"},
		{"", 3, "   "},
	}

	for _, tt := range tests {
		if got := padRight(tt.input, tt.width); got != tt.want {
			t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}
