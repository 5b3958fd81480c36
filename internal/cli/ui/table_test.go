package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"TYPE", "INHERITS"}, &TableOptions{NoColor: true})
	table.AddRow("field.string", "field.base")
	table.AddRow("field.base", "-")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "TYPE          INHERITS" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], strings.Repeat("─", len("field.string"))) {
		t.Errorf("unexpected separator %q", lines[1])
	}
	if lines[2] != "field.string  field.base" {
		t.Errorf("unexpected row %q", lines[2])
	}
	if lines[3] != "field.base    -" {
		t.Errorf("unexpected row %q", lines[3])
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", table.Len())
	}
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, nil, nil).Render()
	if buf.Len() != 0 {
		t.Errorf("expected no output for a table without headers, got %q", buf.String())
	}
}

func TestTableExtraCells(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"A"}, &TableOptions{NoColor: true})
	table.AddRow("x", "dropped")
	table.Render()
	if strings.Contains(buf.String(), "dropped") {
		t.Errorf("cells beyond the headers should be dropped:\n%s", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Types", "42")
	kv.AddRow("Inherits from", "field.base")
	kv.Render()

	want := "Types:         42\nInherits from: field.base\n"
	if buf.String() != want {
		t.Errorf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestSection(t *testing.T) {
	var buf bytes.Buffer
	Section(&buf, "Warnings", nil, true)
	if buf.Len() != 0 {
		t.Errorf("empty section should write nothing, got %q", buf.String())
	}

	Section(&buf, "Warnings", []string{"one", "two"}, true)
	want := "Warnings\n  • one\n  • two\n\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Types", true)
	if buf.String() != "Types\n─────\n" {
		t.Errorf("unexpected header %q", buf.String())
	}
}
