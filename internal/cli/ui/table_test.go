package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "#", "Name", "Type")
	table.AddRow("0", "str", "string")
	table.AddRow("1", "length", "?int")
	table.AddRow("2")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "#  Name    Type" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "─  ──────  ──────" {
		t.Errorf("unexpected rule %q", lines[1])
	}
	if lines[3] != "1  length  ?int" {
		t.Errorf("unexpected row %q", lines[3])
	}
	if lines[4] != "2"+strings.Repeat(" ", 10) {
		t.Errorf("short row should be padded with empty cells, got %q", lines[4])
	}
	if table.Len() != 3 {
		t.Errorf("Len() = %d; want 3", table.Len())
	}
}

func TestTableWithoutHeaders(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true)
	table.AddRow("ignored")
	table.Render()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestDetails(t *testing.T) {
	var buf bytes.Buffer
	d := NewDetails(&buf, "Parameter $pad", true)
	d.Add("position", 2)
	d.Add("optional", true)
	d.Render()

	want := "Parameter $pad\n" +
		strings.Repeat("─", 14) + "\n" +
		"position: 2\n" +
		"optional: true\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestHeaderCountsRunes(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "café", true)

	if !strings.HasSuffix(buf.String(), "────\n") || strings.Contains(buf.String(), "─────") {
		t.Errorf("rule should match the title's rune count, got %q", buf.String())
	}
}
