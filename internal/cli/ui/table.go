package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a bold header with a rule beneath it.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a table with the given column headers.
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{
		writer:  w,
		headers: headers,
		noColor: noColor,
	}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows added so far.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = width(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if w := width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	head := t.color(color.Bold, color.FgCyan)
	rule := t.color(color.FgHiBlack)

	for i, h := range t.headers {
		head.Fprint(t.writer, pad(h, widths[i], i == len(widths)-1))
		t.gap(i)
	}
	fmt.Fprintln(t.writer)

	for i, w := range widths {
		rule.Fprint(t.writer, strings.Repeat("─", w))
		t.gap(i)
	}
	fmt.Fprintln(t.writer)

	for _, row := range t.rows {
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprint(t.writer, pad(cell, widths[i], i == len(widths)-1))
			t.gap(i)
		}
		fmt.Fprintln(t.writer)
	}
}

func (t *Table) gap(i int) {
	if i < len(t.headers)-1 {
		fmt.Fprint(t.writer, "  ")
	}
}

func (t *Table) color(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.noColor {
		c.DisableColor()
	}
	return c
}

// Details renders "key: value" lines with aligned values, optionally under
// a title.
type Details struct {
	writer  io.Writer
	title   string
	keys    []string
	values  []string
	noColor bool
}

func NewDetails(w io.Writer, title string, noColor bool) *Details {
	return &Details{writer: w, title: title, noColor: noColor}
}

// Add appends a line. Values are formatted with fmt.Sprint.
func (d *Details) Add(key string, value interface{}) {
	d.keys = append(d.keys, key)
	d.values = append(d.values, fmt.Sprint(value))
}

func (d *Details) Render() {
	if d.title != "" {
		Header(d.writer, d.title, d.noColor)
	}
	keyWidth := 0
	for _, k := range d.keys {
		if w := width(k) + 1; w > keyWidth {
			keyWidth = w
		}
	}
	cyan := color.New(color.FgCyan)
	if d.noColor {
		cyan.DisableColor()
	}
	for i, k := range d.keys {
		cyan.Fprint(d.writer, pad(k+":", keyWidth, false))
		fmt.Fprintf(d.writer, " %s\n", d.values[i])
	}
}

// Header prints a bold title underlined to its own width.
func Header(w io.Writer, title string, noColor bool) {
	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if noColor {
		bold.DisableColor()
		gray.DisableColor()
	}
	bold.Fprintln(w, title)
	gray.Fprintln(w, strings.Repeat("─", width(title)))
}

func width(s string) int {
	return utf8.RuneCountInString(s)
}

// pad right-pads s to n runes. The last column is not padded.
func pad(s string, n int, last bool) string {
	if last || width(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-width(s))
}
