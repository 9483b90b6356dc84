package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message block.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a multi-line report: a headline, an optional explanation,
// "did you mean" suggestions and follow-up commands.
type Message struct {
	Level       Level
	Title       string
	Detail      string
	Suggestions []string
	Hints       []string
	NoColor     bool
}

// Format renders m.
//
// Example output:
//
//	✗ UNKNOWN CLASS: Widgte
//	   unknown class: Widgte
//
//	   Did you mean: Widget?
//
//	   → List classes: reflect catalog classes
func (m Message) Format() string {
	var b strings.Builder

	var head, body *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		head, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "!"
	case LevelInfo:
		head, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "i"
	default:
		head, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "✗"
	}
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	if m.NoColor {
		for _, c := range []*color.Color{head, body, yellow, cyan} {
			c.DisableColor()
		}
	}

	head.Fprintf(&b, "%s %s\n", symbol, m.Title)
	if m.Detail != "" {
		body.Fprintf(&b, "   %s\n", m.Detail)
	}
	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}
	if len(m.Hints) > 0 {
		b.WriteString("\n")
		for _, h := range m.Hints {
			cyan.Fprintf(&b, "   → %s\n", h)
		}
	}
	return b.String()
}

// Write renders m to w.
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.Format())
}

// Success renders a one-line confirmation.
func Success(w io.Writer, message string, noColor bool) {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	green.Fprintf(w, "✓ %s\n", message)
}

// Warning renders a one-line warning.
func Warning(w io.Writer, message string, noColor bool) {
	Message{Level: LevelWarning, Title: message, NoColor: noColor}.Write(w)
}
