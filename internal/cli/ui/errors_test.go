package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestMessageFormat(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		contains []string
		absent   []string
	}{
		{
			name:     "error",
			msg:      Message{Title: "UNKNOWN CLASS: Widgte", Detail: "unknown class: Widgte"},
			contains: []string{"✗ UNKNOWN CLASS: Widgte\n", "   unknown class: Widgte\n"},
			absent:   []string{"Did you mean"},
		},
		{
			name: "suggestions and hints",
			msg: Message{
				Title:       "UNKNOWN CLASS: Widgte",
				Suggestions: []string{"Widget", "Gadget"},
				Hints:       []string{"List classes: reflect catalog classes"},
			},
			contains: []string{"Did you mean: Widget, Gadget?", "→ List classes: reflect catalog classes"},
		},
		{
			name:     "warning",
			msg:      Message{Level: LevelWarning, Title: "instance required"},
			contains: []string{"! instance required"},
		},
		{
			name:     "info",
			msg:      Message{Level: LevelInfo, Title: "nothing to do"},
			contains: []string{"i nothing to do"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.msg.NoColor = true
			out := tt.msg.Format()
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tt.absent {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestSuccess(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "catalog saved", true)
	if buf.String() != "✓ catalog saved\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}
