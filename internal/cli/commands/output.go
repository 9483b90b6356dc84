package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/conduit-lang/introspect/internal/cli/ui"
	"github.com/conduit-lang/introspect/runtime/propstore"
	"github.com/conduit-lang/introspect/runtime/reflection"
	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

// writeJSON formats data as indented JSON
func writeJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// formatValue renders a PHP value for a table cell. Strings are quoted so
// that "" and null stay distinguishable.
func formatValue(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// attributeLines renders an attribute map as "name=value" pairs.
func attributeLines(attrs map[string]interface{}) string {
	if len(attrs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(attrs))
	for _, k := range sortedKeys(attrs) {
		parts = append(parts, k+"="+formatValue(attrs[k]))
	}
	return strings.Join(parts, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// describeError turns err into a report, with suggestions drawn from the
// catalog when the failure names something that does not exist.
func describeError(err error, c *catalog.Catalog, noColor bool) ui.Message {
	msg := ui.Message{Title: "ERROR", Detail: err.Error(), NoColor: noColor}

	var inaccessible propstore.ErrInaccessible
	if errors.As(err, &inaccessible) {
		msg.Title = "INACCESSIBLE PROPERTY: " + inaccessible.Class + "::$" + inaccessible.Name
		msg.Hints = []string{"Bypass visibility: reflect property " + inaccessible.Class + " " + inaccessible.Name + " --accessible"}
		return msg
	}

	var rerr *reflection.Error
	if !errors.As(err, &rerr) {
		return msg
	}
	msg.Title = strings.ToUpper(strings.ReplaceAll(rerr.Kind.String(), "_", " "))
	if rerr.Subject != "" {
		msg.Title += ": " + rerr.Subject
	}

	if c == nil {
		return msg
	}
	switch rerr.Kind {
	case reflection.KindUnknownClass:
		msg.Suggestions = ui.Suggest(rerr.Subject, classNames(c))
		msg.Hints = []string{"List classes: reflect catalog classes"}
	case reflection.KindUnknownCallable:
		msg.Suggestions = ui.Suggest(rerr.Subject, callableNames(c))
	case reflection.KindUnknownExtension:
		names := make([]string, len(c.Extensions))
		for i, ext := range c.Extensions {
			names[i] = ext.Name
		}
		msg.Suggestions = ui.Suggest(rerr.Subject, names)
	}
	return msg
}

func classNames(c *catalog.Catalog) []string {
	names := make([]string, len(c.Classes))
	for i, cls := range c.Classes {
		names[i] = cls.Name
	}
	return names
}

// callableNames lists functions and Class::method pairs.
func callableNames(c *catalog.Catalog) []string {
	var names []string
	for _, fn := range c.Functions {
		names = append(names, fn.Name)
	}
	for _, cls := range c.Classes {
		for _, m := range cls.Methods {
			names = append(names, cls.Name+"::"+m.Name)
		}
	}
	return names
}

// section starts a titled block after a blank line.
func section(w io.Writer, title string, noColor bool) {
	fmt.Fprintln(w)
	ui.Header(w, title, noColor)
}

// renderValues prints a name/value table under title, or nothing when
// values is empty.
func renderValues(w io.Writer, title string, values map[string]interface{}, noColor bool) {
	if len(values) == 0 {
		return
	}
	section(w, title, noColor)
	table := ui.NewTable(w, noColor, "Name", "Value")
	for _, k := range sortedKeys(values) {
		table.AddRow(k, formatValue(values[k]))
	}
	table.Render()
}
