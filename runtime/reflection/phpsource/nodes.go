package phpsource

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// children returns the direct children of node.
func children(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.ChildCount())
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// namedChildren returns the direct named children of node, skipping
// comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, child := range children(node) {
		if child.IsNamed() && child.Kind() != "comment" {
			out = append(out, child)
		}
	}
	return out
}

// findChild finds the first child node with one of the given kinds.
func findChild(node *sitter.Node, kinds ...string) *sitter.Node {
	for _, child := range children(node) {
		for _, k := range kinds {
			if child.Kind() == k {
				return child
			}
		}
	}
	return nil
}

// docComment returns the "/** */" comment directly preceding node, or "".
func docComment(node *sitter.Node, source []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Kind() != "comment" {
		return ""
	}
	text := nodeText(prev, source)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}

// runtimeScalars are the primitive types the runtime stores with an "HH\"
// prefix.
var runtimeScalars = map[string]bool{
	"bool":   true,
	"int":    true,
	"float":  true,
	"string": true,
	"void":   true,
}

// typeText renders a type node the way the runtime records it. annotation
// is the bare type, hint keeps the nullable marker.
func typeText(node *sitter.Node, source []byte) (annotation, hint string, nullable bool) {
	if node == nil {
		return "", "", false
	}
	switch node.Kind() {
	case "optional_type":
		inner := namedChildren(node)
		if len(inner) == 0 {
			return "", "", false
		}
		a, _, _ := typeText(inner[0], source)
		return a, "?" + a, true
	case "primitive_type":
		t := strings.ToLower(nodeText(node, source))
		if runtimeScalars[t] {
			t = `HH\` + t
		}
		return t, t, t == "null"
	case "union_type", "intersection_type", "disjunctive_normal_form_type":
		sep := "|"
		if node.Kind() == "intersection_type" {
			sep = "&"
		}
		var parts []string
		for _, child := range namedChildren(node) {
			a, _, n := typeText(child, source)
			parts = append(parts, a)
			nullable = nullable || n
		}
		t := strings.Join(parts, sep)
		return t, t, nullable
	case "named_type":
		t := nodeText(node, source)
		return t, t, false
	}
	t := nodeText(node, source)
	return t, t, false
}

// literal evaluates a constant expression. ok is false for anything that
// needs the runtime to evaluate.
func literal(node *sitter.Node, source []byte) (value interface{}, ok bool) {
	if node == nil {
		return nil, false
	}
	text := nodeText(node, source)

	switch node.Kind() {
	case "integer":
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, false
		}
		return int(n), true
	case "float":
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	case "boolean":
		return strings.EqualFold(text, "true"), true
	case "null":
		return nil, true
	case "name":
		switch strings.ToLower(text) {
		case "true":
			return true, true
		case "false":
			return false, true
		case "null":
			return nil, true
		}
		return nil, false
	case "string":
		return singleQuoted(text), true
	case "encapsed_string":
		for _, child := range namedChildren(node) {
			if child.Kind() != "string_content" && child.Kind() != "string_value" && child.Kind() != "escape_sequence" {
				return nil, false
			}
		}
		return doubleQuoted(text), true
	case "unary_op_expression":
		operand := namedChildren(node)
		if len(operand) != 1 {
			return nil, false
		}
		v, ok := literal(operand[0], source)
		if !ok {
			return nil, false
		}
		negate := strings.HasPrefix(strings.TrimSpace(text), "-")
		switch n := v.(type) {
		case int:
			if negate {
				return -n, true
			}
			return n, true
		case float64:
			if negate {
				return -n, true
			}
			return n, true
		}
		return nil, false
	case "parenthesized_expression":
		inner := namedChildren(node)
		if len(inner) != 1 {
			return nil, false
		}
		return literal(inner[0], source)
	case "array_creation_expression":
		return arrayLiteral(node, source)
	}
	return nil, false
}

// arrayLiteral evaluates an array expression into a list, or into a map
// when any element has a key.
func arrayLiteral(node *sitter.Node, source []byte) (interface{}, bool) {
	var (
		list  []interface{}
		keyed map[string]interface{}
	)
	for _, el := range namedChildren(node) {
		if el.Kind() != "array_element_initializer" {
			continue
		}
		parts := namedChildren(el)
		switch len(parts) {
		case 1:
			v, ok := literal(parts[0], source)
			if !ok {
				return nil, false
			}
			list = append(list, v)
		case 2:
			k, ok := literal(parts[0], source)
			if !ok {
				return nil, false
			}
			v, ok := literal(parts[1], source)
			if !ok {
				return nil, false
			}
			if keyed == nil {
				keyed = map[string]interface{}{}
			}
			keyed[toKey(k)] = v
		default:
			return nil, false
		}
	}
	if keyed != nil {
		for i, v := range list {
			keyed[strconv.Itoa(i)] = v
		}
		return keyed, true
	}
	if list == nil {
		list = []interface{}{}
	}
	return list, true
}

func toKey(k interface{}) string {
	switch v := k.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(k)
}

func singleQuoted(text string) string {
	text = strings.TrimLeft(text, "bB")
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	return strings.NewReplacer(`\\`, `\`, `\'`, `'`).Replace(text)
}

var doubleQuoteEscapes = strings.NewReplacer(
	`\\`, `\`,
	`\"`, `"`,
	`\$`, `$`,
	`\n`, "\n",
	`\t`, "\t",
	`\r`, "\r",
	`\v`, "\v",
	`\f`, "\f",
	`\e`, "\x1b",
	`\0`, "\x00",
)

func doubleQuoted(text string) string {
	text = strings.TrimLeft(text, "bB")
	if len(text) >= 2 {
		text = text[1 : len(text)-1]
	}
	return doubleQuoteEscapes.Replace(text)
}
