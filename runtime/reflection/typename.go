package reflection

import "regexp"

// hhPrimitives are the runtime-internal spellings of primitive type names,
// in the order they are stripped.
var hhPrimitives = []string{"bool", "int", "float", "string", "num", "resource", "void", "this"}

var hhPrefixPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(hhPrimitives))
	for i, name := range hhPrimitives {
		patterns[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(`HH\`+name))
	}
	return patterns
}()

// NormalizeTypeName strips the runtime namespace prefix from primitive type
// names wherever they occur in text, case-insensitively: "?HH\int" becomes
// "?int" and "Map<HH\string, Foo>" becomes "Map<string, Foo>". Each
// primitive is replaced in turn, so replacements apply in a fixed order.
func NormalizeTypeName(text string) string {
	for i, re := range hhPrefixPatterns {
		text = re.ReplaceAllLiteralString(text, hhPrimitives[i])
	}
	return text
}

// NormalizeValue applies NormalizeTypeName to string values and returns any
// other value unchanged.
func NormalizeValue(v interface{}) interface{} {
	if s, ok := v.(string); ok {
		return NormalizeTypeName(s)
	}
	return v
}

// normalizeAttributes returns a copy of attrs with every string value
// normalized, since attribute values are frequently type names.
func normalizeAttributes(attrs map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = NormalizeValue(v)
	}
	return out
}
