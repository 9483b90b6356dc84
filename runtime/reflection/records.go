package reflection

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// ParameterRecord is the validated form of a raw parameter record.
type ParameterRecord struct {
	Name        string
	Index       int
	Function    string
	Class       string
	Type        string // raw type annotation, e.g. "HH\int"
	TypeHint    string // raw type hint as written, e.g. "?HH\int"
	ByRef       bool
	Nullable    bool
	Optional    bool
	Variadic    bool
	Default     DefaultValue
	DefaultText string
	Attributes  map[string]interface{}
}

type parameterFields struct {
	Name        string                 `mapstructure:"name"`
	Index       int                    `mapstructure:"index"`
	Function    string                 `mapstructure:"function"`
	Class       string                 `mapstructure:"class"`
	Type        string                 `mapstructure:"type"`
	TypeHint    string                 `mapstructure:"type_hint"`
	DefaultText string                 `mapstructure:"defaultText"`
	Attributes  map[string]interface{} `mapstructure:"attributes"`
}

// ParseParameterRecord validates a raw parameter record.
func ParseParameterRecord(r RawRecord) (ParameterRecord, error) {
	var f parameterFields
	if err := decodeRecord(r, &f); err != nil {
		return ParameterRecord{}, &Error{Kind: KindMalformedRecord, Subject: "parameter", Reason: err.Error(), Err: err}
	}
	if f.Name == "" {
		return ParameterRecord{}, malformedRecord("parameter", "missing name")
	}
	if f.Index < 0 {
		return ParameterRecord{}, malformedRecord("parameter $"+f.Name, "negative index %d", f.Index)
	}

	rec := ParameterRecord{
		Name:        f.Name,
		Index:       f.Index,
		Function:    f.Function,
		Class:       f.Class,
		Type:        f.Type,
		TypeHint:    f.TypeHint,
		ByRef:       flagSet(r, "ref"),
		Nullable:    flagSet(r, "nullable"),
		Optional:    truthy(r, "is_optional"),
		Variadic:    truthy(r, "is_variadic"),
		Default:     defaultFromRecord(r),
		DefaultText: f.DefaultText,
		Attributes:  f.Attributes,
	}
	if rec.Attributes == nil {
		rec.Attributes = map[string]interface{}{}
	}
	if rec.Optional && !rec.Variadic && !r.Has("default") {
		return ParameterRecord{}, malformedRecord("parameter $"+f.Name, "optional parameter without default must be variadic")
	}
	return rec, nil
}

// ParseParameterList validates an ordered parameter list. Every record's
// index must equal its position in the list.
func ParseParameterList(raw []RawRecord) ([]ParameterRecord, error) {
	out := make([]ParameterRecord, len(raw))
	for i, r := range raw {
		rec, err := ParseParameterRecord(r)
		if err != nil {
			return nil, err
		}
		if rec.Index != i {
			return nil, malformedRecord("parameter $"+rec.Name, "index %d at position %d", rec.Index, i)
		}
		out[i] = rec
	}
	return out, nil
}

// Modifiers are the property modifier bit flags.
type Modifiers int

const (
	ModifierStatic    Modifiers = 1
	ModifierPublic    Modifiers = 256
	ModifierProtected Modifiers = 512
	ModifierPrivate   Modifiers = 1024

	visibilityMask = ModifierPublic | ModifierProtected | ModifierPrivate
)

// Visibility returns only the visibility bits.
func (m Modifiers) Visibility() Modifiers {
	return m & visibilityMask
}

// String returns the access keyword of the visibility bits.
func (m Modifiers) String() string {
	switch m.Visibility() {
	case ModifierPublic:
		return "public"
	case ModifierProtected:
		return "protected"
	case ModifierPrivate:
		return "private"
	}
	return fmt.Sprintf("modifiers(%d)", int(m))
}

var accessModifiers = map[string]Modifiers{
	"public":    ModifierPublic,
	"protected": ModifierProtected,
	"private":   ModifierPrivate,
}

// PropertyRecord is the validated form of a raw property record.
type PropertyRecord struct {
	Name       string
	Class      string
	Visibility Modifiers // exactly one of public, protected, private
	Static     bool
	Declared   bool // declared at compile time rather than created at runtime
	Modifiers  Modifiers
	Doc        string
	Type       string
}

type propertyFields struct {
	Name   string `mapstructure:"name"`
	Class  string `mapstructure:"class"`
	Access string `mapstructure:"access"`
	Doc    string `mapstructure:"doc"`
	Type   string `mapstructure:"type"`
}

// ParsePropertyRecord validates a raw property record. The visibility comes
// from "access" or, failing that, from the "modifiers" bits; when both are
// present they must agree.
func ParsePropertyRecord(r RawRecord) (PropertyRecord, error) {
	var f propertyFields
	if err := decodeRecord(r, &f); err != nil {
		return PropertyRecord{}, &Error{Kind: KindMalformedRecord, Subject: "property", Reason: err.Error(), Err: err}
	}
	if f.Name == "" {
		return PropertyRecord{}, malformedRecord("property", "missing name")
	}
	subject := "property $" + f.Name

	rec := PropertyRecord{
		Name:     f.Name,
		Class:    f.Class,
		Static:   flagSet(r, "static"),
		Declared: truthy(r, "default"),
		Doc:      f.Doc,
		Type:     f.Type,
	}

	if f.Access != "" {
		vis, ok := accessModifiers[f.Access]
		if !ok {
			return PropertyRecord{}, malformedRecord(subject, "unknown access %q", f.Access)
		}
		rec.Visibility = vis
	}

	if r.IsSet("modifiers") {
		m, err := cast.ToIntE(r["modifiers"])
		if err != nil {
			return PropertyRecord{}, malformedRecord(subject, "modifiers: %v", err)
		}
		mods := Modifiers(m)
		vis := mods.Visibility()
		if vis != ModifierPublic && vis != ModifierProtected && vis != ModifierPrivate {
			return PropertyRecord{}, malformedRecord(subject, "modifiers %d must carry exactly one visibility", m)
		}
		if rec.Visibility != 0 && rec.Visibility != vis {
			return PropertyRecord{}, malformedRecord(subject, "modifiers %d disagree with access %q", m, f.Access)
		}
		if !r.Has("static") {
			rec.Static = mods&ModifierStatic != 0
		} else if rec.Static != (mods&ModifierStatic != 0) {
			return PropertyRecord{}, malformedRecord(subject, "modifiers %d disagree with static flag", m)
		}
		rec.Visibility = vis
		rec.Modifiers = mods
	}

	if rec.Visibility == 0 {
		return PropertyRecord{}, malformedRecord(subject, "missing access")
	}
	if rec.Modifiers == 0 {
		rec.Modifiers = rec.Visibility
		if rec.Static {
			rec.Modifiers |= ModifierStatic
		}
	}
	return rec, nil
}

// Function is a function entry of an extension.
type Function struct {
	Name       string
	ReturnType string
	Parameters []ParameterRecord
}

type functionFields struct {
	Name       string        `mapstructure:"name"`
	ReturnType string        `mapstructure:"return_type"`
	Params     []interface{} `mapstructure:"params"`
}

// ExtensionRecord is the validated form of a raw extension record.
type ExtensionRecord struct {
	Name       string
	Version    string
	Functions  map[string]Function
	Constants  map[string]interface{}
	INIEntries map[string]interface{}
	Classes    []string // in declaration order
	Info       string
}

type extensionFields struct {
	Name      string                 `mapstructure:"name"`
	Version   string                 `mapstructure:"version"`
	Constants map[string]interface{} `mapstructure:"constants"`
	INI       map[string]interface{} `mapstructure:"ini"`
	Info      string                 `mapstructure:"info"`
}

// ParseExtensionRecord validates a raw extension record.
func ParseExtensionRecord(r RawRecord) (ExtensionRecord, error) {
	var f extensionFields
	if err := decodeRecord(r, &f); err != nil {
		return ExtensionRecord{}, &Error{Kind: KindMalformedRecord, Subject: "extension", Reason: err.Error(), Err: err}
	}
	if f.Name == "" {
		return ExtensionRecord{}, malformedRecord("extension", "missing name")
	}
	subject := "extension " + f.Name

	rec := ExtensionRecord{
		Name:       f.Name,
		Version:    f.Version,
		Functions:  map[string]Function{},
		Constants:  f.Constants,
		INIEntries: f.INI,
		Info:       f.Info,
	}
	if rec.Constants == nil {
		rec.Constants = map[string]interface{}{}
	}
	if rec.INIEntries == nil {
		rec.INIEntries = map[string]interface{}{}
	}

	if r.IsSet("functions") {
		fns, err := toStringMap(r["functions"])
		if err != nil {
			return ExtensionRecord{}, malformedRecord(subject, "functions: %v", err)
		}
		for name, v := range fns {
			fn, err := parseFunction(name, v)
			if err != nil {
				return ExtensionRecord{}, err
			}
			rec.Functions[name] = fn
		}
	}

	if r.IsSet("classes") {
		items, err := cast.ToSliceE(r["classes"])
		if err != nil {
			return ExtensionRecord{}, malformedRecord(subject, "classes: %v", err)
		}
		for _, item := range items {
			name, err := className(item)
			if err != nil {
				return ExtensionRecord{}, malformedRecord(subject, "classes: %v", err)
			}
			rec.Classes = append(rec.Classes, name)
		}
	}
	return rec, nil
}

func parseFunction(name string, v interface{}) (Function, error) {
	fn := Function{Name: name}
	m, err := toStringMap(v)
	if err != nil {
		// A bare entry such as `strlen: true` names the function only.
		return fn, nil
	}
	var f functionFields
	if err := decodeRecord(RawRecord(m), &f); err != nil {
		return Function{}, &Error{Kind: KindMalformedRecord, Subject: "function " + name, Reason: err.Error(), Err: err}
	}
	if f.Name != "" {
		fn.Name = f.Name
	}
	fn.ReturnType = f.ReturnType

	raw := make([]RawRecord, 0, len(f.Params))
	for _, p := range f.Params {
		pm, err := toStringMap(p)
		if err != nil {
			return Function{}, malformedRecord("function "+name, "params: %v", err)
		}
		raw = append(raw, RawRecord(pm))
	}
	params, err := ParseParameterList(raw)
	if err != nil {
		return Function{}, err
	}
	fn.Parameters = params
	return fn, nil
}

func toStringMap(v interface{}) (map[string]interface{}, error) {
	if r, ok := v.(RawRecord); ok {
		return map[string]interface{}(r), nil
	}
	return cast.ToStringMapE(v)
}

func className(v interface{}) (string, error) {
	switch c := v.(type) {
	case string:
		return c, nil
	case ClassHandle:
		return c.Name, nil
	}
	m, err := toStringMap(v)
	if err != nil {
		return "", err
	}
	return cast.ToStringE(m["name"])
}

func decodeRecord(r RawRecord, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]interface{}(r))
}

// flagSet reports a presence flag: the key is set and, if it holds a
// boolean, that boolean is true.
func flagSet(r RawRecord, key string) bool {
	if !r.IsSet(key) {
		return false
	}
	if b, ok := r[key].(bool); ok {
		return b
	}
	return true
}

// truthy reports whether the key holds a non-empty value.
func truthy(r RawRecord, key string) bool {
	v, ok := r[key]
	if !ok || v == nil || v == "" {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return true
	}
	return b
}
