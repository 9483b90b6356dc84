package reflection

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// nonClassTypehints are annotations that never name a class when scalar
// type hints are enforced: every runtime primitive plus the pseudo-types.
var nonClassTypehints = func() map[string]bool {
	m := map[string]bool{
		"array":    true,
		"callable": true,
		"mixed":    true,
	}
	for _, name := range hhPrimitives {
		m[`hh\`+name] = true
	}
	return m
}()

// Parameter describes one parameter of a function, method or closure.
//
// A Parameter is resolved from the owning callable's full parameter list at
// construction and is immutable afterwards. It must not be copied.
type Parameter struct {
	noCopy noCopy

	provider MetadataProvider
	opts     options
	callable CallableRef
	rec      ParameterRecord
}

// NewParameter resolves the parameter of callable selected by selector.
//
// callable is anything ParseCallable accepts. selector is a parameter name
// (string) or a zero-based position (int). An unmatched name or an
// out-of-range position fails with KindParameterNotFound.
func NewParameter(provider MetadataProvider, callable interface{}, selector interface{}, opts ...Option) (*Parameter, error) {
	ref, err := ParseCallable(callable)
	if err != nil {
		return nil, err
	}
	raw, err := provider.ResolveParameters(ref)
	if err != nil {
		return nil, fmt.Errorf("resolve parameters of %s: %w", ref, err)
	}
	params, err := ParseParameterList(raw)
	if err != nil {
		return nil, fmt.Errorf("resolve parameters of %s: %w", ref, err)
	}
	rec, err := selectParameter(params, selector)
	if err != nil {
		return nil, err
	}
	return &Parameter{
		provider: provider,
		opts:     buildOptions(opts),
		callable: ref,
		rec:      rec,
	}, nil
}

func selectParameter(params []ParameterRecord, selector interface{}) (ParameterRecord, error) {
	index := -1
	switch s := selector.(type) {
	case string:
		for _, p := range params {
			if p.Name == s {
				return p, nil
			}
		}
		return ParameterRecord{}, &Error{Kind: KindParameterNotFound, Subject: s}
	case int:
		index = s
	case int32:
		index = int(s)
	case int64:
		index = int(s)
	case uint:
		index = int(s)
	}
	if index >= 0 && index < len(params) {
		return params[index], nil
	}
	return ParameterRecord{}, &Error{Kind: KindParameterNotFound, Subject: fmt.Sprintf("%v", selector)}
}

// Name returns the parameter name without the leading "$".
func (p *Parameter) Name() string {
	return p.rec.Name
}

// Position returns the zero-based position in the parameter list.
func (p *Parameter) Position() int {
	return p.rec.Index
}

func (p *Parameter) IsByReference() bool {
	return p.rec.ByRef
}

func (p *Parameter) CanBePassedByValue() bool {
	return !p.rec.ByRef
}

func (p *Parameter) IsOptional() bool {
	return p.rec.Optional
}

func (p *Parameter) IsVariadic() bool {
	return p.rec.Variadic
}

// AllowsNull reports whether the type accepts null.
func (p *Parameter) AllowsNull() bool {
	return p.rec.Nullable
}

// IsArray reports whether the type annotation is "array".
func (p *Parameter) IsArray() bool {
	return strings.EqualFold(p.rec.Type, "array")
}

// IsCallable reports whether the type hint is "callable".
func (p *Parameter) IsCallable() bool {
	return p.TypeHintText() == "callable"
}

// TypeAnnotationText returns the normalized type annotation, or "".
func (p *Parameter) TypeAnnotationText() string {
	return NormalizeTypeName(p.rec.Type)
}

// TypeHintText returns the normalized type hint as written, including any
// nullability marker, or "".
func (p *Parameter) TypeHintText() string {
	return NormalizeTypeName(p.rec.TypeHint)
}

// IsDefaultValueAvailable reports whether DefaultValue would succeed.
func (p *Parameter) IsDefaultValueAvailable() bool {
	return p.rec.Default.State() == DefaultAvailable
}

// DefaultValue returns the default value. It fails with
// KindDefaultNotOptional when there is none and with
// KindDefaultUnresolvable when the runtime could not produce it.
func (p *Parameter) DefaultValue() (interface{}, error) {
	return p.rec.Default.Value("$" + p.rec.Name)
}

// DefaultValueState returns the full three-way default state.
func (p *Parameter) DefaultValueState() DefaultValue {
	return p.rec.Default
}

// DefaultValueText returns the source text of the default, such as a
// constant name, or "".
func (p *Parameter) DefaultValueText() string {
	return p.rec.DefaultText
}

// ClassType returns the class named by the type annotation, or nil if the
// annotation is empty or names a non-class type. Which annotations count as
// non-class depends on whether scalar type hints are enforced.
func (p *Parameter) ClassType() (*ClassHandle, error) {
	if p.rec.Type == "" {
		return nil, nil
	}
	ltype := strings.ToLower(p.rec.Type)
	if p.provider.ScalarTypeHintsEnabled() {
		if nonClassTypehints[ltype] {
			return nil, nil
		}
	} else if ltype == "array" {
		return nil, nil
	}
	class, err := p.provider.ResolveClass(p.rec.Type)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// DeclaringClass returns the class declaring the owning method, or nil for
// free functions and closures.
func (p *Parameter) DeclaringClass() (*ClassHandle, error) {
	if p.rec.Class == "" {
		return nil, nil
	}
	class, err := p.provider.ResolveClass(p.rec.Class)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

// DeclaringFunction returns a reference to the owning callable.
func (p *Parameter) DeclaringFunction() CallableRef {
	if p.rec.Function == "" {
		return p.callable
	}
	if p.rec.Class == "" {
		if _, ok := p.callable.(Closure); ok {
			return p.callable
		}
		return FunctionRef{Name: p.rec.Function}
	}
	return MethodRef{Class: p.rec.Class, Method: p.rec.Function}
}

// Attribute returns the named attribute declared on this parameter.
func (p *Parameter) Attribute(name string) (interface{}, bool) {
	v, ok := p.rec.Attributes[name]
	if !ok {
		return nil, false
	}
	return NormalizeValue(v), true
}

// Attributes returns a copy of the attributes declared on this parameter.
func (p *Parameter) Attributes() map[string]interface{} {
	return normalizeAttributes(p.rec.Attributes)
}

// AttributesRecursive merges the attributes of this parameter with those of
// the same-positioned parameter on every ancestor's declaration of the
// method. The most-derived declaration of a key wins.
func (p *Parameter) AttributesRecursive() map[string]interface{} {
	if p.rec.Class == "" {
		return p.Attributes()
	}
	class, err := p.provider.ResolveClass(p.rec.Class)
	if err != nil {
		p.opts.logger.Debug("declaring class vanished, using own attributes",
			zap.String("class", p.rec.Class),
			zap.Error(err),
		)
		return p.Attributes()
	}
	resolver := &AttributeResolver{provider: p.provider, logger: p.opts.logger, maxDepth: p.opts.maxDepth}
	return resolver.Resolve(class, p.rec.Function, p.rec.Index)
}

// AttributeRecursive looks up name in AttributesRecursive.
func (p *Parameter) AttributeRecursive(name string) (interface{}, bool) {
	v, ok := p.AttributesRecursive()[name]
	return v, ok
}

// Clone always fails: a descriptor's identity is tied to one resolution.
func (p *Parameter) Clone() (*Parameter, error) {
	return nil, notCloneable("Parameter")
}

// Record returns a copy of the validated record.
func (p *Parameter) Record() ParameterRecord {
	rec := p.rec
	rec.Attributes = make(map[string]interface{}, len(p.rec.Attributes))
	for k, v := range p.rec.Attributes {
		rec.Attributes[k] = v
	}
	return rec
}
