package reflection

import (
	"context"
	"errors"
	"strconv"
)

// ErrNoPropertyStore is returned by value access on a Property that was
// constructed without WithStore.
var ErrNoPropertyStore = errors.New("reflection: no property store configured")

const (
	getValueContext = "Property::getValue()"
	setValueContext = "Property::setValue()"
)

// Property describes one property of a class.
//
// Everything except the accessibility override is immutable after
// construction. The override belongs to this descriptor alone: other
// descriptors of the same property keep their own. A Property must not be
// copied.
type Property struct {
	noCopy noCopy

	provider   MetadataProvider
	opts       options
	rec        PropertyRecord
	accessible bool
}

// NewProperty resolves property name on class. class may be a class name,
// a ClassHandle or an Instance. A nil class or name fails with
// KindNullParameters; a class without such a property fails with
// KindPropertyNotFound.
func NewProperty(provider MetadataProvider, class interface{}, name interface{}, opts ...Option) (*Property, error) {
	if class == nil || name == nil {
		return nil, &Error{Kind: KindNullParameters}
	}
	propName, ok := name.(string)
	if !ok {
		return nil, malformedArgument("Property::__construct()", "parameter 2 to be string", valueKind(name))
	}

	var className string
	switch c := class.(type) {
	case string:
		className = c
	case ClassHandle:
		className = c.Name
	case *ClassHandle:
		if c == nil {
			return nil, &Error{Kind: KindNullParameters}
		}
		className = c.Name
	case Instance:
		className = c.ClassName()
	default:
		return nil, malformedArgument("Property::__construct()", "parameter 1 to be class name or object", valueKind(class))
	}

	handle, err := provider.ResolveClass(className)
	if err != nil {
		return nil, err
	}
	raw, err := provider.ResolveProperty(handle, propName)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, &Error{Kind: KindPropertyNotFound, Subject: handle.Name + "::$" + propName}
	}
	rec, err := ParsePropertyRecord(raw)
	if err != nil {
		return nil, err
	}
	if rec.Class == "" {
		rec.Class = handle.Name
	}
	return &Property{
		provider: provider,
		opts:     buildOptions(opts),
		rec:      rec,
	}, nil
}

func (p *Property) Name() string {
	return p.rec.Name
}

func (p *Property) IsPublic() bool {
	return p.rec.Visibility == ModifierPublic
}

func (p *Property) IsProtected() bool {
	return p.rec.Visibility == ModifierProtected
}

func (p *Property) IsPrivate() bool {
	return p.rec.Visibility == ModifierPrivate
}

func (p *Property) IsStatic() bool {
	return p.rec.Static
}

// IsDefault reports whether the property was declared at compile time
// rather than created at runtime.
func (p *Property) IsDefault() bool {
	return p.rec.Declared
}

// Modifiers returns the raw modifier bit flags.
func (p *Property) Modifiers() Modifiers {
	return p.rec.Modifiers
}

// DeclaringClass returns the declaring class, or nil if none is recorded.
func (p *Property) DeclaringClass() (*ClassHandle, error) {
	if p.rec.Class == "" {
		return nil, nil
	}
	class, err := p.provider.ResolveClass(p.rec.Class)
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (p *Property) DocComment() string {
	return p.rec.Doc
}

// TypeText returns the normalized type text, or "".
func (p *Property) TypeText() string {
	return NormalizeTypeName(p.rec.Type)
}

// SetAccessible sets this descriptor's accessibility override. When set,
// value access bypasses visibility checks.
func (p *Property) SetAccessible(accessible bool) {
	p.accessible = accessible
}

// IsAccessible returns the accessibility override.
func (p *Property) IsAccessible() bool {
	return p.accessible
}

// GetValue reads the property value.
//
// For a static property the arguments are ignored. For an instance property
// exactly one Instance argument is required; anything else is reported as a
// recoverable diagnostic and yields a Result with a nil Value. Store
// failures are returned as errors.
func (p *Property) GetValue(ctx context.Context, args ...interface{}) (Result, error) {
	store := p.opts.store
	if store == nil {
		return Result{}, ErrNoPropertyStore
	}
	if p.rec.Static {
		v, err := store.GetStaticProperty(ctx, p.rec.Class, p.rec.Name, p.accessible)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: v}, nil
	}

	if len(args) != 1 {
		return p.report(malformedArgument(getValueContext, "exactly 1 parameter", strconv.Itoa(len(args)))), nil
	}
	obj, ok := args[0].(Instance)
	if !ok || isNilInstance(obj) {
		return p.report(malformedArgument(getValueContext, "parameter 1 to be object", valueKind(args[0]))), nil
	}
	v, err := store.GetInstanceProperty(ctx, obj, p.scope(), p.rec.Name)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: v}, nil
}

// SetValue writes the property value.
//
// With a single argument that argument is the value. A static property
// accepts (value) or (ignored, value). An instance property requires
// exactly (instance, value); anything else is reported as a recoverable
// diagnostic and nothing is written.
func (p *Property) SetValue(ctx context.Context, args ...interface{}) (Result, error) {
	store := p.opts.store
	if store == nil {
		return Result{}, ErrNoPropertyStore
	}

	var obj, value interface{}
	switch {
	case len(args) == 1:
		value = args[0]
	case len(args) >= 2:
		obj, value = args[0], args[1]
	}

	if p.rec.Static {
		if err := store.SetStaticProperty(ctx, p.rec.Class, p.rec.Name, value, p.accessible); err != nil {
			return Result{}, err
		}
		return Result{}, nil
	}

	if len(args) != 2 {
		return p.report(malformedArgument(setValueContext, "exactly 2 parameters", strconv.Itoa(len(args)))), nil
	}
	inst, ok := obj.(Instance)
	if !ok || isNilInstance(inst) {
		return p.report(malformedArgument(setValueContext, "parameter 1 to be object", valueKind(obj))), nil
	}
	if err := store.SetInstanceProperty(ctx, inst, p.scope(), p.rec.Name, value); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

// scope is the visibility context forwarded for instance access.
func (p *Property) scope() string {
	if p.accessible {
		return p.rec.Class
	}
	return ""
}

func (p *Property) report(diag *Error) Result {
	p.opts.sink.Report(diag)
	return Result{Diagnostic: diag}
}

// Clone always fails: a descriptor's identity is tied to one resolution.
func (p *Property) Clone() (*Property, error) {
	return nil, notCloneable("Property")
}

// Record returns a copy of the validated record.
func (p *Property) Record() PropertyRecord {
	return p.rec
}
