package reflection

import (
	"context"
	"sort"
	"sync"
)

// RawRecord is an untyped metadata record as supplied by a MetadataProvider.
// A key that is absent means something different from a key present with a
// nil value; descriptors never mutate a RawRecord.
type RawRecord map[string]interface{}

// Has reports whether key is present, even with a nil value.
func (r RawRecord) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// IsSet reports whether key is present with a non-nil value.
func (r RawRecord) IsSet(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// UnresolvedDefault is the placeholder a provider stores under a parameter's
// "default" key when the runtime could not materialize the default value,
// for instance because it depends on a constant that is not yet defined.
type UnresolvedDefault struct {
	Reason string `json:"reason"`
}

// ClassHandle identifies a class known to the provider.
type ClassHandle struct {
	Name string `json:"name"`
}

// MethodHandle identifies a method as seen from a class. Class is the class
// that declares the method, which may be an ancestor of the class it was
// looked up on.
type MethodHandle struct {
	Class string `json:"class"`
	Name  string `json:"name"`
}

// Ref returns the callable reference for the method.
func (m MethodHandle) Ref() CallableRef {
	return MethodRef{Class: m.Class, Method: m.Name}
}

// MetadataProvider supplies raw metadata for callables, properties,
// extensions and classes. Implementations own their concurrency story;
// descriptors treat every error they return as an ordinary failure.
type MetadataProvider interface {
	// ResolveParameters returns the ordered parameter records of a callable.
	// It fails with KindUnknownCallable if ref cannot be resolved.
	ResolveParameters(ref CallableRef) ([]RawRecord, error)

	// ResolveProperty returns the record of a property visible on class, or
	// nil if there is none. It fails with KindUnknownClass for unknown classes.
	ResolveProperty(class ClassHandle, name string) (RawRecord, error)

	// ResolveExtension fails with KindUnknownExtension for unknown names.
	ResolveExtension(name string) (RawRecord, error)

	// ResolveClass fails with KindUnknownClass for unknown names.
	ResolveClass(name string) (ClassHandle, error)

	HasMethod(class ClassHandle, name string) bool
	GetMethod(class ClassHandle, name string) (MethodHandle, bool)
	ParentClass(class ClassHandle) (ClassHandle, bool)

	// ScalarTypeHintsEnabled reports whether scalar type hints are enforced
	// process-wide.
	ScalarTypeHintsEnabled() bool
}

// Instance is a composite runtime value that owns instance properties.
type Instance interface {
	ClassName() string
	Property(name string) (interface{}, bool)
	SetProperty(name string, value interface{})
}

// PropertyStore reads and writes property values on behalf of descriptors.
//
// For static properties, bypass disables visibility checks. For instance
// properties, scope is the class whose visibility applies; an empty scope
// means access from outside any class.
type PropertyStore interface {
	GetStaticProperty(ctx context.Context, class, name string, bypass bool) (interface{}, error)
	SetStaticProperty(ctx context.Context, class, name string, value interface{}, bypass bool) error
	GetInstanceProperty(ctx context.Context, obj Instance, scope, name string) (interface{}, error)
	SetInstanceProperty(ctx context.Context, obj Instance, scope, name string, value interface{}) error
}

// Object is a simple Instance backed by a field map. It is safe for
// concurrent use.
type Object struct {
	class  string
	mu     sync.RWMutex
	fields map[string]interface{}
}

// NewObject creates an object of class with the given initial fields.
func NewObject(class string, fields map[string]interface{}) *Object {
	o := &Object{class: class, fields: make(map[string]interface{}, len(fields))}
	for k, v := range fields {
		o.fields[k] = v
	}
	return o
}

func (o *Object) ClassName() string {
	return o.class
}

func (o *Object) Property(name string) (interface{}, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.fields[name]
	return v, ok
}

func (o *Object) SetProperty(name string, value interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fields[name] = value
}

// FieldNames returns the object's field names in sorted order.
func (o *Object) FieldNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.fields))
	for k := range o.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
