package reflection

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// CallableRef identifies a function, method or closure whose parameters can
// be resolved by a MetadataProvider.
type CallableRef interface {
	fmt.Stringer
	callableRef()
}

// FunctionRef names a free function.
type FunctionRef struct {
	Name string
}

func (FunctionRef) callableRef() {}

func (f FunctionRef) String() string { return f.Name }

// MethodRef names a method by class and method name.
type MethodRef struct {
	Class  string
	Method string
}

func (MethodRef) callableRef() {}

func (m MethodRef) String() string { return m.Class + "::" + m.Method }

// Closure is an opaque handle to an anonymous function.
type Closure struct {
	ID uuid.UUID
}

func (Closure) callableRef() {}

func (c Closure) String() string { return "Closure#" + c.ID.String() }

// ParseCallable converts a loosely typed callable reference into a
// CallableRef. Accepted forms are a CallableRef, a function name, a
// "Class::method" string, and a two-element [class, method] pair where the
// class may be given as a name or an Instance. Anything else fails with
// KindInvalidCallableKind.
func ParseCallable(v interface{}) (CallableRef, error) {
	switch c := v.(type) {
	case CallableRef:
		return c, nil
	case string:
		if i := strings.Index(c, "::"); i >= 0 {
			return MethodRef{Class: c[:i], Method: c[i+2:]}, nil
		}
		return FunctionRef{Name: c}, nil
	case [2]string:
		return MethodRef{Class: c[0], Method: c[1]}, nil
	case []string:
		if len(c) == 2 {
			return MethodRef{Class: c[0], Method: c[1]}, nil
		}
	case []interface{}:
		if len(c) == 2 {
			method, ok := c[1].(string)
			if !ok {
				break
			}
			switch class := c[0].(type) {
			case string:
				return MethodRef{Class: class, Method: method}, nil
			case Instance:
				return MethodRef{Class: class.ClassName(), Method: method}, nil
			}
		}
	}
	return nil, &Error{Kind: KindInvalidCallableKind, Subject: valueKind(v)}
}

// valueKind names the runtime kind of v the way diagnostics report it.
func valueKind(v interface{}) string {
	if isNil(v) {
		return "null"
	}
	if _, ok := v.(Instance); ok {
		return "object"
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "double"
	case reflect.String:
		return "string"
	case reflect.Slice, reflect.Array, reflect.Map:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// isNil reports whether v is nil or a typed nil pointer, map, slice,
// channel, function or interface.
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isNilInstance reports whether obj cannot be dereferenced, such as a nil
// *Object stored in an Instance.
func isNilInstance(obj Instance) bool {
	return isNil(obj)
}
