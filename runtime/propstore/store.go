// Package propstore implements reflection.PropertyStore backends.
//
// Both stores enforce property visibility. Public properties are always
// accessible. A non-public static property is accessible only when the
// caller bypasses visibility; a non-public instance property only when the
// access scope is the declaring class. Properties are made known to a store
// through catalog.Catalog.Seed or Declare.
package propstore

import (
	"fmt"
	"strings"
	"sync"

	"github.com/conduit-lang/introspect/runtime/reflection"
	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

// ErrInaccessible is returned when visibility forbids an access.
type ErrInaccessible struct {
	Class      string
	Name       string
	Visibility reflection.Modifiers
}

func (e ErrInaccessible) Error() string {
	return fmt.Sprintf("cannot access %s property %s::$%s", e.Visibility, e.Class, e.Name)
}

// IsInaccessible checks if an error is a visibility failure.
func IsInaccessible(err error) bool {
	_, ok := err.(ErrInaccessible)
	return ok
}

// ErrUndeclared is returned for static properties the store does not know.
type ErrUndeclared struct {
	Class string
	Name  string
}

func (e ErrUndeclared) Error() string {
	return fmt.Sprintf("class %s does not have a static property named %s", e.Class, e.Name)
}

// IsUndeclared checks if an error is an unknown static property.
func IsUndeclared(err error) bool {
	_, ok := err.(ErrUndeclared)
	return ok
}

// declKey folds a class and property name into a lookup key. Class names
// are case-insensitive, property names are not.
func declKey(class, name string) string {
	return strings.ToLower(strings.TrimPrefix(class, `\`)) + "::" + name
}

func sameClass(a, b string) bool {
	return strings.EqualFold(strings.TrimPrefix(a, `\`), strings.TrimPrefix(b, `\`))
}

// instanceDecls tracks instance property declarations in-process.
type instanceDecls struct {
	mu    sync.RWMutex
	decls map[string]catalog.Declaration
}

func newInstanceDecls() *instanceDecls {
	return &instanceDecls{decls: make(map[string]catalog.Declaration)}
}

func (d *instanceDecls) declare(decl catalog.Declaration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decls[declKey(decl.Class, decl.Name)] = decl
}

// check returns an error if scope may not access name on an object of class.
// Undeclared properties are dynamic and therefore public.
func (d *instanceDecls) check(class, scope, name string) error {
	d.mu.RLock()
	decl, ok := d.decls[declKey(class, name)]
	d.mu.RUnlock()
	if !ok || decl.Visibility == reflection.ModifierPublic {
		return nil
	}
	if scope != "" && sameClass(scope, decl.DeclaringClass) {
		return nil
	}
	return ErrInaccessible{Class: decl.DeclaringClass, Name: name, Visibility: decl.Visibility}
}

func checkStatic(decl catalog.Declaration, bypass bool) error {
	if bypass || decl.Visibility == reflection.ModifierPublic {
		return nil
	}
	return ErrInaccessible{Class: decl.DeclaringClass, Name: decl.Name, Visibility: decl.Visibility}
}
