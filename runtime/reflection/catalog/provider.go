package catalog

import (
	"fmt"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/conduit-lang/introspect/runtime/reflection"
)

// Provider is an in-memory reflection.MetadataProvider over a validated
// catalog. It is read-only after construction and safe for concurrent use.
type Provider struct {
	catalog     *Catalog
	hierarchy   graph.Graph[string, string]
	classes     map[string]*Class
	functions   map[string]*Function
	closures    map[uuid.UUID]*Closure
	extensions  map[string]*Extension
	scalarHints bool
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithScalarTypeHints overrides the catalog's scalar type hint setting.
func WithScalarTypeHints(enabled bool) ProviderOption {
	return func(p *Provider) {
		p.scalarHints = enabled
	}
}

// NewProvider validates c and indexes it.
func NewProvider(c *Catalog, opts ...ProviderOption) (*Provider, error) {
	g, err := c.hierarchy()
	if err != nil {
		return nil, err
	}
	p := &Provider{
		catalog:     c,
		hierarchy:   g,
		classes:     make(map[string]*Class, len(c.Classes)),
		functions:   make(map[string]*Function, len(c.Functions)),
		closures:    make(map[uuid.UUID]*Closure, len(c.Closures)),
		extensions:  make(map[string]*Extension, len(c.Extensions)),
		scalarHints: c.ScalarTypeHints,
	}
	for i := range c.Classes {
		p.classes[key(c.Classes[i].Name)] = &c.Classes[i]
	}
	for i := range c.Functions {
		p.functions[key(c.Functions[i].Name)] = &c.Functions[i]
	}
	for i := range c.Closures {
		id := uuid.MustParse(c.Closures[i].ID)
		p.closures[id] = &c.Closures[i]
	}
	for i := range c.Extensions {
		p.extensions[key(c.Extensions[i].Name)] = &c.Extensions[i]
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Catalog returns the underlying catalog.
func (p *Provider) Catalog() *Catalog {
	return p.catalog
}

// ClassNames returns every class name with parents before children. The
// order is deterministic for a given catalog.
func (p *Provider) ClassNames() ([]string, error) {
	order, err := graph.StableTopologicalSort(p.hierarchy, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, err
	}
	// Edges point from child to parent, so the sort lists children first.
	names := make([]string, len(order))
	for i, k := range order {
		names[len(order)-1-i] = p.classes[k].Name
	}
	return names, nil
}

func (p *Provider) ResolveParameters(ref reflection.CallableRef) ([]reflection.RawRecord, error) {
	switch r := ref.(type) {
	case reflection.FunctionRef:
		if fn, ok := p.functions[key(r.Name)]; ok {
			return completeParams(fn.Params, fn.Name, ""), nil
		}
	case reflection.MethodRef:
		if cls, ok := p.classes[key(r.Class)]; ok {
			if owner, m := p.findMethod(cls, r.Method); m != nil {
				return completeParams(m.Params, m.Name, owner.Name), nil
			}
		}
	case reflection.Closure:
		if cl, ok := p.closures[r.ID]; ok {
			name := cl.Name
			if name == "" {
				name = "{closure}"
			}
			return completeParams(cl.Params, name, ""), nil
		}
	}
	return nil, &reflection.Error{Kind: reflection.KindUnknownCallable, Subject: ref.String()}
}

func (p *Provider) ResolveProperty(class reflection.ClassHandle, name string) (reflection.RawRecord, error) {
	start, ok := p.classes[key(class.Name)]
	if !ok {
		return nil, &reflection.Error{Kind: reflection.KindUnknownClass, Subject: class.Name}
	}
	cls := start
	for depth := 0; cls != nil && depth < reflection.DefaultMaxHierarchyDepth; depth++ {
		for _, prop := range cls.Properties {
			if prop["name"] != name {
				continue
			}
			// Private properties are not visible through subclasses.
			if cls != start && isPrivate(prop) {
				continue
			}
			return completeProperty(prop, cls.Name), nil
		}
		cls = p.parentOf(cls)
	}
	return nil, nil
}

func (p *Provider) ResolveExtension(name string) (reflection.RawRecord, error) {
	ext, ok := p.extensions[key(name)]
	if !ok {
		return nil, &reflection.Error{Kind: reflection.KindUnknownExtension, Subject: name}
	}

	functions := make(map[string]interface{}, len(ext.Functions))
	for _, fnName := range ext.Functions {
		fn := p.functions[key(fnName)]
		params := completeParams(fn.Params, fn.Name, "")
		list := make([]interface{}, len(params))
		for i, r := range params {
			list[i] = map[string]interface{}(r)
		}
		functions[fn.Name] = map[string]interface{}{
			"name":        fn.Name,
			"return_type": fn.ReturnType,
			"params":      list,
		}
	}

	classes := make([]interface{}, len(ext.Classes))
	for i, c := range ext.Classes {
		classes[i] = p.classes[key(c)].Name
	}

	return reflection.RawRecord{
		"name":      ext.Name,
		"version":   ext.Version,
		"info":      ext.Info,
		"functions": functions,
		"constants": ext.Constants,
		"ini":       ext.INI,
		"classes":   classes,
	}, nil
}

func (p *Provider) ResolveClass(name string) (reflection.ClassHandle, error) {
	cls, ok := p.classes[key(name)]
	if !ok {
		return reflection.ClassHandle{}, &reflection.Error{Kind: reflection.KindUnknownClass, Subject: name}
	}
	return reflection.ClassHandle{Name: cls.Name}, nil
}

func (p *Provider) HasMethod(class reflection.ClassHandle, name string) bool {
	_, ok := p.GetMethod(class, name)
	return ok
}

// GetMethod finds name on class or its ancestors. The handle names the
// class that declares the method.
func (p *Provider) GetMethod(class reflection.ClassHandle, name string) (reflection.MethodHandle, bool) {
	cls, ok := p.classes[key(class.Name)]
	if !ok {
		return reflection.MethodHandle{}, false
	}
	owner, m := p.findMethod(cls, name)
	if m == nil {
		return reflection.MethodHandle{}, false
	}
	return reflection.MethodHandle{Class: owner.Name, Name: m.Name}, true
}

func (p *Provider) ParentClass(class reflection.ClassHandle) (reflection.ClassHandle, bool) {
	cls, ok := p.classes[key(class.Name)]
	if !ok {
		return reflection.ClassHandle{}, false
	}
	parent := p.parentOf(cls)
	if parent == nil {
		return reflection.ClassHandle{}, false
	}
	return reflection.ClassHandle{Name: parent.Name}, true
}

func (p *Provider) ScalarTypeHintsEnabled() bool {
	return p.scalarHints
}

func (p *Provider) parentOf(cls *Class) *Class {
	if cls.Parent == "" {
		return nil
	}
	return p.classes[key(cls.Parent)]
}

func (p *Provider) findMethod(cls *Class, name string) (*Class, *Method) {
	for depth := 0; cls != nil && depth < reflection.DefaultMaxHierarchyDepth; depth++ {
		for i := range cls.Methods {
			if key(cls.Methods[i].Name) == key(name) {
				return cls, &cls.Methods[i]
			}
		}
		cls = p.parentOf(cls)
	}
	return nil, nil
}

// completeParams copies parameter entries into raw records, filling in the
// fields the runtime would supply.
func completeParams(params []Record, function, class string) []reflection.RawRecord {
	out := make([]reflection.RawRecord, len(params))
	for i, src := range params {
		r := make(reflection.RawRecord, len(src)+3)
		for k, v := range src {
			r[k] = v
		}
		if !r.Has("index") {
			r["index"] = i
		}
		if !r.Has("function") {
			r["function"] = function
		}
		if !r.Has("class") && class != "" {
			r["class"] = class
		}
		if reason, ok := r["default_unresolved"]; ok {
			delete(r, "default_unresolved")
			r["default"] = reflection.UnresolvedDefault{Reason: fmt.Sprint(reason)}
		}
		out[i] = r
	}
	return out
}

func isPrivate(prop Record) bool {
	if prop["access"] == "private" {
		return true
	}
	m, err := cast.ToIntE(prop["modifiers"])
	return err == nil && reflection.Modifiers(m)&reflection.ModifierPrivate != 0
}

func completeProperty(src Record, class string) reflection.RawRecord {
	r := make(reflection.RawRecord, len(src)+2)
	for k, v := range src {
		if k == "value" {
			continue
		}
		r[k] = v
	}
	if !r.Has("class") {
		r["class"] = class
	}
	if !r.Has("default") {
		r["default"] = true
	}
	return r
}
