// Package catalog provides a metadata catalog document and an in-memory
// reflection.MetadataProvider built from it.
//
// A catalog lists functions, closures, classes and extensions. Parameter
// and property entries are raw records: they use the field names of
// reflection.RawRecord and are validated by the reflection package when a
// descriptor is built. Catalogs can be written as JSON, YAML or TOML.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"
	"github.com/google/uuid"
)

// Catalog is the top-level metadata document.
type Catalog struct {
	Version         string      `json:"version" yaml:"version" toml:"version"`
	ScalarTypeHints bool        `json:"scalar_type_hints" yaml:"scalar_type_hints" toml:"scalar_type_hints"`
	Functions       []Function  `json:"functions,omitempty" yaml:"functions,omitempty" toml:"functions,omitempty"`
	Closures        []Closure   `json:"closures,omitempty" yaml:"closures,omitempty" toml:"closures,omitempty"`
	Classes         []Class     `json:"classes,omitempty" yaml:"classes,omitempty" toml:"classes,omitempty"`
	Extensions      []Extension `json:"extensions,omitempty" yaml:"extensions,omitempty" toml:"extensions,omitempty"`
}

// Record is a raw parameter or property entry.
type Record = map[string]interface{}

// Function is a free function.
type Function struct {
	Name       string   `json:"name" yaml:"name" toml:"name"`
	ReturnType string   `json:"return_type,omitempty" yaml:"return_type,omitempty" toml:"return_type,omitempty"`
	Params     []Record `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// Closure is an anonymous function addressed by UUID.
type Closure struct {
	ID     string   `json:"id" yaml:"id" toml:"id"`
	Name   string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Params []Record `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// Class is a class with its own (not inherited) methods and properties.
type Class struct {
	Name       string   `json:"name" yaml:"name" toml:"name"`
	Parent     string   `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
	Doc        string   `json:"doc,omitempty" yaml:"doc,omitempty" toml:"doc,omitempty"`
	Methods    []Method `json:"methods,omitempty" yaml:"methods,omitempty" toml:"methods,omitempty"`
	Properties []Record `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`
}

// Method is a method declared on a class.
type Method struct {
	Name       string   `json:"name" yaml:"name" toml:"name"`
	ReturnType string   `json:"return_type,omitempty" yaml:"return_type,omitempty" toml:"return_type,omitempty"`
	Params     []Record `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// Extension groups functions, classes, constants and ini settings.
// Functions and Classes reference entries of the catalog by name.
type Extension struct {
	Name      string                 `json:"name" yaml:"name" toml:"name"`
	Version   string                 `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Info      string                 `json:"info,omitempty" yaml:"info,omitempty" toml:"info,omitempty"`
	Functions []string               `json:"functions,omitempty" yaml:"functions,omitempty" toml:"functions,omitempty"`
	Classes   []string               `json:"classes,omitempty" yaml:"classes,omitempty" toml:"classes,omitempty"`
	Constants map[string]interface{} `json:"constants,omitempty" yaml:"constants,omitempty" toml:"constants,omitempty"`
	INI       map[string]interface{} `json:"ini,omitempty" yaml:"ini,omitempty" toml:"ini,omitempty"`
}

// ValidationError lists every problem found in a catalog.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid catalog: " + strings.Join(e.Problems, "; ")
}

// key folds a class or function name for lookup. Names are
// case-insensitive and may carry a leading namespace separator.
func key(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, `\`))
}

// Validate checks names, references and the class hierarchy. The hierarchy
// must be acyclic.
func (c *Catalog) Validate() error {
	_, err := c.hierarchy()
	return err
}

// hierarchy validates the catalog and returns its class graph, with an
// edge from each class to its parent.
func (c *Catalog) hierarchy() (graph.Graph[string, string], error) {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	classes := map[string]bool{}
	for _, cls := range c.Classes {
		if cls.Name == "" {
			addf("class without name")
			continue
		}
		k := key(cls.Name)
		if classes[k] {
			addf("duplicate class %s", cls.Name)
			continue
		}
		classes[k] = true
		_ = g.AddVertex(k)

		methods := map[string]bool{}
		for _, m := range cls.Methods {
			if m.Name == "" {
				addf("class %s: method without name", cls.Name)
				continue
			}
			if methods[key(m.Name)] {
				addf("class %s: duplicate method %s", cls.Name, m.Name)
			}
			methods[key(m.Name)] = true
			checkParams(addf, cls.Name+"::"+m.Name, m.Params)
		}
		for i, p := range cls.Properties {
			if name, _ := p["name"].(string); name == "" {
				addf("class %s: property %d without name", cls.Name, i)
			}
		}
	}

	for _, cls := range c.Classes {
		if cls.Parent == "" || cls.Name == "" {
			continue
		}
		if !classes[key(cls.Parent)] {
			addf("class %s: unknown parent %s", cls.Name, cls.Parent)
			continue
		}
		if err := g.AddEdge(key(cls.Name), key(cls.Parent)); err != nil {
			if errors.Is(err, graph.ErrEdgeCreatesCycle) {
				addf("class %s: inheritance cycle through %s", cls.Name, cls.Parent)
			} else {
				addf("class %s: %v", cls.Name, err)
			}
		}
	}

	functions := map[string]bool{}
	for _, fn := range c.Functions {
		if fn.Name == "" {
			addf("function without name")
			continue
		}
		if functions[key(fn.Name)] {
			addf("duplicate function %s", fn.Name)
		}
		functions[key(fn.Name)] = true
		checkParams(addf, fn.Name, fn.Params)
	}

	closures := map[uuid.UUID]bool{}
	for _, cl := range c.Closures {
		if id, err := uuid.Parse(cl.ID); err != nil {
			addf("closure %q: invalid id: %v", cl.ID, err)
		} else {
			if closures[id] {
				addf("duplicate closure %s", cl.ID)
			}
			closures[id] = true
		}
		checkParams(addf, "closure "+cl.ID, cl.Params)
	}

	extensions := map[string]bool{}
	for _, ext := range c.Extensions {
		if ext.Name == "" {
			addf("extension without name")
			continue
		}
		if extensions[key(ext.Name)] {
			addf("duplicate extension %s", ext.Name)
		}
		extensions[key(ext.Name)] = true
		for _, fn := range ext.Functions {
			if !functions[key(fn)] {
				addf("extension %s: unknown function %s", ext.Name, fn)
			}
		}
		for _, cls := range ext.Classes {
			if !classes[key(cls)] {
				addf("extension %s: unknown class %s", ext.Name, cls)
			}
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return g, nil
}

func checkParams(addf func(string, ...interface{}), owner string, params []Record) {
	for i, p := range params {
		if name, _ := p["name"].(string); name == "" {
			addf("%s: parameter %d without name", owner, i)
		}
	}
}
