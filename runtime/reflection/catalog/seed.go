package catalog

import (
	"context"
	"fmt"

	"github.com/conduit-lang/introspect/runtime/reflection"
)

// Declaration describes a property as seen from one class.
type Declaration struct {
	Class          string // class the property is visible on
	Name           string
	DeclaringClass string
	Visibility     reflection.Modifiers
}

// Seeder receives property declarations from a catalog. Static properties
// are declared once, on their declaring class; instance properties are
// declared on every class they are visible on.
type Seeder interface {
	DeclareStatic(ctx context.Context, decl Declaration, value interface{}) error
	DeclareInstance(ctx context.Context, decl Declaration) error
}

// Seed declares every property of the catalog on s, together with the
// initial value of each static property.
func (c *Catalog) Seed(ctx context.Context, s Seeder) error {
	p, err := NewProvider(c)
	if err != nil {
		return err
	}

	for _, cls := range c.Classes {
		handle := reflection.ClassHandle{Name: cls.Name}
		visible := map[string]bool{}
		for _, name := range p.propertyNames(&cls) {
			raw, err := p.ResolveProperty(handle, name)
			if err != nil {
				return err
			}
			if raw == nil {
				continue
			}
			visible[name] = true
			rec, err := reflection.ParsePropertyRecord(raw)
			if err != nil {
				return fmt.Errorf("failed to seed %s::$%s: %w", cls.Name, name, err)
			}
			decl := Declaration{
				Class:          cls.Name,
				Name:           rec.Name,
				DeclaringClass: rec.Class,
				Visibility:     rec.Visibility,
			}
			if !rec.Static {
				if err := s.DeclareInstance(ctx, decl); err != nil {
					return err
				}
				continue
			}
			if key(rec.Class) != key(cls.Name) {
				continue
			}
			if err := s.DeclareStatic(ctx, decl, initialValue(&cls, name)); err != nil {
				return err
			}
		}
		if err := p.seedInheritedPrivates(ctx, s, &cls, visible); err != nil {
			return err
		}
	}
	return nil
}

// seedInheritedPrivates declares the private instance properties of cls's
// ancestors on cls itself. They are not visible through cls, but objects of
// cls still carry them and only the declaring class may access them.
func (p *Provider) seedInheritedPrivates(ctx context.Context, s Seeder, cls *Class, visible map[string]bool) error {
	anc := p.parentOf(cls)
	for depth := 0; anc != nil && depth < reflection.DefaultMaxHierarchyDepth; depth++ {
		for _, prop := range anc.Properties {
			if !isPrivate(prop) {
				continue
			}
			rec, err := reflection.ParsePropertyRecord(completeProperty(prop, anc.Name))
			if err != nil {
				return fmt.Errorf("failed to seed %s::$%v: %w", anc.Name, prop["name"], err)
			}
			if rec.Static || visible[rec.Name] {
				continue
			}
			visible[rec.Name] = true
			decl := Declaration{
				Class:          cls.Name,
				Name:           rec.Name,
				DeclaringClass: rec.Class,
				Visibility:     rec.Visibility,
			}
			if err := s.DeclareInstance(ctx, decl); err != nil {
				return err
			}
		}
		anc = p.parentOf(anc)
	}
	return nil
}

// propertyNames lists the property names declared on cls and its ancestors,
// most-derived first, without duplicates.
func (p *Provider) propertyNames(cls *Class) []string {
	seen := map[string]bool{}
	var names []string
	for depth := 0; cls != nil && depth < reflection.DefaultMaxHierarchyDepth; depth++ {
		for _, prop := range cls.Properties {
			name, _ := prop["name"].(string)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
		cls = p.parentOf(cls)
	}
	return names
}

func initialValue(cls *Class, name string) interface{} {
	for _, prop := range cls.Properties {
		if prop["name"] == name {
			return prop["value"]
		}
	}
	return nil
}
