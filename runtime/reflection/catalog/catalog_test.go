package catalog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/introspect/runtime/reflection"
)

const fixtureYAML = `
version: "1"
scalar_type_hints: true
functions:
  - name: str_pad
    return_type: HH\string
    params:
      - name: input
        type: HH\string
      - name: length
        type: HH\int
      - name: pad
        type: HH\string
        is_optional: true
        default: " "
closures:
  - id: 6f1c2b8e-8d8a-4b0e-9a39-0d3c1f4a2b11
    params:
      - name: item
classes:
  - name: Base
    methods:
      - name: m
        params:
          - name: a
            attributes: {x: 1, y: 1}
    properties:
      - name: secret
        access: private
      - name: shared
        access: protected
  - name: Derived
    parent: Base
    methods:
      - name: run
    properties:
      - name: count
        access: public
        static: true
        value: 5
extensions:
  - name: standard
    version: "7.4"
    functions: [str_pad]
    classes: [Derived, Base]
    constants: {PHP_EOL: "\n"}
    ini: {precision: "14"}
`

func loadFixture(t *testing.T) *Catalog {
	t.Helper()
	c, err := Decode(strings.NewReader(fixtureYAML), FormatYAML)
	require.NoError(t, err)
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		catalog Catalog
		problem string
	}{
		{
			name: "cycle",
			catalog: Catalog{Classes: []Class{
				{Name: "A", Parent: "B"},
				{Name: "B", Parent: "A"},
			}},
			problem: "inheritance cycle",
		},
		{
			name:    "unknown parent",
			catalog: Catalog{Classes: []Class{{Name: "A", Parent: "Missing"}}},
			problem: "unknown parent Missing",
		},
		{
			name:    "duplicate class ignores case",
			catalog: Catalog{Classes: []Class{{Name: "A"}, {Name: `\a`}}},
			problem: "duplicate class",
		},
		{
			name:    "bad closure id",
			catalog: Catalog{Closures: []Closure{{ID: "nope"}}},
			problem: "invalid id",
		},
		{
			name: "duplicate closure id ignores case",
			catalog: Catalog{Closures: []Closure{
				{ID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
				{ID: "6BA7B810-9DAD-11D1-80B4-00C04FD430C8"},
			}},
			problem: "duplicate closure",
		},
		{
			name: "unknown extension function",
			catalog: Catalog{Extensions: []Extension{
				{Name: "ext", Functions: []string{"missing"}},
			}},
			problem: "unknown function missing",
		},
		{
			name: "parameter without name",
			catalog: Catalog{Functions: []Function{
				{Name: "f", Params: []Record{{"type": "int"}}},
			}},
			problem: "parameter 0 without name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestProviderResolveParameters(t *testing.T) {
	p, err := NewProvider(loadFixture(t))
	require.NoError(t, err)

	t.Run("function", func(t *testing.T) {
		recs, err := p.ResolveParameters(reflection.FunctionRef{Name: "STR_PAD"})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, 2, recs[2]["index"])
		assert.Equal(t, "str_pad", recs[2]["function"])
		assert.False(t, recs[0].Has("class"))
	})

	t.Run("inherited method names declaring class", func(t *testing.T) {
		recs, err := p.ResolveParameters(reflection.MethodRef{Class: "Derived", Method: "m"})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Base", recs[0]["class"])
	})

	t.Run("closure", func(t *testing.T) {
		id := uuid.MustParse("6f1c2b8e-8d8a-4b0e-9a39-0d3c1f4a2b11")
		recs, err := p.ResolveParameters(reflection.Closure{ID: id})
		require.NoError(t, err)
		assert.Equal(t, "{closure}", recs[0]["function"])
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := p.ResolveParameters(reflection.FunctionRef{Name: "nope"})
		assert.ErrorIs(t, err, reflection.ErrUnknownCallable)
	})
}

func TestProviderUnresolvedDefault(t *testing.T) {
	c := &Catalog{Functions: []Function{{
		Name: "f",
		Params: []Record{
			{"name": "flags", "is_optional": true, "default_unresolved": "undefined constant FOO"},
		},
	}}}
	p, err := NewProvider(c)
	require.NoError(t, err)

	recs, err := p.ResolveParameters(reflection.FunctionRef{Name: "f"})
	require.NoError(t, err)
	assert.Equal(t, reflection.UnresolvedDefault{Reason: "undefined constant FOO"}, recs[0]["default"])
	assert.False(t, recs[0].Has("default_unresolved"))

	// the catalog entry itself is untouched
	assert.Contains(t, c.Functions[0].Params[0], "default_unresolved")
}

func TestProviderResolveProperty(t *testing.T) {
	p, err := NewProvider(loadFixture(t))
	require.NoError(t, err)

	derived := reflection.ClassHandle{Name: "Derived"}

	rec, err := p.ResolveProperty(derived, "shared")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Base", rec["class"])
	assert.Equal(t, true, rec["default"])

	rec, err = p.ResolveProperty(derived, "secret")
	require.NoError(t, err)
	assert.Nil(t, rec, "private ancestor property is not visible")

	rec, err = p.ResolveProperty(reflection.ClassHandle{Name: "Base"}, "secret")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	rec, err = p.ResolveProperty(derived, "count")
	require.NoError(t, err)
	assert.False(t, rec.Has("value"))

	_, err = p.ResolveProperty(reflection.ClassHandle{Name: "Nope"}, "x")
	assert.ErrorIs(t, err, reflection.ErrUnknownClass)
}

func TestProviderMethodsAndParents(t *testing.T) {
	p, err := NewProvider(loadFixture(t))
	require.NoError(t, err)

	derived := reflection.ClassHandle{Name: "Derived"}
	assert.True(t, p.HasMethod(derived, "m"))
	assert.True(t, p.HasMethod(derived, "RUN"))
	assert.False(t, p.HasMethod(derived, "missing"))

	m, ok := p.GetMethod(derived, "m")
	require.True(t, ok)
	assert.Equal(t, reflection.MethodHandle{Class: "Base", Name: "m"}, m)

	parent, ok := p.ParentClass(derived)
	require.True(t, ok)
	assert.Equal(t, "Base", parent.Name)

	_, ok = p.ParentClass(parent)
	assert.False(t, ok)

	assert.True(t, p.ScalarTypeHintsEnabled())

	names, err := p.ClassNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Base", "Derived"}, names)
}

func TestProviderScalarTypeHintsOverride(t *testing.T) {
	p, err := NewProvider(loadFixture(t), WithScalarTypeHints(false))
	require.NoError(t, err)
	assert.False(t, p.ScalarTypeHintsEnabled())
}

func TestProviderResolveExtension(t *testing.T) {
	p, err := NewProvider(loadFixture(t))
	require.NoError(t, err)

	raw, err := p.ResolveExtension("Standard")
	require.NoError(t, err)

	rec, err := reflection.ParseExtensionRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, "7.4", rec.Version)
	assert.Equal(t, []string{"Derived", "Base"}, rec.Classes)
	require.Contains(t, rec.Functions, "str_pad")
	assert.Len(t, rec.Functions["str_pad"].Parameters, 3)

	_, err = p.ResolveExtension("missing")
	assert.ErrorIs(t, err, reflection.ErrUnknownExtension)
}

func TestFormats(t *testing.T) {
	c := loadFixture(t)

	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, c, format))

			decoded, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, c.Version, decoded.Version)
			assert.Len(t, decoded.Classes, len(c.Classes))
			assert.Equal(t, c.Extensions[0].Classes, decoded.Extensions[0].Classes)
		})
	}

	_, err := FormatFromPath("catalog.ini")
	assert.Error(t, err)

	f, err := FormatFromPath("catalog.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
}

type recordingSeeder struct {
	statics   map[string]interface{}
	instances []Declaration
}

func (r *recordingSeeder) DeclareStatic(_ context.Context, decl Declaration, value interface{}) error {
	r.statics[decl.Class+"::"+decl.Name] = value
	return nil
}

func (r *recordingSeeder) DeclareInstance(_ context.Context, decl Declaration) error {
	r.instances = append(r.instances, decl)
	return nil
}

func TestSeed(t *testing.T) {
	s := &recordingSeeder{statics: map[string]interface{}{}}
	require.NoError(t, loadFixture(t).Seed(context.Background(), s))

	assert.Equal(t, map[string]interface{}{"Derived::count": 5}, s.statics)

	var seen []string
	for _, d := range s.instances {
		seen = append(seen, d.Class+"::"+d.Name+"@"+d.DeclaringClass)
	}
	assert.ElementsMatch(t, []string{
		"Base::secret@Base",
		"Base::shared@Base",
		"Derived::shared@Base",
		"Derived::secret@Base",
	}, seen)
	for _, d := range s.instances {
		if d.Class == "Derived" && d.Name == "secret" {
			assert.Equal(t, reflection.ModifierPrivate, d.Visibility)
		}
	}
}
