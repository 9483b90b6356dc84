package reflection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func param(name string, index int, class string, attrs map[string]interface{}) RawRecord {
	return RawRecord{"name": name, "index": index, "function": "m", "class": class, "attributes": attrs}
}

func TestAttributeResolver(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeProvider)
		start string
		want  map[string]interface{}
	}{
		{
			name: "derived wins",
			setup: func(f *fakeProvider) {
				f.addClass("Base", "")
				f.addClass("Derived", "Base")
				f.addMethod("Base", "m", param("a", 0, "Base", map[string]interface{}{"x": 1, "y": 1}))
				f.addMethod("Derived", "m", param("a", 0, "Derived", map[string]interface{}{"y": 2}))
			},
			start: "Derived",
			want:  map[string]interface{}{"x": 1, "y": 2},
		},
		{
			name: "skips ancestors without the method",
			setup: func(f *fakeProvider) {
				f.addClass("Root", "")
				f.addClass("Middle", "Root")
				f.addClass("Leaf", "Middle")
				f.addMethod("Root", "m", param("a", 0, "Root", map[string]interface{}{"root": true}))
				f.addMethod("Leaf", "m", param("a", 0, "Leaf", map[string]interface{}{"leaf": true}))
			},
			start: "Leaf",
			want:  map[string]interface{}{"root": true, "leaf": true},
		},
		{
			name: "ancestor with fewer parameters contributes nothing",
			setup: func(f *fakeProvider) {
				f.addClass("Base", "")
				f.addClass("Derived", "Base")
				f.addMethod("Base", "m")
				f.addMethod("Derived", "m", param("a", 0, "Derived", map[string]interface{}{"k": "v"}))
			},
			start: "Derived",
			want:  map[string]interface{}{"k": "v"},
		},
		{
			name: "vanished method stops the walk",
			setup: func(f *fakeProvider) {
				f.addClass("Root", "")
				f.addClass("Middle", "Root")
				f.addClass("Leaf", "Middle")
				f.addMethod("Root", "m", param("a", 0, "Root", map[string]interface{}{"root": true}))
				f.addMethod("Leaf", "m", param("a", 0, "Leaf", map[string]interface{}{"leaf": true}))
				f.vanishing["Middle::m"] = true
			},
			start: "Leaf",
			want:  map[string]interface{}{"leaf": true},
		},
		{
			name: "malformed ancestor record stops the walk",
			setup: func(f *fakeProvider) {
				f.addClass("Base", "")
				f.addClass("Derived", "Base")
				f.addMethod("Base", "m", RawRecord{"index": 0})
				f.addMethod("Derived", "m", param("a", 0, "Derived", map[string]interface{}{"k": 1}))
			},
			start: "Derived",
			want:  map[string]interface{}{"k": 1},
		},
		{
			name: "cycle terminates",
			setup: func(f *fakeProvider) {
				f.addClass("A", "B")
				f.addClass("B", "A")
				f.addMethod("A", "m", param("a", 0, "A", map[string]interface{}{"a": 1}))
				f.addMethod("B", "m", param("a", 0, "B", map[string]interface{}{"b": 1}))
			},
			start: "A",
			want:  map[string]interface{}{"a": 1, "b": 1},
		},
		{
			name: "string values are normalized",
			setup: func(f *fakeProvider) {
				f.addMethod("C", "m", param("a", 0, "C", map[string]interface{}{"type": `HH\int`}))
			},
			start: "C",
			want:  map[string]interface{}{"type": "int"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeProvider()
			tt.setup(f)
			got := NewAttributeResolver(f).Resolve(ClassHandle{Name: tt.start}, "m", 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttributeResolverDepthBound(t *testing.T) {
	f := newFakeProvider()
	f.addClass("C0", "")
	f.addMethod("C0", "m", param("a", 0, "C0", map[string]interface{}{"root": true}))
	f.addClass("C1", "C0")
	f.addClass("C2", "C1")
	f.addMethod("C2", "m", param("a", 0, "C2", map[string]interface{}{"leaf": true}))

	core, logs := observer.New(zap.DebugLevel)
	got := NewAttributeResolver(f, WithMaxHierarchyDepth(2), WithLogger(zap.New(core))).
		Resolve(ClassHandle{Name: "C2"}, "m", 0)

	assert.Equal(t, map[string]interface{}{"leaf": true}, got)
	require.Equal(t, 1, logs.FilterMessage("attribute walk hit depth bound").Len())
	entry := logs.All()[0]
	assert.Equal(t, "C0", entry.ContextMap()["class"])
}

func TestAttributesRecursiveFreeFunction(t *testing.T) {
	f := newFakeProvider()
	f.params["f"] = []RawRecord{{"name": "a", "attributes": map[string]interface{}{"k": 1}}}

	p, err := NewParameter(f, "f", "a")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"k": 1}, p.AttributesRecursive())
}

func TestAttributesRecursiveVanishedClass(t *testing.T) {
	f := newFakeProvider()
	f.params["Gone::m"] = []RawRecord{param("a", 0, "Gone", map[string]interface{}{"k": 1})}

	p, err := NewParameter(f, "Gone::m", 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"k": 1}, p.AttributesRecursive())
}
