package propstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/introspect/runtime/reflection"
	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

func declare(t *testing.T, s catalog.Seeder) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.DeclareStatic(ctx, catalog.Declaration{
		Class: "Counter", Name: "count", DeclaringClass: "Counter", Visibility: reflection.ModifierPublic,
	}, 5))
	require.NoError(t, s.DeclareStatic(ctx, catalog.Declaration{
		Class: "Counter", Name: "hidden", DeclaringClass: "Counter", Visibility: reflection.ModifierPrivate,
	}, "x"))
	require.NoError(t, s.DeclareInstance(ctx, catalog.Declaration{
		Class: "Child", Name: "token", DeclaringClass: "Parent", Visibility: reflection.ModifierProtected,
	}))
}

func TestMemoryStore_Static(t *testing.T) {
	store := NewMemoryStore()
	declare(t, store)
	ctx := context.Background()

	v, err := store.GetStaticProperty(ctx, "counter", "count", false)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	require.NoError(t, store.SetStaticProperty(ctx, "Counter", "count", 10, false))
	v, err = store.GetStaticProperty(ctx, "Counter", "count", false)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}

func TestMemoryStore_StaticVisibility(t *testing.T) {
	store := NewMemoryStore()
	declare(t, store)
	ctx := context.Background()

	_, err := store.GetStaticProperty(ctx, "Counter", "hidden", false)
	require.Error(t, err)
	assert.True(t, IsInaccessible(err))
	assert.Contains(t, err.Error(), "private property Counter::$hidden")

	err = store.SetStaticProperty(ctx, "Counter", "hidden", "y", false)
	assert.True(t, IsInaccessible(err))

	require.NoError(t, store.SetStaticProperty(ctx, "Counter", "hidden", "y", true))
	v, err := store.GetStaticProperty(ctx, "Counter", "hidden", true)
	require.NoError(t, err)
	assert.Equal(t, "y", v)
}

func TestMemoryStore_Undeclared(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.GetStaticProperty(ctx, "Counter", "count", true)
	assert.True(t, IsUndeclared(err))

	err = store.SetStaticProperty(ctx, "Counter", "count", 1, true)
	assert.True(t, IsUndeclared(err))
}

func TestMemoryStore_Instance(t *testing.T) {
	store := NewMemoryStore()
	declare(t, store)
	ctx := context.Background()

	obj := reflection.NewObject("Child", map[string]interface{}{"token": "abc", "free": 1})

	t.Run("public dynamic property", func(t *testing.T) {
		v, err := store.GetInstanceProperty(ctx, obj, "", "free")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("protected without scope", func(t *testing.T) {
		_, err := store.GetInstanceProperty(ctx, obj, "", "token")
		assert.True(t, IsInaccessible(err))

		err = store.SetInstanceProperty(ctx, obj, "Other", "token", "zzz")
		assert.True(t, IsInaccessible(err))
	})

	t.Run("protected from declaring class", func(t *testing.T) {
		require.NoError(t, store.SetInstanceProperty(ctx, obj, "parent", "token", "def"))
		v, err := store.GetInstanceProperty(ctx, obj, "Parent", "token")
		require.NoError(t, err)
		assert.Equal(t, "def", v)
	})

	t.Run("missing field reads as nil", func(t *testing.T) {
		v, err := store.GetInstanceProperty(ctx, obj, "", "nothing")
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestMemoryStore_SeedFromCatalog(t *testing.T) {
	c := &catalog.Catalog{Classes: []catalog.Class{{
		Name: "Counter",
		Properties: []catalog.Record{
			{"name": "count", "access": "public", "static": true, "value": 5},
		},
	}}}

	store := NewMemoryStore()
	require.NoError(t, c.Seed(context.Background(), store))

	v, err := store.GetStaticProperty(context.Background(), "Counter", "count", false)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestMemoryStore_InheritedPrivateThroughSubclass(t *testing.T) {
	c := &catalog.Catalog{Classes: []catalog.Class{
		{Name: "Base", Properties: []catalog.Record{
			{"name": "secret", "access": "private"},
			{"name": "shared", "access": "protected"},
		}},
		{Name: "Derived", Parent: "Base"},
	}}
	p, err := catalog.NewProvider(c)
	require.NoError(t, err)

	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, c.Seed(ctx, store))

	secret, err := reflection.NewProperty(p, "Base", "secret", reflection.WithStore(store))
	require.NoError(t, err)

	for _, class := range []string{"Base", "Derived"} {
		t.Run(class, func(t *testing.T) {
			obj := reflection.NewObject(class, map[string]interface{}{"secret": "d"})

			secret.SetAccessible(false)
			_, err := secret.GetValue(ctx, obj)
			require.Error(t, err)
			assert.True(t, IsInaccessible(err))
			assert.Contains(t, err.Error(), "private property Base::$secret")

			_, err = secret.SetValue(ctx, obj, "x")
			assert.True(t, IsInaccessible(err))

			secret.SetAccessible(true)
			res, err := secret.GetValue(ctx, obj)
			require.NoError(t, err)
			assert.Equal(t, "d", res.Value)
		})
	}

	// Outside any class the declaring class's private property stays hidden.
	err = store.SetInstanceProperty(ctx, reflection.NewObject("Derived", nil), "", "secret", "x")
	assert.True(t, IsInaccessible(err))
	require.NoError(t, store.SetInstanceProperty(ctx, reflection.NewObject("Derived", nil), "Base", "secret", "x"))
}
