package propstore

import (
	"context"
	"sync"

	"github.com/conduit-lang/introspect/runtime/reflection"
	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

type staticSlot struct {
	decl  catalog.Declaration
	value interface{}
}

// MemoryStore keeps static property values in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	statics  map[string]*staticSlot
	instance *instanceDecls
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statics:  make(map[string]*staticSlot),
		instance: newInstanceDecls(),
	}
}

// DeclareStatic registers a static property with its initial value,
// replacing any earlier declaration.
func (m *MemoryStore) DeclareStatic(_ context.Context, decl catalog.Declaration, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statics[declKey(decl.DeclaringClass, decl.Name)] = &staticSlot{decl: decl, value: value}
	return nil
}

// DeclareInstance registers the visibility of an instance property.
func (m *MemoryStore) DeclareInstance(_ context.Context, decl catalog.Declaration) error {
	m.instance.declare(decl)
	return nil
}

func (m *MemoryStore) GetStaticProperty(_ context.Context, class, name string, bypass bool) (interface{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slot, ok := m.statics[declKey(class, name)]
	if !ok {
		return nil, ErrUndeclared{Class: class, Name: name}
	}
	if err := checkStatic(slot.decl, bypass); err != nil {
		return nil, err
	}
	return slot.value, nil
}

func (m *MemoryStore) SetStaticProperty(_ context.Context, class, name string, value interface{}, bypass bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.statics[declKey(class, name)]
	if !ok {
		return ErrUndeclared{Class: class, Name: name}
	}
	if err := checkStatic(slot.decl, bypass); err != nil {
		return err
	}
	slot.value = value
	return nil
}

func (m *MemoryStore) GetInstanceProperty(_ context.Context, obj reflection.Instance, scope, name string) (interface{}, error) {
	if err := m.instance.check(obj.ClassName(), scope, name); err != nil {
		return nil, err
	}
	v, _ := obj.Property(name)
	return v, nil
}

func (m *MemoryStore) SetInstanceProperty(_ context.Context, obj reflection.Instance, scope, name string, value interface{}) error {
	if err := m.instance.check(obj.ClassName(), scope, name); err != nil {
		return err
	}
	obj.SetProperty(name, value)
	return nil
}

var (
	_ reflection.PropertyStore = (*MemoryStore)(nil)
	_ catalog.Seeder           = (*MemoryStore)(nil)
)
