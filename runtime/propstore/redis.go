package propstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/conduit-lang/introspect/runtime/reflection"
	"github.com/conduit-lang/introspect/runtime/reflection/catalog"
)

// RedisStore keeps static property values in Redis so that several
// processes observe the same values. Instance properties live on the
// instance itself; only their declarations are kept, in process memory.
type RedisStore struct {
	client   *redis.Client
	prefix   string
	instance *instanceDecls
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is prepended to every key
	Prefix string
}

// DefaultRedisConfig returns a default Redis configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "reflect:",
	}
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return NewRedisStoreWithClient(client, config.Prefix), nil
}

// NewRedisStoreWithClient creates a store on an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:   client,
		prefix:   prefix,
		instance: newInstanceDecls(),
	}
}

// staticEntry is the JSON document stored per static property.
type staticEntry struct {
	DeclaringClass string               `json:"class"`
	Visibility     reflection.Modifiers `json:"visibility"`
	Value          interface{}          `json:"value"`
}

// Key returns the Redis key of a static property.
func (r *RedisStore) Key(class, name string) string {
	return r.prefix + declKey(class, name)
}

// DeclareStatic registers a static property. A value already stored under
// the key, written by this or another process, is kept and only the
// declaration is refreshed.
func (r *RedisStore) DeclareStatic(ctx context.Context, decl catalog.Declaration, value interface{}) error {
	existing, err := r.read(ctx, decl.DeclaringClass, decl.Name)
	switch {
	case err == nil:
		value = existing.Value
	case !IsUndeclared(err):
		return err
	}
	return r.write(ctx, decl.DeclaringClass, decl.Name, staticEntry{
		DeclaringClass: decl.DeclaringClass,
		Visibility:     decl.Visibility,
		Value:          value,
	})
}

func (r *RedisStore) DeclareInstance(_ context.Context, decl catalog.Declaration) error {
	r.instance.declare(decl)
	return nil
}

func (r *RedisStore) GetStaticProperty(ctx context.Context, class, name string, bypass bool) (interface{}, error) {
	entry, err := r.read(ctx, class, name)
	if err != nil {
		return nil, err
	}
	if err := checkStatic(entry.declaration(name), bypass); err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// SetStaticProperty replaces the value. Concurrent writers race; the last
// write wins.
func (r *RedisStore) SetStaticProperty(ctx context.Context, class, name string, value interface{}, bypass bool) error {
	entry, err := r.read(ctx, class, name)
	if err != nil {
		return err
	}
	if err := checkStatic(entry.declaration(name), bypass); err != nil {
		return err
	}
	entry.Value = value
	return r.write(ctx, class, name, entry)
}

func (r *RedisStore) GetInstanceProperty(_ context.Context, obj reflection.Instance, scope, name string) (interface{}, error) {
	if err := r.instance.check(obj.ClassName(), scope, name); err != nil {
		return nil, err
	}
	v, _ := obj.Property(name)
	return v, nil
}

func (r *RedisStore) SetInstanceProperty(_ context.Context, obj reflection.Instance, scope, name string, value interface{}) error {
	if err := r.instance.check(obj.ClassName(), scope, name); err != nil {
		return err
	}
	obj.SetProperty(name, value)
	return nil
}

// Clear removes every key under the store's prefix.
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) read(ctx context.Context, class, name string) (staticEntry, error) {
	data, err := r.client.Get(ctx, r.Key(class, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return staticEntry{}, ErrUndeclared{Class: class, Name: name}
		}
		return staticEntry{}, err
	}
	var entry staticEntry
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&entry); err != nil {
		return staticEntry{}, fmt.Errorf("corrupt static property %s::$%s: %w", class, name, err)
	}
	entry.Value = restoreNumbers(entry.Value)
	return entry, nil
}

// restoreNumbers turns decoded JSON numbers back into ints where they are
// integral and float64 otherwise, so values read from Redis have the same
// types as values kept in memory.
func restoreNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		for k, item := range t {
			t[k] = restoreNumbers(item)
		}
	case []interface{}:
		for i, item := range t {
			t[i] = restoreNumbers(item)
		}
	}
	return v
}

func (r *RedisStore) write(ctx context.Context, class, name string, entry staticEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode static property %s::$%s: %w", class, name, err)
	}
	return r.client.Set(ctx, r.Key(class, name), data, 0).Err()
}

func (e staticEntry) declaration(name string) catalog.Declaration {
	return catalog.Declaration{
		Class:          e.DeclaringClass,
		Name:           name,
		DeclaringClass: e.DeclaringClass,
		Visibility:     e.Visibility,
	}
}

var (
	_ reflection.PropertyStore = (*RedisStore)(nil)
	_ catalog.Seeder           = (*RedisStore)(nil)
)
