// Package di provides a small lazy-singleton dependency injection container.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services by key.
type ServiceRegistry interface {
	Get(key string) any
}

// Container registers services and resolves them.
type Container interface {
	ServiceRegistry
	Register(key string, value any)
	RegisterFactory(key string, factory func(ServiceRegistry) any)
}

// Token is a typed service key.
type Token[T any] struct {
	key string
}

// NewToken creates a typed token.
func NewToken[T any](key string) Token[T] {
	return Token[T]{key: key}
}

// Key returns the token key.
func (t Token[T]) Key() string {
	return t.key
}

// RegisterToken registers a typed factory for a token.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.key, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a token to its typed service. It panics on a missing or
// mistyped registration, which is a wiring bug.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	v := sr.Get(token.key)
	svc, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T", token.key, v))
	}
	return svc
}

type entry struct {
	factory  func(ServiceRegistry) any
	once     sync.Once
	instance any
}

type container struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{entries: make(map[string]*entry)}
}

// Register stores a ready-made value.
func (c *container) Register(key string, value any) {
	c.RegisterFactory(key, func(ServiceRegistry) any { return value })
}

// RegisterFactory stores a factory invoked once on first Get.
func (c *container) RegisterFactory(key string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{factory: factory}
}

// Get resolves a service, constructing it on first use.
func (c *container) Get(key string) any {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", key))
	}

	e.once.Do(func() {
		e.instance = e.factory(c)
	})
	return e.instance
}
