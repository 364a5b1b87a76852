// Package di provides a minimal string-keyed service registry used to wire
// bounded-context modules together at startup.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	// Get returns the service registered under name, or nil if absent.
	Get(name string) any

	// Has reports whether a service is registered under name.
	Has(name string) bool
}

// Container is the write side of the registry, used during module startup.
type Container interface {
	ServiceRegistry

	// Register stores a service under name, replacing any previous entry.
	Register(name string, svc any)
}

type container struct {
	mu       sync.RWMutex
	services map[string]any
}

// NewContainer creates an empty Container.
func NewContainer() Container {
	return &container{services: make(map[string]any)}
}

func (c *container) Register(name string, svc any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = svc
}

func (c *container) Get(name string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services[name]
}

func (c *container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[name]
	return ok
}

// Resolve fetches a service by name and asserts its concrete type.
// It panics on a missing or mistyped registration: wiring errors are
// programmer errors and should fail loudly at startup, not at request time.
func Resolve[T any](r ServiceRegistry, name string) T {
	svc := r.Get(name)
	if svc == nil {
		panic(fmt.Sprintf("di: service %q not registered", name))
	}
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has type %T, not the requested type", name, svc))
	}
	return typed
}
