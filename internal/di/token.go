package di

import (
	"fmt"
	"sync"
)

// Token is a typed handle for a service registered through RegisterToken.
// The type parameter carries the service type so GetToken needs no assertion
// at call sites.
type Token[T any] struct {
	name string
}

// NewToken creates a typed token with a unique name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry key behind the token.
func (t Token[T]) Name() string {
	return t.name
}

// lazyService memoizes a factory so each token resolves to a single instance.
type lazyService[T any] struct {
	once    sync.Once
	factory func(ServiceRegistry) T
	value   T
}

func (l *lazyService[T]) resolve(sr ServiceRegistry) T {
	l.once.Do(func() {
		l.value = l.factory(sr)
	})
	return l.value
}

// RegisterToken registers a lazily-constructed service under the token.
// The factory runs at most once, on first resolution.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.Register(token.name, &lazyService[T]{factory: factory})
}

// GetToken resolves the service behind the token, constructing it on first
// use. It panics on a missing or mistyped registration: wiring errors are
// programmer errors and should fail loudly at startup.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	svc := sr.Get(token.name)
	if svc == nil {
		panic(fmt.Sprintf("di: token %q not registered", token.name))
	}
	lazy, ok := svc.(*lazyService[T])
	if !ok {
		panic(fmt.Sprintf("di: token %q registered with mismatched type %T", token.name, svc))
	}
	return lazy.resolve(sr)
}
