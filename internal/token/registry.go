package token

import (
	"fmt"
	"sync"
)

// Registry is a thread-safe registry of known tokens.
type Registry struct {
	byMint   map[string]Token
	bySymbol map[string]Token
	mu       sync.RWMutex
}

// NewRegistry creates a new empty token registry.
func NewRegistry() *Registry {
	return &Registry{
		byMint:   make(map[string]Token),
		bySymbol: make(map[string]Token),
	}
}

// Register adds a token to the registry, replacing any previous entry for
// the same mint. Symbol collisions keep the first registration.
func (r *Registry) Register(t Token) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byMint[t.Mint] = t
	if _, exists := r.bySymbol[t.Symbol]; !exists {
		r.bySymbol[t.Symbol] = t
	}
}

// GetByMint retrieves a token by mint address.
func (r *Registry) GetByMint(mint string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byMint[mint]
	return t, ok
}

// GetBySymbol retrieves a token by symbol.
func (r *Registry) GetBySymbol(symbol string) (Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.bySymbol[symbol]
	return t, ok
}

// MustGetBySymbol retrieves a token by symbol, panics if not found.
func (r *Registry) MustGetBySymbol(symbol string) Token {
	t, ok := r.GetBySymbol(symbol)
	if !ok {
		panic(fmt.Sprintf("token: %s not found in registry", symbol))
	}
	return t
}

// All returns all registered tokens.
func (r *Registry) All() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Token, 0, len(r.byMint))
	for _, t := range r.byMint {
		result = append(result, t)
	}
	return result
}

// Count returns the number of registered tokens.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byMint)
}
