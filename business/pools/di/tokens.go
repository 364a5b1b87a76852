// Package di contains dependency injection tokens for the pools context.
package di

import (
	"github.com/vortexdefi/dlmm-arb/business/pools/app"
	"github.com/vortexdefi/dlmm-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PoolRegistry = di.NewToken[*app.Registry]("pools.PoolRegistry")
)

// Private dependency tokens - internal to pools module
var (
	StateSource = di.NewToken[app.PoolStateSource]("pools:stateSource")
)

// Helper functions for type-safe access
func GetPoolRegistry(c di.ServiceRegistry) *app.Registry {
	return di.GetToken(c, PoolRegistry)
}

func GetStateSource(c di.ServiceRegistry) app.PoolStateSource {
	return di.GetToken(c, StateSource)
}
