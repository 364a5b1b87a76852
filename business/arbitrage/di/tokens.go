// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/vortexdefi/dlmm-arb/business/arbitrage/app"
	"github.com/vortexdefi/dlmm-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Manager = di.NewToken[*app.Manager]("arbitrage.Manager")
)

// Private dependency tokens - internal to arbitrage module
var (
	Reporter = di.NewToken[app.Reporter]("arbitrage:reporter")
)

// Helper functions for type-safe access
func GetManager(c di.ServiceRegistry) *app.Manager {
	return di.GetToken(c, Manager)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
