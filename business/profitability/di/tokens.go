// Package di contains dependency injection tokens for the profitability context.
package di

import (
	"github.com/vortexdefi/dlmm-arb/business/profitability/app"
	"github.com/vortexdefi/dlmm-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Calculator = di.NewToken[*app.Calculator]("profitability.Calculator")
)

// Helper functions for type-safe access
func GetCalculator(c di.ServiceRegistry) *app.Calculator {
	return di.GetToken(c, Calculator)
}
