// Package app contains application services and port definitions for the pools context.
package app

import (
	"context"

	"github.com/vortexdefi/dlmm-arb/business/pools/domain"
)

// PoolStateSource reads live pool state from the chain. Implementations are
// expected to be safe for concurrent use; the registry fans out refreshes
// across a worker pool.
type PoolStateSource interface {
	// FetchState reads the current on-chain state of the pool at address.
	FetchState(ctx context.Context, address string) (domain.PoolState, error)
}
