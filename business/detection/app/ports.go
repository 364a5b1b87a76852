// Package app contains the detection engine and route search services.
package app

import (
	"context"

	pooldomain "github.com/vortexdefi/dlmm-arb/business/pools/domain"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// PoolSource is the registry surface the detection engine scans over.
// SnapshotAll must return value copies so a scan pass operates on an
// immutable view.
type PoolSource interface {
	AddPool(ctx context.Context, address string, tokenX, tokenY token.Token) error
	RemovePool(address string)
	SnapshotAll() []pooldomain.Pool
	Count() int
}
