package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/vortexdefi/dlmm-arb/business/pools/domain"
	"github.com/vortexdefi/dlmm-arb/internal/apperror"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

const meterName = "github.com/vortexdefi/dlmm-arb/business/pools"

// RegistryConfig holds configuration for the pool registry.
type RegistryConfig struct {
	RefreshInterval time.Duration
	RefreshWorkers  int
}

// Registry tracks the set of monitored pools and their latest snapshots.
// Snapshots are published copy-on-write: readers get value copies and never
// see a partially-updated pool record.
type Registry struct {
	source PoolStateSource
	tokens *token.Registry
	config RegistryConfig
	logger *slog.Logger

	mu    sync.RWMutex
	pools map[string]domain.Pool

	cancel  context.CancelFunc
	stopped chan struct{}

	refreshFailures metric.Int64Counter
	refreshDuration metric.Float64Histogram
}

// NewRegistry creates a pool registry backed by the given state source.
func NewRegistry(source PoolStateSource, tokens *token.Registry, cfg RegistryConfig, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		source: source,
		tokens: tokens,
		config: cfg,
		logger: logger,
		pools:  make(map[string]domain.Pool),
	}

	meter := otel.Meter(meterName)
	var err error
	if r.refreshFailures, err = meter.Int64Counter("pool_refresh_failures_total",
		metric.WithDescription("Pool snapshot refresh failures")); err != nil {
		return nil, err
	}
	if r.refreshDuration, err = meter.Float64Histogram("pool_refresh_duration_seconds",
		metric.WithDescription("Duration of full registry refresh passes")); err != nil {
		return nil, err
	}

	return r, nil
}

// AddPool registers a pool for monitoring. Idempotent per address: adding a
// tracked pool refreshes it and returns nil.
func (r *Registry) AddPool(ctx context.Context, address string, tokenX, tokenY token.Token) error {
	if err := token.ValidateAddress(address); err != nil {
		return apperror.New(apperror.CodeInvalidPoolAddress, apperror.WithContext(address), apperror.WithCause(err))
	}

	r.mu.Lock()
	if _, exists := r.pools[address]; !exists {
		r.pools[address] = domain.Pool{
			Address:   address,
			TokenX:    tokenX,
			TokenY:    tokenY,
			Stale:     true, // no snapshot yet
			UpdatedAt: time.Time{},
		}
	}
	r.mu.Unlock()

	// Best-effort initial snapshot; the pool stays tracked either way and
	// the periodic refresh will retry.
	if err := r.refreshOne(ctx, address); err != nil {
		r.logger.Warn("initial pool refresh failed", "pool", address, "error", err)
	}
	return nil
}

// RemovePool unregisters a pool.
func (r *Registry) RemovePool(address string) {
	r.mu.Lock()
	delete(r.pools, address)
	r.mu.Unlock()
}

// Snapshot returns the latest cached state for a pool.
func (r *Registry) Snapshot(address string) (domain.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[address]
	if !ok {
		return domain.Pool{}, apperror.NotFound(apperror.CodePoolNotTracked, address)
	}
	return p, nil
}

// SnapshotAll returns copies of all tracked pool snapshots.
func (r *Registry) SnapshotAll() []domain.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Pool, 0, len(r.pools))
	for _, p := range r.pools {
		result = append(result, p)
	}
	return result
}

// Count returns the number of tracked pools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Start launches the periodic refresh loop.
func (r *Registry) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.stopped = make(chan struct{})

	go func() {
		defer close(r.stopped)
		ticker := time.NewTicker(r.config.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RefreshAll(ctx)
			}
		}
	}()
}

// Stop cancels the refresh loop and waits for it to exit.
func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.stopped
	}
}

// RefreshAll refreshes every tracked pool with bounded parallelism. A
// failure for one pool never blocks the others: the failed pool keeps its
// last-known-good snapshot with the Stale flag set.
func (r *Registry) RefreshAll(ctx context.Context) {
	start := time.Now()

	r.mu.RLock()
	addresses := make([]string, 0, len(r.pools))
	for addr := range r.pools {
		addresses = append(addresses, addr)
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.RefreshWorkers)

	for _, addr := range addresses {
		g.Go(func() error {
			if err := r.refreshOne(gctx, addr); err != nil {
				r.logger.Warn("pool refresh failed, keeping last snapshot",
					"pool", addr, "error", err)
			}
			return nil // isolate per-pool errors
		})
	}
	_ = g.Wait()

	r.refreshDuration.Record(ctx, time.Since(start).Seconds())
}

func (r *Registry) refreshOne(ctx context.Context, address string) error {
	state, err := r.source.FetchState(ctx, address)
	if err != nil {
		r.refreshFailures.Add(ctx, 1)
		r.markStale(address)
		return apperror.Wrap(err, apperror.CodePoolUnavailable, address)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.pools[address]
	if !ok {
		// Removed while the fetch was in flight.
		return nil
	}

	tokenX := r.resolveToken(state.TokenXMint, prev.TokenX)
	tokenY := r.resolveToken(state.TokenYMint, prev.TokenY)

	r.pools[address] = domain.Pool{
		Address:          address,
		TokenX:           tokenX,
		TokenY:           tokenY,
		Price:            state.Price,
		Liquidity:        state.Liquidity,
		Volume24h:        state.Volume24h,
		FeeRate:          state.FeeRate,
		SlippageEstimate: state.SlippageEstimate,
		ActiveBin:        state.ActiveBin,
		BinStep:          state.BinStep,
		Stale:            false,
		UpdatedAt:        time.Now(),
	}
	return nil
}

// ApplyState merges an externally-pushed state update into the registry.
// Updates for untracked pools are ignored.
func (r *Registry) ApplyState(state domain.PoolState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.pools[state.Address]
	if !ok {
		return
	}

	r.pools[state.Address] = domain.Pool{
		Address:          state.Address,
		TokenX:           r.resolveToken(state.TokenXMint, prev.TokenX),
		TokenY:           r.resolveToken(state.TokenYMint, prev.TokenY),
		Price:            state.Price,
		Liquidity:        state.Liquidity,
		Volume24h:        state.Volume24h,
		FeeRate:          state.FeeRate,
		SlippageEstimate: state.SlippageEstimate,
		ActiveBin:        state.ActiveBin,
		BinStep:          state.BinStep,
		Stale:            false,
		UpdatedAt:        time.Now(),
	}
}

func (r *Registry) markStale(address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[address]; ok {
		p.Stale = true
		r.pools[address] = p
	}
}

// resolveToken prefers registry metadata for the mint; falls back to what the
// pool was registered with.
func (r *Registry) resolveToken(mint string, fallback token.Token) token.Token {
	if mint == "" {
		return fallback
	}
	if t, ok := r.tokens.GetByMint(mint); ok {
		return t
	}
	return fallback
}
