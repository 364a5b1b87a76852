// Package pools implements the pool registry bounded context for DLMM pool tracking.
package pools

import (
	"context"
	"log/slog"

	"github.com/vortexdefi/dlmm-arb/business/pools/app"
	poolsDI "github.com/vortexdefi/dlmm-arb/business/pools/di"
	"github.com/vortexdefi/dlmm-arb/business/pools/infra/saros"
	"github.com/vortexdefi/dlmm-arb/internal/config"
	"github.com/vortexdefi/dlmm-arb/internal/di"
	"github.com/vortexdefi/dlmm-arb/internal/monolith"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// Module implements the pools bounded context.
type Module struct {
	stream *saros.Stream
}

// RegisterServices registers all pool services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register state source (Saros JSON-RPC) - private dependency
	di.RegisterToken(c, poolsDI.StateSource, func(sr di.ServiceRegistry) app.PoolStateSource {
		cfg := di.Resolve[*config.Config](sr, "config")
		log := di.Resolve[*slog.Logger](sr, "logger")

		clientCfg := saros.ClientConfig{
			RPCURL:            cfg.Saros.RPCURL,
			WSURL:             cfg.Saros.WSURL,
			RequestTimeout:    cfg.Saros.RequestTimeout,
			RequestsPerMinute: cfg.Saros.RequestsPerMinute,
		}

		client, err := saros.NewClient(clientCfg, log)
		if err != nil {
			panic("failed to create saros client: " + err.Error())
		}
		return client
	})

	// Register PoolRegistry (public - exposed to other modules)
	di.RegisterToken(c, poolsDI.PoolRegistry, func(sr di.ServiceRegistry) *app.Registry {
		cfg := di.Resolve[*config.Config](sr, "config")
		log := di.Resolve[*slog.Logger](sr, "logger")
		tokens := di.Resolve[*token.Registry](sr, "tokenRegistry")

		source := poolsDI.GetStateSource(sr)
		registry, err := app.NewRegistry(source, tokens, app.RegistryConfig{
			RefreshInterval: cfg.Pools.RefreshInterval,
			RefreshWorkers:  cfg.Pools.RefreshWorkers,
		}, log)
		if err != nil {
			panic("failed to create pool registry: " + err.Error())
		}
		return registry
	})

	return nil
}

// Startup seeds the registry with configured pools and starts the refresh
// loop, plus the push stream when a WebSocket endpoint is configured.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	registry := poolsDI.GetPoolRegistry(mono.Services())

	for _, addr := range cfg.Pools.Addresses {
		// Token metadata is resolved from the mint on first refresh.
		if err := registry.AddPool(ctx, addr, token.Token{}, token.Token{}); err != nil {
			log.Warn("skipping configured pool", "pool", addr, "error", err)
		}
	}

	registry.Start(ctx)

	if cfg.Saros.WSURL != "" {
		source := poolsDI.GetStateSource(mono.Services())
		if client, ok := source.(*saros.Client); ok {
			m.stream = saros.NewStream(client, registry, log)
			if err := m.stream.Start(ctx, cfg.Pools.Addresses); err != nil {
				log.Warn("push stream unavailable, falling back to polling", "error", err)
				m.stream = nil
			}
		}
	}

	log.Info("pools module started", "tracked", registry.Count())
	return nil
}

// Shutdown stops the refresh loop and the push stream.
func (m *Module) Shutdown(mono monolith.Monolith) {
	if m.stream != nil {
		_ = m.stream.Close()
	}
	poolsDI.GetPoolRegistry(mono.Services()).Stop()
}
