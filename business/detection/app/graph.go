package app

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vortexdefi/dlmm-arb/business/detection/domain"
	pooldomain "github.com/vortexdefi/dlmm-arb/business/pools/domain"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// routeGraph is a token-keyed adjacency structure over an immutable pool
// snapshot. Built once per scan tick so enumeration is deterministic and
// independent of live registry updates.
type routeGraph struct {
	// edges maps a token symbol to the pools that quote it.
	edges map[string][]pooldomain.Pool
}

// newRouteGraph indexes the given snapshot. Stale and zero-liquidity pools
// are excluded up front.
func newRouteGraph(pools []pooldomain.Pool) *routeGraph {
	g := &routeGraph{edges: make(map[string][]pooldomain.Pool)}
	for _, p := range pools {
		if p.Stale || p.Liquidity.Sign() <= 0 || p.Price.Sign() <= 0 {
			continue
		}
		g.edges[p.TokenX.Symbol] = append(g.edges[p.TokenX.Symbol], p)
		g.edges[p.TokenY.Symbol] = append(g.edges[p.TokenY.Symbol], p)
	}
	// Deterministic neighbor order regardless of snapshot map iteration.
	for sym := range g.edges {
		sort.Slice(g.edges[sym], func(i, j int) bool {
			return g.edges[sym][i].Address < g.edges[sym][j].Address
		})
	}
	return g
}

// tokens returns every token symbol in the graph, sorted.
func (g *routeGraph) tokens() []string {
	syms := make([]string, 0, len(g.edges))
	for sym := range g.edges {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// findCycles enumerates cyclic paths starting and ending at startSymbol with
// at most maxDepth hops, quoting each hop at probeAmount of the start token.
// Pools are never revisited within a path.
func (g *routeGraph) findCycles(startSymbol string, probeAmount decimal.Decimal, maxDepth int) []domain.Path {
	var (
		result []domain.Path
		used   = make(map[string]bool)
	)

	var walk func(current token.Token, amount decimal.Decimal, steps []domain.RouteStep)
	walk = func(current token.Token, amount decimal.Decimal, steps []domain.RouteStep) {
		if len(steps) >= maxDepth {
			return
		}
		for _, pool := range g.edges[current.Symbol] {
			if used[pool.Address] {
				continue
			}
			next, ok := pool.OtherToken(current.Symbol)
			if !ok {
				continue
			}

			step, output, ok := quoteHop(pool, current, next, amount)
			if !ok {
				continue
			}

			extended := append(steps[:len(steps):len(steps)], step)

			if next.Symbol == startSymbol && len(extended) >= 2 {
				result = append(result, domain.Path{Steps: extended})
				continue
			}

			used[pool.Address] = true
			walk(next, output, extended)
			used[pool.Address] = false
		}
	}

	start, ok := g.anyToken(startSymbol)
	if !ok {
		return nil
	}
	walk(start, probeAmount, nil)
	return result
}

// anyToken resolves full token metadata for a symbol from any pool quoting it.
func (g *routeGraph) anyToken(symbol string) (token.Token, bool) {
	for _, p := range g.edges[symbol] {
		if p.TokenX.Symbol == symbol {
			return p.TokenX, true
		}
		if p.TokenY.Symbol == symbol {
			return p.TokenY, true
		}
	}
	return token.Token{}, false
}

// quoteHop prices a single swap hop at the given input amount, applying the
// pool fee and slippage-adjusted price impact. Output compounds into the
// next hop.
func quoteHop(pool pooldomain.Pool, in, out token.Token, amount decimal.Decimal) (domain.RouteStep, decimal.Decimal, bool) {
	if amount.Sign() <= 0 {
		return domain.RouteStep{}, decimal.Zero, false
	}

	price := pool.QuotePrice(in.Symbol)
	if price.Sign() <= 0 {
		return domain.RouteStep{}, decimal.Zero, false
	}

	impact := pool.PriceImpact(tradeValue(in, amount))
	one := decimal.NewFromInt(1)

	// output = input x price x (1 - fee) x (1 - impact)
	rate := price.Mul(one.Sub(pool.FeeRate)).Mul(one.Sub(impact))
	if rate.Sign() <= 0 {
		return domain.RouteStep{}, decimal.Zero, false
	}
	output := amount.Mul(rate)

	return domain.RouteStep{
		Pool:        pool,
		InputToken:  in,
		OutputToken: out,
		Rate:        rate,
		Impact:      impact,
	}, output, true
}

// tradeValue converts a token amount into quote (USD) terms for depth
// comparisons. Falls back to the raw amount when no reference price is known.
func tradeValue(t token.Token, amount decimal.Decimal) decimal.Decimal {
	if t.ReferencePrice.Sign() > 0 {
		return amount.Mul(t.ReferencePrice)
	}
	return amount
}

// classify maps a cyclic path onto an opportunity type.
func classify(p domain.Path) domain.OpportunityType {
	switch {
	case p.HopCount() == 2:
		return domain.TypeDirect
	case p.HopCount() == 3 && distinctTokens(p) == 3:
		return domain.TypeTriangular
	default:
		return domain.TypeMultiHop
	}
}

func distinctTokens(p domain.Path) int {
	seen := make(map[string]bool)
	for _, s := range p.Steps {
		seen[s.InputToken.Symbol] = true
		seen[s.OutputToken.Symbol] = true
	}
	return len(seen)
}
