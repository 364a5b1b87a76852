// Package domain contains the core domain types for the detection context.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pooldomain "github.com/vortexdefi/dlmm-arb/business/pools/domain"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// Complexity classifies a route by hop count.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"   // up to 2 hops
	ComplexityModerate Complexity = "moderate" // 3 hops
	ComplexityComplex  Complexity = "complex"  // 4+ hops
)

// DecayHalfLife returns the time until roughly half of a price edge of this
// complexity is expected to disappear. Simple routes are visible to more
// competitors but also settle faster; complex routes decay fastest because
// every extra hop adds another pool whose state can move.
func (c Complexity) DecayHalfLife() time.Duration {
	switch c {
	case ComplexitySimple:
		return 20 * time.Second
	case ComplexityModerate:
		return 10 * time.Second
	default:
		return 5 * time.Second
	}
}

// RouteStep is one swap hop along a route: trade InputToken for OutputToken
// through Pool at the quoted effective rate.
type RouteStep struct {
	Pool        pooldomain.Pool
	InputToken  token.Token
	OutputToken token.Token

	// Rate is the effective output-per-input rate for this hop after fees
	// and price impact at the probed size.
	Rate decimal.Decimal

	// Impact is the price impact fraction consumed by this hop.
	Impact decimal.Decimal
}

// Path is an ordered sequence of swap hops. A path is cyclic when it ends on
// the token it starts with.
type Path struct {
	Steps []RouteStep
}

// HopCount returns the number of swaps in the path.
func (p Path) HopCount() int {
	return len(p.Steps)
}

// Complexity classifies the path by hop count.
func (p Path) Complexity() Complexity {
	switch {
	case len(p.Steps) <= 2:
		return ComplexitySimple
	case len(p.Steps) == 3:
		return ComplexityModerate
	default:
		return ComplexityComplex
	}
}

// StartToken returns the input token of the first hop.
func (p Path) StartToken() token.Token {
	if len(p.Steps) == 0 {
		return token.Token{}
	}
	return p.Steps[0].InputToken
}

// EndToken returns the output token of the last hop.
func (p Path) EndToken() token.Token {
	if len(p.Steps) == 0 {
		return token.Token{}
	}
	return p.Steps[len(p.Steps)-1].OutputToken
}

// IsCyclic reports whether the path returns to its starting token.
func (p Path) IsCyclic() bool {
	return len(p.Steps) > 0 && p.StartToken().Symbol == p.EndToken().Symbol
}

// PoolAddresses returns the pool address of each hop, in order.
func (p Path) PoolAddresses() []string {
	addrs := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		addrs[i] = s.Pool.Address
	}
	return addrs
}

// CompoundRate multiplies the per-hop rates: the amount of end token received
// per unit of start token at the probed size.
func (p Path) CompoundRate() decimal.Decimal {
	rate := decimal.NewFromInt(1)
	for _, s := range p.Steps {
		rate = rate.Mul(s.Rate)
	}
	return rate
}

// ShallowestLiquidity returns the smallest pool depth along the path. Zero
// for an empty path.
func (p Path) ShallowestLiquidity() decimal.Decimal {
	if len(p.Steps) == 0 {
		return decimal.Zero
	}
	min := p.Steps[0].Pool.Liquidity
	for _, s := range p.Steps[1:] {
		if s.Pool.Liquidity.LessThan(min) {
			min = s.Pool.Liquidity
		}
	}
	return min
}

// String renders the route as "SOL>USDC>SOL".
func (p Path) String() string {
	if len(p.Steps) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.Steps[0].InputToken.Symbol)
	for _, s := range p.Steps {
		b.WriteByte('>')
		b.WriteString(s.OutputToken.Symbol)
	}
	return b.String()
}
