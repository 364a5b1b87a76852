// Package domain contains the core domain types for the pools context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vortexdefi/dlmm-arb/internal/token"
)

// Pool is a snapshot of a single DLMM pool's state. Snapshots are immutable
// values: the registry publishes a new Pool on every refresh, readers never
// observe a partially-updated record.
type Pool struct {
	Address string
	TokenX  token.Token
	TokenY  token.Token

	// Price is the current price of TokenX denominated in TokenY.
	Price decimal.Decimal

	// Liquidity is the pool's current depth in quote (USD) terms.
	Liquidity decimal.Decimal

	Volume24h        decimal.Decimal
	FeeRate          decimal.Decimal // e.g. 0.003 for 30 bps
	SlippageEstimate decimal.Decimal // base slippage fraction at reference size

	// DLMM bin state.
	ActiveBin int32
	BinStep   uint16

	// Stale marks a last-known-good snapshot whose refresh failed.
	Stale     bool
	UpdatedAt time.Time
}

// HasToken reports whether the pool quotes the given token symbol.
func (p Pool) HasToken(symbol string) bool {
	return p.TokenX.Symbol == symbol || p.TokenY.Symbol == symbol
}

// OtherToken returns the counterpart of the given token in this pool.
func (p Pool) OtherToken(symbol string) (token.Token, bool) {
	switch symbol {
	case p.TokenX.Symbol:
		return p.TokenY, true
	case p.TokenY.Symbol:
		return p.TokenX, true
	default:
		return token.Token{}, false
	}
}

// QuotePrice returns the output-per-input price for swapping the given input
// token through this pool, before fees and impact. Zero if the token is not
// in the pool or the price is degenerate.
func (p Pool) QuotePrice(inputSymbol string) decimal.Decimal {
	switch inputSymbol {
	case p.TokenX.Symbol:
		return p.Price
	case p.TokenY.Symbol:
		if p.Price.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(1).Div(p.Price)
	default:
		return decimal.Zero
	}
}

// PriceImpact estimates the price impact fraction for a trade of the given
// value against this pool's depth: the base slippage estimate scaled up as
// the trade consumes a larger share of liquidity.
func (p Pool) PriceImpact(tradeValue decimal.Decimal) decimal.Decimal {
	if p.Liquidity.IsZero() || tradeValue.Sign() <= 0 {
		return p.SlippageEstimate
	}
	share := tradeValue.Div(p.Liquidity)
	impact := p.SlippageEstimate.Mul(decimal.NewFromInt(1).Add(share))
	one := decimal.NewFromInt(1)
	if impact.GreaterThan(one) {
		return one
	}
	return impact
}

// Age returns how old the snapshot is.
func (p Pool) Age(now time.Time) time.Duration {
	return now.Sub(p.UpdatedAt)
}

// PoolState is the raw state read from the chain for one pool, before it is
// stamped into a registry snapshot.
type PoolState struct {
	Address          string
	TokenXMint       string
	TokenYMint       string
	Price            decimal.Decimal
	Liquidity        decimal.Decimal
	Volume24h        decimal.Decimal
	FeeRate          decimal.Decimal
	SlippageEstimate decimal.Decimal
	ActiveBin        int32
	BinStep          uint16
}
