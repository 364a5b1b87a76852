// Package token provides metadata for SPL tokens traded through DLMM pools.
package token

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

// Token describes an SPL token: mint address, symbol and on-chain decimals.
// ReferencePrice is the latest known price in USD terms, used for sizing and
// cost conversion; it is a hint, not an oracle.
type Token struct {
	Symbol         string
	Name           string
	Mint           string
	Decimals       uint8
	ReferencePrice decimal.Decimal
}

// New creates a Token. Panics on an invalid mint address: tokens are
// constructed from static tables or validated RPC metadata, never user input.
func New(symbol, name, mint string, decimals uint8) Token {
	if err := ValidateAddress(mint); err != nil {
		panic(fmt.Sprintf("token: %v", err))
	}
	return Token{
		Symbol:   symbol,
		Name:     name,
		Mint:     mint,
		Decimals: decimals,
	}
}

// WithReferencePrice returns a copy with the reference price set.
func (t Token) WithReferencePrice(p decimal.Decimal) Token {
	t.ReferencePrice = p
	return t
}

// String returns the token symbol.
func (t Token) String() string {
	return t.Symbol
}

// Equal reports whether two tokens refer to the same mint.
func (t Token) Equal(other Token) bool {
	return t.Mint == other.Mint
}

// ValidateAddress checks that addr is a plausible base58-encoded Solana
// public key (32 bytes).
func ValidateAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("address %q is not valid base58: %w", addr, err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address %q decodes to %d bytes, want 32", addr, len(raw))
	}
	return nil
}
