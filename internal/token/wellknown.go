package token

// Well-known mint addresses on Solana mainnet
const (
	MintSOL     = "So11111111111111111111111111111111111111112"
	MintUSDC    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	MintUSDT    = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	MintMSOL    = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
	MintJitoSOL = "J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn"
	MintBONK    = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	MintRAY     = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
)

// Well-known Tokens (pre-created instances)
var (
	SOL     = New("SOL", "Wrapped SOL", MintSOL, 9)
	USDC    = New("USDC", "USD Coin", MintUSDC, 6)
	USDT    = New("USDT", "Tether USD", MintUSDT, 6)
	MSOL    = New("mSOL", "Marinade staked SOL", MintMSOL, 9)
	JitoSOL = New("JitoSOL", "Jito staked SOL", MintJitoSOL, 9)
	BONK    = New("BONK", "Bonk", MintBONK, 5)
	RAY     = New("RAY", "Raydium", MintRAY, 6)
)

// DefaultRegistry returns a registry pre-populated with well-known tokens.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(SOL)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(MSOL)
	r.Register(JitoSOL)
	r.Register(BONK)
	r.Register(RAY)

	return r
}
