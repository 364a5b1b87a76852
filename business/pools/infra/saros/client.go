// Package saros reads DLMM pool state over the Saros JSON-RPC interface.
package saros

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vortexdefi/dlmm-arb/business/pools/app"
	"github.com/vortexdefi/dlmm-arb/business/pools/domain"
	"github.com/vortexdefi/dlmm-arb/internal/apm"
	"github.com/vortexdefi/dlmm-arb/internal/apperror"
	"github.com/vortexdefi/dlmm-arb/internal/circuitbreaker"
	"github.com/vortexdefi/dlmm-arb/internal/httpclient"
	"github.com/vortexdefi/dlmm-arb/internal/ratelimit"
	"github.com/vortexdefi/dlmm-arb/internal/token"
)

const tracerName = "github.com/vortexdefi/dlmm-arb/business/pools/infra/saros"

// Ensure Client implements PoolStateSource.
var _ app.PoolStateSource = (*Client)(nil)

// ClientConfig holds configuration for the Saros DLMM client.
type ClientConfig struct {
	RPCURL            string
	WSURL             string        // optional push stream
	RequestTimeout    time.Duration
	RequestsPerMinute int
}

// DefaultClientConfig returns sensible defaults for the given endpoints.
func DefaultClientConfig(rpcURL, wsURL string) ClientConfig {
	return ClientConfig{
		RPCURL:            rpcURL,
		WSURL:             wsURL,
		RequestTimeout:    10 * time.Second,
		RequestsPerMinute: 300,
	}
}

// Client fetches pool state via JSON-RPC with rate limiting and a circuit
// breaker isolating a misbehaving endpoint.
type Client struct {
	config    ClientConfig
	http      *httpclient.Client
	limiter   *ratelimit.Limiter
	breaker   *circuitbreaker.CircuitBreaker[domain.PoolState]
	logger    *slog.Logger
	tracer    apm.Tracer
	requestID atomic.Uint64
}

// NewClient creates a new Saros DLMM state client.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	httpc, err := httpclient.New(cfg.RPCURL,
		httpclient.WithTimeout(cfg.RequestTimeout),
		httpclient.WithProviderName("saros"),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Client{
		config:  cfg,
		http:    httpc,
		limiter: ratelimit.New(cfg.RequestsPerMinute),
		breaker: circuitbreaker.New[domain.PoolState](circuitbreaker.DefaultConfig("saros-rpc")),
		logger:  logger,
		tracer:  apm.NewTracer(tracerName),
	}, nil
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// poolStateResult mirrors the pair-account payload returned by the endpoint.
type poolStateResult struct {
	TokenXMint string  `json:"tokenXMint"`
	TokenYMint string  `json:"tokenYMint"`
	Price      string  `json:"price"`
	Liquidity  string  `json:"liquidity"`
	Volume24h  string  `json:"volume24h"`
	FeeRate    string  `json:"feeRate"`
	Slippage   string  `json:"slippageEstimate"`
	ActiveBin  int32   `json:"activeBin"`
	BinStep    uint16  `json:"binStep"`
}

// FetchState reads the current on-chain state of the pool at address.
func (c *Client) FetchState(ctx context.Context, address string) (domain.PoolState, error) {
	ctx, span := c.tracer.StartSpanFromContext(ctx, "saros.FetchState",
		trace.WithAttributes(attribute.String("pool.address", address)))
	defer span.End()

	if err := token.ValidateAddress(address); err != nil {
		return domain.PoolState{}, apperror.Validation(apperror.CodeInvalidPoolAddress, address)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.PoolState{}, err
	}

	state, err := c.breaker.Execute(func() (domain.PoolState, error) {
		return c.fetchState(ctx, address)
	})
	if err != nil {
		span.NoticeError(err)
		return domain.PoolState{}, err
	}
	return state, nil
}

func (c *Client) fetchState(ctx context.Context, address string) (domain.PoolState, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "getDlmmPairState",
		Params:  []any{address},
	}

	var resp rpcResponse
	if err := c.http.PostJSON(ctx, req, &resp); err != nil {
		return domain.PoolState{}, apperror.External(apperror.CodeRPCError, address, err)
	}
	if resp.Error != nil {
		return domain.PoolState{}, apperror.External(apperror.CodeRPCError, address, resp.Error)
	}

	var result poolStateResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return domain.PoolState{}, apperror.Internal(apperror.CodeRPCDecodeFailed, address, err)
	}

	return c.toDomain(address, result)
}

func (c *Client) toDomain(address string, r poolStateResult) (domain.PoolState, error) {
	parse := func(field, s string) (decimal.Decimal, error) {
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, apperror.Internal(apperror.CodeRPCDecodeFailed,
				fmt.Sprintf("%s.%s", address, field), err)
		}
		return d, nil
	}

	price, err := parse("price", r.Price)
	if err != nil {
		return domain.PoolState{}, err
	}
	liquidity, err := parse("liquidity", r.Liquidity)
	if err != nil {
		return domain.PoolState{}, err
	}
	volume, err := parse("volume24h", r.Volume24h)
	if err != nil {
		return domain.PoolState{}, err
	}
	feeRate, err := parse("feeRate", r.FeeRate)
	if err != nil {
		return domain.PoolState{}, err
	}
	slippage, err := parse("slippageEstimate", r.Slippage)
	if err != nil {
		return domain.PoolState{}, err
	}

	return domain.PoolState{
		Address:          address,
		TokenXMint:       r.TokenXMint,
		TokenYMint:       r.TokenYMint,
		Price:            price,
		Liquidity:        liquidity,
		Volume24h:        volume,
		FeeRate:          feeRate,
		SlippageEstimate: slippage,
		ActiveBin:        r.ActiveBin,
		BinStep:          r.BinStep,
	}, nil
}
