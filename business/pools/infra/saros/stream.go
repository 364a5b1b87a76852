package saros

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vortexdefi/dlmm-arb/business/pools/domain"
	"github.com/vortexdefi/dlmm-arb/internal/wsconn"
)

// StateSink receives push state updates from the stream.
type StateSink interface {
	ApplyState(state domain.PoolState)
}

// Stream consumes pair-state push notifications over WebSocket and forwards
// them to a sink. It is a latency optimization on top of the periodic
// refresh, not a replacement: dropped or missed updates are recovered on the
// next poll.
type Stream struct {
	client *Client
	ws     *wsconn.Client
	sink   StateSink
	logger *slog.Logger
}

// NewStream creates a push stream for the given addresses. The sink receives
// every decoded update.
func NewStream(client *Client, sink StateSink, logger *slog.Logger) *Stream {
	return &Stream{
		client: client,
		ws:     wsconn.New(wsconn.DefaultConfig(client.config.WSURL), logger),
		sink:   sink,
		logger: logger,
	}
}

// subscribeMessage is the pairSubscribe request shape.
type subscribeMessage struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      uint64   `json:"id"`
	Method  string   `json:"method"`
	Params  []string `json:"params"`
}

// stateNotification wraps a pushed pair-state update.
type stateNotification struct {
	Method string `json:"method"`
	Params struct {
		Address string          `json:"address"`
		State   poolStateResult `json:"state"`
	} `json:"params"`
}

// Start connects, subscribes to the given pools, and launches the consume
// loop. It returns once connected; the loop runs until ctx is cancelled.
func (s *Stream) Start(ctx context.Context, addresses []string) error {
	if s.client.config.WSURL == "" {
		return fmt.Errorf("saros stream: no websocket url configured")
	}

	if err := s.ws.Connect(ctx); err != nil {
		return fmt.Errorf("saros stream connect: %w", err)
	}

	sub := subscribeMessage{
		JSONRPC: "2.0",
		ID:      s.client.requestID.Add(1),
		Method:  "pairSubscribe",
		Params:  addresses,
	}
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	if err := s.ws.Send(ctx, payload); err != nil {
		return fmt.Errorf("saros stream subscribe: %w", err)
	}

	go s.consume(ctx)
	return nil
}

func (s *Stream) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-s.ws.Messages():
			if !ok {
				return
			}
			s.handle(data)
		}
	}
}

func (s *Stream) handle(data []byte) {
	var note stateNotification
	if err := json.Unmarshal(data, &note); err != nil {
		s.logger.Debug("saros stream: skipping undecodable message", "error", err)
		return
	}
	if note.Method != "pairNotification" || note.Params.Address == "" {
		// Subscription acks and unrelated frames.
		return
	}

	state, err := s.client.toDomain(note.Params.Address, note.Params.State)
	if err != nil {
		s.logger.Warn("saros stream: bad state payload",
			"pool", note.Params.Address, "error", err)
		return
	}
	s.sink.ApplyState(state)
}

// Close shuts down the stream connection.
func (s *Stream) Close() error {
	return s.ws.Close()
}
