package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"rpc-pool-go/internal/recovery"
	"rpc-pool-go/pkg/network"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
)

type validationMode int

const (
	strictValidation validationMode = iota
	// relaxedValidation ignores the extraData length limit (POA chains).
	relaxedValidation
)

// blockHead is the subset of an eth_getBlockByNumber result we validate.
type blockHead struct {
	Number     *hexutil.Big   `json:"number"`
	Hash       *common.Hash   `json:"hash"`
	ParentHash common.Hash    `json:"parentHash"`
	Timestamp  hexutil.Uint64 `json:"timestamp"`
	ExtraData  hexutil.Bytes  `json:"extraData"`
}

func decodeBlockHead(raw json.RawMessage, mode validationMode) (*blockHead, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: empty result", ErrMalformedBlock)
	}

	var head blockHead
	if err := json.Unmarshal(trimmed, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlock, err)
	}
	if head.Number == nil {
		return nil, fmt.Errorf("%w: missing block number", ErrMalformedBlock)
	}
	if mode == strictValidation && uint64(len(head.ExtraData)) > params.MaximumExtraDataSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrExtraDataTooLong, len(head.ExtraData), params.MaximumExtraDataSize)
	}
	return &head, nil
}

// ProbeClient checks one endpoint: connect, liveness, optional chain id check
// and one timed latest-block request with POA quirk detection.
type ProbeClient struct {
	connectors      map[Transport]Connector
	fullTx          bool
	expectedChainID int64
	logger          *slog.Logger
}

// ProbeOption configures a ProbeClient.
type ProbeOption func(*ProbeClient)

// WithConnector overrides the connector used for transport.
func WithConnector(transport Transport, c Connector) ProbeOption {
	return func(p *ProbeClient) { p.connectors[transport] = c }
}

// WithFullTransactions controls whether the probe requests full transaction
// bodies. The default is true, which makes latency reflect a realistic load.
func WithFullTransactions(full bool) ProbeOption {
	return func(p *ProbeClient) { p.fullTx = full }
}

// WithExpectedChainID enables the eth_chainId check. 0 disables it.
func WithExpectedChainID(id int64) ProbeOption {
	return func(p *ProbeClient) { p.expectedChainID = id }
}

// WithProbeLogger sets the logger.
func WithProbeLogger(l *slog.Logger) ProbeOption {
	return func(p *ProbeClient) { p.logger = l }
}

// NewProbeClient creates a client with HTTP and WebSocket connectors.
func NewProbeClient(opts ...ProbeOption) *ProbeClient {
	p := &ProbeClient{
		connectors: map[Transport]Connector{
			TransportRequest: NewHTTPConnector(),
			TransportStream:  NewWSConnector(),
		},
		fullTx: true,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Close releases idle connections held by the built-in connectors.
func (p *ProbeClient) Close() {
	if hc, ok := p.connectors[TransportRequest].(*HTTPConnector); ok {
		hc.CloseIdleConnections()
	}
}

// Probe never returns an error: every failure, including a panic in the
// transport, is recorded in the outcome.
func (p *ProbeClient) Probe(ctx context.Context, ep Endpoint, timeout time.Duration) ProbeOutcome {
	var outcome ProbeOutcome
	rec := recovery.WithRecoveryNamed("probe:"+maskURL(ep.URI), func() {
		outcome = p.probe(ctx, ep, timeout)
	})
	if rec != nil {
		outcome = ProbeOutcome{
			Endpoint:  ep,
			Err:       &UnexpectedProbeError{CorrelationID: rec.CorrelationID, Value: rec.Value},
			CheckedAt: time.Now(),
		}
	}
	return outcome
}

func (p *ProbeClient) probe(ctx context.Context, ep Endpoint, timeout time.Duration) ProbeOutcome {
	outcome := ProbeOutcome{Endpoint: ep, CheckedAt: time.Now()}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	connector, ok := p.connectors[ep.Transport]
	if !ok || connector == nil {
		outcome.Err = fmt.Errorf("%w: no connector for %s transport", ErrConnection, ep.Transport)
		return outcome
	}

	conn, err := connector.Connect(ctx, ep.URI)
	if err != nil {
		outcome.Err = classifyProbeError(ctx, "connect", err)
		return outcome
	}
	defer conn.Close()

	var head hexutil.Uint64
	if err := conn.Call(ctx, &head, "eth_blockNumber"); err != nil {
		outcome.Err = classifyProbeError(ctx, "liveness", err)
		return outcome
	}

	if p.expectedChainID != 0 {
		var chainID hexutil.Big
		if err := conn.Call(ctx, &chainID, "eth_chainId"); err != nil {
			outcome.Err = classifyProbeError(ctx, "chain id", err)
			return outcome
		}
		if err := network.Verify(chainID.ToInt(), p.expectedChainID); err != nil {
			outcome.Err = fmt.Errorf("%w: %v", ErrChainMismatch, err)
			return outcome
		}
	}

	latency, err := p.fetchLatest(ctx, conn, strictValidation)
	var quirks []QuirkKind
	if errors.Is(err, ErrExtraDataTooLong) {
		// exactly one retry, in relaxed mode
		latency, err = p.fetchLatest(ctx, conn, relaxedValidation)
		if err == nil {
			quirks = append(quirks, QuirkPOA)
			LogPOAQuirk(p.logger, ep)
		}
	}
	if err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.Healthy = true
	outcome.Latency = latency
	outcome.Measured = true
	outcome.Quirks = quirks
	return outcome
}

// fetchLatest issues one eth_getBlockByNumber("latest") and times it from
// request start until the response is decoded and validated.
func (p *ProbeClient) fetchLatest(ctx context.Context, conn Conn, mode validationMode) (time.Duration, error) {
	start := time.Now()
	var raw json.RawMessage
	if err := conn.Call(ctx, &raw, "eth_getBlockByNumber", "latest", p.fullTx); err != nil {
		return 0, classifyProbeError(ctx, "latest block", err)
	}
	if _, err := decodeBlockHead(raw, mode); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func classifyProbeError(ctx context.Context, stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w during %s: %w", ErrProbeTimeout, stage, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w during %s: %w", ErrProbeTimeout, stage, err)
	}
	if errors.Is(err, rpc.ErrNoResult) {
		return fmt.Errorf("%w during %s: %w", ErrMalformedBlock, stage, err)
	}
	return fmt.Errorf("%w during %s: %w", ErrConnection, stage, err)
}
