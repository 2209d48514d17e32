package engine

import (
	"context"
	"time"
)

// Conn is an established JSON-RPC connection to a single endpoint.
type Conn interface {
	// Call invokes method and decodes the JSON result into result.
	Call(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

// Connector opens connections for one transport.
type Connector interface {
	Connect(ctx context.Context, uri string) (Conn, error)
}

// Prober probes a single endpoint. ProbeClient is the production
// implementation; tests substitute fakes.
type Prober interface {
	Probe(ctx context.Context, ep Endpoint, timeout time.Duration) ProbeOutcome
}

var (
	_ Connector = (*HTTPConnector)(nil)
	_ Connector = (*WSConnector)(nil)
	_ Prober    = (*ProbeClient)(nil)

	_ EndpointSource = (*ChainlistSource)(nil)
	_ EndpointSource = (*StaticSource)(nil)
)
