package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

// connection pooling limits so a wide fan-out does not exhaust sockets
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 4
	defaultIdleConnTimeout     = 30 * time.Second
)

// HTTPConnector speaks JSON-RPC over HTTP(S) through go-ethereum's rpc client.
//
// No client-wide timeout is set; every call is bounded by its context.
type HTTPConnector struct {
	httpClient *http.Client
}

// NewHTTPConnector creates a connector with a shared, pooled transport.
func NewHTTPConnector() *HTTPConnector {
	return &HTTPConnector{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Connect prepares a client for uri. HTTP is connectionless, so reachability
// is only established by the first call.
func (c *HTTPConnector) Connect(ctx context.Context, uri string) (Conn, error) {
	client, err := rpc.DialOptions(ctx, uri, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, err
	}
	return &rpcConn{client: client}, nil
}

// CloseIdleConnections releases pooled sockets once a build is done.
func (c *HTTPConnector) CloseIdleConnections() {
	if c == nil || c.httpClient == nil {
		return
	}
	c.httpClient.CloseIdleConnections()
}
