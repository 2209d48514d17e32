package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	// full blocks with transactions can be several MB
	wsReadLimit = 32 << 20
)

// WSConnector speaks JSON-RPC over a persistent WebSocket through
// go-ethereum's rpc client.
type WSConnector struct {
	dialer websocket.Dialer
}

// NewWSConnector creates a connector with conservative handshake limits.
func NewWSConnector() *WSConnector {
	return &WSConnector{
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: wsHandshakeTimeout,
			ReadBufferSize:   4096,
			WriteBufferSize:  4096,
		},
	}
}

// Connect performs the WebSocket handshake.
func (c *WSConnector) Connect(ctx context.Context, uri string) (Conn, error) {
	client, err := rpc.DialOptions(ctx, uri,
		rpc.WithWebsocketDialer(c.dialer),
		rpc.WithWebsocketMessageSizeLimit(wsReadLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("websocket handshake failed: %w", err)
	}
	return &rpcConn{client: client}, nil
}
