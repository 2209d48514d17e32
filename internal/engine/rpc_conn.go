package engine

import (
	"context"

	"github.com/ethereum/go-ethereum/rpc"
)

// rpcConn adapts a go-ethereum rpc.Client to Conn for both transports.
type rpcConn struct {
	client *rpc.Client
}

func (c *rpcConn) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	return c.client.CallContext(ctx, result, method, args...)
}

func (c *rpcConn) Close() {
	c.client.Close()
}
