package engine

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// fakeNode answers the handful of JSON-RPC methods the probe uses.
type fakeNode struct {
	mu         sync.Mutex
	chainID    uint64
	extraData  []byte
	nullBlock  bool
	blockDelay time.Duration
	failMethod string
	calls      map[string]int
}

func newFakeNode(chainID uint64) *fakeNode {
	return &fakeNode{chainID: chainID, extraData: []byte("geth"), calls: make(map[string]int)}
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) handle(ctx context.Context, method string) (interface{}, *fakeRPCError) {
	n.mu.Lock()
	n.calls[method]++
	delay, failMethod := n.blockDelay, n.failMethod
	n.mu.Unlock()

	if method == failMethod {
		return nil, &fakeRPCError{Code: -32000, Message: "upstream unavailable"}
	}

	switch method {
	case "eth_blockNumber":
		return "0x10", nil
	case "eth_chainId":
		return hexutil.EncodeUint64(n.chainID), nil
	case "eth_getBlockByNumber":
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &fakeRPCError{Code: -32000, Message: "cancelled"}
			}
		}
		if n.nullBlock {
			return nil, nil
		}
		return map[string]interface{}{
			"number":       "0x10",
			"hash":         common.HexToHash("0x1234").Hex(),
			"parentHash":   common.HexToHash("0x1233").Hex(),
			"timestamp":    "0x6553f100",
			"extraData":    hexutil.Encode(n.extraData),
			"transactions": []interface{}{},
		}, nil
	default:
		return nil, &fakeRPCError{Code: -32601, Message: "method not found"}
	}
}

type fakeRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type fakeRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

type fakeResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *fakeRPCError   `json:"error,omitempty"`
}

func (n *fakeNode) respond(ctx context.Context, req fakeRequest) fakeResponse {
	result, rpcErr := n.handle(ctx, req.Method)
	return fakeResponse{Version: "2.0", ID: req.ID, Result: result, Error: rpcErr}
}

// newHTTPNode serves n over plain HTTP JSON-RPC.
func newHTTPNode(t *testing.T, n *fakeNode) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req fakeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(n.respond(r.Context(), req))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newWSNode serves n over a WebSocket. Every response is preceded by an
// unrelated subscription notification to exercise id matching.
func newWSNode(t *testing.T, n *fakeNode) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var req fakeRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			_ = conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "eth_subscription",
				"params":  map[string]string{"subscription": "0x1", "result": "0x0"},
			})
			if err := conn.WriteJSON(n.respond(r.Context(), req)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

// closedServerURL returns the address of a server that no longer listens.
func closedServerURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	return url
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
