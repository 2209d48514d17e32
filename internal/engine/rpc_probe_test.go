package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// poaExtraData mimics a clique header: 32 byte vanity + 65 byte seal.
var poaExtraData = bytes.Repeat([]byte{0xab}, 97)

func newTestProbeClient(opts ...ProbeOption) *ProbeClient {
	return NewProbeClient(append([]ProbeOption{WithProbeLogger(discardLogger())}, opts...)...)
}

func TestProbeClient_HealthyHTTP(t *testing.T) {
	node := newFakeNode(1)
	srv := newHTTPNode(t, node)

	client := newTestProbeClient(WithExpectedChainID(1))
	defer client.Close()

	outcome := client.Probe(context.Background(), Endpoint{URI: srv.URL, Transport: TransportRequest}, 2*time.Second)

	require.NoError(t, outcome.Err)
	assert.True(t, outcome.Healthy)
	assert.True(t, outcome.Measured)
	assert.Greater(t, outcome.Latency, time.Duration(0))
	assert.Empty(t, outcome.Quirks)
	assert.Equal(t, 1, node.count("eth_blockNumber"))
	assert.Equal(t, 1, node.count("eth_chainId"))
	assert.Equal(t, 1, node.count("eth_getBlockByNumber"))
}

func TestProbeClient_POAQuirkRetriedOnce(t *testing.T) {
	node := newFakeNode(100)
	node.extraData = poaExtraData
	srv := newHTTPNode(t, node)

	client := newTestProbeClient()
	defer client.Close()

	outcome := client.Probe(context.Background(), Endpoint{URI: srv.URL, Transport: TransportRequest}, 2*time.Second)

	require.NoError(t, outcome.Err)
	assert.True(t, outcome.Healthy)
	assert.True(t, outcome.HasQuirk(QuirkPOA))
	assert.Equal(t, 2, node.count("eth_getBlockByNumber"), "strict attempt plus exactly one relaxed retry")
	assert.Equal(t, 0, node.count("eth_chainId"), "chain id check disabled by default")
}

func TestProbeClient_NullBlockIsMalformed(t *testing.T) {
	node := newFakeNode(1)
	node.nullBlock = true
	srv := newHTTPNode(t, node)

	outcome := newTestProbeClient().Probe(context.Background(), Endpoint{URI: srv.URL, Transport: TransportRequest}, 2*time.Second)

	assert.False(t, outcome.Healthy)
	assert.False(t, outcome.Measured)
	assert.ErrorIs(t, outcome.Err, ErrMalformedBlock)
	assert.Equal(t, 1, node.count("eth_getBlockByNumber"), "non-quirk failures are not retried")
}

func TestProbeClient_Unreachable(t *testing.T) {
	outcome := newTestProbeClient().Probe(context.Background(), Endpoint{URI: closedServerURL(t), Transport: TransportRequest}, 2*time.Second)

	assert.False(t, outcome.Healthy)
	assert.ErrorIs(t, outcome.Err, ErrConnection)
}

func TestProbeClient_LivenessRPCError(t *testing.T) {
	node := newFakeNode(1)
	node.failMethod = "eth_blockNumber"
	srv := newHTTPNode(t, node)

	outcome := newTestProbeClient().Probe(context.Background(), Endpoint{URI: srv.URL, Transport: TransportRequest}, 2*time.Second)

	assert.False(t, outcome.Healthy)
	assert.ErrorIs(t, outcome.Err, ErrConnection)
	assert.Equal(t, 0, node.count("eth_getBlockByNumber"))
}

func TestProbeClient_Timeout(t *testing.T) {
	node := newFakeNode(1)
	node.blockDelay = 2 * time.Second
	srv := newHTTPNode(t, node)

	start := time.Now()
	outcome := newTestProbeClient().Probe(context.Background(), Endpoint{URI: srv.URL, Transport: TransportRequest}, 150*time.Millisecond)

	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, outcome.Healthy)
	assert.ErrorIs(t, outcome.Err, ErrProbeTimeout)
}

func TestProbeClient_ChainMismatch(t *testing.T) {
	node := newFakeNode(56)
	srv := newHTTPNode(t, node)

	outcome := newTestProbeClient(WithExpectedChainID(1)).Probe(context.Background(), Endpoint{URI: srv.URL, Transport: TransportRequest}, 2*time.Second)

	assert.False(t, outcome.Healthy)
	assert.ErrorIs(t, outcome.Err, ErrChainMismatch)
	assert.Equal(t, 0, node.count("eth_getBlockByNumber"))
}

func TestProbeClient_Stream(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		node := newFakeNode(1)
		_, wsURL := newWSNode(t, node)

		outcome := newTestProbeClient(WithExpectedChainID(1)).Probe(context.Background(), Endpoint{URI: wsURL, Transport: TransportStream}, 2*time.Second)

		require.NoError(t, outcome.Err)
		assert.True(t, outcome.Healthy)
		assert.True(t, outcome.Measured)
		assert.Equal(t, 1, node.count("eth_getBlockByNumber"))
	})

	t.Run("poa", func(t *testing.T) {
		node := newFakeNode(1)
		node.extraData = poaExtraData
		_, wsURL := newWSNode(t, node)

		outcome := newTestProbeClient().Probe(context.Background(), Endpoint{URI: wsURL, Transport: TransportStream}, 2*time.Second)

		require.NoError(t, outcome.Err)
		assert.True(t, outcome.HasQuirk(QuirkPOA))
		assert.Equal(t, 2, node.count("eth_getBlockByNumber"))
	})

	t.Run("handshake refused", func(t *testing.T) {
		node := newFakeNode(1)
		srv := newHTTPNode(t, node) // plain HTTP, no upgrade
		wsURL := "ws" + srv.URL[len("http"):]

		outcome := newTestProbeClient().Probe(context.Background(), Endpoint{URI: wsURL, Transport: TransportStream}, 2*time.Second)

		assert.False(t, outcome.Healthy)
		assert.ErrorIs(t, outcome.Err, ErrConnection)
	})
}

// MockConn scripts Conn responses.
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	ret := m.Called(method)
	if raw, ok := ret.Get(0).(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), result); err != nil {
			return err
		}
	}
	return ret.Error(1)
}

func (m *MockConn) Close() {
	m.Called()
}

type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context, uri string) (Conn, error) {
	args := m.Called(uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Conn), args.Error(1)
}

func TestProbeClient_RelaxedRetryFailureIsNotRetriedAgain(t *testing.T) {
	poaBlock := `{"number":"0x10","extraData":"0x` + hexRepeat("ab", 97) + `"}`

	conn := new(MockConn)
	conn.On("Call", "eth_blockNumber").Return(`"0x10"`, nil).Once()
	conn.On("Call", "eth_getBlockByNumber").Return(poaBlock, nil).Once()
	conn.On("Call", "eth_getBlockByNumber").Return("", errors.New("connection reset by peer")).Once()
	conn.On("Close").Return().Once()

	connector := new(MockConnector)
	connector.On("Connect", "http://poa.example").Return(conn, nil).Once()

	client := newTestProbeClient(WithConnector(TransportRequest, connector))
	outcome := client.Probe(context.Background(), Endpoint{URI: "http://poa.example", Transport: TransportRequest}, time.Second)

	assert.False(t, outcome.Healthy)
	assert.ErrorIs(t, outcome.Err, ErrConnection)
	assert.False(t, outcome.HasQuirk(QuirkPOA), "quirk is only recorded when the relaxed retry succeeds")
	conn.AssertNumberOfCalls(t, "Call", 3)
	conn.AssertExpectations(t)
	connector.AssertExpectations(t)
}

func TestProbeClient_PanicIsRecorded(t *testing.T) {
	connector := new(MockConnector)
	connector.On("Connect", "http://panics.example").Run(func(mock.Arguments) {
		panic("transport exploded")
	})

	client := newTestProbeClient(WithConnector(TransportRequest, connector))
	outcome := client.Probe(context.Background(), Endpoint{URI: "http://panics.example", Transport: TransportRequest}, time.Second)

	assert.False(t, outcome.Healthy)
	assert.ErrorIs(t, outcome.Err, ErrUnexpectedProbe)

	var unexpected *UnexpectedProbeError
	require.True(t, errors.As(outcome.Err, &unexpected))
	assert.NotEmpty(t, unexpected.CorrelationID)
	assert.Equal(t, "transport exploded", unexpected.Value)
}

func TestDecodeBlockHead(t *testing.T) {
	long := json.RawMessage(`{"number":"0x1","extraData":"0x` + hexRepeat("00", 33) + `"}`)
	exact := json.RawMessage(`{"number":"0x1","extraData":"0x` + hexRepeat("00", 32) + `"}`)

	_, err := decodeBlockHead(long, strictValidation)
	assert.ErrorIs(t, err, ErrExtraDataTooLong)

	_, err = decodeBlockHead(long, relaxedValidation)
	assert.NoError(t, err)

	_, err = decodeBlockHead(exact, strictValidation)
	assert.NoError(t, err)

	_, err = decodeBlockHead(json.RawMessage(`{"extraData":"0x"}`), strictValidation)
	assert.ErrorIs(t, err, ErrMalformedBlock)

	_, err = decodeBlockHead(json.RawMessage(`{"number":"zz"}`), strictValidation)
	assert.ErrorIs(t, err, ErrMalformedBlock)

	_, err = decodeBlockHead(json.RawMessage(` null `), relaxedValidation)
	assert.ErrorIs(t, err, ErrMalformedBlock)
}

func hexRepeat(b string, n int) string {
	return string(bytes.Repeat([]byte(b), n))
}
