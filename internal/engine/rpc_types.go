package engine

import (
	"fmt"
	"strings"
	"time"
)

// Transport selects how an endpoint is spoken to.
type Transport int

const (
	// TransportRequest is JSON-RPC over plain HTTP(S) requests.
	TransportRequest Transport = iota
	// TransportStream is JSON-RPC over a persistent WebSocket.
	TransportStream
)

func (t Transport) String() string {
	switch t {
	case TransportRequest:
		return "request"
	case TransportStream:
		return "stream"
	default:
		return fmt.Sprintf("transport(%d)", int(t))
	}
}

// SchemePrefix is the URI prefix candidates of this transport carry
// ("http" also matches "https", "ws" also matches "wss").
func (t Transport) SchemePrefix() string {
	if t == TransportStream {
		return "ws"
	}
	return "http"
}

// ParseTransport accepts the CLI spellings plus the raw scheme names.
func ParseTransport(s string) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "request", "http", "https":
		return TransportRequest, nil
	case "stream", "ws", "wss":
		return TransportStream, nil
	default:
		return 0, fmt.Errorf("invalid transport %q: must be 'request' or 'stream'", s)
	}
}

// Endpoint is one candidate RPC address. Identity is the URI.
type Endpoint struct {
	URI       string
	Transport Transport
}

func (e Endpoint) String() string {
	return maskURL(e.URI)
}

// QuirkKind flags a protocol deviation found while probing.
type QuirkKind int

const (
	// QuirkPOA marks a proof-of-authority chain whose block headers carry
	// oversized extraData and need relaxed validation.
	QuirkPOA QuirkKind = iota + 1
)

func (q QuirkKind) String() string {
	switch q {
	case QuirkPOA:
		return "poa"
	default:
		return fmt.Sprintf("quirk(%d)", int(q))
	}
}

// ProbeOutcome is the result of probing one endpoint once.
type ProbeOutcome struct {
	Endpoint Endpoint
	Healthy  bool
	// Latency is only meaningful when Measured is true.
	Latency   time.Duration
	Measured  bool
	Quirks    []QuirkKind
	Err       error
	CheckedAt time.Time
}

// HasQuirk reports whether q was detected.
func (o ProbeOutcome) HasQuirk(q QuirkKind) bool {
	for _, k := range o.Quirks {
		if k == q {
			return true
		}
	}
	return false
}

// RankedEndpoint pairs a healthy endpoint with its measured latency.
type RankedEndpoint struct {
	Endpoint Endpoint
	Latency  time.Duration
}

// BuildReport summarises one pool build.
type BuildReport struct {
	Candidates int
	Healthy    int
	Excluded   []ProbeOutcome
	Elapsed    time.Duration
}
