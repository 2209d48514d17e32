package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// chainlist documents are a few MB; anything much larger is not the directory
const maxChainlistSize = 32 << 20

// EndpointSource lists raw candidate URIs for a chain and transport.
type EndpointSource interface {
	FetchCandidates(ctx context.Context, chainID int64, transport Transport) ([]string, error)
}

// ChainlistSource reads the public chain directory: a JSON array of chains,
// each with a "chainId" and an "rpc" list of URI templates.
type ChainlistSource struct {
	url        string
	httpClient *http.Client
}

// NewChainlistSource creates a source for the directory at url.
func NewChainlistSource(url string) *ChainlistSource {
	return &ChainlistSource{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchCandidates downloads the directory and returns the templates of
// chainID whose scheme matches transport. An unknown chain yields an empty
// list; an unreachable or malformed directory yields ErrSourceFetch.
func (s *ChainlistSource) FetchCandidates(ctx context.Context, chainID int64, transport Transport) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrSourceFetch, resp.StatusCode, s.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxChainlistSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrSourceFetch, err)
	}
	return parseChainlist(body, chainID, transport)
}

func parseChainlist(body []byte, chainID int64, transport Transport) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: chain directory is not valid JSON", ErrSourceFetch)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: chain directory is not a JSON array", ErrSourceFetch)
	}

	chain := doc.Get(fmt.Sprintf("#(chainId==%d)", chainID))
	if !chain.Exists() {
		return []string{}, nil
	}

	prefix := transport.SchemePrefix()
	uris := make([]string, 0)
	for _, entry := range chain.Get("rpc").Array() {
		// newer directory formats use {"url": ...} objects
		uri := entry.String()
		if entry.IsObject() {
			uri = entry.Get("url").String()
		}
		if strings.HasPrefix(uri, prefix) {
			uris = append(uris, uri)
		}
	}
	return uris, nil
}

// StaticSource serves a fixed candidate list, filtered by transport.
type StaticSource struct {
	uris []string
}

// NewStaticSource wraps uris.
func NewStaticSource(uris []string) *StaticSource {
	return &StaticSource{uris: append([]string(nil), uris...)}
}

func (s *StaticSource) FetchCandidates(_ context.Context, _ int64, transport Transport) ([]string, error) {
	prefix := transport.SchemePrefix()
	out := make([]string, 0, len(s.uris))
	for _, uri := range s.uris {
		if strings.HasPrefix(uri, prefix) {
			out = append(out, uri)
		}
	}
	return out, nil
}
