package http

import (
	"bytes"
	"context"
	"fmt"
	"github.com/ValentinKolb/qdb/rpc/common"
	"github.com/ValentinKolb/qdb/rpc/transport"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	mu         sync.RWMutex
	serverURLs []string
	client     *http.Client
	counter    atomic.Uint32
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Parse each server URL
	serverURLs := make([]string, len(config.Endpoints))
	for i, endpoint := range config.Endpoints {
		serverURL, err := parseEndpoint(endpoint)
		if err != nil {
			return err
		}
		serverURLs[i] = serverURL
	}

	// Create client with its own connection pool
	client := &http.Client{
		Timeout: time.Duration(config.TimeoutSecond) * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: max(config.ConnectionsPerEndpoint, 1),
			IdleConnTimeout:     90 * time.Second,
		},
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = client
	t.serverURLs = serverURLs

	Logger.Infof("Using %d HTTP endpoints", len(serverURLs))
	return nil
}

func (t *httpClientTransport) Exchange(ctx context.Context, send func(w io.Writer) error, recv func(r io.Reader) error) error {
	t.mu.RLock()
	client, serverURLs := t.client, t.serverURLs
	t.mu.RUnlock()

	// Check if the transport is initialized
	if client == nil {
		return transport.ErrTransportClosed
	}

	// The request body is the encoded request
	var body bytes.Buffer
	if err := send(&body); err != nil {
		return err
	}

	// Select the next server via round-robin
	idx := t.counter.Add(1) % uint32(len(serverURLs))

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURLs[idx], &body)
	if err != nil {
		return err
	}
	httpRequest.Header.Set("Content-Type", contentType)

	httpResponse, err := client.Do(httpRequest)
	if err != nil {
		return err
	}
	defer httpResponse.Body.Close()

	// Read the response body
	data, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return err
	}

	// 400 carries an encoded failure reply if the server could produce one
	switch {
	case httpResponse.StatusCode == http.StatusOK:
	case httpResponse.StatusCode == http.StatusBadRequest && len(data) > 0:
	default:
		return fmt.Errorf("http error: %s", httpResponse.Status)
	}

	r := bytes.NewReader(data)
	if err := recv(r); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("%w: %d bytes", transport.ErrTrailingData, r.Len())
	}
	return nil
}

func (t *httpClientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Close the client
	if t.client != nil {
		t.client.CloseIdleConnections()
	}

	// Reset the client and server URLs
	t.client = nil
	t.serverURLs = nil

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// parseEndpoint turns an endpoint ("host:port" or an http URL) into the URL requests are posted to
func parseEndpoint(endpoint string) (string, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}
	u.Path = "/"
	return u.String(), nil
}
