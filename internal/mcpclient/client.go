package mcpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/oauth2"

	"github.com/giantswarm/connauth/internal/connection"
	"github.com/giantswarm/connauth/internal/headers"
	"github.com/giantswarm/connauth/pkg/auth"
	"github.com/giantswarm/connauth/pkg/logging"
)

const (
	protocolVersion = "2024-11-05"

	// DefaultInitTimeout bounds the handshake when ctx has no deadline.
	DefaultInitTimeout = 10 * time.Second
)

// ClientInfo is reported to the server during initialization.
var ClientInfo = mcp.Implementation{Name: "connauth", Version: "dev"}

// Client is an authenticated streamable HTTP MCP session.
type Client struct {
	name       string
	url        string
	headers    map[string]string
	httpClient *http.Client

	mu        sync.RWMutex
	client    *client.Client
	connected bool
	server    mcp.Implementation
}

// Option configures Dial.
type Option func(*dialOptions)

type dialOptions struct {
	base *http.Client
}

// WithHTTPClient sets the client whose transport (TLS roots, proxies) and
// timeout are used as the base for the session. For mTLS connections the
// transport must be an *http.Transport; any other RoundTripper is dropped.
func WithHTTPClient(base *http.Client) Option {
	return func(o *dialOptions) {
		o.base = base
	}
}

// Dial builds the authentication for cfg and initializes a session with
// its endpoint.
func Dial(ctx context.Context, builder *headers.Builder, cfg *connection.Config, opts ...Option) (*Client, error) {
	var o dialOptions
	for _, opt := range opts {
		opt(&o)
	}

	result, err := builder.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpClient := newHTTPClient(o.base, result.Certificate)
	staticHeaders := result.Headers

	if cfg.Auth.Type().IsOAuth2() {
		source, err := builder.TokenSource(context.WithoutCancel(ctx), cfg)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = &oauth2.Transport{Source: source, Base: httpClient.Transport}

		staticHeaders = make(map[string]string, len(result.Headers))
		for name, value := range result.Headers {
			if name != "Authorization" {
				staticHeaders[name] = value
			}
		}
	}

	c := &Client{
		name:       cfg.Name,
		url:        cfg.Endpoint,
		headers:    staticHeaders,
		httpClient: httpClient,
	}
	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// newHTTPClient copies base and adds certificate to its TLS settings. A
// base transport that is not an *http.Transport cannot take the
// certificate and is replaced by a copy of http.DefaultTransport.
func newHTTPClient(base *http.Client, certificate *tls.Certificate) *http.Client {
	out := &http.Client{Timeout: 30 * time.Second}
	var baseTransport http.RoundTripper = http.DefaultTransport
	if base != nil {
		out.Timeout = base.Timeout
		if base.Transport != nil {
			baseTransport = base.Transport
		}
	}
	if certificate == nil {
		out.Transport = baseTransport
		return out
	}

	var t *http.Transport
	if bt, ok := baseTransport.(*http.Transport); ok {
		t = bt.Clone()
	} else {
		logging.Warn("MCPClient", "Transport %T cannot present a client certificate, using a copy of the default transport instead", baseTransport)
		t = http.DefaultTransport.(*http.Transport).Clone()
	}
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	} else {
		t.TLSClientConfig = t.TLSClientConfig.Clone()
	}
	t.TLSClientConfig.Certificates = []tls.Certificate{*certificate}
	if t.TLSClientConfig.MinVersion < tls.VersionTLS12 {
		t.TLSClientConfig.MinVersion = tls.VersionTLS12
	}
	out.Transport = t
	return out
}

// Initialize establishes the connection and performs the protocol
// handshake. A 401 from the server is returned as an *auth.TransportError.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	logging.Debug("MCPClient", "Creating streamable HTTP client for %s (%s)", c.name, c.url)

	opts := []transport.StreamableHTTPCOption{transport.WithHTTPBasicClient(c.httpClient)}
	if len(c.headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(c.headers))
		logging.Debug("MCPClient", "Configured %d static headers", len(c.headers))
	}

	mcpClient, err := client.NewStreamableHttpClient(c.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to create streamable HTTP client: %w", err)
	}

	initCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, DefaultInitTimeout)
		defer cancel()
	}

	initResult, err := mcpClient.Initialize(initCtx, mcp.InitializeRequest{
		Params: struct {
			ProtocolVersion string                 `json:"protocolVersion"`
			Capabilities    mcp.ClientCapabilities `json:"capabilities"`
			ClientInfo      mcp.Implementation     `json:"clientInfo"`
		}{
			ProtocolVersion: protocolVersion,
			ClientInfo:      ClientInfo,
			Capabilities:    mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		mcpClient.Close()
		if errors.Is(err, transport.ErrUnauthorized) {
			logging.Warn("MCPClient", "Server %s rejected the credentials for connection %s", c.url, c.name)
			return &auth.TransportError{Endpoint: c.url, StatusCode: http.StatusUnauthorized, Err: err}
		}
		return fmt.Errorf("failed to initialize MCP protocol with %s: %w", c.url, err)
	}

	c.client = mcpClient
	c.connected = true
	c.server = initResult.ServerInfo

	logging.Info("MCPClient", "Connected to %s (server %s %s)", c.name, initResult.ServerInfo.Name, initResult.ServerInfo.Version)
	return nil
}

// ServerInfo returns the implementation reported by the server.
func (c *Client) ServerInfo() mcp.Implementation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.server
}

// ListTools returns the tools offered by the server.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected || c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes a tool by name.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected || c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tool %s: %w", name, err)
	}
	return result, nil
}

// Close shuts the session down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.connected = false
	c.client = nil
	return err
}
