package mock

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ProtectedMCPServerConfig configures a mock MCP server that only serves
// requests carrying the expected credentials.
type ProtectedMCPServerConfig struct {
	// Name is the server name reported during initialization.
	Name string

	// RequiredHeaders must all be present with exactly these values.
	RequiredHeaders map[string]string

	// RequireClientCertificate serves over TLS and rejects requests without
	// a client certificate.
	RequireClientCertificate bool

	// Tools are registered by name; each returns its own name as text.
	Tools []string
}

// ProtectedMCPServer is an httptest-backed streamable HTTP MCP server behind
// a credential check. Rejected requests get 401 with a WWW-Authenticate
// challenge.
type ProtectedMCPServer struct {
	config ProtectedMCPServerConfig
	server *httptest.Server

	mu       sync.Mutex
	headers  []http.Header
	subjects []string
	rejected int
}

// NewProtectedMCPServer starts a protected mock MCP server.
func NewProtectedMCPServer(config ProtectedMCPServerConfig) *ProtectedMCPServer {
	if config.Name == "" {
		config.Name = "mock"
	}

	mcpServer := server.NewMCPServer(
		fmt.Sprintf("protected-%s", config.Name),
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	for _, name := range config.Tools {
		toolName := name
		mcpServer.AddTool(
			mcp.NewTool(toolName, mcp.WithDescription("mock tool "+toolName)),
			func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return mcp.NewToolResultText(toolName), nil
			},
		)
	}

	s := &ProtectedMCPServer{config: config}
	handler := s.protect(server.NewStreamableHTTPServer(mcpServer))

	if config.RequireClientCertificate {
		s.server = httptest.NewUnstartedServer(handler)
		s.server.TLS = &tls.Config{ClientAuth: tls.RequireAnyClientCert}
		s.server.StartTLS()
	} else {
		s.server = httptest.NewServer(handler)
	}
	return s
}

// Endpoint returns the MCP endpoint URL.
func (s *ProtectedMCPServer) Endpoint() string {
	return s.server.URL + "/mcp"
}

// Client returns an HTTP client that trusts the server certificate.
func (s *ProtectedMCPServer) Client() *http.Client {
	return s.server.Client()
}

// Close shuts the server down.
func (s *ProtectedMCPServer) Close() {
	s.server.Close()
}

// Headers returns the headers of every accepted request.
func (s *ProtectedMCPServer) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]http.Header, len(s.headers))
	copy(out, s.headers)
	return out
}

// ClientCertificateSubjects returns the client certificate CN of every
// accepted request made over TLS.
func (s *ProtectedMCPServer) ClientCertificateSubjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.subjects...)
}

// Rejected returns the number of requests refused by the credential check.
func (s *ProtectedMCPServer) Rejected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rejected
}

func (s *ProtectedMCPServer) protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, want := range s.config.RequiredHeaders {
			if r.Header.Get(name) != want {
				s.mu.Lock()
				s.rejected++
				s.mu.Unlock()

				w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s"`, s.config.Name))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}

		s.mu.Lock()
		s.headers = append(s.headers, r.Header.Clone())
		if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
			s.subjects = append(s.subjects, r.TLS.PeerCertificates[0].Subject.CommonName)
		}
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}
