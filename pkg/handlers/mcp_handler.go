package handlers

import (
	"net/http"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/config"
	"github.com/onboardlens/onboardlens/pkg/mcp"
	mcpauth "github.com/onboardlens/onboardlens/pkg/mcp/auth"
	"github.com/onboardlens/onboardlens/pkg/middleware"
)

// MCPHandler handles MCP protocol requests over HTTP.
type MCPHandler struct {
	httpServer *server.StreamableHTTPServer
	logger     *zap.Logger
	mcpConfig  config.MCPConfig
}

// NewMCPHandler creates a new MCP handler from an MCP server.
func NewMCPHandler(mcpServer *mcp.Server, logger *zap.Logger, mcpConfig config.MCPConfig) *MCPHandler {
	return &MCPHandler{
		httpServer: mcpServer.NewStreamableHTTPServer(),
		logger:     logger,
		mcpConfig:  mcpConfig,
	}
}

// RegisterRoutes registers the /mcp endpoint. Tool handlers run inside the
// request, so they see the caller's claims and user-bound connection.
func (h *MCPHandler) RegisterRoutes(mux *http.ServeMux, mcpAuthMiddleware *mcpauth.Middleware, userMiddleware UserMiddleware) {
	var requestLogger *zap.Logger
	if h.mcpConfig.LogRequests {
		requestLogger = h.logger.Named("mcp-requests")
	}

	// Outermost first: method check, authentication, client IP, user scope,
	// then JSON-RPC logging around the MCP server.
	logged := middleware.MCPRequestLogger(requestLogger)(h.httpServer)
	scoped := userMiddleware(logged.ServeHTTP)
	withIP := middleware.ClientIP(scoped)
	authed := mcpAuthMiddleware.RequireAuth(withIP)
	mux.Handle("/mcp", h.requirePOST(authed))
}

// requirePOST returns 405 Method Not Allowed for non-POST requests.
// MCP over HTTP Streaming requires POST for JSON-RPC requests.
func (h *MCPHandler) requirePOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}
