package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/strata/internal/logging"
	"github.com/aretw0/strata/pkg/domain"
	"github.com/aretw0/strata/pkg/ports"
	"github.com/aretw0/strata/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ExistsResponse is the result of node_exists.
type ExistsResponse struct {
	Layer  string `json:"layer" jsonschema_description:"Root layer of the stage"`
	Path   string `json:"path" jsonschema_description:"Prim path"`
	Exists bool   `json:"exists" jsonschema_description:"True when any layer contributes to the prim"`
}

// AttributeResponse is the result of get_attribute.
type AttributeResponse struct {
	Layer     string `json:"layer" jsonschema_description:"Root layer of the stage"`
	Path      string `json:"path" jsonschema_description:"Prim path"`
	Attribute string `json:"attribute" jsonschema_description:"Attribute name"`
	Found     bool   `json:"found" jsonschema_description:"False when no contributing site authors a value"`
	Type      string `json:"type,omitempty" jsonschema_description:"Value type tag"`
	Value     any    `json:"value,omitempty" jsonschema_description:"Strongest authored value"`
}

// Engine defines what the MCP server needs from the composition engine.
type Engine interface {
	ports.CompositionService
	// Layers lists the identifiers currently loaded.
	Layers() []string
}

// Server wraps the composition engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("strata-mcp", version),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: node_exists
	existsTool := mcp.NewTool("node_exists",
		mcp.WithDescription("Report whether a prim exists on the stage composed from a root layer."),
		mcp.WithString("layer", mcp.Required(), mcp.Description("Root layer identifier, e.g. shot.json")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute prim path, e.g. /world/chair")),
		mcp.WithOutputSchema[ExistsResponse](),
	)
	s.mcpServer.AddTool(existsTool, mcp.NewStructuredToolHandler(s.handleNodeExists))

	// TOOL: get_attribute
	attrTool := mcp.NewTool("get_attribute",
		mcp.WithDescription("Resolve the strongest authored value of a prim attribute."),
		mcp.WithString("layer", mcp.Required(), mcp.Description("Root layer identifier")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute prim path")),
		mcp.WithString("attribute", mcp.Required(), mcp.Description("Attribute name")),
		mcp.WithOutputSchema[AttributeResponse](),
	)
	s.mcpServer.AddTool(attrTool, mcp.NewStructuredToolHandler(s.handleGetAttribute))

	// TOOL: inspect_index
	s.mcpServer.AddTool(mcp.NewTool("inspect_index",
		mcp.WithDescription("Show the strength-ordered contributing sites, arcs and composition errors of a prim."),
		mcp.WithString("layer", mcp.Required(), mcp.Description("Root layer identifier")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute prim path")),
	), s.handleInspect)
}

func targetArgs(args map[string]interface{}) (string, domain.Path, error) {
	layerID, _ := args["layer"].(string)
	if layerID == "" {
		return "", "", fmt.Errorf("%w: layer is required", domain.ErrInvalidIdentifier)
	}
	raw, _ := args["path"].(string)
	path, err := domain.ParsePath(raw)
	if err != nil {
		return "", "", err
	}
	return layerID, path, nil
}

func (s *Server) handleNodeExists(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ExistsResponse, error) {
	layerID, path, err := targetArgs(args)
	if err != nil {
		return ExistsResponse{}, err
	}
	exists, err := s.engine.NodeExists(ctx, layerID, path)
	if err != nil {
		return ExistsResponse{}, fmt.Errorf("node_exists failed: %w", err)
	}
	return ExistsResponse{Layer: layerID, Path: string(path), Exists: exists}, nil
}

func (s *Server) handleGetAttribute(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (AttributeResponse, error) {
	layerID, path, err := targetArgs(args)
	if err != nil {
		return AttributeResponse{}, err
	}
	attr, _ := args["attribute"].(string)

	v, found, err := s.engine.AttributeValue(ctx, layerID, path, attr)
	if err != nil {
		return AttributeResponse{}, fmt.Errorf("get_attribute failed: %w", err)
	}
	resp := AttributeResponse{Layer: layerID, Path: string(path), Attribute: attr, Found: found}
	if found {
		raw, err := schema.Encode(v)
		if err != nil {
			return AttributeResponse{}, err
		}
		resp.Type = schema.TypeNameOf(v)
		resp.Value = raw
	}
	return resp, nil
}

func (s *Server) handleInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	layerID, path, err := targetArgs(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idx, err := s.engine.Inspect(ctx, layerID, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}

	errs := make([]string, 0, len(idx.Errors))
	for _, cerr := range idx.Errors {
		errs = append(errs, cerr.Error())
	}
	jsonBytes, err := json.Marshal(struct {
		*domain.PrimIndex
		Errors []string `json:"errors"`
	}{idx, errs})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: strata://layers
	s.mcpServer.AddResource(mcp.NewResource("strata://layers", "Loaded Layers",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Layers())
		if err != nil {
			return nil, fmt.Errorf("failed to list layers: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "strata://layers",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
