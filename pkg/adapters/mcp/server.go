package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/catena/internal/logging"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ChainsURI is the resource listing the catalog.
const ChainsURI = "catena://chains"

// Engine defines what the MCP server needs from the chain engine.
type Engine interface {
	List(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, id string) (domain.ActionDescription, error)
	Effects(ctx context.Context, id string) ([]domain.Effect, error)
	ExecuteByID(ctx context.Context, id string, task *domain.Task, tx ports.Transaction) (*domain.Result, error)
}

// ListResponse is the output of list_chains.
type ListResponse struct {
	Chains []string `json:"chains" jsonschema_description:"IDs of the chains in the catalog"`
}

// DescribeResponse is the output of describe_chain.
type DescribeResponse struct {
	ID          string                     `json:"id"`
	Description domain.ActionDescription   `json:"description" jsonschema_description:"The chain description"`
	Effects     []domain.EffectDescription `json:"effects" jsonschema_description:"Objects the chain affects, merged over all actions"`
}

// ExecuteResponse is the output of execute_chain.
type ExecuteResponse struct {
	Kind         domain.ResultKind `json:"kind" jsonschema_description:"data, empty or message"`
	Message      string            `json:"message,omitempty"`
	DataModified bool              `json:"data_modified" jsonschema_description:"Whether any step modified data"`
	Data         *domain.Dataset   `json:"data,omitempty"`
}

// Server wraps the Engine and exposes its catalog as MCP tools.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger of the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("catena-mcp", version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to handle messages in process.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops it when ctx is done.
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
		s.logger.Info("shutting down MCP server")
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
	// TOOL: list_chains
	s.mcpServer.AddTool(mcp.NewTool("list_chains",
		mcp.WithDescription("List the IDs of all action chains in the catalog."),
		mcp.WithOutputSchema[ListResponse](),
	), mcp.NewStructuredToolHandler(s.handleList))

	// TOOL: describe_chain
	s.mcpServer.AddTool(mcp.NewTool("describe_chain",
		mcp.WithDescription("Show the description of a chain and the objects it affects."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Chain ID, e.g. orders/close")),
		mcp.WithOutputSchema[DescribeResponse](),
	), mcp.NewStructuredToolHandler(s.handleDescribe))

	// TOOL: execute_chain
	s.mcpServer.AddTool(mcp.NewTool("execute_chain",
		mcp.WithDescription("Execute a chain on the given rows. The engine commits on success and rolls back on failure."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Chain ID")),
		mcp.WithString("object", mcp.Description("Meta-object alias of the rows, e.g. shop.Order")),
		mcp.WithString("rows", mcp.Description("JSON array of row objects (optional)")),
		mcp.WithOutputSchema[ExecuteResponse](),
	), mcp.NewStructuredToolHandler(s.handleExecute))
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ListResponse, error) {
	ids, err := s.engine.List(ctx)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list failed: %w", err)
	}
	return ListResponse{Chains: ids}, nil
}

func (s *Server) handleDescribe(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DescribeResponse, error) {
	id, _ := args["id"].(string)
	desc, err := s.engine.Describe(ctx, id)
	if err != nil {
		return DescribeResponse{}, err
	}
	effects, err := s.engine.Effects(ctx, id)
	if err != nil {
		return DescribeResponse{}, err
	}

	resp := DescribeResponse{ID: id, Description: desc, Effects: []domain.EffectDescription{}}
	for _, e := range effects {
		resp.Effects = append(resp.Effects, domain.DescribeEffect(e))
	}
	return resp, nil
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ExecuteResponse, error) {
	id, _ := args["id"].(string)
	object, _ := args["object"].(string)

	var data *domain.Dataset
	if rowsStr, ok := args["rows"].(string); ok && rowsStr != "" {
		data = domain.NewDataset(object)
		if err := json.Unmarshal([]byte(rowsStr), &data.Rows); err != nil {
			return ExecuteResponse{}, fmt.Errorf("rows must be a JSON array of objects: %w", err)
		}
	}

	task := domain.NewTask(data)
	if object != "" {
		o := domain.ParseObject(object)
		task.Object = &o
	}

	res, err := s.engine.ExecuteByID(ctx, id, task, nil)
	if err != nil {
		s.logger.Warn("MCP execute_chain failed", "chain", id, "err", err)
		return ExecuteResponse{}, fmt.Errorf("execute failed: %w", err)
	}
	return ExecuteResponse{
		Kind:         res.Kind,
		Message:      res.Message,
		DataModified: res.DataModified,
		Data:         res.Data,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: catena://chains
	s.mcpServer.AddResource(mcp.NewResource(ChainsURI, "Chain Catalog",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ids, err := s.engine.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list chains: %w", err)
		}
		jsonBytes, _ := json.Marshal(ListResponse{Chains: ids})

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ChainsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
