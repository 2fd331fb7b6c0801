package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/sitescript"
	"github.com/aretw0/sitescript/internal/logging"
	"github.com/aretw0/sitescript/pkg/codec"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// SchemaURI is the resource holding the JSON Schema scripts are validated against.
const SchemaURI = "sitescript://schema"

// ValidateResponse reports the outcome of validate_script.
type ValidateResponse struct {
	Valid       bool     `json:"valid" jsonschema_description:"True when the text is an acceptable site script"`
	Errors      []string `json:"errors,omitempty" jsonschema_description:"One entry per validation failure"`
	Fingerprint string   `json:"fingerprint,omitempty" jsonschema_description:"JCS form of a valid script"`
	Actions     int      `json:"actions" jsonschema_description:"Number of root actions in a valid script"`
}

// FormatResponse carries the canonical re-emission of a script.
type FormatResponse struct {
	Text string `json:"text" jsonschema_description:"Canonical text of the script"`
}

// Server exposes the schema gate and codec as MCP tools.
type Server struct {
	gate      *schema.Gate
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(gate *schema.Gate, opts ...Option) *Server {
	s := &Server{
		gate:      gate,
		mcpServer: server.NewMCPServer("sitescript-mcp", strings.TrimSpace(sitescript.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
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
		Addr:    addr,
		Handler: mux,
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

		s.logger.Info("Shutdown signal received, shutting down MCP server")
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
	validateTool := mcp.NewTool("validate_script",
		mcp.WithDescription("Validate site script JSON against the verb catalog."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Site script JSON")),
		mcp.WithOutputSchema[ValidateResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	formatTool := mcp.NewTool("format_script",
		mcp.WithDescription("Re-emit a site script in canonical form."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Site script JSON")),
		mcp.WithBoolean("compact", mcp.Description("Emit the JCS (RFC 8785) form instead of the indented one")),
		mcp.WithOutputSchema[FormatResponse](),
	)
	s.mcpServer.AddTool(formatTool, mcp.NewStructuredToolHandler(s.handleFormat))

	s.mcpServer.AddTool(mcp.NewTool("list_verbs",
		mcp.WithDescription("List the verbs a script may use. With parent, list the subactions of that verb."),
		mcp.WithString("parent", mcp.Description("Composite verb whose subactions to list (optional)")),
	), s.handleListVerbs)
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	text, _ := args["text"].(string)

	if err := s.gate.Validate(ctx, []byte(text)); err != nil {
		if ctx.Err() != nil {
			return ValidateResponse{}, err
		}
		resp := ValidateResponse{Valid: false}
		if fields := schema.ValidationErrors(err); len(fields) > 0 {
			for _, fe := range fields {
				resp.Errors = append(resp.Errors, fe.Error())
			}
		} else {
			resp.Errors = []string{err.Error()}
		}
		s.logger.Debug("MCP validate_script: rejected", "errors", len(resp.Errors))
		return resp, nil
	}

	doc, err := codec.Decode([]byte(text))
	if err != nil {
		return ValidateResponse{}, err
	}
	fp, err := codec.Fingerprint([]byte(text))
	if err != nil {
		return ValidateResponse{}, err
	}
	return ValidateResponse{Valid: true, Fingerprint: fp, Actions: doc.Len()}, nil
}

func (s *Server) handleFormat(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormatResponse, error) {
	text, _ := args["text"].(string)
	compact, _ := args["compact"].(bool)

	doc, err := codec.Decode([]byte(text))
	if err != nil {
		return FormatResponse{}, err
	}
	var out []byte
	if compact {
		out, err = codec.EncodeCompact(doc)
	} else {
		out, err = codec.Encode(doc)
	}
	if err != nil {
		return FormatResponse{}, err
	}
	return FormatResponse{Text: string(out)}, nil
}

func (s *Server) handleListVerbs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog := s.gate.Catalog()
	verbs := catalog.Verbs()
	if parent := request.GetString("parent", ""); parent != "" {
		if _, ok := catalog.SchemaFor(parent); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("%v: %q", schema.ErrUnknownVerb, parent)), nil
		}
		verbs = catalog.SubactionsOf(parent)
	}
	jsonBytes, err := json.Marshal(verbs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(SchemaURI, "Site script JSON Schema",
		mcp.WithMIMEType("application/schema+json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      SchemaURI,
				MIMEType: "application/schema+json",
				Text:     string(s.gate.JSONSchema()),
			},
		}, nil
	})
}
