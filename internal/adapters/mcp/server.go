// Package mcp exposes the workflow as MCP tools, so agent hosts can drive a
// presentation session the same way a chat frontend does.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/deckwright/deckwright"
	"github.com/deckwright/deckwright/internal/logging"
	"github.com/deckwright/deckwright/pkg/domain"
	"github.com/deckwright/deckwright/pkg/session"
	"github.com/deckwright/deckwright/pkg/workflow"
)

// TurnResponse is the structured result of advance_session.
type TurnResponse struct {
	State   string              `json:"state" jsonschema_description:"Workflow state after the turn"`
	Outcome string              `json:"outcome" jsonschema_description:"advanced, held, unrecognized or failed"`
	Text    string              `json:"text" jsonschema_description:"Assistant reply text"`
	Items   []string            `json:"items,omitempty" jsonschema_description:"List items accompanying the reply"`
	Outline *domain.Outline     `json:"outline,omitempty" jsonschema_description:"Current outline, when one exists"`
	Error   *workflow.TurnError `json:"error,omitempty" jsonschema_description:"User-presentable failure, if any"`
}

// Server wraps the state machine as an MCP server.
type Server struct {
	machine   *workflow.Machine
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates the MCP adapter.
func NewServer(machine *workflow.Machine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		machine:   machine,
		sessions:  sessions,
		mcpServer: server.NewMCPServer("deckwright-mcp", deckwright.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on the given port until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening", "transport", "sse", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop mcp server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	advanceTool := mcp.NewTool("advance_session",
		mcp.WithDescription("Send one user message to a presentation session and get the assistant's response. Creates the session on first use."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Stable identifier of the conversation")),
		mcp.WithString("message", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithString("user_id", mcp.Description("Caller identity (optional)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(advanceTool, mcp.NewStructuredToolHandler(s.handleAdvance))

	outlineTool := mcp.NewTool("get_outline",
		mcp.WithDescription("Get the current slide outline of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier")),
	)
	s.mcpServer.AddTool(outlineTool, s.handleGetOutline)

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List known session ids."),
	), s.handleListSessions)
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TurnResponse, error) {
	sessionID, _ := args["session_id"].(string)
	message, _ := args["message"].(string)
	userID, _ := args["user_id"].(string)
	if sessionID == "" {
		return TurnResponse{}, fmt.Errorf("session_id is required")
	}
	if userID == "" {
		userID = "mcp"
	}

	res, err := s.machine.AdvanceWithRetry(ctx, sessionID, userID, message)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}

	return TurnResponse{
		State:   string(res.State),
		Outcome: string(res.Outcome),
		Text:    res.Artifact.Text,
		Items:   res.Artifact.ListItems,
		Outline: res.Artifact.Outline,
		Error:   res.Err,
	}, nil
}

func (s *Server) handleGetOutline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	vs, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	if vs.Session.Strawman == nil {
		return mcp.NewToolResultError("session has no outline yet"), nil
	}

	data, err := json.Marshal(vs.Session.Strawman)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.sessions.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	data, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(data)), nil
}
