// internal/mcpserver/server.go
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Corphon/StoryPulseMCP/internal/genre"
	"github.com/Corphon/StoryPulseMCP/internal/services"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "StoryPulse MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "1.0.0"
)

// Server hosts the analysis tools over an MCP transport.
// All engines are stateless; the session service is the only component
// that touches disk, and only when a tool call carries a project_id.
type Server struct {
	mcpServer   *mcp.Server
	structure   *services.StructureAnalyzer
	tension     *services.TensionCurveEngine
	matcher     *services.GenrePatternMatcher
	consistency *services.ConsistencyRuleEngine
	threads     *services.PlotThreadTracker
	session     *services.SessionService
	library     *genre.Library
	logger      *utils.Logger
}

// Options carries the engine instances the server exposes as tools.
// Session may be nil; tool results are then returned without persistence.
type Options struct {
	Structure   *services.StructureAnalyzer
	Tension     *services.TensionCurveEngine
	Matcher     *services.GenrePatternMatcher
	Consistency *services.ConsistencyRuleEngine
	Threads     *services.PlotThreadTracker
	Session     *services.SessionService
	Library     *genre.Library
}

// New creates a configured MCP server and registers the analysis tools.
func New(opts Options) (*Server, error) {
	if opts.Structure == nil || opts.Tension == nil || opts.Matcher == nil ||
		opts.Consistency == nil || opts.Threads == nil {
		return nil, fmt.Errorf("all five analysis engines must be configured")
	}

	s := &Server{
		structure:   opts.Structure,
		tension:     opts.Tension,
		matcher:     opts.Matcher,
		consistency: opts.Consistency,
		threads:     opts.Threads,
		session:     opts.Session,
		library:     opts.Library,
		logger:      utils.GetLogger(),
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(mcpServer, AnalyzeStructureTool(), AnalyzeStructureHandler(s))
	mcp.AddTool(mcpServer, CalculatePacingTool(), CalculatePacingHandler(s))
	mcp.AddTool(mcpServer, ApplyGenrePatternsTool(), ApplyGenrePatternsHandler(s))
	mcp.AddTool(mcpServer, ValidateConsistencyTool(), ValidateConsistencyHandler(s))
	mcp.AddTool(mcpServer, TrackPlotThreadsTool(), TrackPlotThreadsHandler(s))
	if s.session != nil {
		mcp.AddTool(mcpServer, GetProjectResultsTool(), GetProjectResultsHandler(s))
	}
	if s.library != nil {
		mcp.AddTool(mcpServer, ListGenreTemplatesTool(), ListGenreTemplatesHandler(s))
	}
	s.mcpServer = mcpServer

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends. Context cancellation is a normal shutdown, not an error.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// persist records a tool result under the given project id.
// Persistence failures never fail the tool call; they are logged instead.
func (s *Server) persist(projectID, tool string, result interface{}) {
	if s.session == nil || projectID == "" {
		return
	}
	if _, err := s.session.SaveResult(projectID, tool, result); err != nil {
		s.logger.Warn("failed to persist tool result", map[string]interface{}{
			"project": projectID,
			"tool":    tool,
			"error":   err.Error(),
		})
	}
}
