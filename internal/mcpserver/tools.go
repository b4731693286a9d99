// internal/mcpserver/tools.go
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Corphon/StoryPulseMCP/internal/models"
)

// AnalyzeStructureInput is the payload for the analyze_story_structure tool.
type AnalyzeStructureInput struct {
	StoryContent string `json:"story_content" jsonschema:"raw story text to analyze"`
	Genre        string `json:"genre" jsonschema:"genre id used to resolve the template (e.g. thriller)"`
	ProjectID    string `json:"project_id,omitempty" jsonschema:"optional project id for result persistence"`
}

// CalculatePacingInput is the payload for the calculate_pacing tool.
type CalculatePacingInput struct {
	NarrativeBeats []models.InputBeat `json:"narrative_beats" jsonschema:"ordered beat descriptions with optional tension_level and position"`
	Genre          string             `json:"genre,omitempty" jsonschema:"optional genre id for pacing-curve compliance"`
	ProjectID      string             `json:"project_id,omitempty" jsonschema:"optional project id for result persistence"`
}

// ApplyGenrePatternsInput is the payload for the apply_genre_patterns tool.
type ApplyGenrePatternsInput struct {
	StoryBeats     []models.InputBeat `json:"story_beats" jsonschema:"story beats to evaluate against genre conventions"`
	CharacterTypes []string           `json:"character_types" jsonschema:"character roles or archetypes present in the story"`
	Genre          string             `json:"genre" jsonschema:"genre id used to resolve the template"`
	ProjectID      string             `json:"project_id,omitempty" jsonschema:"optional project id for result persistence"`
}

// ValidateConsistencyInput is the payload for the validate_consistency tool.
type ValidateConsistencyInput struct {
	StoryElements models.StoryElements `json:"story_elements" jsonschema:"structured events, characters, and world_details to validate"`
	ProjectID     string               `json:"project_id,omitempty" jsonschema:"optional project id for result persistence"`
}

// TrackPlotThreadsInput is the payload for the track_plot_threads tool.
type TrackPlotThreadsInput struct {
	StoryContent string `json:"story_content" jsonschema:"raw story text to extract plot threads from"`
	ThreadFocus  string `json:"thread_focus,omitempty" jsonschema:"main, subplot, character, or all (default all)"`
	ProjectID    string `json:"project_id,omitempty" jsonschema:"optional project id for result persistence"`
}

// GetProjectResultsInput is the payload for the get_project_results tool.
type GetProjectResultsInput struct {
	ProjectID string `json:"project_id" jsonschema:"project id whose persisted analysis records to fetch"`
}

// AnalyzeStructureTool defines the MCP tool schema for structure analysis.
func AnalyzeStructureTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "analyze_story_structure",
		Description: "Analyzes raw story text into a three-act structure with turning points and pacing",
	}
}

// CalculatePacingTool defines the MCP tool schema for pacing calculation.
func CalculatePacingTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "calculate_pacing",
		Description: "Computes a tension curve, rhythm analysis, and pacing score from narrative beats",
	}
}

// ApplyGenrePatternsTool defines the MCP tool schema for genre analysis.
func ApplyGenrePatternsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "apply_genre_patterns",
		Description: "Scores genre-convention compliance and proposes authenticity improvements",
	}
}

// ListGenreTemplatesInput is the payload for the list_genre_templates tool.
type ListGenreTemplatesInput struct{}

// GenreTemplateSummary is one entry in the list_genre_templates result.
type GenreTemplateSummary struct {
	ID        string   `json:"id" jsonschema:"genre template id"`
	Name      string   `json:"name" jsonschema:"human readable genre name"`
	Subgenres []string `json:"subgenres,omitempty" jsonschema:"known subgenre ids"`
}

// ListGenreTemplatesOutput is the result of the list_genre_templates tool.
type ListGenreTemplatesOutput struct {
	Genres []GenreTemplateSummary `json:"genres" jsonschema:"available genre templates sorted by id"`
}

// ValidateConsistencyTool defines the MCP tool schema for consistency validation.
func ValidateConsistencyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "validate_consistency",
		Description: "Validates structured story elements for timeline, character, world, and plot consistency",
	}
}

// TrackPlotThreadsTool defines the MCP tool schema for plot thread tracking.
func TrackPlotThreadsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "track_plot_threads",
		Description: "Tracks main plot, subplots, and character arcs with lifecycle status and thread interactions",
	}
}

// GetProjectResultsTool defines the MCP tool schema for result retrieval.
func GetProjectResultsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_project_results",
		Description: "Returns the analysis records previously persisted under a project id",
	}
}

// ListGenreTemplatesTool defines the MCP tool schema for the template listing.
func ListGenreTemplatesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_genre_templates",
		Description: "Lists the genre templates available for structure, pacing, and genre analysis",
	}
}

// AnalyzeStructureHandler runs the structure engine for one tool call.
func AnalyzeStructureHandler(s *Server) mcp.ToolHandlerFor[AnalyzeStructureInput, *models.StoryArc] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzeStructureInput) (*mcp.CallToolResult, *models.StoryArc, error) {
		arc, err := s.structure.Analyze(input.StoryContent, input.Genre)
		if err != nil {
			return nil, nil, err
		}
		s.persist(input.ProjectID, "analyze_story_structure", arc)
		return nil, arc, nil
	}
}

// CalculatePacingHandler runs the tension engine for one tool call.
func CalculatePacingHandler(s *Server) mcp.ToolHandlerFor[CalculatePacingInput, *models.PacingAnalysis] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CalculatePacingInput) (*mcp.CallToolResult, *models.PacingAnalysis, error) {
		analysis, err := s.tension.Calculate(input.NarrativeBeats, input.Genre)
		if err != nil {
			return nil, nil, err
		}
		s.persist(input.ProjectID, "calculate_pacing", analysis)
		return nil, analysis, nil
	}
}

// ApplyGenrePatternsHandler runs the genre matcher for one tool call.
func ApplyGenrePatternsHandler(s *Server) mcp.ToolHandlerFor[ApplyGenrePatternsInput, *models.GenreGuidance] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplyGenrePatternsInput) (*mcp.CallToolResult, *models.GenreGuidance, error) {
		guidance, err := s.matcher.Analyze(input.StoryBeats, input.CharacterTypes, input.Genre)
		if err != nil {
			return nil, nil, err
		}
		s.persist(input.ProjectID, "apply_genre_patterns", guidance)
		return nil, guidance, nil
	}
}

// ValidateConsistencyHandler runs the consistency engine for one tool call.
func ValidateConsistencyHandler(s *Server) mcp.ToolHandlerFor[ValidateConsistencyInput, *models.ConsistencyReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ValidateConsistencyInput) (*mcp.CallToolResult, *models.ConsistencyReport, error) {
		elements := input.StoryElements
		report, err := s.consistency.Validate(&elements)
		if err != nil {
			return nil, nil, err
		}
		s.persist(input.ProjectID, "validate_consistency", report)
		return nil, report, nil
	}
}

// TrackPlotThreadsHandler runs the plot thread tracker for one tool call.
func TrackPlotThreadsHandler(s *Server) mcp.ToolHandlerFor[TrackPlotThreadsInput, *models.ThreadReport] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TrackPlotThreadsInput) (*mcp.CallToolResult, *models.ThreadReport, error) {
		report, err := s.threads.Track(input.StoryContent, input.ThreadFocus)
		if err != nil {
			return nil, nil, err
		}
		s.persist(input.ProjectID, "track_plot_threads", report)
		return nil, report, nil
	}
}

// GetProjectResultsHandler reads persisted records for one tool call.
func GetProjectResultsHandler(s *Server) mcp.ToolHandlerFor[GetProjectResultsInput, *models.ProjectResults] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetProjectResultsInput) (*mcp.CallToolResult, *models.ProjectResults, error) {
		results, err := s.session.GetProjectResults(input.ProjectID)
		if err != nil {
			return nil, nil, err
		}
		return nil, results, nil
	}
}

// ListGenreTemplatesHandler returns the library contents for one tool call.
func ListGenreTemplatesHandler(s *Server) mcp.ToolHandlerFor[ListGenreTemplatesInput, ListGenreTemplatesOutput] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListGenreTemplatesInput) (*mcp.CallToolResult, ListGenreTemplatesOutput, error) {
		templates := s.library.List()
		out := ListGenreTemplatesOutput{Genres: make([]GenreTemplateSummary, 0, len(templates))}
		for _, tmpl := range templates {
			out.Genres = append(out.Genres, GenreTemplateSummary{
				ID:        tmpl.ID,
				Name:      tmpl.Name,
				Subgenres: tmpl.Subgenres,
			})
		}
		return nil, out, nil
	}
}
