// internal/api/handlers.go
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/genre"
	"github.com/Corphon/StoryPulseMCP/internal/models"
	"github.com/Corphon/StoryPulseMCP/internal/services"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

// Handler 处理API请求
type Handler struct {
	StructureAnalyzer *services.StructureAnalyzer    // 结构分析引擎
	TensionEngine     *services.TensionCurveEngine   // 张力曲线引擎
	GenreMatcher      *services.GenrePatternMatcher  // 类型模式匹配器
	Consistency       *services.ConsistencyRuleEngine // 一致性规则引擎
	PlotTracker       *services.PlotThreadTracker    // 情节线追踪器
	SessionService    *services.SessionService       // 结果持久化服务
	GenreLibrary      *genre.Library                 // 类型模板库
	Metrics           *utils.AnalysisMetrics         // 分析指标
	Response          *ResponseHelper                // 响应助手
}

// NewHandler 创建API处理器
func NewHandler(
	structure *services.StructureAnalyzer,
	tension *services.TensionCurveEngine,
	matcher *services.GenrePatternMatcher,
	consistency *services.ConsistencyRuleEngine,
	plotTracker *services.PlotThreadTracker,
	session *services.SessionService,
	library *genre.Library,
) *Handler {
	return &Handler{
		StructureAnalyzer: structure,
		TensionEngine:     tension,
		GenreMatcher:      matcher,
		Consistency:       consistency,
		PlotTracker:       plotTracker,
		SessionService:    session,
		GenreLibrary:      library,
		Metrics:           utils.NewAnalysisMetrics(),
		Response:          NewResponseHelper(),
	}
}

// AnalyzeStructureRequest 结构分析请求
type AnalyzeStructureRequest struct {
	StoryContent string `json:"story_content"`
	Genre        string `json:"genre"`
	ProjectID    string `json:"project_id,omitempty"`
}

// CalculatePacingRequest 节奏计算请求
type CalculatePacingRequest struct {
	NarrativeBeats []models.InputBeat `json:"narrative_beats"`
	Genre          string             `json:"genre,omitempty"`
	ProjectID      string             `json:"project_id,omitempty"`
}

// ApplyGenrePatternsRequest 类型模式分析请求
type ApplyGenrePatternsRequest struct {
	StoryBeats     []models.InputBeat `json:"story_beats"`
	CharacterTypes []string           `json:"character_types"`
	Genre          string             `json:"genre"`
	ProjectID      string             `json:"project_id,omitempty"`
}

// ValidateConsistencyRequest 一致性校验请求
type ValidateConsistencyRequest struct {
	StoryElements models.StoryElements `json:"story_elements"`
	ProjectID     string               `json:"project_id,omitempty"`
}

// TrackPlotThreadsRequest 情节线追踪请求
type TrackPlotThreadsRequest struct {
	StoryContent string `json:"story_content"`
	ThreadFocus  string `json:"thread_focus,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ========================================
// 分析处理器
// ========================================

// AnalyzeStructure 三幕结构分析
func (h *Handler) AnalyzeStructure(c *gin.Context) {
	var req AnalyzeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	start := time.Now()
	arc, err := h.StructureAnalyzer.Analyze(req.StoryContent, req.Genre)
	h.Metrics.RecordAnalysis("analyze_story_structure", time.Since(start), err)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	h.saveResult(req.ProjectID, "analyze_story_structure", arc)
	h.Response.Success(c, arc)
}

// CalculatePacing 张力与节奏分析
func (h *Handler) CalculatePacing(c *gin.Context) {
	var req CalculatePacingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	start := time.Now()
	analysis, err := h.TensionEngine.Calculate(req.NarrativeBeats, req.Genre)
	h.Metrics.RecordAnalysis("calculate_pacing", time.Since(start), err)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	h.saveResult(req.ProjectID, "calculate_pacing", analysis)
	h.Response.Success(c, analysis)
}

// ApplyGenrePatterns 类型惯例符合度分析
func (h *Handler) ApplyGenrePatterns(c *gin.Context) {
	var req ApplyGenrePatternsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	start := time.Now()
	guidance, err := h.GenreMatcher.Analyze(req.StoryBeats, req.CharacterTypes, req.Genre)
	h.Metrics.RecordAnalysis("apply_genre_patterns", time.Since(start), err)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	h.saveResult(req.ProjectID, "apply_genre_patterns", guidance)
	h.Response.Success(c, guidance)
}

// ValidateConsistency 跨元素一致性校验
func (h *Handler) ValidateConsistency(c *gin.Context) {
	var req ValidateConsistencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	start := time.Now()
	report, err := h.Consistency.Validate(&req.StoryElements)
	h.Metrics.RecordAnalysis("validate_consistency", time.Since(start), err)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	h.saveResult(req.ProjectID, "validate_consistency", report)
	h.Response.Success(c, report)
}

// TrackPlotThreads 情节线追踪
func (h *Handler) TrackPlotThreads(c *gin.Context) {
	var req TrackPlotThreadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	start := time.Now()
	report, err := h.PlotTracker.Track(req.StoryContent, req.ThreadFocus)
	h.Metrics.RecordAnalysis("track_plot_threads", time.Since(start), err)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	h.saveResult(req.ProjectID, "track_plot_threads", report)
	h.Response.Success(c, report)
}

// ========================================
// 类型模板与项目结果
// ========================================

// GetGenres 列出全部类型模板
func (h *Handler) GetGenres(c *gin.Context) {
	h.Response.Success(c, h.GenreLibrary.List())
}

// GetGenre 获取单个类型模板
func (h *Handler) GetGenre(c *gin.Context) {
	id := c.Param("id")
	tmpl, ok := h.GenreLibrary.Resolve(id)
	if !ok {
		h.Response.NotFound(c, ErrorGenreNotFound, "genre template not found: "+id)
		return
	}
	h.Response.Success(c, tmpl)
}

// ListProjects 列出已有分析记录的项目id
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.SessionService.ListProjects()
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	h.Response.Success(c, gin.H{"projects": projects})
}

// GetProjectResults 获取项目的历史分析记录
func (h *Handler) GetProjectResults(c *gin.Context) {
	projectID := c.Param("id")
	results, err := h.SessionService.GetProjectResults(projectID)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	h.Response.Success(c, results)
}

// Health 健康检查，附带分析计数器快照
func (h *Handler) Health(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"status":  "ok",
		"metrics": h.Metrics.Snapshot(),
	})
}

// ========================================
// 内部辅助
// ========================================

// saveResult 在提供项目id时持久化结果; 持久化失败不影响分析响应
func (h *Handler) saveResult(projectID, tool string, result interface{}) {
	if projectID == "" {
		return
	}
	if _, err := h.SessionService.SaveResult(projectID, tool, result); err != nil {
		utils.GetLogger().Warn("failed to save analysis result", map[string]interface{}{
			"project": projectID,
			"tool":    tool,
			"error":   err.Error(),
		})
	}
}

// respondAnalysisError 将服务层错误映射为HTTP状态与错误码
func (h *Handler) respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.IsValidationError(err):
		h.Response.BadRequest(c, err.Error())
	case errors.IsLookupError(err):
		h.Response.NotFound(c, ErrorGenreNotFound, err.Error())
	case errors.IsNotFoundError(err):
		h.Response.NotFound(c, ErrorProjectNotFound, err.Error())
	default:
		h.Response.Error(c, 500, ErrorAnalysisFailed, err.Error())
	}
}
