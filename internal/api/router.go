// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryPulseMCP/internal/di"
	"github.com/Corphon/StoryPulseMCP/internal/genre"
	"github.com/Corphon/StoryPulseMCP/internal/services"
)

// SetupRouter 配置HTTP路由
// 只从容器获取服务，不创建新实例
func SetupRouter() (*gin.Engine, error) {
	container := di.GetContainer()

	structureAnalyzer, ok := container.Get("structure").(*services.StructureAnalyzer)
	if !ok {
		return nil, fmt.Errorf("structure analyzer not initialized")
	}

	tensionEngine, ok := container.Get("tension").(*services.TensionCurveEngine)
	if !ok {
		return nil, fmt.Errorf("tension engine not initialized")
	}

	genreMatcher, ok := container.Get("genre_matcher").(*services.GenrePatternMatcher)
	if !ok {
		return nil, fmt.Errorf("genre matcher not initialized")
	}

	consistencyEngine, ok := container.Get("consistency").(*services.ConsistencyRuleEngine)
	if !ok {
		return nil, fmt.Errorf("consistency engine not initialized")
	}

	plotTracker, ok := container.Get("plot_tracker").(*services.PlotThreadTracker)
	if !ok {
		return nil, fmt.Errorf("plot thread tracker not initialized")
	}

	sessionService, ok := container.Get("session").(*services.SessionService)
	if !ok {
		return nil, fmt.Errorf("session service not initialized")
	}

	genreLibrary, ok := container.Get("genre_library").(*genre.Library)
	if !ok {
		return nil, fmt.Errorf("genre library not initialized")
	}

	handler := NewHandler(
		structureAnalyzer,
		tensionEngine,
		genreMatcher,
		consistencyEngine,
		plotTracker,
		sessionService,
		genreLibrary,
	)

	r := gin.Default()

	r.Use(corsMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(MetricsMiddleware(handler.Metrics))

	// WebSocket 流式分析
	r.GET("/ws/analyze", handler.AnalyzeWebSocket)

	// ===============================
	// API路由组
	// ===============================
	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)

		// 分析端点
		analysisGroup := api.Group("/analysis")
		analysisGroup.Use(AnalysisRateLimit())
		{
			analysisGroup.POST("/structure", handler.AnalyzeStructure)
			analysisGroup.POST("/pacing", handler.CalculatePacing)
			analysisGroup.POST("/genre", handler.ApplyGenrePatterns)
			analysisGroup.POST("/consistency", handler.ValidateConsistency)
			analysisGroup.POST("/threads", handler.TrackPlotThreads)
		}

		// 类型模板
		genresGroup := api.Group("/genres")
		genresGroup.Use(DefaultRateLimit())
		{
			genresGroup.GET("", handler.GetGenres)
			genresGroup.GET("/:id", handler.GetGenre)
		}

		// 项目结果
		projectsGroup := api.Group("/projects")
		projectsGroup.Use(DefaultRateLimit())
		{
			projectsGroup.GET("", handler.ListProjects)
			projectsGroup.GET("/:id/results", handler.GetProjectResults)
		}
	}

	return r, nil
}

// corsMiddleware 实现跨域资源共享
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
