// cmd/mcp/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Corphon/StoryPulseMCP/internal/app"
	"github.com/Corphon/StoryPulseMCP/internal/config"
	"github.com/Corphon/StoryPulseMCP/internal/di"
	"github.com/Corphon/StoryPulseMCP/internal/genre"
	"github.com/Corphon/StoryPulseMCP/internal/mcpserver"
	"github.com/Corphon/StoryPulseMCP/internal/services"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

// stdio 传输占用标准输出，所有日志只能走文件与标准错误
func main() {
	// 1. 加载基础配置
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 创建必要的目录
	for _, dir := range []string{baseConfig.DataDir, filepath.Join(baseConfig.DataDir, "results"), baseConfig.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("创建目录失败 %s: %v", dir, err)
		}
	}

	// 3. 初始化日志系统
	logFile := filepath.Join(baseConfig.LogDir, fmt.Sprintf("storypulse_mcp_%s.log", time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	// 标准输出被协议占用，日志只落文件
	utils.GetLogger().DisableConsole()
	if baseConfig.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}

	// 4. 初始化所有服务（按依赖顺序）
	if err := app.InitServices(baseConfig); err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}

	// 5. 装配 MCP 服务器
	server, err := buildServer()
	if err != nil {
		log.Fatalf("装配 MCP 服务器失败: %v", err)
	}

	// 6. 在 stdio 上服务，直到客户端断开或收到终止信号
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx); err != nil {
		log.Fatalf("MCP 服务失败: %v", err)
	}
}

// buildServer 从依赖注入容器取出引擎并装配 MCP 服务器
func buildServer() (*mcpserver.Server, error) {
	container := di.GetContainer()

	structure, ok := container.Get("structure").(*services.StructureAnalyzer)
	if !ok {
		return nil, fmt.Errorf("结构分析服务未注册")
	}
	tension, ok := container.Get("tension").(*services.TensionCurveEngine)
	if !ok {
		return nil, fmt.Errorf("张力曲线服务未注册")
	}
	matcher, ok := container.Get("genre_matcher").(*services.GenrePatternMatcher)
	if !ok {
		return nil, fmt.Errorf("类型匹配服务未注册")
	}
	consistency, ok := container.Get("consistency").(*services.ConsistencyRuleEngine)
	if !ok {
		return nil, fmt.Errorf("一致性校验服务未注册")
	}
	plotTracker, ok := container.Get("plot_tracker").(*services.PlotThreadTracker)
	if !ok {
		return nil, fmt.Errorf("情节线追踪服务未注册")
	}
	session, ok := container.Get("session").(*services.SessionService)
	if !ok {
		return nil, fmt.Errorf("会话服务未注册")
	}
	library, ok := container.Get("genre_library").(*genre.Library)
	if !ok {
		return nil, fmt.Errorf("类型模板库未注册")
	}

	return mcpserver.New(mcpserver.Options{
		Structure:   structure,
		Tension:     tension,
		Matcher:     matcher,
		Consistency: consistency,
		Threads:     plotTracker,
		Session:     session,
		Library:     library,
	})
}
