// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Corphon/StoryPulseMCP/internal/api"
	"github.com/Corphon/StoryPulseMCP/internal/config"
	"github.com/Corphon/StoryPulseMCP/internal/di"
	"github.com/Corphon/StoryPulseMCP/internal/genre"
	"github.com/Corphon/StoryPulseMCP/internal/services"
	"github.com/Corphon/StoryPulseMCP/internal/storage"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

// App 应用程序实例
type App struct {
	config   *config.Config
	router   http.Handler
	server   httpServer
	stopChan chan os.Signal
}

// httpServer 便于测试替换真实服务器
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var instance *App

// GetApp 获取应用单例
func GetApp() *App {
	if instance == nil {
		instance = &App{
			stopChan: make(chan os.Signal, 1),
		}
	}
	return instance
}

// Initialize 完成配置、日志、服务与路由的装配
func (a *App) Initialize() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.config = cfg

	if err := initLogger(cfg.LogDir); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	if cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	}

	if err := InitServices(cfg); err != nil {
		return fmt.Errorf("failed to init services: %w", err)
	}

	router, err := api.SetupRouter()
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}
	a.router = router
	return nil
}

// InitServices 按依赖顺序注册全部服务
func InitServices(cfg *config.Config) error {
	container := di.GetContainer()

	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	container.Register("storage", fileStorage)

	genreLibrary, err := genre.NewLibrary(cfg.GenreDir)
	if err != nil {
		return fmt.Errorf("failed to load genre templates: %w", err)
	}
	container.Register("genre_library", genreLibrary)

	// 引擎依赖类型模板库，先注册库再装配引擎
	tensionEngine := services.NewTensionCurveEngine(genreLibrary)
	container.Register("tension", tensionEngine)

	container.Register("structure", services.NewStructureAnalyzer(tensionEngine, genreLibrary))
	container.Register("genre_matcher", services.NewGenrePatternMatcher(genreLibrary))
	container.Register("consistency", services.NewConsistencyRuleEngine())
	container.Register("plot_tracker", services.NewPlotThreadTracker())
	container.Register("session", services.NewSessionService(fileStorage))

	return nil
}

// Run 启动HTTP服务并阻塞等待关闭信号
func (a *App) Run() error {
	if a.server == nil {
		a.server = &http.Server{
			Addr:    ":" + a.config.Port,
			Handler: a.router,
		}
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.GetLogger().Fatalf("server failed: %v", err)
		}
	}()

	utils.GetLogger().Infof("server listening on port %s", a.config.Port)

	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	<-a.stopChan

	utils.GetLogger().Info("shutting down server", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}

// GetConfig 返回应用配置
func (a *App) GetConfig() *config.Config {
	return a.config
}

// IsDebugMode 检查是否处于调试模式
func IsDebugMode() bool {
	if instance == nil || instance.config == nil {
		return false
	}
	return instance.config.DebugMode
}

// GetDIContainer 获取依赖注入容器
func GetDIContainer() *di.Container {
	return di.GetContainer()
}

// initLogger 初始化日志系统，日志文件按天命名
func initLogger(logDir string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("storypulse_%s.log", time.Now().Format("2006-01-02")))
	return utils.InitLogger(logFile)
}
