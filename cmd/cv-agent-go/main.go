package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cv-agent-go/internal/agent"
	"cv-agent-go/internal/api/handler"
	"cv-agent-go/internal/api/router"
	"cv-agent-go/internal/config"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/section"

	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"       //nolint:gochecknoglobals
	serviceName = "cv-agent-go" //nolint:gochecknoglobals
)

// @title           CV Layout Agent API
// @version         1.0
// @description     简历文档章节发现与版面操作服务
// @BasePath  /api/v1
func main() {
	var (
		configPath string
		addr       string
	)
	pflag.StringVar(&configPath, "config", "", "配置文件路径（默认按常见位置搜索）")
	pflag.StringVar(&addr, "addr", "", "监听地址，覆盖配置文件中的server.address")
	pflag.Parse()

	// 1. 加载配置文件
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置文件失败")
	}
	if addr != "" {
		cfg.Server.Address = addr
	}

	// 2. 初始化日志系统
	initLogger(cfg)

	// 3. 初始化章节引擎
	engine, err := section.NewEngine(section.Config{
		ScanWindow:       cfg.Engine.ScanWindow,
		GroupingTags:     cfg.Engine.GroupingTags,
		ExtraIdentifiers: cfg.Engine.ExtraIdentifiers,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化章节引擎失败")
	}

	// 4. 可选的外部apply-layout协作方
	var layoutAgent agent.LayoutApplier
	if cfg.LayoutAgent.Endpoint != "" {
		layoutAgent = agent.NewHTTPLayoutAgent(
			cfg.LayoutAgent.Endpoint,
			agent.WithTimeout(cfg.LayoutAgent.TimeoutDuration()),
		)
		logger.Info().Str("endpoint", cfg.LayoutAgent.Endpoint).Msg("外部apply-layout服务已启用")
	}

	layoutHandler := handler.NewLayoutHandler(engine, layoutAgent)

	// 5. 创建HTTP服务器
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
	)

	// 6. 添加路由
	router.RegisterRoutes(h, layoutHandler, cfg)

	// 7. 启动HTTP服务器
	go func() {
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()
	logger.Info().Str("address", cfg.Server.Address).Msg("HTTP服务器已启动")

	// 8. 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	// 9. 优雅关闭HTTP服务器
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("服务器关闭失败")
	}

	logger.Info().Msg("优雅退出完成")
}

// 初始化日志系统
func initLogger(cfg *config.Config) {
	logConfig := logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	}
	if logConfig.TimeFormat == "" {
		logConfig.TimeFormat = time.RFC3339
	}

	logger.Init(logConfig)

	// 设置一些全局的字段
	logger.Logger = logger.Logger.With().
		Str("app", serviceName).
		Str("version", version).
		Logger()

	// 把Hertz框架自身的日志也接到zerolog上
	glog.SetLogger(hertzadapter.From(logger.Logger))
	glog.SetLevel(glog.LevelInfo)
}
