package battle

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	custommiddleware "career-royale/internal/middleware"
	"career-royale/internal/modules/battle/dialogue"
	"career-royale/internal/modules/battle/handler"
	"career-royale/internal/modules/battle/service"
	"career-royale/internal/modules/battle/tasks"
	"career-royale/internal/pkg/config"
	"career-royale/internal/pkg/i18n"
	"career-royale/internal/pkg/log"
	"career-royale/internal/pkg/metrics"
	"career-royale/internal/pkg/notify"
	"career-royale/internal/pkg/response"
	"career-royale/internal/pkg/trace"
	"career-royale/internal/pkg/validator"
)

// BattleModule 面试战斗服务：HTTP 接口、战斗引擎与定时回收
type BattleModule struct {
	cfg    *config.Config
	logger log.Logger

	registry      *prometheus.Registry
	httpMetrics   *metrics.HTTPMetrics
	battleMetrics *metrics.BattleMetrics

	httpServer    *echo.Echo
	respWriter    response.Writer
	battleService *service.BattleService
	battleHandler *handler.BattleHandler
	reaperTask    *tasks.ReaperTask
}

// New 创建模块，调用 Init 后才能 Run
func New(cfg *config.Config, logger log.Logger) *BattleModule {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BattleModule{cfg: cfg, logger: logger}
}

// Init 初始化各组件
func (m *BattleModule) Init() error {
	metrics.SetServiceName("battle")

	// 1. Metrics
	m.initMetrics()

	// 2. NATS（可选）
	m.initNATS()

	// 3. Response writer
	m.respWriter = response.NewResponseHandler(m.logger, m.cfg.Environment)
	fmt.Println("[Battle Module] Response writer initialized")

	// 4. Services and handlers
	m.initServicesAndHandlers()

	// 5. HTTP server
	m.initHTTPServer()

	// 6. Routes
	m.setupRoutes()

	// 7. Cron tasks
	if err := m.reaperTask.Start(); err != nil {
		return fmt.Errorf("start reaper task: %w", err)
	}
	fmt.Println("[Battle Module] Cron tasks started")

	return nil
}

func (m *BattleModule) initMetrics() {
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.httpMetrics = metrics.NewHTTPMetricsWithRegistry(metrics.Namespace, m.registry)
	m.battleMetrics = metrics.NewBattleMetricsWithRegistry(metrics.Namespace, m.registry)
	fmt.Println("[Battle Module] Metrics initialized")
}

func (m *BattleModule) initNATS() {
	nc, err := notify.Connect(m.cfg.NATSURL, "career-royale-battle")
	if err != nil {
		// 通知不是关键路径，连接失败只记录
		fmt.Printf("[Battle Module] Failed to connect to NATS: %v\n", err)
		return
	}
	if nc == nil {
		fmt.Println("[Battle Module] NATS_URL not set, battle notifications disabled")
		return
	}
	notify.SetNatsConn(nc)
	fmt.Println("[Battle Module] Connected to NATS successfully")
}

func (m *BattleModule) initServicesAndHandlers() {
	provider := dialogue.New(m.cfg.OpenAIAPIKey, m.cfg.OpenAIBaseURL, m.cfg.OpenAIModel)
	if _, ok := provider.(dialogue.UnavailableProvider); ok {
		fmt.Println("[Battle Module] OPENAI_API_KEY not set, using fallback dialogue")
	}

	store := service.NewMemoryStore()
	engine := service.NewEngine(store, provider, nil, service.EngineOptions{
		DialogueTimeout: m.cfg.DialogueTimeout,
		EventBuffer:     m.cfg.StreamBuffer,
		Metrics:         m.battleMetrics,
		Notifier:        service.NATSNotifier{},
		Logger:          m.logger,
	})

	m.battleService = service.NewBattleService(store, engine, m.battleMetrics, m.logger)
	m.battleHandler = handler.NewBattleHandler(m.battleService, m.respWriter, m.cfg.StreamHeartbeat, m.logger)
	m.reaperTask = tasks.NewReaperTask(m.battleService, m.cfg.BattleReapSchedule, m.cfg.BattleMaxAge, m.logger)
	fmt.Println("[Battle Module] Services and handlers initialized")
}

func (m *BattleModule) initHTTPServer() {
	m.httpServer = echo.New()
	m.httpServer.HideBanner = true
	m.httpServer.HidePort = true
	m.httpServer.Validator = validator.New()

	// ========== 中间件配置（顺序很重要！） ==========

	// 1. TraceID
	m.httpServer.Use(trace.Middleware())

	// 2. Metrics
	m.httpServer.Use(metrics.Middleware(m.httpMetrics))

	// 3. i18n
	m.httpServer.Use(i18n.Middleware())

	// 4. Logging（依赖 TraceID）
	loggingConfig := custommiddleware.DefaultLoggingConfig()
	loggingConfig.DetailedLog = !m.cfg.IsProduction()
	m.httpServer.Use(custommiddleware.LoggingMiddlewareWithConfig(m.logger, loggingConfig))

	// 5. Recovery
	m.httpServer.Use(custommiddleware.RecoveryMiddleware(m.respWriter, m.logger))

	// 6. Error
	m.httpServer.Use(custommiddleware.ErrorMiddleware(m.respWriter, m.logger))

	// 7. CORS
	m.httpServer.Use(custommiddleware.CORSMiddleware(m.cfg.CORSAllowOrigins))

	// 8. Security headers
	m.httpServer.Use(custommiddleware.SecurityMiddleware())

	fmt.Println("[Battle Module] HTTP server initialized")
}

func (m *BattleModule) setupRoutes() {
	battle := m.httpServer.Group("/api/battle")
	{
		battle.POST("/start", m.battleHandler.StartBattle)      // 创建战斗
		battle.GET("/:id", m.battleHandler.GetBattle)           // 查询战斗状态
		battle.GET("/:id/stream", m.battleHandler.StreamBattle) // SSE 执行战斗
	}

	m.httpServer.GET("/health", func(c echo.Context) error {
		return response.EchoJSON(c, m.respWriter, map[string]interface{}{
			"status": "ok",
			"module": "battle",
			"nats":   notify.Connected(),
		}, http.StatusOK)
	})

	// Prometheus metrics endpoint
	m.httpServer.GET("/metrics", metrics.EchoHandler(m.registry))
}

// Handler 返回 HTTP 处理器
func (m *BattleModule) Handler() http.Handler {
	return m.httpServer
}

// Run 启动 HTTP 服务并阻塞到 ctx 结束，随后优雅关闭
func (m *BattleModule) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("[Battle Module] Starting HTTP server on %s\n", m.cfg.Addr())
		if err := m.httpServer.Start(m.cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	fmt.Println("[Battle Module] Started successfully")

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.cfg.ShutdownTimeout)
	defer cancel()
	m.Shutdown(shutdownCtx)
	return runErr
}

// Shutdown 停止定时任务、关闭 HTTP 服务并排空 NATS
func (m *BattleModule) Shutdown(ctx context.Context) {
	if m.reaperTask != nil {
		m.reaperTask.Stop(ctx)
		fmt.Println("[Battle Module] Cron tasks stopped")
	}

	if m.httpServer != nil {
		if err := m.httpServer.Shutdown(ctx); err != nil {
			fmt.Printf("[Battle Module] Failed to shut down HTTP server: %v\n", err)
			_ = m.httpServer.Close()
		} else {
			fmt.Println("[Battle Module] HTTP server closed")
		}
	}

	if err := notify.Drain(); err != nil {
		fmt.Printf("[Battle Module] Failed to drain NATS: %v\n", err)
	}

	fmt.Println("[Battle Module] Destroyed")
}
