package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"collaborative-whiteboard/internal/domain"
	httpHandler "collaborative-whiteboard/internal/handler/http"
	wsHandler "collaborative-whiteboard/internal/handler/websocket"
	"collaborative-whiteboard/internal/hub"
	"collaborative-whiteboard/internal/middleware"
	"collaborative-whiteboard/internal/session"
	"collaborative-whiteboard/internal/store"
	"collaborative-whiteboard/internal/tasks"
	"collaborative-whiteboard/internal/worker"
)

// App 包含应用的所有组件和配置。
type App struct {
	Config       *Config
	Log          *logrus.Logger
	RedisClient  *redis.Client
	Hub          *hub.Hub
	Router       *session.Router
	WorkerServer *worker.WorkerServer
	HttpServer   *http.Server

	scheduler      *asynq.Scheduler
	redisClientOpt asynq.RedisClientOpt
}

// NewApp 创建并初始化应用的所有组件。
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // LoadConfig 已校验
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	logrus.SetLevel(logLevel) // 包级 logger 与 App logger 保持同级
	log.Infof("Logger initialized (Level: %s)", logLevel.String())

	// 3. 初始化 Redis（限流计数器与后台任务队列的后端）
	redisClient, err := initRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	log.Info("Redis client initialized")

	redisClientOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	// 4. 初始化核心：存储、路由器、Hub
	rooms := store.NewRoomStore()
	registry := store.NewUserRegistry()
	idGen := domain.UUIDGenerator{}
	table := hub.NewClientTable()
	router := session.NewRouter(rooms, registry, table, idGen)
	hubInstance := hub.NewHub(table, router)
	log.Info("Session core initialized")

	// 5. 初始化 Handlers
	websocketHandler := wsHandler.NewHandler(hubInstance, idGen, cfg.CORSAllowedOrigin)
	statsHandler := httpHandler.NewStatsHandler(rooms, registry)

	// 6. 初始化 Worker Server（周期性会话审计）
	workerServer := worker.NewWorkerServer(redisClientOpt, router, log)
	log.Info("Worker server initialized")

	// 7. 初始化 Gin Engine 和路由
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggerMiddleware(log))
	engine.Use(corsMiddleware(cfg.CORSAllowedOrigin))
	engine.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	engine.GET("/ws", websocketHandler.HandleConnection)
	api := engine.Group("/api")
	{
		api.GET("/stats", statsHandler.GetStats)
	}
	engine.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	log.Info("Router setup complete")

	// 8. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: engine,
	}

	return &App{
		Config:         cfg,
		Log:            log,
		RedisClient:    redisClient,
		Hub:            hubInstance,
		Router:         router,
		WorkerServer:   workerServer,
		HttpServer:     httpServer,
		redisClientOpt: redisClientOpt,
	}, nil
}

// Start 启动应用的所有后台 goroutine 和 HTTP 服务器。
func (a *App) Start() {
	go a.Hub.Run()
	a.Log.Info("Hub routine started")

	go a.WorkerServer.Start()
	a.Log.Info("Worker server routine started")

	a.registerPeriodicTasks()

	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// registerPeriodicTasks 注册周期性任务并启动调度器。
func (a *App) registerPeriodicTasks() {
	a.scheduler = asynq.NewScheduler(a.redisClientOpt, &asynq.SchedulerOpts{})

	task, err := tasks.NewSessionAuditTask()
	if err != nil {
		a.Log.Errorf("Failed to create session audit task: %v", err)
		return
	}

	schedule := "@every 5m"
	entryID, err := a.scheduler.Register(schedule, task, asynq.Queue("default"))
	if err != nil {
		a.Log.Errorf("Could not register periodic session audit task: %v", err)
	} else {
		a.Log.Infof("Periodic session audit registered with schedule '%s' (EntryID: %s)", schedule, entryID)
	}

	go func() {
		a.Log.Info("Asynq scheduler starting...")
		if err := a.scheduler.Run(); err != nil {
			if !errors.Is(err, asynq.ErrServerClosed) {
				a.Log.Errorf("Asynq scheduler Run() failed: %v", err)
			} else {
				a.Log.Info("Asynq scheduler stopped.")
			}
		}
	}()
}

// Shutdown 优雅地关闭应用。
// Hub 的事件循环不在这里停止：已升级的 WebSocket 连接不受
// HttpServer.Shutdown 管辖，它们的读取泵在进程退出前仍可能投递
// 注销事件，让循环随进程一起结束最安全。
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 关闭 HTTP 服务器，不再接受新连接
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 停止调度器和 Worker
	if a.scheduler != nil {
		a.scheduler.Shutdown()
	}
	if a.WorkerServer != nil {
		a.WorkerServer.Shutdown()
	}

	// 3. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// initRedis 创建 Redis 客户端并用 Ping 验证连通性。
func initRedis(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// corsMiddleware 设置跨域响应头。origin 来自配置，开发默认指向本地
// 前端开发服务器。
func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware 创建记录请求日志的 Gin 中间件。
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		switch {
		case errorMessage != "":
			entry.Error(errorMessage)
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
