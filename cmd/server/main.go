package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hr-dashboard/backend/config"
	"hr-dashboard/backend/internal/api/handler"
	"hr-dashboard/backend/internal/api/router"
	"hr-dashboard/backend/internal/repository"
	"hr-dashboard/backend/internal/service"
	"hr-dashboard/backend/pkg/bitable"
	"hr-dashboard/backend/pkg/eventbus"
	"hr-dashboard/backend/pkg/jwt"
	applogger "hr-dashboard/backend/pkg/logger"
	"hr-dashboard/backend/pkg/mailer"
	"hr-dashboard/backend/pkg/objectstore"
	"hr-dashboard/backend/pkg/redis"
	"hr-dashboard/backend/pkg/workflow"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("HR_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log, "server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("auth_enforce", cfg.Auth.Enforce),
	)

	// 3. 连接 Redis（可选：连接失败时降级为内存队列，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，同步队列降级为内存、登录限流与 Token 黑名单不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 4. 上游客户端
	bt := bitable.NewClient(&cfg.Bitable, nil, logger)
	if !bt.Configured() {
		logger.Warn("多维表格未配置，人才库仅使用本地缓存")
	}
	wf := workflow.NewClient(&cfg.Workflow, nil, logger)
	mail := mailer.New(&cfg.Mail, logger)
	if mail.LogOnly() {
		logger.Warn("SMTP 未配置，邮件仅记录日志")
	}

	events, err := eventbus.New(&cfg.Events, logger)
	if err != nil {
		logger.Warn("消息队列连接失败，人才库事件不再发布", zap.Error(err))
		events = eventbus.NewNopPublisher(logger)
	}

	deps := service.Deps{
		Workflow: wf,
		Mailer:   mail,
		Events:   events,
	}
	if cfg.Storage.Enabled {
		store, err := objectstore.New(context.Background(), &cfg.Storage)
		if err != nil {
			logger.Warn("对象存储初始化失败，简历不归档", zap.Error(err))
		} else {
			deps.Archive = store
		}
	}
	if rdb != nil {
		deps.Blacklist = rdb
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(cfg, bt, rdb, logger)
	state := service.NewDashboardState()
	svc := service.NewService(cfg, repo, state, jwtMgr, deps, logger)
	h := handler.NewHandler(svc)

	// 7. 后台同步：本地缓存 → 多维表格
	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := service.NewSyncWorker(repo, state, &cfg.Sync, events, logger)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		worker.Run(workerCtx)
	}()

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	stopWorker()
	<-workerDone

	if err := events.Close(); err != nil {
		logger.Warn("关闭消息队列连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
