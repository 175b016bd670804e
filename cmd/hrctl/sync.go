package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hr-dashboard/backend/internal/repository"
	"hr-dashboard/backend/internal/service"
	"hr-dashboard/backend/pkg/bitable"
	"hr-dashboard/backend/pkg/eventbus"
	"hr-dashboard/backend/pkg/redis"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "立即处理一轮同步积压",
	Long:  "消费 Redis 中的同步积压队列，将本地新增的候选人写入多维表格。未到重试时间的任务放回队列。",
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// 内存队列只存在于服务进程内，离线同步必须依赖 Redis
	if !cfg.Redis.Enabled {
		return fmt.Errorf("未启用 Redis，同步积压只存在于服务进程内存中")
	}
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	events, err := eventbus.New(&cfg.Events, logger)
	if err != nil {
		logger.Warn("消息队列连接失败，本次同步不发布事件", zap.Error(err))
		events = eventbus.NewNopPublisher(logger)
	}
	defer events.Close()

	bt := bitable.NewClient(&cfg.Bitable, nil, logger)
	repo := repository.NewRepository(cfg, bt, rdb, logger)
	worker := service.NewSyncWorker(repo, nil, &cfg.Sync, events, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := worker.DrainOnce(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "synced=%d retried=%d deferred=%d abandoned=%d\n",
		stats.Synced, stats.Retried, stats.Deferred, stats.Abandoned)
	return err
}
