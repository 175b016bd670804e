package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hr-dashboard/backend/config"
	applogger "hr-dashboard/backend/pkg/logger"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "hrctl",
	Short:        "HR 招聘看板运维工具",
	Long:         "hrctl 用于诊断多维表格权限、手动触发本地缓存同步。",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "配置文件路径（默认读取 HR_CONFIG 环境变量）")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "输出 debug 日志")
}

// loadRuntime 加载配置并初始化日志
// 优先级：--config > HR_CONFIG > 仅默认值与环境变量
func loadRuntime() (*config.Config, *zap.Logger, error) {
	path := cfgPath
	if path == "" {
		path = os.Getenv("HR_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Format = "console"

	logger, err := applogger.NewLogger(&cfg.Log, "hrctl")
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
