package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hr-dashboard/backend/internal/service"
	"hr-dashboard/backend/pkg/bitable"
)

var disableAdvanced bool

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "诊断多维表格的读写权限",
	Long:  "依次检查租户 Token、应用信息（高级权限）、记录读取、字段列表，并写入后删除一条测试记录。",
	RunE:  runDiagnose,
}

func init() {
	diagnoseCmd.Flags().BoolVar(&disableAdvanced, "disable-advanced", false, "已开启高级权限时尝试通过接口关闭")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	bt := bitable.NewClient(&cfg.Bitable, nil, logger)
	if !bt.Configured() {
		return errors.New("多维表格未配置：需要 app_id / app_secret / app_token / table_id")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "--- 多维表格诊断 (app_token=%s) ---\n", cfg.Bitable.AppToken)

	report := service.DiagnoseBitable(ctx, bt, disableAdvanced, logger)
	if report.AppName != "" {
		fmt.Fprintf(out, "应用: %s  高级权限: %v\n", report.AppName, report.IsAdvanced)
	}
	for _, s := range report.Steps {
		mark := "OK  "
		if !s.OK {
			mark = "FAIL"
		}
		fmt.Fprintf(out, "[%s] %s", mark, s.Name)
		if s.Detail != "" {
			fmt.Fprintf(out, "  %s", s.Detail)
		}
		fmt.Fprintln(out)
		if s.Hint != "" {
			fmt.Fprintf(out, "       建议: %s\n", s.Hint)
		}
	}
	if len(report.Fields) > 0 {
		fmt.Fprintf(out, "字段: %s\n", strings.Join(report.Fields, ", "))
	}

	if !report.OK() {
		return errors.New("诊断未通过")
	}
	fmt.Fprintln(out, "诊断通过")
	return nil
}
