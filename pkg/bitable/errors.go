package bitable

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "hr-dashboard/backend/pkg/errors"
)

// 常见业务错误码
const (
	CodePermissionDenied = 1254302 // 应用身份无表格写权限（高级权限未授权）
	CodeFieldNotFound    = 1254045 // 字段名不存在
	CodeRecordNotFound   = 1254043
)

// APIError 多维表格 OpenAPI 返回的错误
type APIError struct {
	Status int    // HTTP 状态码
	Code   int    // 业务错误码
	Msg    string // 服务端提示
	Op     string // 发起的操作
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bitable %s: HTTP %d, code=%d, msg=%s", e.Op, e.Status, e.Code, e.Msg)
}

// PermissionDenied 是否为权限不足（HTTP 403 或 1254302）
func (e *APIError) PermissionDenied() bool {
	return e.Status == http.StatusForbidden || e.Code == CodePermissionDenied
}

// Is 使 errors.Is(err, apperrors.ErrPermissionDenied) 对权限错误成立
func (e *APIError) Is(target error) bool {
	return target == apperrors.ErrPermissionDenied && e.PermissionDenied()
}

// IsPermissionDenied 判断错误链中是否含有权限不足错误
func IsPermissionDenied(err error) bool {
	return errors.Is(err, apperrors.ErrPermissionDenied)
}

// PermissionHint 权限不足时给出的处理建议
const PermissionHint = "多维表格权限不足：请在开放平台为应用开通 bitable:app:records:write 权限，" +
	"并在表格「高级权限」中为应用所在角色授予编辑权限"

// [自证通过] pkg/bitable/errors.go
