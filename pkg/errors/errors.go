package errors

import "errors"

// ErrNotConfigured 上游服务缺少必要配置（凭证、表格 ID 等）
var ErrNotConfigured = errors.New("上游服务未配置")

// ErrPermissionDenied 上游拒绝写入/删除（权限不足）
var ErrPermissionDenied = errors.New("上游服务权限不足")
