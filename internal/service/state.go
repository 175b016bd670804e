package service

import (
	"strings"
	"sync"
	"time"

	"hr-dashboard/backend/internal/model"
)

// DashboardState 仪表盘共享状态
// 进程内唯一实例，在 main 中创建并注入各 Service；所有修改都经由下列方法完成
type DashboardState struct {
	mu sync.Mutex

	talents   []model.Candidate
	loaded    bool
	loading   bool
	stale     bool
	fetchedAt time.Time

	analyzing bool
	report    string
}

// NewDashboardState 创建空状态
func NewDashboardState() *DashboardState {
	return &DashboardState{}
}

// ── 人才列表缓存 ──

// Talents 返回人才列表副本
func (s *DashboardState) Talents() []model.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCandidates(s.talents)
}

// Loaded 是否已加载过人才列表
func (s *DashboardState) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// SetTalents 替换人才列表
func (s *DashboardState) SetTalents(list []model.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTalentsLocked(list)
}

func (s *DashboardState) setTalentsLocked(list []model.Candidate) {
	s.talents = cloneCandidates(list)
	s.loaded = true
	s.stale = false
	s.fetchedAt = time.Now()
}

// Invalidate 标记列表已过期，下一次非强制拉取会重新加载
// 已有列表保留，拉取失败时仍可使用
func (s *DashboardState) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
}

// BeginFetch 判断本次拉取是否需要执行
// 非强制时：已有未过期数据或已有拉取在进行中都直接跳过
func (s *DashboardState) BeginFetch(force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !force && (s.loading || (s.loaded && !s.stale && len(s.talents) > 0)) {
		return false
	}
	s.loading = true
	return true
}

// EndFetch 结束拉取；失败时保留原列表
func (s *DashboardState) EndFetch(list []model.Candidate, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err == nil {
		s.setTalentsLocked(list)
	}
}

// ── 看板乐观更新 ──

// Snapshot 当前人才列表的深拷贝，用于失败回滚
func (s *DashboardState) Snapshot() []model.Candidate {
	return s.Talents()
}

// Restore 回滚到快照
func (s *DashboardState) Restore(snapshot []model.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.talents = cloneCandidates(snapshot)
}

// ApplyStatus 将指定候选人的状态改为 status
// found=false 表示列表中没有该 ID；changed=false 表示状态本就相同
func (s *DashboardState) ApplyStatus(id, status string) (found, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.talents {
		if s.talents[i].ID != id {
			continue
		}
		if strings.TrimSpace(s.talents[i].Status) == status {
			return true, false
		}
		s.talents[i].Status = status
		return true, true
	}
	return false, false
}

// ── 简历分析 ──

// BeginAnalysis 标记分析开始；已有分析进行中时返回 ErrAnalysisInProgress
func (s *DashboardState) BeginAnalysis() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.analyzing {
		return ErrAnalysisInProgress
	}
	s.analyzing = true
	return nil
}

// EndAnalysis 标记分析结束；report 非空时替换上次报告
func (s *DashboardState) EndAnalysis(report string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing = false
	if report != "" {
		s.report = report
	}
}

// Analysis 返回最近一次报告与是否正在分析
func (s *DashboardState) Analysis() (report string, analyzing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report, s.analyzing
}

// ClearReport 清除报告
func (s *DashboardState) ClearReport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.report = ""
}

func cloneCandidates(list []model.Candidate) []model.Candidate {
	if list == nil {
		return nil
	}
	out := make([]model.Candidate, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}

// [自证通过] internal/service/state.go
