package service

import (
	"errors"
	"testing"

	"hr-dashboard/backend/internal/model"
)

func TestDashboardState_BeginFetch(t *testing.T) {
	s := NewDashboardState()

	if !s.BeginFetch(false) {
		t.Fatal("首次拉取应执行")
	}
	if s.BeginFetch(false) {
		t.Error("已有拉取进行中时，非强制拉取应跳过")
	}
	if !s.BeginFetch(true) {
		t.Error("强制拉取应执行")
	}
	s.EndFetch([]model.Candidate{cand("r1", "张三", "a@x.com", "")}, nil)

	if s.BeginFetch(false) {
		t.Error("已缓存数据时，非强制拉取应跳过")
	}
	s.EndFetch(nil, errUpstream)
	if got := len(s.Talents()); got != 1 {
		t.Errorf("拉取失败应保留原列表，期望 1 条，实际 %d", got)
	}
}

func TestDashboardState_EmptyListRefetches(t *testing.T) {
	s := NewDashboardState()
	s.SetTalents([]model.Candidate{})
	if !s.BeginFetch(false) {
		t.Error("已加载但列表为空时应重新拉取")
	}
}

func TestDashboardState_InvalidateRefetches(t *testing.T) {
	s := NewDashboardState()
	s.SetTalents([]model.Candidate{cand("r1", "张三", "a@x.com", "")})

	s.Invalidate()
	if !s.BeginFetch(false) {
		t.Fatal("过期后非强制拉取应执行")
	}
	if got := len(s.Talents()); got != 1 {
		t.Errorf("过期不应清空已有列表，实际 %d 条", got)
	}
	s.EndFetch([]model.Candidate{cand("r1", "张三", "a@x.com", ""), cand("r2", "李四", "b@x.com", "")}, nil)

	if s.BeginFetch(false) {
		t.Error("重新加载后应恢复命中缓存")
	}
}

func TestDashboardState_SnapshotRestore(t *testing.T) {
	s := NewDashboardState()
	s.SetTalents([]model.Candidate{cand("r1", "张三", "a@x.com", model.StatusPending)})

	snap := s.Snapshot()
	found, changed := s.ApplyStatus("r1", model.StatusPassed)
	if !found || !changed {
		t.Fatalf("期望 found=true changed=true，实际 %v %v", found, changed)
	}
	if statusOf(snap, "r1") != model.StatusPending {
		t.Error("快照不应受后续修改影响")
	}

	s.Restore(snap)
	if statusOf(s.Talents(), "r1") != model.StatusPending {
		t.Error("期望回滚到快照状态")
	}

	if found, _ := s.ApplyStatus("none", model.StatusPassed); found {
		t.Error("不存在的 ID 应返回 found=false")
	}
	if _, changed := s.ApplyStatus("r1", model.StatusPending); changed {
		t.Error("状态相同应返回 changed=false")
	}
}

func TestDashboardState_Analysis(t *testing.T) {
	s := NewDashboardState()
	if err := s.BeginAnalysis(); err != nil {
		t.Fatalf("首次分析应成功: %v", err)
	}
	if err := s.BeginAnalysis(); !errors.Is(err, ErrAnalysisInProgress) {
		t.Errorf("期望 ErrAnalysisInProgress，实际: %v", err)
	}

	s.EndAnalysis("报告 A")
	report, analyzing := s.Analysis()
	if analyzing || report != "报告 A" {
		t.Errorf("期望 analyzing=false report=报告 A，实际 %v %q", analyzing, report)
	}

	// 失败的分析不覆盖上次报告
	_ = s.BeginAnalysis()
	s.EndAnalysis("")
	if report, _ := s.Analysis(); report != "报告 A" {
		t.Errorf("期望保留上次报告，实际 %q", report)
	}

	s.ClearReport()
	if report, _ := s.Analysis(); report != "" {
		t.Errorf("期望报告已清除，实际 %q", report)
	}
}
