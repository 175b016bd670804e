package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"hr-dashboard/backend/internal/model"
	"hr-dashboard/backend/pkg/bitable"
	apperrors "hr-dashboard/backend/pkg/errors"
)

// ── 测试辅助 ──

func setupTestKanbanService(records ...model.Candidate) (KanbanService, *DashboardState, *mockTalentRecord) {
	record := newMockTalentRecord(records...)
	repo := newTestRepo(newMockTalentCache(), record)
	state := NewDashboardState()
	talent := NewTalentService(repo, state, &mockPublisher{}, zap.NewNop())
	return NewKanbanService(talent, state, zap.NewNop()), state, record
}

func statusOf(list []model.Candidate, id string) string {
	for _, c := range list {
		if c.ID == id {
			return c.Status
		}
	}
	return ""
}

// ── BuildBoard 测试 ──

func TestBuildBoard_Partition(t *testing.T) {
	list := []model.Candidate{
		cand("1", "a", "a@x.com", "待面试"),
		cand("2", "b", "b@x.com", "面试中"),
		cand("3", "c", "c@x.com", "通过"),
		cand("4", "d", "d@x.com", "未通过"),
		cand("5", "e", "e@x.com", "淘汰"),
		cand("6", "f", "f@x.com", ""),
		cand("7", "g", "g@x.com", "待定"),
		cand("8", "h", "h@x.com", " 已通过 "),
	}

	board := BuildBoard(list)
	if len(board.Columns) != 4 {
		t.Fatalf("期望 4 列，实际 %d", len(board.Columns))
	}

	want := map[string]int{"待面试": 3, "面试中": 1, "已通过": 2, "已淘汰": 2}
	total := 0
	for _, col := range board.Columns {
		if len(col.Candidates) != want[col.Status] {
			t.Errorf("列 %s 期望 %d 人，实际 %d", col.Status, want[col.Status], len(col.Candidates))
		}
		total += len(col.Candidates)
	}
	if total != len(list) {
		t.Errorf("每人应恰好落在一列，期望合计 %d，实际 %d", len(list), total)
	}
	if board.Column("不存在") != nil {
		t.Error("未知列应返回 nil")
	}
}

func TestBuildBoard_EmptyColumnsNotNil(t *testing.T) {
	board := BuildBoard(nil)
	for _, col := range board.Columns {
		if col.Candidates == nil {
			t.Errorf("列 %s 应为空切片而非 nil", col.Status)
		}
	}
}

// ── Move 测试 ──

func TestKanbanService_Move_Success(t *testing.T) {
	svc, state, record := setupTestKanbanService(
		cand("r1", "张三", "a@x.com", model.StatusPending),
		cand("r2", "李四", "b@x.com", model.StatusPending),
	)

	board, err := svc.Move(context.Background(), "r1", model.StatusInterviewing)
	if err != nil {
		t.Fatalf("Move 应成功: %v", err)
	}
	if got := record.updated["r1"]["status"]; got != model.StatusInterviewing {
		t.Errorf("期望写入表格 status=面试中，实际 %v", got)
	}
	if col := board.Column(model.StatusInterviewing); col == nil || len(col.Candidates) != 1 {
		t.Errorf("期望面试中列 1 人，实际 %+v", col)
	}
	if statusOf(state.Talents(), "r1") != model.StatusInterviewing {
		t.Error("期望共享状态已刷新为新状态")
	}
}

func TestKanbanService_Move_RollbackOnFailure(t *testing.T) {
	svc, state, record := setupTestKanbanService(
		cand("r1", "张三", "a@x.com", model.StatusPending),
	)
	if _, err := svc.Board(context.Background()); err != nil {
		t.Fatalf("Board 应成功: %v", err)
	}
	record.updateErr = &bitable.APIError{Status: 403, Code: bitable.CodePermissionDenied, Msg: "forbidden"}

	_, err := svc.Move(context.Background(), "r1", model.StatusPassed)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("期望权限错误，实际: %v", err)
	}
	if got := statusOf(state.Talents(), "r1"); got != model.StatusPending {
		t.Errorf("期望回滚到 待面试，实际 %s", got)
	}
}

func TestKanbanService_Move_SameStatusNoWrite(t *testing.T) {
	svc, _, record := setupTestKanbanService(
		cand("r1", "张三", "a@x.com", model.StatusPassed),
	)

	if _, err := svc.Move(context.Background(), "r1", model.StatusPassed); err != nil {
		t.Fatalf("同列拖拽不应报错: %v", err)
	}
	if len(record.updated) != 0 {
		t.Errorf("同列拖拽不应写表格，实际 %v", record.updated)
	}
}

func TestKanbanService_Move_InvalidStatus(t *testing.T) {
	svc, _, _ := setupTestKanbanService(cand("r1", "张三", "a@x.com", ""))

	_, err := svc.Move(context.Background(), "r1", "已录用")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("期望 ErrInvalidStatus，实际: %v", err)
	}
}

func TestKanbanService_Move_RefreshesUnknownID(t *testing.T) {
	svc, state, record := setupTestKanbanService(cand("r1", "张三", "a@x.com", model.StatusPending))
	if _, err := svc.Board(context.Background()); err != nil {
		t.Fatalf("Board 应成功: %v", err)
	}
	// 表格侧新出现的记录，共享状态尚未加载
	record.addRecord(cand("r2", "李四", "b@x.com", model.StatusPending))

	board, err := svc.Move(context.Background(), "r2", model.StatusPassed)
	if err != nil {
		t.Fatalf("刷新后应能找到候选人: %v", err)
	}
	if got := record.updated["r2"]["status"]; got != model.StatusPassed {
		t.Errorf("期望写入表格 status=已通过，实际 %v", got)
	}
	if col := board.Column(model.StatusPassed); col == nil || len(col.Candidates) != 1 {
		t.Errorf("期望已通过列 1 人，实际 %+v", col)
	}
	if statusOf(state.Talents(), "r1") != model.StatusPending {
		t.Error("其他候选人状态不应变化")
	}
}

func TestKanbanService_Move_NotFound(t *testing.T) {
	svc, _, _ := setupTestKanbanService(cand("r1", "张三", "a@x.com", ""))

	_, err := svc.Move(context.Background(), "r404", model.StatusPassed)
	if !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("期望 ErrCandidateNotFound，实际: %v", err)
	}
}
