package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"hr-dashboard/backend/internal/model"
)

func setupTestDashboardService(records ...model.Candidate) DashboardService {
	f := setupTestTalentService(records...)
	return NewDashboardService(f.svc, zap.NewNop())
}

func TestDashboardService_Stats(t *testing.T) {
	svc := setupTestDashboardService(
		cand("1", "a", "a@x.com", "待面试"),
		cand("2", "b", "b@x.com", ""),
		cand("3", "c", "c@x.com", "面试中"),
		cand("4", "d", "d@x.com", "通过"),
		cand("5", "e", "e@x.com", "已淘汰"),
		cand("6", "f", "f@x.com", "未通过"),
	)

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}
	want := DashboardStats{Total: 6, Pending: 2, Interviewing: 1, Pass: 1, Fail: 2}
	if *stats != want {
		t.Errorf("期望 %+v，实际 %+v", want, *stats)
	}
}

func TestDashboardService_InterviewCandidates(t *testing.T) {
	low := cand("1", "低分", "low@x.com", "")
	low.Score = 70
	low.InterviewQuestions = questions("Q")
	high := cand("2", "高分", "high@x.com", "")
	high.Score = 95
	mid := cand("3", "中分", "mid@x.com", "")
	mid.Score = 80
	mid.Grade = "B"
	svc := setupTestDashboardService(low, high, mid)

	out, err := svc.InterviewCandidates(context.Background())
	if err != nil {
		t.Fatalf("InterviewCandidates 应成功: %v", err)
	}
	if len(out.List) != 3 {
		t.Fatalf("期望 3 人，实际 %d", len(out.List))
	}

	names := []string{out.List[0].Name, out.List[1].Name, out.List[2].Name}
	if strings.Join(names, ",") != "高分,中分,低分" {
		t.Errorf("期望按评分降序，实际 %v", names)
	}
	if out.List[0].Grade != "S" || out.List[1].Grade != "B" || out.List[2].Grade != "B" {
		t.Errorf("等级补齐错误: %s %s %s", out.List[0].Grade, out.List[1].Grade, out.List[2].Grade)
	}
	if out.Selected == nil || out.Selected.Name != "低分" {
		t.Errorf("期望默认选中第一个有面试题的候选人，实际 %+v", out.Selected)
	}
}

func TestDashboardService_InterviewCandidates_SelectFirstWithoutQuestions(t *testing.T) {
	svc := setupTestDashboardService(cand("1", "张三", "a@x.com", ""))

	out, err := svc.InterviewCandidates(context.Background())
	if err != nil {
		t.Fatalf("InterviewCandidates 应成功: %v", err)
	}
	if out.Selected == nil || out.Selected.Name != "张三" {
		t.Errorf("期望无面试题时选中第一个，实际 %+v", out.Selected)
	}
}

func TestDashboardService_EmailDraft(t *testing.T) {
	withDraft := cand("1", "张三", "a@x.com", "")
	withDraft.EmailDraft = &model.EmailDraft{Subject: "复试通知", Content: ""}
	svc := setupTestDashboardService(withDraft, cand("2", "李四", "b@x.com", ""))
	ctx := context.Background()

	form, err := svc.EmailDraft(ctx, "A@X.com")
	if err != nil {
		t.Fatalf("EmailDraft 应成功: %v", err)
	}
	if form.Subject != "复试通知" {
		t.Errorf("期望使用草稿主题，实际 %s", form.Subject)
	}
	if !strings.HasPrefix(form.Content, "张三 您好") {
		t.Errorf("草稿正文为空时应使用默认模板，实际 %q", form.Content)
	}

	form, err = svc.EmailDraft(ctx, "b@x.com")
	if err != nil {
		t.Fatalf("EmailDraft 应成功: %v", err)
	}
	if form.Subject != "面试邀请 - 李四" || form.To != "b@x.com" {
		t.Errorf("默认主题错误: %+v", form)
	}

	if _, err := svc.EmailDraft(ctx, "none@x.com"); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("期望 ErrCandidateNotFound，实际: %v", err)
	}
}

func TestDisplayGrade(t *testing.T) {
	tests := []struct {
		grade string
		score float64
		want  string
	}{
		{"", 90, "S"},
		{"", 89.9, "A"},
		{"", 75, "A"},
		{"", 74, "B"},
		{" C ", 99, "C"},
	}
	for _, tt := range tests {
		if got := displayGrade(tt.grade, tt.score); got != tt.want {
			t.Errorf("displayGrade(%q, %v) 期望 %s，实际 %s", tt.grade, tt.score, tt.want, got)
		}
	}
}
