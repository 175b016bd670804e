package service

import (
	"testing"

	"hr-dashboard/backend/internal/model"
)

// ── 测试辅助 ──

func cand(id, name, email, status string) model.Candidate {
	return model.Candidate{ID: id, Name: name, Email: email, Status: status}
}

func questions(texts ...string) []model.InterviewQuestion {
	out := make([]model.InterviewQuestion, 0, len(texts))
	for _, t := range texts {
		out = append(out, model.InterviewQuestion{Text: t})
	}
	return out
}

// ── MergeCandidates 测试 ──

func TestMergeCandidates_OverlayByEmailThenName(t *testing.T) {
	r1 := cand("r1", "张三", "zhang@x.com", model.StatusPending)
	r1.Score = 80
	r2 := cand("r2", "李四", "", model.StatusInterviewing)
	records := []model.Candidate{r1, r2}

	local1 := cand("", "张三(本地)", "ZHANG@x.com", "")
	local1.Score = 10
	local1.InterviewQuestions = questions("介绍一下你的项目")
	local1.EmailDraft = &model.EmailDraft{Subject: "邀请", Content: "你好"}
	local2 := cand("", "李四", "li@x.com", "")
	local2.InterviewQuestions = questions("为什么离职")

	merged := MergeCandidates(records, []model.Candidate{local1, local2})
	if len(merged) != 2 {
		t.Fatalf("期望 2 条，实际 %d", len(merged))
	}

	// 按邮箱匹配：富字段覆盖，核心字段以表格为准
	if len(merged[0].InterviewQuestions) != 1 || merged[0].EmailDraft == nil {
		t.Errorf("期望张三带上本地面试题与草稿，实际 %+v", merged[0])
	}
	if merged[0].Score != 80 || merged[0].Name != "张三" {
		t.Errorf("期望核心字段以表格为准，实际 name=%s score=%v", merged[0].Name, merged[0].Score)
	}

	// 无邮箱按姓名匹配
	if len(merged[1].InterviewQuestions) != 1 || merged[1].InterviewQuestions[0].Text != "为什么离职" {
		t.Errorf("期望李四按姓名匹配到面试题，实际 %+v", merged[1].InterviewQuestions)
	}
	if merged[1].Email != "" {
		t.Errorf("期望邮箱不被本地覆盖，实际 %s", merged[1].Email)
	}
}

func TestMergeCandidates_EmailUnique(t *testing.T) {
	records := []model.Candidate{
		cand("r1", "张三", "a@x.com", ""),
		cand("r2", "张三-重复", "A@X.com", ""),
		cand("r3", "王五", "w@x.com", ""),
	}

	merged := MergeCandidates(records, nil)
	if len(merged) != 2 {
		t.Fatalf("期望邮箱去重后 2 条，实际 %d", len(merged))
	}
	if merged[0].ID != "r1" {
		t.Errorf("期望保留首次出现的 r1，实际 %s", merged[0].ID)
	}

	seen := map[string]bool{}
	for _, c := range merged {
		key := c.DedupKey()
		if seen[key] {
			t.Errorf("合并结果中出现重复键 %s", key)
		}
		seen[key] = true
	}
}

func TestMergeCandidates_DoesNotAliasCache(t *testing.T) {
	local := cand("", "张三", "a@x.com", "")
	local.InterviewQuestions = questions("Q1")
	cached := []model.Candidate{local}

	merged := MergeCandidates([]model.Candidate{cand("r1", "张三", "a@x.com", "")}, cached)
	merged[0].InterviewQuestions[0].Text = "改动"

	if cached[0].InterviewQuestions[0].Text != "Q1" {
		t.Error("合并结果不应与本地缓存共享底层切片")
	}
}

func TestDedupCandidates_KeepsKeyless(t *testing.T) {
	list := []model.Candidate{{}, {}, cand("", "赵六", "", ""), cand("", "赵六", "", "")}
	out := DedupCandidates(list)
	if len(out) != 3 {
		t.Errorf("期望无键记录保留、同名去重，共 3 条，实际 %d", len(out))
	}
}
