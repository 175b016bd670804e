package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// InterviewQuestion 面试题：纯文本，或带分类/难度/出题依据的结构化题目
type InterviewQuestion struct {
	Text   string
	Detail *QuestionDetail
}

// QuestionDetail 结构化面试题
type QuestionDetail struct {
	Question   string `json:"question"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Rationale  string `json:"rationale,omitempty"`
}

// Display 返回题干文本
func (q InterviewQuestion) Display() string {
	if q.Detail != nil {
		return q.Detail.Question
	}
	return q.Text
}

// MarshalJSON 纯文本题目输出字符串，结构化题目输出对象
func (q InterviewQuestion) MarshalJSON() ([]byte, error) {
	if q.Detail != nil {
		return json.Marshal(q.Detail)
	}
	return json.Marshal(q.Text)
}

// UnmarshalJSON 接受字符串或对象
func (q *InterviewQuestion) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = InterviewQuestion{Text: s}
		return nil
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("面试题格式无效: %w", err)
	}
	parsed, ok := questionFromMap(raw)
	if !ok {
		return fmt.Errorf("面试题缺少题干")
	}
	*q = parsed
	return nil
}

// ParseQuestions 解析面试题列表
// 支持：字符串/对象数组、{q1,q2,q3} 形式的对象、以及上述内容的 JSON 文本
// 无法解析时返回 nil
func ParseQuestions(raw interface{}) []InterviewQuestion {
	switch v := raw.(type) {
	case nil:
		return nil
	case []InterviewQuestion:
		return v
	case string:
		decoded, ok := decodeJSONText(v)
		if !ok {
			if s := strings.TrimSpace(v); s != "" {
				return []InterviewQuestion{{Text: s}}
			}
			return nil
		}
		return ParseQuestions(decoded)
	case []string:
		out := make([]InterviewQuestion, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, InterviewQuestion{Text: s})
			}
		}
		return nilIfEmpty(out)
	case []interface{}:
		out := make([]InterviewQuestion, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case string:
				if s := strings.TrimSpace(it); s != "" {
					out = append(out, InterviewQuestion{Text: s})
				}
			case map[string]interface{}:
				if q, ok := questionFromMap(it); ok {
					out = append(out, q)
				}
			}
		}
		return nilIfEmpty(out)
	case map[string]interface{}:
		if q, ok := questionFromMap(v); ok {
			return []InterviewQuestion{q}
		}
		return numberedQuestions(v)
	}
	return nil
}

// questionFromMap 识别 {question, category, difficulty, rationale} 或 {text} 形式
func questionFromMap(m map[string]interface{}) (InterviewQuestion, bool) {
	if q := NormalizeText(m["question"]); q != "" {
		return InterviewQuestion{Detail: &QuestionDetail{
			Question:   q,
			Category:   NormalizeText(m["category"]),
			Difficulty: NormalizeText(m["difficulty"]),
			Rationale:  NormalizeText(m["rationale"]),
		}}, true
	}
	if t := NormalizeText(m["text"]); t != "" {
		return InterviewQuestion{Text: t}, true
	}
	return InterviewQuestion{}, false
}

// numberedQuestions 处理 {q1: "...", q2: "..."} 形式，按键名排序输出
func numberedQuestions(m map[string]interface{}) []InterviewQuestion {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []InterviewQuestion
	for _, k := range keys {
		if s := NormalizeText(m[k]); s != "" {
			out = append(out, InterviewQuestion{Text: s})
		}
	}
	return out
}

func nilIfEmpty(qs []InterviewQuestion) []InterviewQuestion {
	if len(qs) == 0 {
		return nil
	}
	return qs
}
