package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Candidate 规范化候选人实体（人才库、看板、面试题、邮件页共用）
//
// 所有外部来源在进入系统时只解析一次：
//   - 本地缓存 / API 请求体 → Candidate.UnmarshalJSON
//   - 多维表格记录        → CandidateFromFields(fields, RecordKeys)
// 下游代码只面对强类型字段，不再做形态判断。
type Candidate struct {
	ID                 string              // 多维表格 record_id；仅存在于本地缓存时为空
	Name               string              // 姓名
	Email              string              // 邮箱（主去重键）
	Score              float64             // 评分，名义范围 0-100
	Grade              string              // 等级 S/A/B/C/D
	Status             string              // 招聘状态（自由文本，消费方回落到待面试）
	Summary            string              // 总结
	InterviewQuestions []InterviewQuestion // 面试题
	EmailDraft         *EmailDraft         // 邮件草稿
	FileID             string              // 工作流文件 ID（本地缓存次去重键）
	CreatedAt          *time.Time
	UpdatedAt          *time.Time
	Extra              map[string]interface{} // 其余透传字段（岗位、电话、城市等）

	hasScore bool // 来源中显式给出了评分（区分缺省与真实的 0 分）
}

// EmailDraft 邮件草稿
type EmailDraft struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// FieldKeys 各规范字段在某一数据源中的候选键名（按优先级）
type FieldKeys struct {
	ID        []string
	Name      []string
	Email     []string
	Score     []string
	Grade     []string
	Status    []string
	Summary   []string
	Questions []string
	Draft     []string
	FileID    []string
	CreatedAt []string
	UpdatedAt []string
}

// CanonicalKeys 本地缓存与 API 使用的键名
var CanonicalKeys = FieldKeys{
	ID:        []string{"id"},
	Name:      []string{"name"},
	Email:     []string{"email"},
	Score:     []string{"score"},
	Grade:     []string{"grade"},
	Status:    []string{"status"},
	Summary:   []string{"summary"},
	Questions: []string{"interviewQuestions"},
	Draft:     []string{"emailDraft"},
	FileID:    []string{"file_id"},
	CreatedAt: []string{"created_at"},
	UpdatedAt: []string{"updated_at"},
}

// RecordKeys 多维表格字段名：规范键优先，历史/中文列名兜底
var RecordKeys = FieldKeys{
	Name:      []string{"candidate_name", "name", "姓名"},
	Email:     []string{"email", "邮箱"},
	Score:     []string{"overall_score", "score", "评分"},
	Grade:     []string{"grade", "等级"},
	Status:    []string{"status", "状态"},
	Summary:   []string{"summary", "总结"},
	Questions: []string{"questions_list", "面试题"},
	Draft:     []string{"email_draft_list", "邮件内容"},
	FileID:    []string{"file_id"},
}

func (k FieldKeys) all() [][]string {
	return [][]string{k.ID, k.Name, k.Email, k.Score, k.Grade, k.Status, k.Summary,
		k.Questions, k.Draft, k.FileID, k.CreatedAt, k.UpdatedAt}
}

// CandidateFromFields 按给定键名表把一组原始字段解析为 Candidate
// 未被键名表消费的字段进入 Extra 原样透传
func CandidateFromFields(fields map[string]interface{}, keys FieldKeys) Candidate {
	c := Candidate{
		ID:      NormalizeText(pick(fields, keys.ID)),
		Name:    NormalizeText(pick(fields, keys.Name)),
		Email:   NormalizeText(pick(fields, keys.Email)),
		Score:   NormalizeScore(pick(fields, keys.Score)),
		Grade:   NormalizeText(pick(fields, keys.Grade)),
		Status:  NormalizeStatus(pick(fields, keys.Status)),
		Summary: NormalizeText(pick(fields, keys.Summary)),
		FileID:  NormalizeText(pick(fields, keys.FileID)),
	}
	c.hasScore = pick(fields, keys.Score) != nil
	c.InterviewQuestions = ParseQuestions(pick(fields, keys.Questions))
	c.EmailDraft = ParseEmailDraft(pick(fields, keys.Draft))
	c.CreatedAt = parseTime(pick(fields, keys.CreatedAt))
	c.UpdatedAt = parseTime(pick(fields, keys.UpdatedAt))

	consumed := make(map[string]bool)
	for _, group := range keys.all() {
		for _, k := range group {
			consumed[k] = true
		}
	}
	for k, v := range fields {
		if consumed[k] || isCanonicalOutputKey(k) {
			continue
		}
		if c.Extra == nil {
			c.Extra = make(map[string]interface{})
		}
		c.Extra[k] = v
	}
	return c
}

// CandidateFromRecord 多维表格记录 → Candidate
// 状态缺失时回落到待面试；createdMs 为记录创建时间（毫秒，0 表示未知）
func CandidateFromRecord(recordID string, fields map[string]interface{}, createdMs int64) Candidate {
	c := CandidateFromFields(fields, RecordKeys)
	c.ID = recordID
	c.Status = StatusOrPending(c.Status)
	if createdMs > 0 && c.CreatedAt == nil {
		t := time.UnixMilli(createdMs)
		c.CreatedAt = &t
	}
	return c
}

// pick 按优先级返回第一个非空字段值
func pick(fields map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := fields[k]; ok && !isBlank(v) {
			return v
		}
	}
	return nil
}

// ── JSON 边界 ──

var canonicalOutputKeys = map[string]bool{
	"id": true, "name": true, "email": true, "score": true, "grade": true, "status": true,
	"summary": true, "interviewQuestions": true, "emailDraft": true, "file_id": true,
	"created_at": true, "updated_at": true,
}

func isCanonicalOutputKey(k string) bool { return canonicalOutputKeys[k] }

// MarshalJSON 规范字段与透传字段拍平为一个对象，规范字段优先
func (c Candidate) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Extra)+12)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["name"] = c.Name
	out["email"] = c.Email
	out["score"] = c.Score
	if c.ID != "" {
		out["id"] = c.ID
	}
	if c.Grade != "" {
		out["grade"] = c.Grade
	}
	if c.Status != "" {
		out["status"] = c.Status
	}
	if c.Summary != "" {
		out["summary"] = c.Summary
	}
	if len(c.InterviewQuestions) > 0 {
		out["interviewQuestions"] = c.InterviewQuestions
	}
	if c.EmailDraft != nil {
		out["emailDraft"] = c.EmailDraft
	}
	if c.FileID != "" {
		out["file_id"] = c.FileID
	}
	if c.CreatedAt != nil {
		out["created_at"] = c.CreatedAt.Format(time.RFC3339)
	}
	if c.UpdatedAt != nil {
		out["updated_at"] = c.UpdatedAt.Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// UnmarshalJSON 宽松解析任意形态的候选人对象
func (c *Candidate) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	*c = CandidateFromFields(fields, CanonicalKeys)
	return nil
}

// ── 身份与合并 ──

// DedupKey 去重键：邮箱（忽略大小写）优先，无邮箱时退化为姓名
func (c *Candidate) DedupKey() string {
	if e := normalizeEmail(c.Email); e != "" {
		return "email:" + e
	}
	if n := strings.TrimSpace(c.Name); n != "" {
		return "name:" + n
	}
	return ""
}

// SameEmail 两个非空邮箱是否相同
func SameEmail(a, b string) bool {
	ea, eb := normalizeEmail(a), normalizeEmail(b)
	return ea != "" && ea == eb
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// MergeFrom 以 in 中的非零字段覆盖当前记录（本地缓存 upsert 语义）
// 评分例外：来源显式给出 0 分时同样覆盖
func (c *Candidate) MergeFrom(in *Candidate) {
	if in.ID != "" {
		c.ID = in.ID
	}
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Email != "" {
		c.Email = in.Email
	}
	if in.Score != 0 || in.hasScore {
		c.Score = in.Score
	}
	if in.Grade != "" {
		c.Grade = in.Grade
	}
	if in.Status != "" {
		c.Status = in.Status
	}
	if in.Summary != "" {
		c.Summary = in.Summary
	}
	if len(in.InterviewQuestions) > 0 {
		c.InterviewQuestions = in.InterviewQuestions
	}
	if in.EmailDraft != nil {
		c.EmailDraft = in.EmailDraft
	}
	if in.FileID != "" {
		c.FileID = in.FileID
	}
	for k, v := range in.Extra {
		if c.Extra == nil {
			c.Extra = make(map[string]interface{})
		}
		c.Extra[k] = v
	}
}

// Clone 深拷贝（看板快照使用）
func (c Candidate) Clone() Candidate {
	out := c
	if c.InterviewQuestions != nil {
		out.InterviewQuestions = append([]InterviewQuestion(nil), c.InterviewQuestions...)
	}
	if c.EmailDraft != nil {
		d := *c.EmailDraft
		out.EmailDraft = &d
	}
	if c.CreatedAt != nil {
		t := *c.CreatedAt
		out.CreatedAt = &t
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	if c.Extra != nil {
		out.Extra = make(map[string]interface{}, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// ExtraString 读取透传字段的文本形式
func (c *Candidate) ExtraString(key string) string {
	if c.Extra == nil {
		return ""
	}
	return NormalizeText(c.Extra[key])
}

// ── 富字段解析 ──

// ParseEmailDraft 解析邮件草稿：对象、JSON 文本或草稿数组（取首个）
// 无法解析时视为缺失
func ParseEmailDraft(raw interface{}) *EmailDraft {
	switch v := raw.(type) {
	case nil:
		return nil
	case *EmailDraft:
		return v
	case string:
		decoded, ok := decodeJSONText(v)
		if !ok {
			return nil
		}
		return ParseEmailDraft(decoded)
	case []interface{}:
		if len(v) == 0 {
			return nil
		}
		return ParseEmailDraft(v[0])
	case map[string]interface{}:
		d := &EmailDraft{Subject: NormalizeText(v["subject"])}
		if t := NormalizeText(v["text"]); t != "" {
			d.Content = t
		} else {
			d.Content = NormalizeText(v["content"])
		}
		if d.Subject == "" && d.Content == "" {
			return nil
		}
		return d
	}
	return nil
}

func parseTime(raw interface{}) *time.Time {
	switch v := raw.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(v)); err == nil {
			return &t
		}
	case json.Number:
		if ms, err := v.Int64(); err == nil && ms > 0 {
			t := time.UnixMilli(ms)
			return &t
		}
	case float64:
		if v > 0 {
			t := time.UnixMilli(int64(v))
			return &t
		}
	case int64:
		if v > 0 {
			t := time.UnixMilli(v)
			return &t
		}
	}
	return nil
}

// decodeJSONText 尝试把文本当作 JSON 解析
func decodeJSONText(s string) (interface{}, bool) {
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
	return v, true
}

// [自证通过] internal/model/candidate.go
