package model

import "strings"

// 候选人招聘状态（看板四列，封闭集合）
const (
	StatusPending      = "待面试"
	StatusInterviewing = "面试中"
	StatusPassed       = "已通过"
	StatusRejected     = "已淘汰"
)

// BoardStatuses 看板列顺序
var BoardStatuses = []string{StatusPending, StatusInterviewing, StatusPassed, StatusRejected}

// statusSynonyms 历史/表格中出现过的同义状态
var statusSynonyms = map[string]string{
	"通过":  StatusPassed,
	"未通过": StatusRejected,
	"淘汰":  StatusRejected,
}

// IsBoardStatus 判断是否为看板四列之一
func IsBoardStatus(s string) bool {
	for _, st := range BoardStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// BoardColumn 返回候选人状态所属的看板列
// 同义词归并到对应列，空值或无法识别的状态一律落入 "待面试"
func BoardColumn(status string) string {
	s := strings.TrimSpace(status)
	if IsBoardStatus(s) {
		return s
	}
	if mapped, ok := statusSynonyms[s]; ok {
		return mapped
	}
	return StatusPending
}

// StatusOrPending 空状态回落到 "待面试"，其余原样保留
func StatusOrPending(status string) string {
	if s := strings.TrimSpace(status); s != "" {
		return s
	}
	return StatusPending
}
