package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ── 异构字段归一化 ──────────────────────────────────────────
//
// 上游（工作流引擎、多维表格、本地缓存）对同一字段可能给出：
//   - 数字 / 数字字符串
//   - 单元素数组（多选、人员、文本段）
//   - 带标签对象 {text, value}
// 以下函数对任意输入都返回确定结果，不 panic。
// ─────────────────────────────────────────────────────────────

// NormalizeScore 将任意形态的评分转换为有限数值，无数值信号时返回 0
func NormalizeScore(raw interface{}) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	case string:
		return parseScore(v)
	case []interface{}:
		if len(v) == 0 {
			return 0
		}
		return NormalizeScore(v[0])
	case []string:
		if len(v) == 0 {
			return 0
		}
		return parseScore(v[0])
	case []float64:
		if len(v) == 0 {
			return 0
		}
		return finite(v[0])
	case map[string]interface{}:
		if val, ok := labeled(v, "value"); ok {
			return NormalizeScore(val)
		}
		if txt, ok := labeled(v, "text"); ok {
			return NormalizeScore(txt)
		}
		return 0
	default:
		return 0
	}
}

// NormalizeStatus 将任意形态的状态值转换为去除首尾空白的字符串
// 无法识别时返回空串，由调用方回落到 "待面试"
func NormalizeStatus(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		if len(v) == 0 {
			return ""
		}
		return strings.TrimSpace(v[0])
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		switch first := v[0].(type) {
		case string:
			return strings.TrimSpace(first)
		case map[string]interface{}:
			return labelString(first)
		}
		return ""
	case map[string]interface{}:
		return labelString(v)
	default:
		return ""
	}
}

// NormalizeText 归一化文本单元格：多段文本 [{text}] 会被拼接，数字转为字符串
func NormalizeText(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int, int64:
		return fmt.Sprintf("%d", v)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.TrimSpace(strings.Join(v, ""))
	case []interface{}:
		var b strings.Builder
		for _, seg := range v {
			switch s := seg.(type) {
			case string:
				b.WriteString(s)
			case map[string]interface{}:
				if t, ok := s["text"].(string); ok {
					b.WriteString(t)
				} else if t, ok := s["value"].(string); ok {
					b.WriteString(t)
				}
			default:
				b.WriteString(NormalizeText(s))
			}
		}
		return strings.TrimSpace(b.String())
	case map[string]interface{}:
		if t, ok := labeled(v, "text"); ok {
			return NormalizeText(t)
		}
		if t, ok := labeled(v, "value"); ok {
			return NormalizeText(t)
		}
		return ""
	default:
		return ""
	}
}

// ── 内部辅助 ──

func parseScore(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// labeled 读取标签对象中的键，nil 与空串视为缺失
func labeled(m map[string]interface{}, key string) (interface{}, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return nil, false
	}
	return v, true
}

func labelString(m map[string]interface{}) string {
	if t, ok := m["text"].(string); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if v, ok := m["value"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// isBlank 判断字段值是否等价于"未提供"
func isBlank(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []interface{}:
		return len(x) == 0
	}
	return false
}

// [自证通过] internal/model/fieldvalue.go
