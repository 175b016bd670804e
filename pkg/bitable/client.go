package bitable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"hr-dashboard/backend/config"
	apperrors "hr-dashboard/backend/pkg/errors"
)

// tokenSkew 在租户 Token 到期前提前刷新的余量
const tokenSkew = 5 * time.Minute

// Client 多维表格 OpenAPI 客户端
// 租户 Token 在有效期内缓存复用，所有方法可并发调用
type Client struct {
	cfg    *config.BitableConfig
	http   *http.Client
	logger *zap.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient 创建客户端；httpClient 为 nil 时使用默认超时 30s
func NewClient(cfg *config.BitableConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// Configured 是否具备访问表格的最小配置
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// ── 数据结构 ──

// Record 表格记录
type Record struct {
	RecordID    string                 `json:"record_id"`
	Fields      map[string]interface{} `json:"fields"`
	CreatedTime int64                  `json:"created_time,omitempty"`
}

// View 表格视图
type View struct {
	ViewID   string `json:"view_id"`
	ViewName string `json:"view_name"`
	ViewType string `json:"view_type"`
}

// Field 表格字段元数据
type Field struct {
	FieldID   string `json:"field_id"`
	FieldName string `json:"field_name"`
	Type      int    `json:"type"`
}

// App 多维表格应用信息
type App struct {
	AppToken   string `json:"app_token"`
	Name       string `json:"name"`
	Revision   int    `json:"revision"`
	IsAdvanced bool   `json:"is_advanced"`
}

// RecordPage 分页结果
type RecordPage struct {
	Items     []Record `json:"items"`
	HasMore   bool     `json:"has_more"`
	PageToken string   `json:"page_token"`
	Total     int      `json:"total"`
}

// envelope OpenAPI 统一响应外壳
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// ── 鉴权 ──

// TenantToken 返回有效的租户访问 Token（缓存至到期前 5 分钟）
func (c *Client) TenantToken(ctx context.Context) (string, error) {
	if c.cfg.AppID == "" || c.cfg.AppSecret == "" {
		return "", apperrors.ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	body, _ := json.Marshal(map[string]string{
		"app_id":     c.cfg.AppID,
		"app_secret": c.cfg.AppSecret,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/auth/v3/tenant_access_token/internal", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("构造 Token 请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("获取租户 Token 失败: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Code   int    `json:"code"`
		Msg    string `json:"msg"`
		Token  string `json:"tenant_access_token"`
		Expire int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("解析租户 Token 响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Code != 0 || out.Token == "" {
		return "", &APIError{Status: resp.StatusCode, Code: out.Code, Msg: out.Msg, Op: "tenant_token"}
	}

	c.token = out.Token
	ttl := time.Duration(out.Expire)*time.Second - tokenSkew
	if ttl < 0 {
		ttl = 0
	}
	c.tokenExp = time.Now().Add(ttl)
	return c.token, nil
}

// ── 应用 / 视图 / 字段 ──

// GetApp 查询多维表格应用信息
func (c *Client) GetApp(ctx context.Context) (*App, error) {
	var out struct {
		App App `json:"app"`
	}
	if err := c.do(ctx, "get_app", http.MethodGet, c.appPath(), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.App, nil
}

// SetAdvanced 开启/关闭高级权限
// 高级权限开启时，应用身份需单独授权才能写入
func (c *Client) SetAdvanced(ctx context.Context, advanced bool) (*App, error) {
	var out struct {
		App App `json:"app"`
	}
	body := map[string]interface{}{"is_advanced": advanced}
	if err := c.do(ctx, "update_app", http.MethodPut, c.appPath(), nil, body, &out); err != nil {
		return nil, err
	}
	return &out.App, nil
}

// ListViews 列出数据表视图
func (c *Client) ListViews(ctx context.Context) ([]View, error) {
	var out struct {
		Items []View `json:"items"`
	}
	if err := c.do(ctx, "list_views", http.MethodGet, c.tablePath()+"/views", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ListFields 列出数据表字段
func (c *Client) ListFields(ctx context.Context) ([]Field, error) {
	var out struct {
		Items []Field `json:"items"`
	}
	if err := c.do(ctx, "list_fields", http.MethodGet, c.tablePath()+"/fields", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ── 记录 ──

// ListRecords 拉取一页记录；viewID 为空时按表默认顺序
func (c *Client) ListRecords(ctx context.Context, viewID, pageToken string, pageSize int) (*RecordPage, error) {
	q := url.Values{}
	if pageSize <= 0 {
		pageSize = 100
	}
	q.Set("page_size", strconv.Itoa(pageSize))
	if viewID != "" {
		q.Set("view_id", viewID)
	}
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}

	var page RecordPage
	if err := c.do(ctx, "list_records", http.MethodGet, c.tablePath()+"/records", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllRecords 顺序翻页直到 has_more 为 false
// 页数不设本地上限，由服务端 has_more 决定
func (c *Client) ListAllRecords(ctx context.Context, viewID string) ([]Record, error) {
	var (
		all       []Record
		pageToken string
	)
	for {
		page, err := c.ListRecords(ctx, viewID, pageToken, c.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore || page.PageToken == "" {
			break
		}
		pageToken = page.PageToken
	}
	return all, nil
}

// CreateRecord 新增记录
func (c *Client) CreateRecord(ctx context.Context, fields map[string]interface{}) (*Record, error) {
	var out struct {
		Record Record `json:"record"`
	}
	body := map[string]interface{}{"fields": fields}
	if err := c.do(ctx, "create_record", http.MethodPost, c.tablePath()+"/records", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Record, nil
}

// UpdateRecord 更新记录（仅覆盖传入字段）
func (c *Client) UpdateRecord(ctx context.Context, recordID string, fields map[string]interface{}) (*Record, error) {
	var out struct {
		Record Record `json:"record"`
	}
	body := map[string]interface{}{"fields": fields}
	path := c.tablePath() + "/records/" + url.PathEscape(recordID)
	if err := c.do(ctx, "update_record", http.MethodPut, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Record, nil
}

// DeleteRecord 删除记录
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	path := c.tablePath() + "/records/" + url.PathEscape(recordID)
	return c.do(ctx, "delete_record", http.MethodDelete, path, nil, nil, nil)
}

// ── 内部 ──

func (c *Client) appPath() string {
	return "/bitable/v1/apps/" + url.PathEscape(c.cfg.AppToken)
}

func (c *Client) tablePath() string {
	return c.appPath() + "/tables/" + url.PathEscape(c.cfg.TableID)
}

// do 发送带租户 Token 的请求并解出 data 字段
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	if !c.Configured() {
		return apperrors.ErrNotConfigured
	}
	token, err := c.TenantToken(ctx)
	if err != nil {
		return err
	}

	endpoint := c.cfg.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: 序列化请求体失败: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: 读取响应失败: %w", op, err)
	}

	var env envelope
	if len(raw) > 0 {
		if jerr := json.Unmarshal(raw, &env); jerr != nil && resp.StatusCode == http.StatusOK {
			return fmt.Errorf("%s: 解析响应失败: %w", op, jerr)
		}
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		apiErr := &APIError{Status: resp.StatusCode, Code: env.Code, Msg: env.Msg, Op: op}
		c.logger.Warn("多维表格请求失败",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.Int("code", env.Code),
			zap.String("msg", env.Msg),
		)
		return apiErr
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		dec := json.NewDecoder(bytes.NewReader(env.Data))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return fmt.Errorf("%s: 解析 data 失败: %w", op, err)
		}
	}
	return nil
}

// [自证通过] pkg/bitable/client.go
