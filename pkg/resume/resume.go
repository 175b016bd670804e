package resume

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

var (
	// ErrUnsupportedType 不支持的简历格式
	ErrUnsupportedType = errors.New("仅支持 .pdf / .doc / .docx 格式的简历")
	// ErrUnreadable 文件损坏或无法解析
	ErrUnreadable = errors.New("简历文件无法解析")
)

// AllowedExtensions 允许上传的简历扩展名
var AllowedExtensions = []string{".pdf", ".doc", ".docx"}

// ContentTypes 扩展名 → MIME
var ContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// oleMagic 旧版 .doc（OLE 复合文档）文件头
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Info 简历文件检查结果
type Info struct {
	Ext         string
	ContentType string
	Pages       int    // 仅 PDF
	Text        string // 可提取的纯文本（.doc 不提取）
}

// Ext 返回小写扩展名
func Ext(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}

// Allowed 扩展名是否在白名单内
func Allowed(fileName string) bool {
	ext := Ext(fileName)
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Inspect 校验简历可读性并尽量提取文本
// 提取不到文本（扫描件等）不视为错误，由调用方决定是否告警
func Inspect(fileName string, data []byte) (*Info, error) {
	if !Allowed(fileName) {
		return nil, ErrUnsupportedType
	}
	ext := Ext(fileName)
	info := &Info{Ext: ext, ContentType: ContentTypes[ext]}

	switch ext {
	case ".pdf":
		text, pages, err := extractPDF(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		info.Text, info.Pages = text, pages
	case ".docx":
		text, err := extractDocx(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		info.Text = text
	case ".doc":
		if !bytes.HasPrefix(data, oleMagic) {
			return nil, fmt.Errorf("%w: 不是有效的 Word 97-2003 文档", ErrUnreadable)
		}
	}
	return info, nil
}

func extractPDF(data []byte) (text string, pages int, err error) {
	defer func() {
		// 损坏的 PDF 可能让解析器 panic
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf 解析异常: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	var b strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, _ := page.GetPlainText(nil)
		b.WriteString(t)
	}
	return strings.TrimSpace(b.String()), pages, nil
}

func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return strings.TrimSpace(doc.Editable().GetContent()), nil
}
