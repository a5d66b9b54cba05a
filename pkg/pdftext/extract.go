package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument PDF 无任何可读页
var ErrEmptyDocument = errors.New("PDF 无可读内容")

// Result 抽取结果
type Result struct {
	Text      string
	PageCount int
}

// Extract 从 PDF 字节中抽取纯文本
// 单页解析失败时跳过该页；全部页都失败时返回 ErrEmptyDocument
func Extract(data []byte) (*Result, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("打开 PDF 失败: %w", err)
	}

	total := reader.NumPage()
	var sb strings.Builder
	readable := 0
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = Normalize(text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
		readable++
	}

	if total > 0 && readable == 0 {
		return nil, ErrEmptyDocument
	}
	return &Result{Text: sb.String(), PageCount: total}, nil
}

// Normalize 合并连续空白、去除首尾空白
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
