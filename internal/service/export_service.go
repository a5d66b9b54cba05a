package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ExportService 导出业务接口
//
// 设计说明：
//   - 导出最近一次汇总结果，不触发重新计算
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - Sheet "汇总统计"：每个指标一行；Sheet "评审明细"：每份正式评审一行，每个指标一列
type ExportService interface {
	// ExportAggregate 导出教材评审汇总为 Excel
	ExportAggregate(ctx context.Context, actor Actor, bookID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

const (
	statsSheet   = "汇总统计"
	reviewsSheet = "评审明细"
)

// ═══════════════════════════════════════════════════════════
// ExportAggregate 导出评审汇总为 Excel
// ═══════════════════════════════════════════════════════════
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportAggregate(ctx context.Context, actor Actor, bookID string) (*bytes.Buffer, string, error) {
	if !canComputeAggregate(actor) {
		return nil, "", ErrForbidden
	}

	// 1. 查询教材与最近一次汇总
	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrBookNotFound
		}
		s.logger.Error("查询教材失败", zap.Error(err))
		return nil, "", err
	}
	agg, err := s.repo.Aggregate.GetLatestByBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrAggregateNotFound
		}
		s.logger.Error("查询汇总结果失败", zap.Error(err))
		return nil, "", err
	}

	// 2. 明细数据
	reviews, err := s.repo.Review.ListFinalByBook(ctx, bookID)
	if err != nil {
		s.logger.Error("查询评审失败", zap.Error(err))
		return nil, "", err
	}
	assignments, err := s.repo.Assignment.ListByBook(ctx, bookID)
	if err != nil {
		s.logger.Error("查询分配失败", zap.Error(err))
		return nil, "", err
	}
	reviewerNames := make(map[string]string, len(assignments))
	for _, a := range assignments {
		if a.Reviewer != nil {
			reviewerNames[a.AssignmentID] = a.Reviewer.Name
		}
	}
	criteria, err := s.repo.Criterion.List(ctx)
	if err != nil {
		s.logger.Error("查询评审指标失败", zap.Error(err))
		return nil, "", err
	}
	_, labels := criterionIndex(criteria)

	// 3. 生成工作簿
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetSheetName("Sheet1", statsSheet)
	writeStatsSheet(f, headerStyle, book, agg, labels)

	if _, err := f.NewSheet(reviewsSheet); err != nil {
		s.logger.Error("创建 Sheet 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	writeReviewsSheet(f, headerStyle, agg, reviews, reviewerNames)

	// 4. 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("评审汇总_%s.xlsx", book.Title)
	return buf, filename, nil
}

func writeStatsSheet(f *excelize.File, headerStyle int, book *model.Book, agg *model.AggregateResult, labels map[string]string) {
	stats := agg.Stats.Data()
	headers := []string{"指标编码", "指标名称", "均值", "中位数", "方差", "最小值", "最大值", "评分数"}

	// 标题行
	f.SetCellValue(statsSheet, "A1", fmt.Sprintf("《%s》评审汇总（%s）", book.Title, agg.ComputedAt.Format(timeLayout)))
	f.MergeCell(statsSheet, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(statsSheet, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(statsSheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(statsSheet, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	row := 3
	for _, code := range sortedKeys(stats) {
		st := stats[code]
		values := []any{code, labels[code], st.Mean, st.Median, st.Variance, st.Min, st.Max, st.Count}
		for i, v := range values {
			f.SetCellValue(statsSheet, cell(colName(i), row), v)
		}
		row++
	}

	// 综合得分
	row++
	f.SetCellValue(statsSheet, cell("A", row), "综合均分")
	f.SetCellValue(statsSheet, cell("C", row), agg.OverallMean)
	row++
	f.SetCellValue(statsSheet, cell("A", row), "加权得分")
	if agg.WeightedScore != nil {
		f.SetCellValue(statsSheet, cell("C", row), *agg.WeightedScore)
	} else {
		f.SetCellValue(statsSheet, cell("C", row), "-")
	}
	row++
	f.SetCellValue(statsSheet, cell("A", row), "摘要")
	f.SetCellValue(statsSheet, cell("B", row), agg.SummaryText)

	f.SetColWidth(statsSheet, "A", "A", 14)
	f.SetColWidth(statsSheet, "B", "B", 24)
	f.SetColWidth(statsSheet, "C", "H", 10)
}

func writeReviewsSheet(f *excelize.File, headerStyle int, agg *model.AggregateResult, reviews []model.Review, names map[string]string) {
	codes := sortedKeys(agg.Stats.Data())

	f.SetCellValue(reviewsSheet, "A1", "评审人")
	f.SetCellValue(reviewsSheet, "B1", "提交时间")
	for i, code := range codes {
		f.SetCellValue(reviewsSheet, cell(colName(2+i), 1), code)
	}
	f.SetCellStyle(reviewsSheet, "A1", cell(colName(1+len(codes)), 1), headerStyle)

	row := 2
	for i := range reviews {
		r := &reviews[i]
		name := names[r.AssignmentID]
		if name == "" {
			name = r.ReviewerID
		}
		f.SetCellValue(reviewsSheet, cell("A", row), name)
		f.SetCellValue(reviewsSheet, cell("B", row), r.SubmittedAt.Format(timeLayout))

		scores := r.ScoreData()
		for j, code := range codes {
			if v, ok := scores[code]; ok {
				f.SetCellValue(reviewsSheet, cell(colName(2+j), row), v)
			} else {
				f.SetCellValue(reviewsSheet, cell(colName(2+j), row), "-")
			}
		}
		row++
	}

	f.SetColWidth(reviewsSheet, "A", "A", 18)
	f.SetColWidth(reviewsSheet, "B", "B", 22)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
