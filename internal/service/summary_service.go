package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/ai"
)

// ── AI 摘要模块业务错误 ──

var (
	ErrAIUnavailable    = errors.New("AI 摘要功能未启用")
	ErrAIGenerateFailed = errors.New("AI 摘要生成失败")
)

// 提示词中教材正文摘录的最大字符数
const summaryExcerptRunes = 2000

const summarySystemPrompt = `你是教材评审委员会的助理。根据评审统计与评审意见，用中文写一段不超过 300 字的客观摘要，
先概括总体评价，再分别列出主要优点与需要改进之处。不要编造评审中没有出现的信息。`

// SummaryService AI 评审摘要接口
// 只读：不改变教材状态，也不写入汇总结果
type SummaryService interface {
	GenerateSummary(ctx context.Context, actor Actor, bookID string) (*dto.SummaryResponse, error)
}

type summaryService struct {
	cfg       *config.Config
	repo      *repository.Repository
	generator ai.TextGenerator
	logger    *zap.Logger
}

// NewSummaryService 创建 SummaryService 实例
func NewSummaryService(cfg *config.Config, repo *repository.Repository, generator ai.TextGenerator, logger *zap.Logger) SummaryService {
	return &summaryService{cfg: cfg, repo: repo, generator: generator, logger: logger}
}

func (s *summaryService) GenerateSummary(ctx context.Context, actor Actor, bookID string) (*dto.SummaryResponse, error) {
	if !canGenerateSummary(actor) {
		return nil, ErrForbidden
	}
	if s.generator == nil || !s.cfg.AI.Enabled {
		return nil, ErrAIUnavailable
	}

	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	agg, err := s.repo.Aggregate.GetLatestByBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAggregateNotFound
		}
		s.logger.Error("查询汇总结果失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	reviews, err := s.repo.Review.ListFinalByBook(ctx, bookID)
	if err != nil {
		s.logger.Error("查询评审失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	criteria, err := s.repo.Criterion.List(ctx)
	if err != nil {
		return nil, err
	}
	_, labels := criterionIndex(criteria)

	// ── 组装提示词 ──
	var b strings.Builder
	fmt.Fprintf(&b, "教材：《%s》，作者：%s\n\n", book.Title, book.Authors)
	fmt.Fprintf(&b, "统计（%d 份正式评审，满分 %d）：\n", agg.ReviewCount, MaxScore)
	stats := agg.Stats.Data()
	for _, code := range sortedKeys(stats) {
		st := stats[code]
		fmt.Fprintf(&b, "- %s %s：均值 %.2f，最低 %.0f，最高 %.0f，方差 %.2f\n",
			code, labels[code], st.Mean, st.Min, st.Max, st.Variance)
	}
	fmt.Fprintf(&b, "综合均分 %.2f\n", agg.OverallMean)
	if agg.WeightedScore != nil {
		fmt.Fprintf(&b, "加权得分 %.2f\n", *agg.WeightedScore)
	}

	b.WriteString("\n评审意见：\n")
	for i := range reviews {
		comments := reviews[i].CommentData()
		for _, code := range sortedKeys(comments) {
			if text := strings.TrimSpace(comments[code]); text != "" {
				fmt.Fprintf(&b, "- [评审 %d][%s] %s\n", i+1, code, text)
			}
		}
	}

	if text, err := s.repo.Book.GetText(ctx, bookID); err == nil && text.Content != "" {
		b.WriteString("\n正文摘录：\n")
		b.WriteString(truncateRunes(text.Content, summaryExcerptRunes))
		b.WriteString("\n")
	}

	out, err := s.generator.GenerateText(ctx, summarySystemPrompt, b.String())
	if err != nil {
		s.logger.Error("调用大模型失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrAIGenerateFailed, err)
	}

	return &dto.SummaryResponse{
		BookID: bookID,
		Text:   strings.TrimSpace(out),
		Model:  s.cfg.AI.Model,
	}, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
