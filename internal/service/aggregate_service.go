package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
)

// ── 评审汇总模块业务错误 ──

var (
	ErrNoCompletedReviews = errors.New("没有已完成的评审")
	ErrAggregateNotFound  = errors.New("尚无评审汇总结果")
)

// AggregateService 评审汇总业务接口
type AggregateService interface {
	// ComputeAggregate 按当前非草稿评审重新计算，每次新增一条历史快照
	ComputeAggregate(ctx context.Context, actor Actor, bookID string) (*dto.AggregateResponse, error)
	ListAggregates(ctx context.Context, actor Actor, bookID string) ([]dto.AggregateResponse, error)
}

type aggregateService struct {
	repo   *repository.Repository
	audit  AuditHook
	logger *zap.Logger
	now    func() time.Time
}

// NewAggregateService 创建 AggregateService 实例
func NewAggregateService(repo *repository.Repository, audit AuditHook, logger *zap.Logger) AggregateService {
	return &aggregateService{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// ────────────────────── ComputeAggregate ──────────────────────

func (s *aggregateService) ComputeAggregate(ctx context.Context, actor Actor, bookID string) (*dto.AggregateResponse, error) {
	if !canComputeAggregate(actor) {
		return nil, ErrForbidden
	}
	if err := ensureBook(ctx, s.repo, bookID); err != nil {
		return nil, err
	}

	completed, err := s.repo.Assignment.CountByBookAndStatus(ctx, bookID, model.AssignmentStatusCompleted)
	if err != nil {
		s.logger.Error("统计已完成分配失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	if completed == 0 {
		return nil, ErrNoCompletedReviews
	}

	reviews, err := s.repo.Review.ListFinalByBook(ctx, bookID)
	if err != nil {
		s.logger.Error("查询评审失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrNoCompletedReviews
	}

	criteria, err := s.repo.Criterion.List(ctx)
	if err != nil {
		s.logger.Error("查询评审指标失败", zap.Error(err))
		return nil, err
	}
	weights, labels := criterionIndex(criteria)

	stats := AggregateScores(reviews)
	overall := OverallMean(stats)
	strengths, weaknesses := RankCriteria(stats)

	result := &model.AggregateResult{
		BookID:        bookID,
		ComputedAt:    s.now(),
		Stats:         datatypes.NewJSONType(stats),
		OverallMean:   overall,
		WeightedScore: WeightedScore(stats, weights),
		ReviewCount:   len(reviews),
		SummaryText:   BuildSummaryText(strengths, weaknesses, overall, labels),
		ComputedBy:    &actor.UserID,
	}
	if err := s.repo.Aggregate.Create(ctx, result); err != nil {
		s.logger.Error("保存汇总结果失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionComputeAggregate,
		TargetType: "book",
		TargetID:   bookID,
		Details: map[string]any{
			"aggregate_id": result.AggregateID,
			"review_count": result.ReviewCount,
			"overall_mean": overall,
		},
	})

	resp := toAggregateResponse(result, labels)
	return &resp, nil
}

// ────────────────────── ListAggregates ──────────────────────

func (s *aggregateService) ListAggregates(ctx context.Context, actor Actor, bookID string) ([]dto.AggregateResponse, error) {
	if !canComputeAggregate(actor) {
		return nil, ErrForbidden
	}
	if err := ensureBook(ctx, s.repo, bookID); err != nil {
		return nil, err
	}

	list, err := s.repo.Aggregate.ListByBook(ctx, bookID)
	if err != nil {
		s.logger.Error("查询汇总历史失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	criteria, err := s.repo.Criterion.List(ctx)
	if err != nil {
		return nil, err
	}
	_, labels := criterionIndex(criteria)

	result := make([]dto.AggregateResponse, 0, len(list))
	for i := range list {
		result = append(result, toAggregateResponse(&list[i], labels))
	}
	return result, nil
}

// ── 辅助函数 ──

// ensureBook 教材不存在时返回 ErrBookNotFound
func ensureBook(ctx context.Context, repo *repository.Repository, bookID string) error {
	if _, err := repo.Book.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}
	return nil
}

func criterionIndex(criteria []model.Criterion) (weights map[string]float64, labels map[string]string) {
	weights = make(map[string]float64, len(criteria))
	labels = make(map[string]string, len(criteria))
	for _, c := range criteria {
		weights[c.Code] = c.Weight
		labels[c.Code] = c.Label
	}
	return weights, labels
}

func toAggregateResponse(r *model.AggregateResult, labels map[string]string) dto.AggregateResponse {
	stats := r.Stats.Data()
	items := make([]dto.CriterionStatsResponse, 0, len(stats))
	for _, code := range sortedKeys(stats) {
		st := stats[code]
		items = append(items, dto.CriterionStatsResponse{
			Code:     code,
			Label:    labels[code],
			Mean:     st.Mean,
			Median:   st.Median,
			Variance: st.Variance,
			Min:      st.Min,
			Max:      st.Max,
			Count:    st.Count,
		})
	}
	return dto.AggregateResponse{
		ID:            r.AggregateID,
		BookID:        r.BookID,
		ComputedAt:    r.ComputedAt.Format(timeLayout),
		Stats:         items,
		OverallMean:   r.OverallMean,
		WeightedScore: r.WeightedScore,
		ReviewCount:   r.ReviewCount,
		SummaryText:   r.SummaryText,
	}
}
