package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
)

// ── 评审意见模块业务错误 ──

var ErrReviewNotFound = errors.New("评审意见不存在")

// 评分取值范围
const (
	MinScore = 1
	MaxScore = 5
)

// ReviewService 评审意见业务接口
type ReviewService interface {
	SubmitReview(ctx context.Context, actor Actor, assignmentID string, req *dto.SubmitReviewRequest) (*dto.ReviewResponse, error)
	GetReview(ctx context.Context, actor Actor, assignmentID string) (*dto.ReviewResponse, error)
}

type reviewService struct {
	repo   *repository.Repository
	audit  AuditHook
	logger *zap.Logger
	now    func() time.Time
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(repo *repository.Repository, audit AuditHook, logger *zap.Logger) ReviewService {
	return &reviewService{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// ────────────────────── SubmitReview ──────────────────────

// SubmitReview 提交（或覆盖）评审意见
// 草稿不改变任何状态；正式提交将分配置为 COMPLETED，
// 若该教材全部分配均已完成则教材推进到 REVIEW_COMPLETED
func (s *reviewService) SubmitReview(ctx context.Context, actor Actor, assignmentID string, req *dto.SubmitReviewRequest) (*dto.ReviewResponse, error) {
	asg, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询分配失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}
	if !canSubmitReview(actor, asg) {
		return nil, ErrForbidden
	}

	// 1. 对照当前指标库校验评分与评语
	criteria, err := s.repo.Criterion.List(ctx)
	if err != nil {
		s.logger.Error("查询评审指标失败", zap.Error(err))
		return nil, err
	}
	known := make(map[string]bool, len(criteria))
	for _, c := range criteria {
		known[c.Code] = true
	}
	scores, comments, err := validateReviewInput(req, known)
	if err != nil {
		return nil, err
	}

	// 2. 教材必须仍处于评审阶段
	book, err := s.repo.Book.GetByID(ctx, asg.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("book_id", asg.BookID), zap.Error(err))
		return nil, err
	}
	if book.Status != model.BookStatusUnderReview && book.Status != model.BookStatusReviewCompleted {
		return nil, &StateError{
			Entity:   "教材",
			Current:  book.Status,
			Expected: []string{model.BookStatusUnderReview, model.BookStatusReviewCompleted},
		}
	}

	review := &model.Review{
		AssignmentID: assignmentID,
		ReviewerID:   actor.UserID,
		Scores:       datatypes.NewJSONType(scores),
		Comments:     datatypes.NewJSONType(comments),
		SubmittedAt:  s.now(),
		IsDraft:      req.IsDraft,
	}
	review.CreatedBy = &actor.UserID
	review.UpdatedBy = &actor.UserID

	// 3. 事务：写评审 + 推进分配/教材状态
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Review.Upsert(ctx, review); err != nil {
		rollback(tx)
		s.logger.Error("保存评审失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, err
	}

	bookStatus := book.Status
	if !req.IsDraft {
		if asg.Status != model.AssignmentStatusCompleted {
			asg.Status = model.AssignmentStatusCompleted
			asg.UpdatedBy = &actor.UserID
			if err := txRepo.Assignment.Update(ctx, asg); err != nil {
				rollback(tx)
				if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
					s.logger.Error("更新分配状态失败", zap.String("assignment_id", assignmentID), zap.Error(err))
				}
				return nil, err
			}
		}

		if book.Status == model.BookStatusUnderReview {
			open, err := txRepo.Assignment.CountOpenByBook(ctx, asg.BookID)
			if err != nil {
				rollback(tx)
				s.logger.Error("统计未完成分配失败", zap.String("book_id", asg.BookID), zap.Error(err))
				return nil, err
			}
			if open == 0 {
				ok, err := transitionBook(ctx, txRepo, asg.BookID, model.BookStatusUnderReview, model.BookStatusReviewCompleted, actor.UserID)
				if err != nil {
					rollback(tx)
					s.logger.Error("更新教材状态失败", zap.String("book_id", asg.BookID), zap.Error(err))
					return nil, err
				}
				// 未更新说明并发提交已推进，结果一致
				if ok {
					s.logger.Info("教材全部评审完成",
						zap.String("book_id", asg.BookID),
						zap.String("assignment_id", assignmentID),
					)
				}
				bookStatus = model.BookStatusReviewCompleted
			}
		}
	}

	if err := commit(tx); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionSubmitReview,
		TargetType: "assignment",
		TargetID:   assignmentID,
		Details: map[string]any{
			"book_id":     asg.BookID,
			"is_draft":    req.IsDraft,
			"criteria":    sortedKeys(scores),
			"book_status": bookStatus,
		},
	})

	resp := toReviewResponse(review)
	resp.AssignmentStatus = asg.Status
	resp.BookStatus = bookStatus
	return &resp, nil
}

// ────────────────────── GetReview ──────────────────────

func (s *reviewService) GetReview(ctx context.Context, actor Actor, assignmentID string) (*dto.ReviewResponse, error) {
	asg, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询分配失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}
	if !canViewReview(actor, asg) {
		return nil, ErrForbidden
	}

	review, err := s.repo.Review.GetByAssignment(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		s.logger.Error("查询评审失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, err
	}

	resp := toReviewResponse(review)
	resp.AssignmentStatus = asg.Status
	return &resp, nil
}

// ── 校验 ──

// validateReviewInput 评分键必须是已登记的指标编码，值必须为 [1,5] 内的数字
func validateReviewInput(req *dto.SubmitReviewRequest, known map[string]bool) (model.ScoreMap, model.CommentMap, error) {
	ve := pkgerrors.NewValidationError()
	scores := make(model.ScoreMap, len(req.Scores))

	for _, code := range sortedKeys(req.Scores) {
		field := "scores." + code
		if !known[code] {
			ve.Add(field, "未知的评审指标编码")
			continue
		}
		v, ok := toScore(req.Scores[code])
		if !ok {
			ve.Add(field, "评分必须为数字")
			continue
		}
		if v < MinScore || v > MaxScore {
			ve.Add(field, fmt.Sprintf("评分必须在 %d-%d 之间", MinScore, MaxScore))
			continue
		}
		scores[code] = v
	}
	if !req.IsDraft && len(req.Scores) == 0 {
		ve.Add("scores", "正式提交至少需要一项评分")
	}

	comments := make(model.CommentMap, len(req.Comments))
	for _, code := range sortedKeys(req.Comments) {
		if !known[code] {
			ve.Add("comments."+code, "未知的评审指标编码")
			continue
		}
		comments[code] = req.Comments[code]
	}

	if ve.HasErrors() {
		return nil, nil, ve
	}
	return scores, comments, nil
}

// toScore 接受 JSON 解码得到的各类数值
func toScore(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:           r.ReviewID,
		AssignmentID: r.AssignmentID,
		ReviewerID:   r.ReviewerID,
		Scores:       map[string]float64(r.ScoreData()),
		Comments:     map[string]string(r.CommentData()),
		IsDraft:      r.IsDraft,
		SubmittedAt:  r.SubmittedAt.Format(timeLayout),
	}
}
