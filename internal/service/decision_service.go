package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
)

// ── 委员会决议模块业务错误 ──

var ErrDecisionNotFound = errors.New("尚无委员会决议")

// DecisionService 委员会决议业务接口
type DecisionService interface {
	RecordDecision(ctx context.Context, actor Actor, bookID string, req *dto.RecordDecisionRequest) (*dto.DecisionResponse, error)
	GetDecision(ctx context.Context, bookID string) (*dto.DecisionResponse, error)
}

type decisionService struct {
	repo   *repository.Repository
	audit  AuditHook
	logger *zap.Logger
	now    func() time.Time
}

// NewDecisionService 创建 DecisionService 实例
func NewDecisionService(repo *repository.Repository, audit AuditHook, logger *zap.Logger) DecisionService {
	return &decisionService{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// ────────────────────── RecordDecision ──────────────────────

// RecordDecision 记录委员会决议，教材从 REVIEW_COMPLETED 进入同名终态
func (s *decisionService) RecordDecision(ctx context.Context, actor Actor, bookID string, req *dto.RecordDecisionRequest) (*dto.DecisionResponse, error) {
	if !canRecordDecision(actor) {
		return nil, ErrForbidden
	}

	rationale := strings.TrimSpace(req.Rationale)
	ve := pkgerrors.NewValidationError()
	if !validDecision(req.Decision) {
		ve.Add("decision", "取值必须为 APPROVED、REJECTED 或 NEEDS_REVISION")
	}
	if rationale == "" {
		ve.Add("rationale", "不能为空")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	notCompleted := func(current string) error {
		return &StateError{Entity: "教材", Current: current, Expected: []string{model.BookStatusReviewCompleted}}
	}
	if book.Status != model.BookStatusReviewCompleted {
		return nil, notCompleted(book.Status)
	}

	decision := &model.CommitteeDecision{
		BookID:    bookID,
		DecidedBy: actor.UserID,
		Decision:  req.Decision,
		Rationale: rationale,
		DecidedAt: s.now(),
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	ok, err := transitionBook(ctx, txRepo, bookID, model.BookStatusReviewCompleted, req.Decision, actor.UserID)
	if err != nil {
		rollback(tx)
		s.logger.Error("更新教材状态失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	if !ok {
		// 并发决议已先行提交
		rollback(tx)
		current := model.BookStatusReviewCompleted
		if b, err := s.repo.Book.GetByID(ctx, bookID); err == nil {
			current = b.Status
		}
		return nil, notCompleted(current)
	}

	if err := txRepo.Decision.Create(ctx, decision); err != nil {
		rollback(tx)
		s.logger.Error("保存委员会决议失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}

	relatedType := "book"
	note := model.Notification{
		UserID:      book.UploadedBy,
		Type:        model.NotificationTypeDecision,
		Title:       "教材评审结论已发布",
		Content:     "《" + book.Title + "》的委员会决议为 " + req.Decision,
		RelatedType: &relatedType,
		RelatedID:   &book.BookID,
	}
	if err := txRepo.Notification.BatchCreate(ctx, []model.Notification{note}); err != nil {
		rollback(tx)
		s.logger.Error("创建决议通知失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}

	if err := commit(tx); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionRecordDecision,
		TargetType: "book",
		TargetID:   bookID,
		Details: map[string]any{
			"decision_id": decision.DecisionID,
			"decision":    decision.Decision,
			"from_status": model.BookStatusReviewCompleted,
		},
	})

	resp := toDecisionResponse(decision, req.Decision)
	return &resp, nil
}

// ────────────────────── GetDecision ──────────────────────

func (s *decisionService) GetDecision(ctx context.Context, bookID string) (*dto.DecisionResponse, error) {
	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	d, err := s.repo.Decision.GetLatestByBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDecisionNotFound
		}
		s.logger.Error("查询委员会决议失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	resp := toDecisionResponse(d, book.Status)
	return &resp, nil
}

func validDecision(d string) bool {
	switch d {
	case model.DecisionApproved, model.DecisionRejected, model.DecisionNeedsRevision:
		return true
	}
	return false
}

func toDecisionResponse(d *model.CommitteeDecision, bookStatus string) dto.DecisionResponse {
	return dto.DecisionResponse{
		ID:         d.DecisionID,
		BookID:     d.BookID,
		DecidedBy:  d.DecidedBy,
		Decision:   d.Decision,
		Rationale:  d.Rationale,
		DecidedAt:  d.DecidedAt.Format(timeLayout),
		BookStatus: bookStatus,
	}
}
