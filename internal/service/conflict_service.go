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

// ConflictService 利益冲突声明业务接口
// 声明仅作记录，不影响教材状态
type ConflictService interface {
	Declare(ctx context.Context, actor Actor, assignmentID string, req *dto.DeclareConflictRequest) (*dto.ConflictResponse, error)
	ListByBook(ctx context.Context, actor Actor, bookID string) ([]dto.ConflictResponse, error)
}

type conflictService struct {
	repo   *repository.Repository
	audit  AuditHook
	logger *zap.Logger
	now    func() time.Time
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(repo *repository.Repository, audit AuditHook, logger *zap.Logger) ConflictService {
	return &conflictService{repo: repo, audit: audit, logger: logger, now: time.Now}
}

func (s *conflictService) Declare(ctx context.Context, actor Actor, assignmentID string, req *dto.DeclareConflictRequest) (*dto.ConflictResponse, error) {
	asg, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询分配失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}
	if !canDeclareConflict(actor, asg) {
		return nil, ErrForbidden
	}

	details := strings.TrimSpace(req.Details)
	if req.HasConflict == nil {
		return nil, pkgerrors.NewValidationError(pkgerrors.FieldError{Field: "has_conflict", Message: "不能为空"})
	}
	if *req.HasConflict && details == "" {
		return nil, pkgerrors.NewValidationError(pkgerrors.FieldError{Field: "details", Message: "存在利益冲突时必须说明"})
	}

	d := &model.ConflictDeclaration{
		AssignmentID: assignmentID,
		BookID:       asg.BookID,
		ReviewerID:   actor.UserID,
		HasConflict:  *req.HasConflict,
		Details:      details,
		DeclaredAt:   s.now(),
	}
	if err := s.repo.Conflict.Upsert(ctx, d); err != nil {
		s.logger.Error("保存利益冲突声明失败", zap.String("assignment_id", assignmentID), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionDeclareConflict,
		TargetType: "assignment",
		TargetID:   assignmentID,
		Details:    map[string]any{"book_id": asg.BookID, "has_conflict": d.HasConflict},
	})

	resp := toConflictResponse(d)
	return &resp, nil
}

func (s *conflictService) ListByBook(ctx context.Context, actor Actor, bookID string) ([]dto.ConflictResponse, error) {
	if !canViewConflicts(actor) {
		return nil, ErrForbidden
	}
	if err := ensureBook(ctx, s.repo, bookID); err != nil {
		return nil, err
	}
	list, err := s.repo.Conflict.ListByBook(ctx, bookID)
	if err != nil {
		s.logger.Error("查询利益冲突声明失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ConflictResponse, 0, len(list))
	for i := range list {
		result = append(result, toConflictResponse(&list[i]))
	}
	return result, nil
}

func toConflictResponse(d *model.ConflictDeclaration) dto.ConflictResponse {
	return dto.ConflictResponse{
		ID:           d.DeclarationID,
		AssignmentID: d.AssignmentID,
		BookID:       d.BookID,
		ReviewerID:   d.ReviewerID,
		HasConflict:  d.HasConflict,
		Details:      d.Details,
		DeclaredAt:   d.DeclaredAt.Format(timeLayout),
	}
}
