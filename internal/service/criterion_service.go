package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
)

// ── 评审指标模块业务错误 ──

var (
	ErrCriterionNotFound   = errors.New("评审指标不存在")
	ErrCriterionCodeExists = errors.New("评审指标编码已存在")
	// ErrCriterionInUse 已被正式评审引用的指标不可修改或删除
	ErrCriterionInUse = errors.New("评审指标已被正式评审引用，不可修改或删除")
)

// CriterionService 评审指标业务接口
type CriterionService interface {
	List(ctx context.Context) ([]dto.CriterionResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CriterionResponse, error)
	Create(ctx context.Context, actor Actor, req *dto.CreateCriterionRequest) (*dto.CriterionResponse, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.UpdateCriterionRequest) (*dto.CriterionResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type criterionService struct {
	repo   *repository.Repository
	audit  AuditHook
	logger *zap.Logger
}

// NewCriterionService 创建 CriterionService 实例
func NewCriterionService(repo *repository.Repository, audit AuditHook, logger *zap.Logger) CriterionService {
	return &criterionService{repo: repo, audit: audit, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *criterionService) List(ctx context.Context) ([]dto.CriterionResponse, error) {
	list, err := s.repo.Criterion.List(ctx)
	if err != nil {
		s.logger.Error("查询评审指标失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CriterionResponse, 0, len(list))
	for i := range list {
		result = append(result, toCriterionResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *criterionService) GetByID(ctx context.Context, id string) (*dto.CriterionResponse, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCriterionResponse(c)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *criterionService) Create(ctx context.Context, actor Actor, req *dto.CreateCriterionRequest) (*dto.CriterionResponse, error) {
	if !canManageCriteria(actor) {
		return nil, ErrForbidden
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	ve := pkgerrors.NewValidationError()
	if code == "" {
		ve.Add("code", "不能为空")
	}
	if req.Weight == nil || *req.Weight < 0 || *req.Weight > 1 {
		ve.Add("weight", "必须在 0 到 1 之间")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	if _, err := s.repo.Criterion.GetByCode(ctx, code); err == nil {
		return nil, ErrCriterionCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询评审指标失败", zap.Error(err))
		return nil, err
	}

	c := &model.Criterion{
		Code:        code,
		Label:       strings.TrimSpace(req.Label),
		Description: req.Description,
		Weight:      *req.Weight,
	}
	c.CreatedBy = &actor.UserID
	c.UpdatedBy = &actor.UserID

	if err := s.repo.Criterion.Create(ctx, c); err != nil {
		s.logger.Error("创建评审指标失败", zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionCreateCriterion,
		TargetType: "criterion",
		TargetID:   c.CriterionID,
		Details:    map[string]any{"code": c.Code, "weight": c.Weight},
	})

	resp := toCriterionResponse(c)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *criterionService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateCriterionRequest) (*dto.CriterionResponse, error) {
	if !canManageCriteria(actor) {
		return nil, ErrForbidden
	}

	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotInUse(ctx, c.Code); err != nil {
		return nil, err
	}

	if req.Weight != nil && (*req.Weight < 0 || *req.Weight > 1) {
		ve := pkgerrors.NewValidationError()
		ve.Add("weight", "必须在 0 到 1 之间")
		return nil, ve
	}

	if req.Label != nil {
		c.Label = strings.TrimSpace(*req.Label)
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Weight != nil {
		c.Weight = *req.Weight
	}
	c.UpdatedBy = &actor.UserID

	if err := s.repo.Criterion.Update(ctx, c); err != nil {
		s.logger.Error("更新评审指标失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionUpdateCriterion,
		TargetType: "criterion",
		TargetID:   c.CriterionID,
		Details:    map[string]any{"code": c.Code, "weight": c.Weight},
	})

	resp := toCriterionResponse(c)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *criterionService) Delete(ctx context.Context, actor Actor, id string) error {
	if !canManageCriteria(actor) {
		return ErrForbidden
	}

	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ensureNotInUse(ctx, c.Code); err != nil {
		return err
	}

	if err := s.repo.Criterion.Delete(ctx, id); err != nil {
		s.logger.Error("删除评审指标失败", zap.String("id", id), zap.Error(err))
		return err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionDeleteCriterion,
		TargetType: "criterion",
		TargetID:   c.CriterionID,
		Details:    map[string]any{"code": c.Code},
	})
	return nil
}

// ── 辅助函数 ──

func (s *criterionService) get(ctx context.Context, id string) (*model.Criterion, error) {
	c, err := s.repo.Criterion.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCriterionNotFound
		}
		s.logger.Error("查询评审指标失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return c, nil
}

func (s *criterionService) ensureNotInUse(ctx context.Context, code string) error {
	inUse, err := s.repo.Review.ExistsFinalWithCriterion(ctx, code)
	if err != nil {
		s.logger.Error("检查评审指标引用失败", zap.String("code", code), zap.Error(err))
		return err
	}
	if inUse {
		return ErrCriterionInUse
	}
	return nil
}

func toCriterionResponse(c *model.Criterion) dto.CriterionResponse {
	return dto.CriterionResponse{
		ID:          c.CriterionID,
		Code:        c.Code,
		Label:       c.Label,
		Description: c.Description,
		Weight:      c.Weight,
	}
}
