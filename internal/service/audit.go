package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
)

// ── 审计动作 ──

const (
	AuditActionAssignReviewers  = "assign_reviewers"
	AuditActionUpdateAssignment = "update_assignment"
	AuditActionSubmitReview     = "submit_review"
	AuditActionComputeAggregate = "compute_aggregate"
	AuditActionRecordDecision   = "record_decision"
	AuditActionUploadBook       = "upload_book"
	AuditActionCreateCriterion  = "create_criterion"
	AuditActionUpdateCriterion  = "update_criterion"
	AuditActionDeleteCriterion  = "delete_criterion"
	AuditActionDeclareConflict  = "declare_conflict"
	AuditActionCreateUser       = "create_user"
)

// AuditEntry 审计条目
type AuditEntry struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Details    map[string]any
}

// AuditHook 变更操作成功提交后调用
type AuditHook interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// dbAuditHook 写入 audit_logs 表
type dbAuditHook struct {
	repo *repository.Repository
}

// NewAuditHook 创建落库的审计钩子
func NewAuditHook(repo *repository.Repository) AuditHook {
	return &dbAuditHook{repo: repo}
}

func (h *dbAuditHook) Record(ctx context.Context, entry AuditEntry) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	log := &model.AuditLog{
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Details:    datatypes.JSONMap(details),
	}
	if entry.ActorID != "" {
		actor := entry.ActorID
		log.ActorID = &actor
	}
	return h.repo.AuditLog.Create(ctx, log)
}

// recordAudit 审计失败只记日志，不影响已提交的业务结果
func recordAudit(ctx context.Context, hook AuditHook, logger *zap.Logger, entry AuditEntry) {
	if hook == nil {
		return
	}
	if err := hook.Record(ctx, entry); err != nil {
		logger.Warn("写入审计日志失败",
			zap.String("action", entry.Action),
			zap.String("target_type", entry.TargetType),
			zap.String("target_id", entry.TargetID),
			zap.Error(err),
		)
	}
}

// ── 审计日志查询 ──

// AuditService 审计日志查询接口
type AuditService interface {
	List(ctx context.Context, actor Actor, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error)
}

type auditService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAuditService 创建 AuditService 实例
func NewAuditService(repo *repository.Repository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) List(ctx context.Context, actor Actor, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error) {
	if !canViewAuditLogs(actor) {
		return nil, 0, ErrForbidden
	}

	logs, total, err := s.repo.AuditLog.List(ctx, req.TargetType, req.TargetID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询审计日志失败", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.AuditLogResponse, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		item := dto.AuditLogResponse{
			ID:         l.AuditLogID,
			Action:     l.Action,
			TargetType: l.TargetType,
			TargetID:   l.TargetID,
			Details:    map[string]any(l.Details),
			CreatedAt:  l.CreatedAt.Format(timeLayout),
		}
		if l.ActorID != nil {
			item.ActorID = *l.ActorID
		}
		list = append(list, item)
	}
	return list, total, nil
}
