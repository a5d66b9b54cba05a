package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/ai"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/jwt"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/queue"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/storage"
)

// timeLayout 响应中的时间格式
const timeLayout = time.RFC3339

// TokenStore Token 黑名单（Redis 实现；为 nil 时降级为不校验）
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Deps 可选的外部依赖；未配置的字段保持 nil，相关功能降级
type Deps struct {
	JWT       *jwt.Manager
	Tokens    TokenStore
	Store     storage.ObjectStore
	Queue     queue.Enqueuer
	Generator ai.TextGenerator
	Audit     AuditHook
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Criterion    CriterionService
	Book         BookService
	Assignment   AssignmentService
	Review       ReviewService
	Aggregate    AggregateService
	Decision     DecisionService
	Conflict     ConflictService
	Notification NotificationService
	Export       ExportService
	Summary      SummaryService
	Audit        AuditService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *Service {
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditHook(repo)
	}

	return &Service{
		Auth:         NewAuthService(cfg, repo, deps.JWT, deps.Tokens, logger),
		User:         NewUserService(repo, audit, logger),
		Criterion:    NewCriterionService(repo, audit, logger),
		Book:         NewBookService(cfg, repo, deps.Store, deps.Queue, audit, logger),
		Assignment:   NewAssignmentService(cfg, repo, audit, logger),
		Review:       NewReviewService(repo, audit, logger),
		Aggregate:    NewAggregateService(repo, audit, logger),
		Decision:     NewDecisionService(repo, audit, logger),
		Conflict:     NewConflictService(repo, audit, logger),
		Notification: NewNotificationService(repo, logger),
		Export:       NewExportService(repo, logger),
		Summary:      NewSummaryService(cfg, repo, deps.Generator, logger),
		Audit:        NewAuditService(repo, logger),
	}
}
