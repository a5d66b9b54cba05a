package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Criterion    CriterionRepository
	Book         BookRepository
	Assignment   AssignmentRepository
	Review       ReviewRepository
	Aggregate    AggregateRepository
	Decision     DecisionRepository
	Conflict     ConflictRepository
	Notification NotificationRepository
	AuditLog     AuditLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Criterion:    NewCriterionRepo(db),
		Book:         NewBookRepo(db),
		Assignment:   NewAssignmentRepo(db),
		Review:       NewReviewRepo(db),
		Aggregate:    NewAggregateRepo(db),
		Decision:     NewDecisionRepo(db),
		Conflict:     NewConflictRepo(db),
		Notification: NewNotificationRepo(db),
		AuditLog:     NewAuditLogRepo(db),
	}
}

// BeginTx 开启事务
// db 为 nil 时（单元测试注入 mock）返回 nil，调用方据此跳过 Commit/Rollback
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 副本
// tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
