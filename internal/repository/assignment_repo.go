package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
)

// AssignmentRepository 评审分配数据访问接口
type AssignmentRepository interface {
	BatchCreate(ctx context.Context, items []model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	ListByBook(ctx context.Context, bookID string) ([]model.Assignment, error)
	ListByReviewer(ctx context.Context, reviewerID string, openOnly bool) ([]model.Assignment, error)
	// ListOpenDueBefore 未完成且截止时间早于 t 的分配（逾期报表与提醒扫描共用）
	ListOpenDueBefore(ctx context.Context, t time.Time) ([]model.Assignment, error)
	CountByBookAndStatus(ctx context.Context, bookID, status string) (int64, error)
	CountOpenByBook(ctx context.Context, bookID string) (int64, error)
	// Update 乐观锁更新 due_date / status
	Update(ctx context.Context, a *model.Assignment) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) BatchCreate(ctx context.Context, items []model.Assignment) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Reviewer").
		Where("assignment_id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) ListByBook(ctx context.Context, bookID string) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("book_id = ?", bookID).
		Order("assigned_at ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListByReviewer(ctx context.Context, reviewerID string, openOnly bool) ([]model.Assignment, error) {
	var list []model.Assignment
	db := r.db.WithContext(ctx).
		Preload("Book").
		Where("reviewer_id = ?", reviewerID)
	if openOnly {
		db = db.Where("status <> ?", model.AssignmentStatusCompleted)
	}
	err := db.Order("due_date ASC").Find(&list).Error
	return list, err
}

func (r *assignmentRepo) ListOpenDueBefore(ctx context.Context, t time.Time) ([]model.Assignment, error) {
	var list []model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Reviewer").
		Where("status <> ? AND due_date < ?", model.AssignmentStatusCompleted, t).
		Order("due_date ASC").
		Find(&list).Error
	return list, err
}

func (r *assignmentRepo) CountByBookAndStatus(ctx context.Context, bookID, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("book_id = ? AND status = ?", bookID, status).
		Count(&n).Error
	return n, err
}

func (r *assignmentRepo) CountOpenByBook(ctx context.Context, bookID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("book_id = ? AND status <> ?", bookID, model.AssignmentStatusCompleted).
		Count(&n).Error
	return n, err
}

func (r *assignmentRepo) Update(ctx context.Context, a *model.Assignment) error {
	oldVersion := a.Version
	result := r.db.WithContext(ctx).
		Model(&model.Assignment{}).
		Where("assignment_id = ? AND version = ?", a.AssignmentID, oldVersion).
		Updates(map[string]interface{}{
			"due_date":   a.DueDate,
			"status":     a.Status,
			"version":    oldVersion + 1,
			"updated_by": a.UpdatedBy,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	a.Version = oldVersion + 1
	return nil
}
