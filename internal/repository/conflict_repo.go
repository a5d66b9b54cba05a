package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// ConflictRepository 利益冲突声明数据访问接口
type ConflictRepository interface {
	Upsert(ctx context.Context, d *model.ConflictDeclaration) error
	ListByBook(ctx context.Context, bookID string) ([]model.ConflictDeclaration, error)
}

type conflictRepo struct {
	db *gorm.DB
}

// NewConflictRepo 创建 ConflictRepository 实例
func NewConflictRepo(db *gorm.DB) ConflictRepository {
	return &conflictRepo{db: db}
}

func (r *conflictRepo) Upsert(ctx context.Context, d *model.ConflictDeclaration) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "assignment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"has_conflict", "details", "declared_at"}),
		}).
		Create(d).Error
}

func (r *conflictRepo) ListByBook(ctx context.Context, bookID string) ([]model.ConflictDeclaration, error) {
	var list []model.ConflictDeclaration
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("declared_at ASC").
		Find(&list).Error
	return list, err
}
