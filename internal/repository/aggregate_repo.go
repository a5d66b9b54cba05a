package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// AggregateRepository 评审汇总数据访问接口（只追加）
type AggregateRepository interface {
	Create(ctx context.Context, result *model.AggregateResult) error
	GetLatestByBook(ctx context.Context, bookID string) (*model.AggregateResult, error)
	ListByBook(ctx context.Context, bookID string) ([]model.AggregateResult, error)
}

type aggregateRepo struct {
	db *gorm.DB
}

// NewAggregateRepo 创建 AggregateRepository 实例
func NewAggregateRepo(db *gorm.DB) AggregateRepository {
	return &aggregateRepo{db: db}
}

func (r *aggregateRepo) Create(ctx context.Context, result *model.AggregateResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *aggregateRepo) GetLatestByBook(ctx context.Context, bookID string) (*model.AggregateResult, error) {
	var result model.AggregateResult
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("computed_at DESC").
		First(&result).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *aggregateRepo) ListByBook(ctx context.Context, bookID string) ([]model.AggregateResult, error) {
	var list []model.AggregateResult
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("computed_at DESC").
		Find(&list).Error
	return list, err
}
