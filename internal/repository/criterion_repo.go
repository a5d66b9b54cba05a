package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// CriterionRepository 评审指标数据访问接口
type CriterionRepository interface {
	Create(ctx context.Context, c *model.Criterion) error
	GetByID(ctx context.Context, id string) (*model.Criterion, error)
	GetByCode(ctx context.Context, code string) (*model.Criterion, error)
	List(ctx context.Context) ([]model.Criterion, error)
	Update(ctx context.Context, c *model.Criterion) error
	Delete(ctx context.Context, id string) error
}

type criterionRepo struct {
	db *gorm.DB
}

// NewCriterionRepo 创建 CriterionRepository 实例
func NewCriterionRepo(db *gorm.DB) CriterionRepository {
	return &criterionRepo{db: db}
}

func (r *criterionRepo) Create(ctx context.Context, c *model.Criterion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *criterionRepo) GetByID(ctx context.Context, id string) (*model.Criterion, error) {
	var c model.Criterion
	err := r.db.WithContext(ctx).
		Where("criterion_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *criterionRepo) GetByCode(ctx context.Context, code string) (*model.Criterion, error) {
	var c model.Criterion
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *criterionRepo) List(ctx context.Context) ([]model.Criterion, error) {
	var list []model.Criterion
	err := r.db.WithContext(ctx).Order("code ASC").Find(&list).Error
	return list, err
}

func (r *criterionRepo) Update(ctx context.Context, c *model.Criterion) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *criterionRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("criterion_id = ?", id).
		Delete(&model.Criterion{}).Error
}
