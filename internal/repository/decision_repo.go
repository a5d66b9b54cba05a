package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// DecisionRepository 委员会决议数据访问接口
type DecisionRepository interface {
	Create(ctx context.Context, d *model.CommitteeDecision) error
	GetLatestByBook(ctx context.Context, bookID string) (*model.CommitteeDecision, error)
}

type decisionRepo struct {
	db *gorm.DB
}

// NewDecisionRepo 创建 DecisionRepository 实例
func NewDecisionRepo(db *gorm.DB) DecisionRepository {
	return &decisionRepo{db: db}
}

func (r *decisionRepo) Create(ctx context.Context, d *model.CommitteeDecision) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *decisionRepo) GetLatestByBook(ctx context.Context, bookID string) (*model.CommitteeDecision, error) {
	var d model.CommitteeDecision
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("decided_at DESC").
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}
