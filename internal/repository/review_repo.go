package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// ReviewRepository 评审意见数据访问接口
type ReviewRepository interface {
	// Upsert 每个分配至多一条评审，重复提交覆盖
	Upsert(ctx context.Context, review *model.Review) error
	GetByAssignment(ctx context.Context, assignmentID string) (*model.Review, error)
	// ListFinalByBook 某教材全部非草稿评审
	ListFinalByBook(ctx context.Context, bookID string) ([]model.Review, error)
	// ExistsFinalWithCriterion 是否存在引用该指标编码的非草稿评审
	ExistsFinalWithCriterion(ctx context.Context, code string) (bool, error)
}

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepo 创建 ReviewRepository 实例
func NewReviewRepo(db *gorm.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Upsert(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "assignment_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"scores", "comments", "submitted_at", "is_draft", "updated_by", "updated_at",
			}),
		}).
		Create(review).Error
}

func (r *reviewRepo) GetByAssignment(ctx context.Context, assignmentID string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepo) ListFinalByBook(ctx context.Context, bookID string) ([]model.Review, error) {
	var list []model.Review
	err := r.db.WithContext(ctx).
		Joins("JOIN assignments a ON a.assignment_id = reviews.assignment_id").
		Where("a.book_id = ? AND reviews.is_draft = ?", bookID, false).
		Order("reviews.submitted_at ASC").
		Find(&list).Error
	return list, err
}

func (r *reviewRepo) ExistsFinalWithCriterion(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("is_draft = ? AND jsonb_exists(scores, ?)", false, code).
		Count(&n).Error
	return n > 0, err
}
