package model

import (
	"time"

	"gorm.io/datatypes"
)

// ScoreMap 指标编码 → 评分（1-5）
type ScoreMap map[string]float64

// CommentMap 指标编码 → 评语
type CommentMap map[string]string

// Review 评审意见表，对应 reviews（每个分配至多一条，重复提交覆盖）
type Review struct {
	ReviewID     string                         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	AssignmentID string                         `gorm:"type:uuid;not null;uniqueIndex"                 json:"assignment_id"`
	ReviewerID   string                         `gorm:"type:uuid;not null"                             json:"reviewer_id"`
	Scores       datatypes.JSONType[ScoreMap]   `gorm:"type:jsonb;not null"                            json:"scores"`
	Comments     datatypes.JSONType[CommentMap] `gorm:"type:jsonb;not null"                            json:"comments"`
	SubmittedAt  time.Time                      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"submitted_at"`
	IsDraft      bool                           `gorm:"not null"                                       json:"is_draft"` // 勿加 default：gorm 会把 false 当零值替换
	BaseModel
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }

// ScoreData 取出评分 map（nil 安全）
func (r *Review) ScoreData() ScoreMap {
	if s := r.Scores.Data(); s != nil {
		return s
	}
	return ScoreMap{}
}

// CommentData 取出评语 map（nil 安全）
func (r *Review) CommentData() CommentMap {
	if c := r.Comments.Data(); c != nil {
		return c
	}
	return CommentMap{}
}
