package model

import (
	"time"

	"gorm.io/datatypes"
)

// CriterionStats 单个指标的统计量
type CriterionStats struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Count    int     `json:"count"`
}

// StatsMap 指标编码 → 统计量
type StatsMap map[string]CriterionStats

// AggregateResult 评审汇总结果，对应 aggregate_results
// 派生数据，每次计算新增一行（历史快照），不做 upsert
type AggregateResult struct {
	AggregateID   string                       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"aggregate_id"`
	BookID        string                       `gorm:"type:uuid;not null;index"                       json:"book_id"`
	ComputedAt    time.Time                    `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"computed_at"`
	Stats         datatypes.JSONType[StatsMap] `gorm:"type:jsonb;not null"                            json:"stats"`
	OverallMean   float64                      `gorm:"not null;default:0"                             json:"overall_mean"`
	WeightedScore *float64                     `json:"weighted_score,omitempty"`
	ReviewCount   int                          `gorm:"not null;default:0"                             json:"review_count"`
	SummaryText   string                       `gorm:"type:text;not null;default:''"                  json:"summary_text"`
	ComputedBy    *string                      `gorm:"type:uuid"                                      json:"computed_by,omitempty"`
}

// TableName 指定表名
func (AggregateResult) TableName() string { return "aggregate_results" }
