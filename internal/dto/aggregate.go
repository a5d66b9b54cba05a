package dto

// ── 评审汇总 DTO ──

// CriterionStatsResponse 单指标统计量
type CriterionStatsResponse struct {
	Code     string  `json:"code"`
	Label    string  `json:"label,omitempty"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Count    int     `json:"count"`
}

// AggregateResponse 汇总结果
type AggregateResponse struct {
	ID            string                   `json:"id"`
	BookID        string                   `json:"book_id"`
	ComputedAt    string                   `json:"computed_at"`
	Stats         []CriterionStatsResponse `json:"stats"`
	OverallMean   float64                  `json:"overall_mean"`
	WeightedScore *float64                 `json:"weighted_score,omitempty"`
	ReviewCount   int                      `json:"review_count"`
	SummaryText   string                   `json:"summary_text"`
}

// SummaryResponse AI 摘要
type SummaryResponse struct {
	BookID string `json:"book_id"`
	Text   string `json:"text"`
	Model  string `json:"model"`
}
