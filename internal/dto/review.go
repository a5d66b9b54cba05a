package dto

// ── 评审意见 DTO ──

// SubmitReviewRequest 提交评审请求
// scores 的值在服务层逐项校验（必须为 1-5 的数字），因此这里保留原始类型
type SubmitReviewRequest struct {
	Scores   map[string]any    `json:"scores"`
	Comments map[string]string `json:"comments"`
	IsDraft  bool              `json:"is_draft"`
}

// ReviewResponse 评审响应
type ReviewResponse struct {
	ID               string             `json:"id"`
	AssignmentID     string             `json:"assignment_id"`
	ReviewerID       string             `json:"reviewer_id"`
	Scores           map[string]float64 `json:"scores"`
	Comments         map[string]string  `json:"comments"`
	IsDraft          bool               `json:"is_draft"`
	SubmittedAt      string             `json:"submitted_at"`
	AssignmentStatus string             `json:"assignment_status,omitempty"`
	BookStatus       string             `json:"book_status,omitempty"`
}
