package dto

// ── 评审分配 DTO ──

// AssignReviewersRequest 分配评审人请求
type AssignReviewersRequest struct {
	ReviewerIDs []string `json:"reviewer_ids" binding:"required,min=1,dive,uuid"`
	// DueDate RFC3339 或 YYYY-MM-DD；为空时按默认天数计算
	DueDate string `json:"due_date"`
}

// UpdateAssignmentRequest 更新分配请求（直接覆盖）
type UpdateAssignmentRequest struct {
	DueDate *string `json:"due_date"`
	Status  *string `json:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED OVERDUE"`
}

// AssignmentResponse 分配响应
type AssignmentResponse struct {
	ID           string `json:"id"`
	BookID       string `json:"book_id"`
	BookTitle    string `json:"book_title,omitempty"`
	ReviewerID   string `json:"reviewer_id"`
	ReviewerName string `json:"reviewer_name,omitempty"`
	AssignedBy   string `json:"assigned_by"`
	AssignedAt   string `json:"assigned_at"`
	DueDate      string `json:"due_date"`
	Status       string `json:"status"`
}

// AssignReviewersResponse 分配结果
type AssignReviewersResponse struct {
	BookID      string               `json:"book_id"`
	BookStatus  string               `json:"book_status"`
	Created     []AssignmentResponse `json:"created"`
	AlreadyHeld []string             `json:"already_assigned,omitempty"`
}

// DeclareConflictRequest 利益冲突声明请求
type DeclareConflictRequest struct {
	HasConflict *bool  `json:"has_conflict" binding:"required"`
	Details     string `json:"details"      binding:"omitempty,max=2000"`
}

// ConflictResponse 利益冲突声明响应
type ConflictResponse struct {
	ID           string `json:"id"`
	AssignmentID string `json:"assignment_id"`
	BookID       string `json:"book_id"`
	ReviewerID   string `json:"reviewer_id"`
	HasConflict  bool   `json:"has_conflict"`
	Details      string `json:"details"`
	DeclaredAt   string `json:"declared_at"`
}
