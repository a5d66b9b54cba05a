package dto

// ── 委员会决议 DTO ──

// RecordDecisionRequest 记录决议请求
type RecordDecisionRequest struct {
	Decision  string `json:"decision"  binding:"required,oneof=APPROVED REJECTED NEEDS_REVISION"`
	Rationale string `json:"rationale" binding:"required,min=1,max=5000"`
}

// DecisionResponse 决议响应
type DecisionResponse struct {
	ID         string `json:"id"`
	BookID     string `json:"book_id"`
	DecidedBy  string `json:"decided_by"`
	Decision   string `json:"decision"`
	Rationale  string `json:"rationale"`
	DecidedAt  string `json:"decided_at"`
	BookStatus string `json:"book_status"`
}
