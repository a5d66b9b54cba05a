package dto

// ── 评审指标 DTO ──

// CreateCriterionRequest 创建指标请求
type CreateCriterionRequest struct {
	Code        string   `json:"code"        binding:"required,min=1,max=50"`
	Label       string   `json:"label"       binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"omitempty,max=2000"`
	Weight      *float64 `json:"weight"      binding:"required,min=0,max=1"`
}

// UpdateCriterionRequest 更新指标请求
type UpdateCriterionRequest struct {
	Label       *string  `json:"label"       binding:"omitempty,min=1,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Weight      *float64 `json:"weight"      binding:"omitempty,min=0,max=1"`
}

// CriterionResponse 指标响应
type CriterionResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}
