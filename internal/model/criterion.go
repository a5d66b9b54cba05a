package model

// Criterion 评审指标表，对应 criteria
// 权重由作者设定，不要求总和为 1
type Criterion struct {
	CriterionID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"criterion_id"`
	Code        string  `gorm:"type:varchar(50);not null;uniqueIndex"          json:"code"`
	Label       string  `gorm:"type:varchar(200);not null"                     json:"label"`
	Description string  `gorm:"type:text;not null;default:''"                  json:"description"`
	Weight      float64 `gorm:"type:numeric(5,4);not null;default:0"           json:"weight"`
	BaseModel
}

// TableName 指定表名
func (Criterion) TableName() string { return "criteria" }
