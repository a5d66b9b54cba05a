package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog 审计日志表，对应 audit_logs（只追加）
type AuditLog struct {
	AuditLogID string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	ActorID    *string           `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	Action     string            `gorm:"type:varchar(50);not null"                      json:"action"`
	TargetType string            `gorm:"type:varchar(30);not null"                      json:"target_type"`
	TargetID   string            `gorm:"type:varchar(64);not null"                      json:"target_id"`
	Details    datatypes.JSONMap `gorm:"type:jsonb;not null"                            json:"details"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }
