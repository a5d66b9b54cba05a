package model

import "time"

// ── 委员会决议取值（与教材终态同名） ──

const (
	DecisionApproved      = "APPROVED"
	DecisionRejected      = "REJECTED"
	DecisionNeedsRevision = "NEEDS_REVISION"
)

// CommitteeDecision 委员会决议表，对应 committee_decisions
type CommitteeDecision struct {
	DecisionID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"decision_id"`
	BookID     string    `gorm:"type:uuid;not null;index"                       json:"book_id"`
	DecidedBy  string    `gorm:"type:uuid;not null"                             json:"decided_by"`
	Decision   string    `gorm:"type:varchar(20);not null"                      json:"decision"`
	Rationale  string    `gorm:"type:text;not null"                             json:"rationale"`
	DecidedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"decided_at"`
}

// TableName 指定表名
func (CommitteeDecision) TableName() string { return "committee_decisions" }
