package model

import "time"

// ConflictDeclaration 利益冲突声明表，对应 conflict_declarations（每个分配一条）
type ConflictDeclaration struct {
	DeclarationID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"declaration_id"`
	AssignmentID  string    `gorm:"type:uuid;not null;uniqueIndex"                 json:"assignment_id"`
	BookID        string    `gorm:"type:uuid;not null"                             json:"book_id"`
	ReviewerID    string    `gorm:"type:uuid;not null"                             json:"reviewer_id"`
	HasConflict   bool      `gorm:"not null;default:false"                         json:"has_conflict"`
	Details       string    `gorm:"type:text;not null;default:''"                  json:"details"`
	DeclaredAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"declared_at"`
}

// TableName 指定表名
func (ConflictDeclaration) TableName() string { return "conflict_declarations" }
