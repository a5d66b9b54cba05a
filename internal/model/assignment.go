package model

import "time"

// ── 分配状态 ──

const (
	AssignmentStatusPending    = "PENDING"
	AssignmentStatusInProgress = "IN_PROGRESS"
	AssignmentStatusCompleted  = "COMPLETED"
	AssignmentStatusOverdue    = "OVERDUE"
)

// ValidAssignmentStatus 判断分配状态是否合法
func ValidAssignmentStatus(status string) bool {
	switch status {
	case AssignmentStatusPending, AssignmentStatusInProgress, AssignmentStatusCompleted, AssignmentStatusOverdue:
		return true
	}
	return false
}

// Assignment 评审分配表，对应 assignments（每个 book × reviewer 唯一）
type Assignment struct {
	AssignmentID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	BookID       string    `gorm:"type:uuid;not null"                             json:"book_id"`
	ReviewerID   string    `gorm:"type:uuid;not null"                             json:"reviewer_id"`
	AssignedBy   string    `gorm:"type:uuid;not null"                             json:"assigned_by"`
	AssignedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"assigned_at"`
	DueDate      time.Time `gorm:"not null"                                       json:"due_date"`
	Status       string    `gorm:"type:varchar(20);not null;default:'PENDING'"    json:"status"`
	Version      int       `gorm:"not null;default:1"                             json:"version"`
	BaseModel

	// 关联
	Book     *Book `gorm:"foreignKey:BookID;references:BookID"     json:"book,omitempty"`
	Reviewer *User `gorm:"foreignKey:ReviewerID;references:UserID" json:"reviewer,omitempty"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }

// EffectiveStatus 报表口径的状态：未完成且已过截止时间视为 OVERDUE（不回写）
func (a *Assignment) EffectiveStatus(now time.Time) string {
	if a.Status != AssignmentStatusCompleted && now.After(a.DueDate) {
		return AssignmentStatusOverdue
	}
	return a.Status
}
