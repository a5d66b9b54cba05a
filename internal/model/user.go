package model

// ── 角色 ──

const (
	RoleAdmin       = "ADMIN"
	RoleSecretariat = "SECRETARIAT"
	RoleReviewer    = "REVIEWER"
	RoleCommittee   = "COMMITTEE"
)

// ValidRole 判断角色是否合法
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSecretariat, RoleReviewer, RoleCommittee:
		return true
	}
	return false
}

// User 用户表，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'REVIEWER'"   json:"role"`
	IsActive     bool   `gorm:"not null"                                       json:"is_active"`
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
