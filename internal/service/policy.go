package service

import (
	"errors"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// ErrForbidden 调用者身份或角色不满足操作要求（与参数校验错误相互独立）
var ErrForbidden = errors.New("无权执行该操作")

// Actor 发起操作的用户（来自 JWT）
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) hasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// ── 各操作的权限判定 ──

func canManageUsers(a Actor) bool { return a.hasRole(model.RoleAdmin) }

func canListUsers(a Actor) bool { return a.hasRole(model.RoleAdmin, model.RoleSecretariat) }

func canManageCriteria(a Actor) bool { return a.hasRole(model.RoleAdmin, model.RoleSecretariat) }

func canUploadBook(a Actor) bool { return a.hasRole(model.RoleSecretariat) }

func canAssignReviewers(a Actor) bool { return a.hasRole(model.RoleSecretariat) }

func canUpdateAssignment(a Actor) bool { return a.hasRole(model.RoleSecretariat, model.RoleAdmin) }

func canViewBookAssignments(a Actor) bool {
	return a.hasRole(model.RoleSecretariat, model.RoleCommittee, model.RoleAdmin)
}

func canViewOverdue(a Actor) bool { return a.hasRole(model.RoleSecretariat, model.RoleAdmin) }

// canSubmitReview 只有分配给自己的评审人可以提交
func canSubmitReview(a Actor, asg *model.Assignment) bool {
	return a.hasRole(model.RoleReviewer) && asg.ReviewerID == a.UserID
}

func canViewReview(a Actor, asg *model.Assignment) bool {
	if asg.ReviewerID == a.UserID {
		return true
	}
	return a.hasRole(model.RoleSecretariat, model.RoleCommittee, model.RoleAdmin)
}

func canComputeAggregate(a Actor) bool { return a.hasRole(model.RoleSecretariat, model.RoleCommittee) }

func canGenerateSummary(a Actor) bool { return a.hasRole(model.RoleSecretariat, model.RoleCommittee) }

func canRecordDecision(a Actor) bool { return a.hasRole(model.RoleCommittee) }

func canDeclareConflict(a Actor, asg *model.Assignment) bool {
	return a.hasRole(model.RoleReviewer) && asg.ReviewerID == a.UserID
}

func canViewConflicts(a Actor) bool {
	return a.hasRole(model.RoleSecretariat, model.RoleCommittee, model.RoleAdmin)
}

func canViewAuditLogs(a Actor) bool { return a.hasRole(model.RoleAdmin) }
