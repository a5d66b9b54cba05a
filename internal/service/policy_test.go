package service

import (
	"testing"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

func TestPolicy_RolePredicates(t *testing.T) {
	roles := []string{model.RoleAdmin, model.RoleSecretariat, model.RoleReviewer, model.RoleCommittee}

	tests := []struct {
		name    string
		pred    func(Actor) bool
		allowed []string
	}{
		{"canManageUsers", canManageUsers, []string{model.RoleAdmin}},
		{"canListUsers", canListUsers, []string{model.RoleAdmin, model.RoleSecretariat}},
		{"canManageCriteria", canManageCriteria, []string{model.RoleAdmin, model.RoleSecretariat}},
		{"canUploadBook", canUploadBook, []string{model.RoleSecretariat}},
		{"canAssignReviewers", canAssignReviewers, []string{model.RoleSecretariat}},
		{"canUpdateAssignment", canUpdateAssignment, []string{model.RoleSecretariat, model.RoleAdmin}},
		{"canViewOverdue", canViewOverdue, []string{model.RoleSecretariat, model.RoleAdmin}},
		{"canComputeAggregate", canComputeAggregate, []string{model.RoleSecretariat, model.RoleCommittee}},
		{"canRecordDecision", canRecordDecision, []string{model.RoleCommittee}},
		{"canViewAuditLogs", canViewAuditLogs, []string{model.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed := make(map[string]bool)
			for _, r := range tt.allowed {
				allowed[r] = true
			}
			for _, r := range roles {
				if got := tt.pred(Actor{UserID: "u-1", Role: r}); got != allowed[r] {
					t.Errorf("角色 %s: 期望 %v，实际 %v", r, allowed[r], got)
				}
			}
		})
	}
}

func TestPolicy_CanSubmitReview_OwnAssignmentOnly(t *testing.T) {
	asg := &model.Assignment{ReviewerID: "rev-1"}

	if !canSubmitReview(reviewerActor("rev-1"), asg) {
		t.Error("评审人应能提交自己的分配")
	}
	if canSubmitReview(reviewerActor("rev-2"), asg) {
		t.Error("评审人不应能提交他人的分配")
	}
	// 角色不符时即使 ID 相同也拒绝
	if canSubmitReview(Actor{UserID: "rev-1", Role: model.RoleCommittee}, asg) {
		t.Error("非 REVIEWER 角色不应能提交")
	}
}

func TestPolicy_CanViewReview(t *testing.T) {
	asg := &model.Assignment{ReviewerID: "rev-1"}

	if !canViewReview(reviewerActor("rev-1"), asg) {
		t.Error("评审人应能查看自己的评审")
	}
	if canViewReview(reviewerActor("rev-2"), asg) {
		t.Error("评审人不应能查看他人的评审")
	}
	if !canViewReview(committee, asg) {
		t.Error("委员会应能查看评审")
	}
}
