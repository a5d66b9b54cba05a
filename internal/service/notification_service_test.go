package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

func TestNotification_ListAndMarkRead(t *testing.T) {
	env := newTestEnv()
	setupUnderReview(t, env, "rev-1", "rev-2")
	svc := NewNotificationService(env.repo, env.logger)
	ctx := context.Background()

	list, total, err := svc.List(ctx, reviewerActor("rev-1"), &dto.NotificationListRequest{})
	if err != nil || total != 1 {
		t.Fatalf("rev-1 应收到 1 条分配通知，实际: total=%d err=%v", total, err)
	}
	n := list[0]
	if n.Type != model.NotificationTypeAssigned || n.RelatedID == "" {
		t.Errorf("通知内容不符: %+v", n)
	}

	if err := svc.MarkRead(ctx, reviewerActor("rev-2"), n.ID); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("标记他人通知期望 ErrNotificationNotFound，实际: %v", err)
	}
	if err := svc.MarkRead(ctx, reviewerActor("rev-1"), n.ID); err != nil {
		t.Fatalf("MarkRead 应成功: %v", err)
	}

	_, unread, _ := svc.List(ctx, reviewerActor("rev-1"), &dto.NotificationListRequest{UnreadOnly: true})
	if unread != 0 {
		t.Errorf("标记后未读数期望 0，实际: %d", unread)
	}
}

func TestAuditService_List(t *testing.T) {
	env := newTestEnv()
	hook := NewAuditHook(env.repo)
	svc := NewAuditService(env.repo, env.logger)
	ctx := context.Background()

	_ = hook.Record(ctx, AuditEntry{ActorID: "sec-1", Action: AuditActionUploadBook, TargetType: "book", TargetID: "book-1"})
	_ = hook.Record(ctx, AuditEntry{Action: AuditActionAssignReviewers, TargetType: "book", TargetID: "book-2",
		Details: map[string]any{"reviewer_ids": []string{"rev-1"}}})

	list, total, err := svc.List(ctx, admin, &dto.AuditLogListRequest{TargetID: "book-1"})
	if err != nil || total != 1 {
		t.Fatalf("按 target_id 过滤期望 1 条，实际: total=%d err=%v", total, err)
	}
	if list[0].ActorID != "sec-1" || list[0].Details == nil {
		t.Errorf("审计内容不符: %+v", list[0])
	}

	all, _, _ := svc.List(ctx, admin, &dto.AuditLogListRequest{})
	if all[0].Action != AuditActionAssignReviewers || all[0].ActorID != "" {
		t.Errorf("应按时间倒序且系统动作无 actor，实际: %+v", all[0])
	}

	if _, _, err := svc.List(ctx, secretariat, &dto.AuditLogListRequest{}); !errors.Is(err, ErrForbidden) {
		t.Errorf("非管理员期望 ErrForbidden，实际: %v", err)
	}
}

func TestRecordAudit_FailureDoesNotPropagate(t *testing.T) {
	env := newTestEnv()
	env.audit.err = errors.New("audit sink down")
	env.seedBook("book-1", model.BookStatusPendingReview)
	seedReviewers(env, "rev-1")
	svc := setupAssignmentService(env)

	if _, err := svc.AssignReviewers(context.Background(), secretariat, "book-1", &dto.AssignReviewersRequest{
		ReviewerIDs: []string{"rev-1"},
	}); err != nil {
		t.Fatalf("审计失败不应影响业务结果: %v", err)
	}
	if len(env.audit.entries) != 1 {
		t.Errorf("审计钩子仍应被调用一次，实际: %d", len(env.audit.entries))
	}
}
