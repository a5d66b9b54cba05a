package service

import (
	"context"
	"testing"
	"time"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// 上传 → 分配两名评审人 → 先后正式提交 → 汇总 → 委员会决议
func TestReviewWorkflow_EndToEnd(t *testing.T) {
	env := newTestEnv()
	env.seedCriteria()
	seedReviewers(env, "r1", "r2")
	ctx := context.Background()

	svc := NewService(env.cfg, env.repo, Deps{Store: newFakeStore(), Audit: env.audit}, env.logger)
	svc.Assignment.(*assignmentService).now = func() time.Time { return fixedNow }

	// 1. 上传
	book, err := svc.Book.Upload(ctx, secretariat, &dto.UploadBookRequest{Title: "中药学", Authors: "李四"}, pdfUpload())
	if err != nil {
		t.Fatalf("上传失败: %v", err)
	}
	if book.Status != model.BookStatusPendingReview {
		t.Fatalf("上传后应为 PENDING_REVIEW，实际: %s", book.Status)
	}

	// 2. 分配
	due := fixedNow.AddDate(0, 0, 14).Format(time.RFC3339)
	assigned, err := svc.Assignment.AssignReviewers(ctx, secretariat, book.ID, &dto.AssignReviewersRequest{
		ReviewerIDs: []string{"r1", "r2"},
		DueDate:     due,
	})
	if err != nil {
		t.Fatalf("分配失败: %v", err)
	}
	if env.bookStatus(book.ID) != model.BookStatusUnderReview {
		t.Fatalf("分配后应为 UNDER_REVIEW，实际: %s", env.bookStatus(book.ID))
	}
	ids := make(map[string]string)
	for _, a := range assigned.Created {
		if a.Status != model.AssignmentStatusPending {
			t.Errorf("新分配应为 PENDING，实际: %s", a.Status)
		}
		ids[a.ReviewerID] = a.ID
	}
	if len(ids) != 2 {
		t.Fatalf("期望 2 个分配，实际: %d", len(ids))
	}

	// 3. R1 正式提交
	r1, err := svc.Review.SubmitReview(ctx, reviewerActor("r1"), ids["r1"], &dto.SubmitReviewRequest{
		Scores: map[string]any{"CONT-1": 4, "CONT-2": 5},
	})
	if err != nil {
		t.Fatalf("R1 提交失败: %v", err)
	}
	if r1.AssignmentStatus != model.AssignmentStatusCompleted {
		t.Errorf("分配 1 应为 COMPLETED，实际: %s", r1.AssignmentStatus)
	}
	if env.bookStatus(book.ID) != model.BookStatusUnderReview {
		t.Fatalf("R1 提交后教材仍应为 UNDER_REVIEW，实际: %s", env.bookStatus(book.ID))
	}

	// 4. R2 正式提交
	r2, err := svc.Review.SubmitReview(ctx, reviewerActor("r2"), ids["r2"], &dto.SubmitReviewRequest{
		Scores: map[string]any{"CONT-1": 2, "CONT-2": 3},
	})
	if err != nil {
		t.Fatalf("R2 提交失败: %v", err)
	}
	if r2.AssignmentStatus != model.AssignmentStatusCompleted {
		t.Errorf("分配 2 应为 COMPLETED，实际: %s", r2.AssignmentStatus)
	}
	if env.bookStatus(book.ID) != model.BookStatusReviewCompleted {
		t.Fatalf("全部提交后应为 REVIEW_COMPLETED，实际: %s", env.bookStatus(book.ID))
	}

	// 5. 汇总
	agg, err := svc.Aggregate.ComputeAggregate(ctx, committee, book.ID)
	if err != nil {
		t.Fatalf("汇总失败: %v", err)
	}
	stats := make(map[string]dto.CriterionStatsResponse)
	for _, st := range agg.Stats {
		stats[st.Code] = st
	}
	check := func(code string, mean, min, max float64) {
		st := stats[code]
		if !almostEqual(st.Mean, mean) || st.Min != min || st.Max != max || st.Count != 2 {
			t.Errorf("%s 期望 mean=%v min=%v max=%v count=2，实际 %+v", code, mean, min, max, st)
		}
	}
	check("CONT-1", 3, 2, 4)
	check("CONT-2", 4, 3, 5)

	// 6. 决议
	decision, err := svc.Decision.RecordDecision(ctx, committee, book.ID, &dto.RecordDecisionRequest{
		Decision:  model.DecisionNeedsRevision,
		Rationale: "insufficient detail",
	})
	if err != nil {
		t.Fatalf("决议失败: %v", err)
	}
	if decision.BookStatus != model.BookStatusNeedsRevision || env.bookStatus(book.ID) != model.BookStatusNeedsRevision {
		t.Errorf("决议后应为 NEEDS_REVISION，实际: %s", env.bookStatus(book.ID))
	}
	stored, err := env.decisions.GetLatestByBook(ctx, book.ID)
	if err != nil || stored.Rationale != "insufficient detail" {
		t.Errorf("决议应已持久化: %+v, err=%v", stored, err)
	}

	// 状态只沿状态机的边移动
	want := []string{
		model.BookStatusPendingReview + "->" + model.BookStatusUnderReview,
		model.BookStatusUnderReview + "->" + model.BookStatusReviewCompleted,
		model.BookStatusReviewCompleted + "->" + model.BookStatusNeedsRevision,
	}
	if len(env.books.transitions) != len(want) {
		t.Fatalf("期望 %d 次状态变更，实际: %v", len(want), env.books.transitions)
	}
	for i, tr := range env.books.transitions {
		if tr != want[i] {
			t.Errorf("第 %d 次变更期望 %s，实际 %s", i+1, want[i], tr)
		}
	}

	// 每个变更操作都有审计
	wantActions := []string{
		AuditActionUploadBook,
		AuditActionAssignReviewers,
		AuditActionSubmitReview,
		AuditActionSubmitReview,
		AuditActionComputeAggregate,
		AuditActionRecordDecision,
	}
	got := env.audit.actions()
	if len(got) != len(wantActions) {
		t.Fatalf("审计动作期望 %v，实际 %v", wantActions, got)
	}
	for i := range wantActions {
		if got[i] != wantActions[i] {
			t.Errorf("第 %d 条审计期望 %s，实际 %s", i+1, wantActions[i], got[i])
		}
	}
}
