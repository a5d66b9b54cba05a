package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
)

// ErrInvalidState 实体当前状态不满足操作前置条件
var ErrInvalidState = errors.New("状态不满足操作条件")

// StateError 状态前置条件错误，消息中给出期望状态
type StateError struct {
	Entity   string
	Current  string
	Expected []string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s 当前状态为 %s，操作要求状态为 %s", e.Entity, e.Current, strings.Join(e.Expected, " 或 "))
}

// Is 使 errors.Is(err, ErrInvalidState) 成立
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// ── 教材状态机 ──
//
// PENDING_REVIEW   → UNDER_REVIEW
// UNDER_REVIEW     → REVIEW_COMPLETED
// REVIEW_COMPLETED → APPROVED | REJECTED | NEEDS_REVISION

var bookTransitions = map[string][]string{
	model.BookStatusPendingReview:   {model.BookStatusUnderReview},
	model.BookStatusUnderReview:     {model.BookStatusReviewCompleted},
	model.BookStatusReviewCompleted: {model.BookStatusApproved, model.BookStatusRejected, model.BookStatusNeedsRevision},
}

// CanTransition 判断 from → to 是否为状态机中的一条边
func CanTransition(from, to string) bool {
	for _, next := range bookTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 终态没有出边
func IsTerminal(status string) bool {
	switch status {
	case model.BookStatusApproved, model.BookStatusRejected, model.BookStatusNeedsRevision:
		return true
	}
	return false
}

// transitionBook 沿状态机的一条边条件更新教材状态
// 返回 false 表示教材状态已不是 from（并发下被其他请求推进）
func transitionBook(ctx context.Context, repo *repository.Repository, bookID, from, to, actorID string) (bool, error) {
	if !CanTransition(from, to) {
		return false, &StateError{Entity: "教材", Current: from, Expected: []string{to}}
	}
	return repo.Book.UpdateStatus(ctx, bookID, from, to, actorID)
}
