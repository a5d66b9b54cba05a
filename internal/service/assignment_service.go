package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
)

// ── 评审分配模块业务错误 ──

var (
	ErrAssignmentNotFound = errors.New("评审分配不存在")
	ErrReviewersNotFound  = errors.New("一个或多个评审人不存在")
)

const dateLayout = "2006-01-02"

// AssignmentService 评审分配业务接口
type AssignmentService interface {
	AssignReviewers(ctx context.Context, actor Actor, bookID string, req *dto.AssignReviewersRequest) (*dto.AssignReviewersResponse, error)
	UpdateAssignment(ctx context.Context, actor Actor, id string, req *dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error)
	ListByBook(ctx context.Context, actor Actor, bookID string) ([]dto.AssignmentResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error)
	ListOverdue(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error)
	Calendar(ctx context.Context, actor Actor) ([]byte, error)
}

type assignmentService struct {
	cfg    *config.Config
	repo   *repository.Repository
	audit  AuditHook
	logger *zap.Logger
	now    func() time.Time
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(cfg *config.Config, repo *repository.Repository, audit AuditHook, logger *zap.Logger) AssignmentService {
	return &assignmentService{
		cfg:    cfg,
		repo:   repo,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── AssignReviewers ──────────────────────

// AssignReviewers 为教材分配评审人
// 前置条件：教材处于 PENDING_REVIEW 或 UNDER_REVIEW（后者用于追加评审人），其余状态返回 StateError
// 只为尚未分配过的评审人新建分配；教材处于 PENDING_REVIEW 时推进到 UNDER_REVIEW
func (s *assignmentService) AssignReviewers(ctx context.Context, actor Actor, bookID string, req *dto.AssignReviewersRequest) (*dto.AssignReviewersResponse, error) {
	if !canAssignReviewers(actor) {
		return nil, ErrForbidden
	}

	// 1. 参数校验
	ids := dedupe(req.ReviewerIDs)
	ve := pkgerrors.NewValidationError()
	if len(ids) == 0 {
		ve.Add("reviewer_ids", "至少指定一名评审人")
	}
	now := s.now()
	dueDate, err := s.resolveDueDate(req.DueDate, now)
	if err != nil {
		ve.Add("due_date", err.Error())
	}
	if ve.HasErrors() {
		return nil, ve
	}

	// 2. 教材状态前置条件
	book, err := s.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	if book.Status != model.BookStatusPendingReview && book.Status != model.BookStatusUnderReview {
		return nil, &StateError{
			Entity:   "教材",
			Current:  book.Status,
			Expected: []string{model.BookStatusPendingReview, model.BookStatusUnderReview},
		}
	}

	// 3. 评审人必须全部存在且为 REVIEWER，否则整批拒绝
	users, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询评审人失败", zap.Error(err))
		return nil, err
	}
	reviewers := make(map[string]*model.User, len(users))
	for i := range users {
		u := &users[i]
		if u.Role == model.RoleReviewer && u.IsActive {
			reviewers[u.UserID] = u
		}
	}
	for _, id := range ids {
		if _, ok := reviewers[id]; !ok {
			return nil, ErrReviewersNotFound
		}
	}

	// 4. 计算增量
	existing, err := s.repo.Assignment.ListByBook(ctx, bookID)
	if err != nil {
		s.logger.Error("查询已有分配失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	held := make(map[string]bool, len(existing))
	for _, a := range existing {
		held[a.ReviewerID] = true
	}

	var created []model.Assignment
	var already []string
	for _, id := range ids {
		if held[id] {
			already = append(already, id)
			continue
		}
		a := model.Assignment{
			BookID:     bookID,
			ReviewerID: id,
			AssignedBy: actor.UserID,
			AssignedAt: now,
			DueDate:    dueDate,
			Status:     model.AssignmentStatusPending,
			Version:    1,
		}
		a.CreatedBy = &actor.UserID
		a.UpdatedBy = &actor.UserID
		created = append(created, a)
	}

	// 5. 事务：写分配 + 推进教材状态 + 通知
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Assignment.BatchCreate(ctx, created); err != nil {
		rollback(tx)
		s.logger.Error("批量创建分配失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}

	status := book.Status
	if book.Status == model.BookStatusPendingReview {
		ok, err := transitionBook(ctx, txRepo, bookID, model.BookStatusPendingReview, model.BookStatusUnderReview, actor.UserID)
		if err != nil {
			rollback(tx)
			s.logger.Error("更新教材状态失败", zap.String("book_id", bookID), zap.Error(err))
			return nil, err
		}
		if !ok {
			// 并发请求已推进状态，重新确认
			current, err := txRepo.Book.GetByID(ctx, bookID)
			if err != nil {
				rollback(tx)
				return nil, err
			}
			if current.Status != model.BookStatusUnderReview {
				rollback(tx)
				return nil, &StateError{
					Entity:   "教材",
					Current:  current.Status,
					Expected: []string{model.BookStatusPendingReview, model.BookStatusUnderReview},
				}
			}
		}
		status = model.BookStatusUnderReview
	}

	if len(created) > 0 {
		notes := make([]model.Notification, 0, len(created))
		for i := range created {
			notes = append(notes, assignmentNotification(&created[i], book.Title))
		}
		if err := txRepo.Notification.BatchCreate(ctx, notes); err != nil {
			rollback(tx)
			s.logger.Error("创建分配通知失败", zap.String("book_id", bookID), zap.Error(err))
			return nil, err
		}
	}

	if err := commit(tx); err != nil {
		s.logger.Error("提交事务失败", zap.Error(err))
		return nil, err
	}

	createdIDs := make([]string, 0, len(created))
	for _, a := range created {
		createdIDs = append(createdIDs, a.ReviewerID)
	}
	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionAssignReviewers,
		TargetType: "book",
		TargetID:   bookID,
		Details: map[string]any{
			"created_reviewers": createdIDs,
			"already_assigned":  already,
			"due_date":          dueDate.Format(timeLayout),
			"book_status":       status,
		},
	})

	resp := &dto.AssignReviewersResponse{
		BookID:      bookID,
		BookStatus:  status,
		Created:     make([]dto.AssignmentResponse, 0, len(created)),
		AlreadyHeld: already,
	}
	for i := range created {
		a := &created[i]
		a.Reviewer = reviewers[a.ReviewerID]
		a.Book = book
		resp.Created = append(resp.Created, toAssignmentResponse(a, a.Status))
	}
	return resp, nil
}

// ────────────────────── UpdateAssignment ──────────────────────

// UpdateAssignment 人工修正截止时间或状态，不校验与教材状态的一致性
func (s *assignmentService) UpdateAssignment(ctx context.Context, actor Actor, id string, req *dto.UpdateAssignmentRequest) (*dto.AssignmentResponse, error) {
	if !canUpdateAssignment(actor) {
		return nil, ErrForbidden
	}

	ve := pkgerrors.NewValidationError()
	if req.DueDate == nil && req.Status == nil {
		ve.Add("due_date", "due_date 与 status 至少提供一个")
	}
	var dueDate time.Time
	if req.DueDate != nil {
		t, err := parseDueDate(*req.DueDate)
		if err != nil {
			ve.Add("due_date", err.Error())
		}
		dueDate = t
	}
	if req.Status != nil && !model.ValidAssignmentStatus(*req.Status) {
		ve.Add("status", "取值必须为 PENDING、IN_PROGRESS、COMPLETED 或 OVERDUE")
	}
	if ve.HasErrors() {
		return nil, ve
	}

	a, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	before := map[string]any{"due_date": a.DueDate.Format(timeLayout), "status": a.Status}
	if req.DueDate != nil {
		a.DueDate = dueDate
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	a.UpdatedBy = &actor.UserID

	if err := s.repo.Assignment.Update(ctx, a); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新分配失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionUpdateAssignment,
		TargetType: "assignment",
		TargetID:   id,
		Details: map[string]any{
			"before": before,
			"after":  map[string]any{"due_date": a.DueDate.Format(timeLayout), "status": a.Status},
		},
	})

	resp := toAssignmentResponse(a, a.Status)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *assignmentService) ListByBook(ctx context.Context, actor Actor, bookID string) ([]dto.AssignmentResponse, error) {
	if !canViewBookAssignments(actor) {
		return nil, ErrForbidden
	}
	if _, err := s.repo.Book.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	list, err := s.repo.Assignment.ListByBook(ctx, bookID)
	if err != nil {
		s.logger.Error("查询教材分配失败", zap.String("book_id", bookID), zap.Error(err))
		return nil, err
	}
	return toAssignmentResponses(list, nil), nil
}

func (s *assignmentService) ListMine(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.Assignment.ListByReviewer(ctx, actor.UserID, false)
	if err != nil {
		s.logger.Error("查询我的分配失败", zap.String("reviewer_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	return toAssignmentResponses(list, nil), nil
}

// ListOverdue 逾期报表：未完成且已过截止时间的分配，状态按 OVERDUE 输出
func (s *assignmentService) ListOverdue(ctx context.Context, actor Actor) ([]dto.AssignmentResponse, error) {
	if !canViewOverdue(actor) {
		return nil, ErrForbidden
	}
	now := s.now()
	list, err := s.repo.Assignment.ListOpenDueBefore(ctx, now)
	if err != nil {
		s.logger.Error("查询逾期分配失败", zap.Error(err))
		return nil, err
	}
	return toAssignmentResponses(list, &now), nil
}

func (s *assignmentService) Calendar(ctx context.Context, actor Actor) ([]byte, error) {
	list, err := s.repo.Assignment.ListByReviewer(ctx, actor.UserID, true)
	if err != nil {
		s.logger.Error("查询日历分配失败", zap.String("reviewer_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	return BuildReviewCalendar(list, s.cfg.Server.BaseURL, s.now()), nil
}

// ── 辅助函数 ──

func (s *assignmentService) get(ctx context.Context, id string) (*model.Assignment, error) {
	a, err := s.repo.Assignment.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询分配失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return a, nil
}

// resolveDueDate 为空时按默认天数计算，不允许早于当前时间
func (s *assignmentService) resolveDueDate(raw string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		days := s.cfg.Review.DefaultDueDays
		if days <= 0 {
			days = 14
		}
		return now.AddDate(0, 0, days), nil
	}
	t, err := parseDueDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if t.Before(now) {
		return time.Time{}, errors.New("截止时间不能早于当前时间")
	}
	return t, nil
}

// parseDueDate 支持 RFC3339 与 YYYY-MM-DD（按当天结束计）
func parseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if d, err := time.Parse(dateLayout, raw); err == nil {
		return d.Add(24*time.Hour - time.Second), nil
	}
	return time.Time{}, errors.New("格式必须为 RFC3339 或 YYYY-MM-DD")
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func assignmentNotification(a *model.Assignment, bookTitle string) model.Notification {
	relatedType := "book"
	relatedID := a.BookID
	return model.Notification{
		UserID:      a.ReviewerID,
		Type:        model.NotificationTypeAssigned,
		Title:       "新的教材评审任务",
		Content:     "您被分配评审《" + bookTitle + "》，截止时间 " + a.DueDate.Format(dateLayout),
		RelatedType: &relatedType,
		RelatedID:   &relatedID,
	}
}

func toAssignmentResponse(a *model.Assignment, status string) dto.AssignmentResponse {
	resp := dto.AssignmentResponse{
		ID:         a.AssignmentID,
		BookID:     a.BookID,
		ReviewerID: a.ReviewerID,
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt.Format(timeLayout),
		DueDate:    a.DueDate.Format(timeLayout),
		Status:     status,
	}
	if a.Book != nil {
		resp.BookTitle = a.Book.Title
	}
	if a.Reviewer != nil {
		resp.ReviewerName = a.Reviewer.Name
	}
	return resp
}

// toAssignmentResponses now 非空时按报表口径输出有效状态
func toAssignmentResponses(list []model.Assignment, now *time.Time) []dto.AssignmentResponse {
	result := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		a := &list[i]
		status := a.Status
		if now != nil {
			status = a.EffectiveStatus(*now)
		}
		result = append(result, toAssignmentResponse(a, status))
	}
	return result
}
