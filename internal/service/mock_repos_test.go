package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	cp := *user
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context, role string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	return page(all, offset, limit), int64(len(all)), nil
}

// ── Mock CriterionRepository ──

type mockCriterionRepo struct {
	items map[string]*model.Criterion
	seq   int
}

func newMockCriterionRepo() *mockCriterionRepo {
	return &mockCriterionRepo{items: make(map[string]*model.Criterion)}
}

func (m *mockCriterionRepo) Create(_ context.Context, c *model.Criterion) error {
	if c.CriterionID == "" {
		m.seq++
		c.CriterionID = fmt.Sprintf("crit-%d", m.seq)
	}
	cp := *c
	m.items[c.CriterionID] = &cp
	return nil
}

func (m *mockCriterionRepo) GetByID(_ context.Context, id string) (*model.Criterion, error) {
	if c, ok := m.items[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCriterionRepo) GetByCode(_ context.Context, code string) (*model.Criterion, error) {
	for _, c := range m.items {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCriterionRepo) List(_ context.Context) ([]model.Criterion, error) {
	var result []model.Criterion
	for _, c := range m.items {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (m *mockCriterionRepo) Update(_ context.Context, c *model.Criterion) error {
	if _, ok := m.items[c.CriterionID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *c
	m.items[c.CriterionID] = &cp
	return nil
}

func (m *mockCriterionRepo) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

// ── Mock BookRepository ──

type mockBookRepo struct {
	books map[string]*model.Book
	texts map[string]*model.BookText
	seq   int
	// transitions 记录每次成功的状态变更 "from->to"
	transitions []string
}

func newMockBookRepo() *mockBookRepo {
	return &mockBookRepo{
		books: make(map[string]*model.Book),
		texts: make(map[string]*model.BookText),
	}
}

func (m *mockBookRepo) Create(_ context.Context, book *model.Book) error {
	if book.BookID == "" {
		m.seq++
		book.BookID = fmt.Sprintf("book-%d", m.seq)
	}
	cp := *book
	m.books[book.BookID] = &cp
	return nil
}

func (m *mockBookRepo) GetByID(_ context.Context, id string) (*model.Book, error) {
	if b, ok := m.books[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookRepo) List(_ context.Context, status string, offset, limit int) ([]model.Book, int64, error) {
	var all []model.Book
	for _, b := range m.books {
		if status == "" || b.Status == status {
			all = append(all, *b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].BookID < all[j].BookID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockBookRepo) Search(_ context.Context, keyword string, offset, limit int) ([]model.Book, int64, error) {
	kw := strings.ToLower(keyword)
	var all []model.Book
	for _, b := range m.books {
		text := ""
		if t, ok := m.texts[b.BookID]; ok {
			text = t.Content
		}
		if strings.Contains(strings.ToLower(b.Title+" "+b.Authors+" "+text), kw) {
			all = append(all, *b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].BookID < all[j].BookID })
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockBookRepo) UpdateStatus(_ context.Context, id, from, to, _ string) (bool, error) {
	b, ok := m.books[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	m.transitions = append(m.transitions, from+"->"+to)
	return true, nil
}

func (m *mockBookRepo) UpsertText(_ context.Context, text *model.BookText) error {
	cp := *text
	m.texts[text.BookID] = &cp
	return nil
}

func (m *mockBookRepo) GetText(_ context.Context, bookID string) (*model.BookText, error) {
	if t, ok := m.texts[bookID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	items map[string]*model.Assignment
	order []string
	seq   int
	books *mockBookRepo
	users *mockUserRepo
}

func newMockAssignmentRepo(books *mockBookRepo, users *mockUserRepo) *mockAssignmentRepo {
	return &mockAssignmentRepo{items: make(map[string]*model.Assignment), books: books, users: users}
}

func (m *mockAssignmentRepo) BatchCreate(_ context.Context, items []model.Assignment) error {
	for i := range items {
		for _, existing := range m.items {
			if existing.BookID == items[i].BookID && existing.ReviewerID == items[i].ReviewerID {
				return errors.New("duplicate key value violates unique constraint")
			}
		}
		m.seq++
		items[i].AssignmentID = fmt.Sprintf("asg-%d", m.seq)
		if items[i].Version == 0 {
			items[i].Version = 1
		}
		cp := items[i]
		cp.Book, cp.Reviewer = nil, nil
		m.items[cp.AssignmentID] = &cp
		m.order = append(m.order, cp.AssignmentID)
	}
	return nil
}

// withRelations 模拟 Preload
func (m *mockAssignmentRepo) withRelations(a *model.Assignment) model.Assignment {
	cp := *a
	if b, ok := m.books.books[a.BookID]; ok {
		bc := *b
		cp.Book = &bc
	}
	if u, ok := m.users.users[a.ReviewerID]; ok {
		uc := *u
		cp.Reviewer = &uc
	}
	return cp
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	if a, ok := m.items[id]; ok {
		cp := m.withRelations(a)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) filter(keep func(*model.Assignment) bool) []model.Assignment {
	var result []model.Assignment
	for _, id := range m.order {
		a := m.items[id]
		if keep(a) {
			result = append(result, m.withRelations(a))
		}
	}
	return result
}

func (m *mockAssignmentRepo) ListByBook(_ context.Context, bookID string) ([]model.Assignment, error) {
	return m.filter(func(a *model.Assignment) bool { return a.BookID == bookID }), nil
}

func (m *mockAssignmentRepo) ListByReviewer(_ context.Context, reviewerID string, openOnly bool) ([]model.Assignment, error) {
	return m.filter(func(a *model.Assignment) bool {
		if a.ReviewerID != reviewerID {
			return false
		}
		return !openOnly || a.Status != model.AssignmentStatusCompleted
	}), nil
}

func (m *mockAssignmentRepo) ListOpenDueBefore(_ context.Context, t time.Time) ([]model.Assignment, error) {
	return m.filter(func(a *model.Assignment) bool {
		return a.Status != model.AssignmentStatusCompleted && a.DueDate.Before(t)
	}), nil
}

func (m *mockAssignmentRepo) CountByBookAndStatus(_ context.Context, bookID, status string) (int64, error) {
	var n int64
	for _, a := range m.items {
		if a.BookID == bookID && a.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *mockAssignmentRepo) CountOpenByBook(_ context.Context, bookID string) (int64, error) {
	var n int64
	for _, a := range m.items {
		if a.BookID == bookID && a.Status != model.AssignmentStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (m *mockAssignmentRepo) Update(_ context.Context, a *model.Assignment) error {
	stored, ok := m.items[a.AssignmentID]
	if !ok || stored.Version != a.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.DueDate = a.DueDate
	stored.Status = a.Status
	stored.UpdatedBy = a.UpdatedBy
	stored.Version++
	a.Version = stored.Version
	return nil
}

// ── Mock ReviewRepository ──

type mockReviewRepo struct {
	byAssignment map[string]*model.Review
	seq          int
	assignments  *mockAssignmentRepo
}

func newMockReviewRepo(assignments *mockAssignmentRepo) *mockReviewRepo {
	return &mockReviewRepo{byAssignment: make(map[string]*model.Review), assignments: assignments}
}

func (m *mockReviewRepo) Upsert(_ context.Context, review *model.Review) error {
	if existing, ok := m.byAssignment[review.AssignmentID]; ok {
		review.ReviewID = existing.ReviewID
	} else {
		m.seq++
		review.ReviewID = fmt.Sprintf("rev-%d", m.seq)
	}
	cp := *review
	m.byAssignment[review.AssignmentID] = &cp
	return nil
}

func (m *mockReviewRepo) GetByAssignment(_ context.Context, assignmentID string) (*model.Review, error) {
	if r, ok := m.byAssignment[assignmentID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRepo) ListFinalByBook(_ context.Context, bookID string) ([]model.Review, error) {
	var result []model.Review
	for _, id := range m.assignments.order {
		a := m.assignments.items[id]
		if a.BookID != bookID {
			continue
		}
		if r, ok := m.byAssignment[id]; ok && !r.IsDraft {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRepo) ExistsFinalWithCriterion(_ context.Context, code string) (bool, error) {
	for _, r := range m.byAssignment {
		if r.IsDraft {
			continue
		}
		if _, ok := r.ScoreData()[code]; ok {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock AggregateRepository ──

type mockAggregateRepo struct {
	items []model.AggregateResult
	seq   int
}

func newMockAggregateRepo() *mockAggregateRepo { return &mockAggregateRepo{} }

func (m *mockAggregateRepo) Create(_ context.Context, result *model.AggregateResult) error {
	m.seq++
	result.AggregateID = fmt.Sprintf("agg-%d", m.seq)
	m.items = append(m.items, *result)
	return nil
}

func (m *mockAggregateRepo) GetLatestByBook(_ context.Context, bookID string) (*model.AggregateResult, error) {
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].BookID == bookID {
			cp := m.items[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAggregateRepo) ListByBook(_ context.Context, bookID string) ([]model.AggregateResult, error) {
	var result []model.AggregateResult
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].BookID == bookID {
			result = append(result, m.items[i])
		}
	}
	return result, nil
}

// ── Mock DecisionRepository ──

type mockDecisionRepo struct {
	items []model.CommitteeDecision
	seq   int
}

func newMockDecisionRepo() *mockDecisionRepo { return &mockDecisionRepo{} }

func (m *mockDecisionRepo) Create(_ context.Context, d *model.CommitteeDecision) error {
	m.seq++
	d.DecisionID = fmt.Sprintf("dec-%d", m.seq)
	m.items = append(m.items, *d)
	return nil
}

func (m *mockDecisionRepo) GetLatestByBook(_ context.Context, bookID string) (*model.CommitteeDecision, error) {
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].BookID == bookID {
			cp := m.items[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock ConflictRepository ──

type mockConflictRepo struct {
	byAssignment map[string]*model.ConflictDeclaration
	seq          int
}

func newMockConflictRepo() *mockConflictRepo {
	return &mockConflictRepo{byAssignment: make(map[string]*model.ConflictDeclaration)}
}

func (m *mockConflictRepo) Upsert(_ context.Context, d *model.ConflictDeclaration) error {
	if existing, ok := m.byAssignment[d.AssignmentID]; ok {
		d.DeclarationID = existing.DeclarationID
	} else {
		m.seq++
		d.DeclarationID = fmt.Sprintf("coi-%d", m.seq)
	}
	cp := *d
	m.byAssignment[d.AssignmentID] = &cp
	return nil
}

func (m *mockConflictRepo) ListByBook(_ context.Context, bookID string) ([]model.ConflictDeclaration, error) {
	var result []model.ConflictDeclaration
	for _, d := range m.byAssignment {
		if d.BookID == bookID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DeclarationID < result[j].DeclarationID })
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items []model.Notification
	seq   int
}

func newMockNotificationRepo() *mockNotificationRepo { return &mockNotificationRepo{} }

func (m *mockNotificationRepo) BatchCreate(_ context.Context, items []model.Notification) error {
	for i := range items {
		m.seq++
		items[i].NotificationID = fmt.Sprintf("ntf-%d", m.seq)
		m.items = append(m.items, items[i])
	}
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		n := m.items[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		all = append(all, n)
	}
	return page(all, offset, limit), int64(len(all)), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) (bool, error) {
	for i := range m.items {
		if m.items[i].NotificationID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) countFor(userID, typ string) int {
	n := 0
	for _, item := range m.items {
		if item.UserID == userID && item.Type == typ {
			n++
		}
	}
	return n
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	items []model.AuditLog
}

func newMockAuditLogRepo() *mockAuditLogRepo { return &mockAuditLogRepo{} }

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	log.AuditLogID = fmt.Sprintf("audit-%d", len(m.items)+1)
	m.items = append(m.items, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, targetType, targetID string, offset, limit int) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	for i := len(m.items) - 1; i >= 0; i-- {
		l := m.items[i]
		if targetType != "" && l.TargetType != targetType {
			continue
		}
		if targetID != "" && l.TargetID != targetID {
			continue
		}
		all = append(all, l)
	}
	return page(all, offset, limit), int64(len(all)), nil
}

// ── 审计钩子 ──

type recordingAuditHook struct {
	entries []AuditEntry
	err     error
}

func (h *recordingAuditHook) Record(_ context.Context, entry AuditEntry) error {
	h.entries = append(h.entries, entry)
	return h.err
}

func (h *recordingAuditHook) actions() []string {
	out := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, e.Action)
	}
	return out
}

// ── 测试环境 ──

type testEnv struct {
	cfg    *config.Config
	repo   *repository.Repository
	audit  *recordingAuditHook
	logger *zap.Logger

	users         *mockUserRepo
	criteria      *mockCriterionRepo
	books         *mockBookRepo
	assignments   *mockAssignmentRepo
	reviews       *mockReviewRepo
	aggregates    *mockAggregateRepo
	decisions     *mockDecisionRepo
	conflicts     *mockConflictRepo
	notifications *mockNotificationRepo
	auditLogs     *mockAuditLogRepo
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	books := newMockBookRepo()
	assignments := newMockAssignmentRepo(books, users)

	env := &testEnv{
		cfg: &config.Config{
			Server: config.ServerConfig{Port: 8080, BaseURL: "http://localhost:8080"},
			Auth: config.AuthConfig{
				JWTSecret:       "test-secret-key-for-unit-testing",
				AccessTokenTTL:  15 * time.Minute,
				RefreshTokenTTL: 24 * time.Hour,
			},
			Storage: config.StorageConfig{PresignTTL: 10 * time.Minute},
			AI:      config.AIConfig{Model: "test-model"},
			Review:  config.ReviewConfig{DefaultDueDays: 14},
		},
		audit:         &recordingAuditHook{},
		logger:        zap.NewNop(),
		users:         users,
		criteria:      newMockCriterionRepo(),
		books:         books,
		assignments:   assignments,
		reviews:       newMockReviewRepo(assignments),
		aggregates:    newMockAggregateRepo(),
		decisions:     newMockDecisionRepo(),
		conflicts:     newMockConflictRepo(),
		notifications: newMockNotificationRepo(),
		auditLogs:     newMockAuditLogRepo(),
	}
	env.repo = &repository.Repository{
		User:         env.users,
		Criterion:    env.criteria,
		Book:         env.books,
		Assignment:   env.assignments,
		Review:       env.reviews,
		Aggregate:    env.aggregates,
		Decision:     env.decisions,
		Conflict:     env.conflicts,
		Notification: env.notifications,
		AuditLog:     env.auditLogs,
	}
	return env
}

// seedUser 创建用户，密码统一为 password123
func (e *testEnv) seedUser(id, role string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u := &model.User{
		UserID:       id,
		Name:         "用户-" + id,
		Email:        id + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	_ = e.users.Create(context.Background(), u)
	return u
}

// seedCriteria 写入默认的 6 项评审指标
func (e *testEnv) seedCriteria() {
	defaults := []model.Criterion{
		{Code: "CONT-1", Label: "内容准确性", Weight: 0.25},
		{Code: "CONT-2", Label: "内容覆盖度", Weight: 0.20},
		{Code: "PED-1", Label: "教学设计", Weight: 0.20},
		{Code: "LANG-1", Label: "语言表达", Weight: 0.15},
		{Code: "ILL-1", Label: "插图质量", Weight: 0.10},
		{Code: "REF-1", Label: "参考文献", Weight: 0.10},
	}
	for i := range defaults {
		_ = e.criteria.Create(context.Background(), &defaults[i])
	}
}

func (e *testEnv) seedBook(id, status string) *model.Book {
	b := &model.Book{
		BookID:     id,
		Title:      "本草学基础",
		Authors:    "张三",
		PDFPath:    "books/" + id + ".pdf",
		UploadedBy: "sec-1",
		UploadedAt: time.Now(),
		Status:     status,
	}
	_ = e.books.Create(context.Background(), b)
	return b
}

func (e *testEnv) bookStatus(id string) string {
	if b, ok := e.books.books[id]; ok {
		return b.Status
	}
	return ""
}

func (e *testEnv) assignmentFor(bookID, reviewerID string) *model.Assignment {
	for _, a := range e.assignments.items {
		if a.BookID == bookID && a.ReviewerID == reviewerID {
			return a
		}
	}
	return nil
}

// ── 常用调用者 ──

var (
	secretariat = Actor{UserID: "sec-1", Role: model.RoleSecretariat}
	committee   = Actor{UserID: "com-1", Role: model.RoleCommittee}
	admin       = Actor{UserID: "admin-1", Role: model.RoleAdmin}
)

func reviewerActor(id string) Actor { return Actor{UserID: id, Role: model.RoleReviewer} }

func page[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
