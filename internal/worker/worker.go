package worker

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/mailer"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/pdftext"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/queue"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/storage"
)

const reminderKeyPrefix = "tbr:reminder:"

// ReminderGuard 提醒去重（Redis SETNX 实现）
type ReminderGuard interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unmark(ctx context.Context, key string) error
}

// reminderKeyTTL 去重键只需覆盖当天
const reminderKeyTTL = 48 * time.Hour

// Options 可选依赖；未配置时对应功能降级
type Options struct {
	Store  storage.ObjectStore
	Mailer mailer.Sender
	Queue  queue.Enqueuer
	Guard  ReminderGuard
}

// Worker 后台任务处理器：全文抽取与截止提醒
type Worker struct {
	cfg    *config.Config
	repo   *repository.Repository
	store  storage.ObjectStore
	mailer mailer.Sender
	queue  queue.Enqueuer
	guard  ReminderGuard
	logger *zap.Logger

	now     func() time.Time
	extract func([]byte) (*pdftext.Result, error)
}

// New 创建 Worker
func New(cfg *config.Config, repo *repository.Repository, opts Options, logger *zap.Logger) *Worker {
	return &Worker{
		cfg:     cfg,
		repo:    repo,
		store:   opts.Store,
		mailer:  opts.Mailer,
		queue:   opts.Queue,
		guard:   opts.Guard,
		logger:  logger.Named("worker"),
		now:     time.Now,
		extract: pdftext.Extract,
	}
}

// Handle 队列回调；返回 error 时由队列按退避重试
func (w *Worker) Handle(ctx context.Context, job queue.Job) error {
	switch job.Type {
	case queue.JobExtractText:
		return w.ExtractText(ctx, job.TargetID)
	case queue.JobSendReminder:
		return w.SendReminder(ctx, job.TargetID)
	default:
		w.logger.Warn("未知任务类型，丢弃", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
}

// ────────────────────── ExtractText ──────────────────────

// ExtractText 从对象存储读取教材 PDF，抽取全文写入 book_texts
func (w *Worker) ExtractText(ctx context.Context, bookID string) error {
	if w.store == nil {
		w.logger.Warn("对象存储未配置，跳过全文抽取", zap.String("book_id", bookID))
		return nil
	}

	book, err := w.repo.Book.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			w.logger.Warn("教材不存在，跳过全文抽取", zap.String("book_id", bookID))
			return nil
		}
		return err
	}

	data, err := w.store.Get(ctx, book.PDFPath)
	if err != nil {
		return fmt.Errorf("读取 PDF 失败: %w", err)
	}

	text := &model.BookText{BookID: bookID, ExtractedAt: w.now()}
	result, err := w.extract(data)
	switch {
	case errors.Is(err, pdftext.ErrEmptyDocument):
		// 扫描件无文本层，写入空内容避免重复抽取
		w.logger.Info("PDF 无可读文本", zap.String("book_id", bookID))
	case err != nil:
		w.logger.Warn("PDF 解析失败", zap.String("book_id", bookID), zap.Error(err))
		return err
	default:
		text.Content = result.Text
		text.PageCount = result.PageCount
	}

	if err := w.repo.Book.UpsertText(ctx, text); err != nil {
		return fmt.Errorf("保存全文失败: %w", err)
	}
	w.logger.Info("全文抽取完成",
		zap.String("book_id", bookID),
		zap.Int("pages", text.PageCount),
		zap.Int("chars", len([]rune(text.Content))),
	)
	return nil
}

// ────────────────────── SendReminder ──────────────────────

// SendReminder 向评审人发送截止提醒；分配已完成时不发送
func (w *Worker) SendReminder(ctx context.Context, assignmentID string) error {
	asg, err := w.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if asg.Status == model.AssignmentStatusCompleted {
		return nil
	}

	title := asg.BookID
	if asg.Book != nil {
		title = asg.Book.Title
	}
	now := w.now()
	due := asg.DueDate.Format("2006-01-02")

	subject := "教材评审即将截止"
	content := fmt.Sprintf("您负责评审的《%s》将于 %s 截止，请及时提交评审意见。", title, due)
	if now.After(asg.DueDate) {
		subject = "教材评审已逾期"
		content = fmt.Sprintf("您负责评审的《%s》已于 %s 截止，请尽快提交评审意见。", title, due)
	}

	// 先发邮件：失败时重试，不重复写站内通知
	if w.mailer != nil && asg.Reviewer != nil && asg.Reviewer.Email != "" {
		body := "<p>" + html.EscapeString(content) + "</p>"
		if w.cfg.Server.BaseURL != "" {
			link := w.cfg.Server.BaseURL + "/api/v1/reviews/" + asg.AssignmentID + "/review"
			body += fmt.Sprintf(`<p><a href="%s">查看评审任务</a></p>`, html.EscapeString(link))
		}
		err := w.mailer.Send(ctx, []string{asg.Reviewer.Email}, subject, body)
		switch {
		case errors.Is(err, mailer.ErrNotConfigured):
		case err != nil:
			return fmt.Errorf("发送提醒邮件失败: %w", err)
		}
	}

	relatedType := "assignment"
	relatedID := asg.AssignmentID
	if err := w.repo.Notification.BatchCreate(ctx, []model.Notification{{
		UserID:      asg.ReviewerID,
		Type:        model.NotificationTypeReminder,
		Title:       subject,
		Content:     content,
		RelatedType: &relatedType,
		RelatedID:   &relatedID,
	}}); err != nil {
		return fmt.Errorf("写入提醒通知失败: %w", err)
	}

	w.logger.Info("已发送截止提醒",
		zap.String("assignment_id", asg.AssignmentID),
		zap.String("reviewer_id", asg.ReviewerID),
	)
	return nil
}

// ────────────────────── 提醒扫描 ──────────────────────

// ScanReminders 查找即将截止或已逾期的未完成分配并投递提醒，返回投递数量
// 同一分配每个自然日、每个截止日期至多提醒一次；投递失败时撤销去重标记，下一轮重试
func (w *Worker) ScanReminders(ctx context.Context) (int, error) {
	now := w.now()
	list, err := w.repo.Assignment.ListOpenDueBefore(ctx, now.Add(w.cfg.Review.ReminderLead))
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range list {
		a := &list[i]
		key := reminderKey(a, now)
		if w.guard != nil {
			first, err := w.guard.MarkOnce(ctx, key, reminderKeyTTL)
			if err != nil {
				w.logger.Warn("提醒去重失败，跳过", zap.String("assignment_id", a.AssignmentID), zap.Error(err))
				continue
			}
			if !first {
				continue
			}
		}

		if err := w.dispatchReminder(ctx, a.AssignmentID); err != nil {
			w.logger.Warn("投递提醒失败", zap.String("assignment_id", a.AssignmentID), zap.Error(err))
			if w.guard != nil {
				if uerr := w.guard.Unmark(ctx, key); uerr != nil {
					w.logger.Warn("撤销提醒去重标记失败", zap.String("key", key), zap.Error(uerr))
				}
			}
			continue
		}
		sent++
	}
	return sent, nil
}

// dispatchReminder 有队列时入队，否则直接发送
func (w *Worker) dispatchReminder(ctx context.Context, assignmentID string) error {
	if w.queue != nil {
		_, err := w.queue.Enqueue(ctx, queue.JobSendReminder, assignmentID)
		return err
	}
	return w.SendReminder(ctx, assignmentID)
}

// reminderKey tbr:reminder:<分配>:<截止日>:<当天>
func reminderKey(a *model.Assignment, now time.Time) string {
	return reminderKeyPrefix + a.AssignmentID + ":" + a.DueDate.Format("20060102") + ":" + now.Format("20060102")
}

// RunReminderScanner 按配置的间隔扫描，阻塞直到 ctx 取消
func (w *Worker) RunReminderScanner(ctx context.Context) {
	interval := w.cfg.Review.ReminderInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := w.ScanReminders(ctx); err != nil {
			w.logger.Error("提醒扫描失败", zap.Error(err))
		} else if n > 0 {
			w.logger.Info("提醒扫描完成", zap.Int("enqueued", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
