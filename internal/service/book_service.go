package service

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/queue"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/storage"
)

// ── 教材模块业务错误 ──

var (
	ErrBookNotFound        = errors.New("教材不存在")
	ErrStorageUnavailable  = errors.New("文件存储未配置")
	ErrBookFileUnsupported = errors.New("仅支持上传 PDF 文件")
)

// UploadFile 上传的文件
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// BookService 教材业务接口
// 教材状态只能由分配、评审提交、委员会决议推进，这里没有直接修改状态的操作
type BookService interface {
	Upload(ctx context.Context, actor Actor, req *dto.UploadBookRequest, file UploadFile) (*dto.BookResponse, error)
	GetByID(ctx context.Context, id string) (*dto.BookResponse, error)
	List(ctx context.Context, req *dto.BookListRequest) ([]dto.BookResponse, int64, error)
	Search(ctx context.Context, req *dto.BookSearchRequest) ([]dto.BookResponse, int64, error)
	FileURL(ctx context.Context, id string) (*dto.BookFileResponse, error)
}

type bookService struct {
	cfg    *config.Config
	repo   *repository.Repository
	store  storage.ObjectStore
	queue  queue.Enqueuer
	audit  AuditHook
	logger *zap.Logger
	now    func() time.Time
}

// NewBookService 创建 BookService 实例
func NewBookService(
	cfg *config.Config,
	repo *repository.Repository,
	store storage.ObjectStore,
	enq queue.Enqueuer,
	audit AuditHook,
	logger *zap.Logger,
) BookService {
	return &bookService{
		cfg:    cfg,
		repo:   repo,
		store:  store,
		queue:  enq,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── Upload ──────────────────────

func (s *bookService) Upload(ctx context.Context, actor Actor, req *dto.UploadBookRequest, file UploadFile) (*dto.BookResponse, error) {
	if !canUploadBook(actor) {
		return nil, ErrForbidden
	}

	ve := pkgerrors.NewValidationError()
	if strings.TrimSpace(req.Title) == "" {
		ve.Add("title", "不能为空")
	}
	if strings.TrimSpace(req.Authors) == "" {
		ve.Add("authors", "不能为空")
	}
	if file.Reader == nil || file.Size <= 0 {
		ve.Add("file", "不能为空")
	}
	if ve.HasErrors() {
		return nil, ve
	}
	if !isPDF(file) {
		return nil, ErrBookFileUnsupported
	}
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	// 1. 上传文件
	key := "books/" + uuid.NewString() + ".pdf"
	if err := s.store.Put(ctx, key, file.Reader, file.Size, "application/pdf"); err != nil {
		s.logger.Error("上传教材文件失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	// 2. 写入教材记录
	now := s.now()
	book := &model.Book{
		Title:           strings.TrimSpace(req.Title),
		Authors:         strings.TrimSpace(req.Authors),
		Publisher:       req.Publisher,
		Edition:         req.Edition,
		SyllabusVersion: req.SyllabusVersion,
		PDFPath:         key,
		UploadedBy:      actor.UserID,
		UploadedAt:      now,
		Status:          model.BookStatusPendingReview,
	}
	book.CreatedBy = &actor.UserID
	book.UpdatedBy = &actor.UserID

	if err := s.repo.Book.Create(ctx, book); err != nil {
		s.logger.Error("创建教材失败", zap.Error(err))
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.logger.Warn("清理已上传文件失败", zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}

	// 3. 投递全文抽取任务（失败不影响上传结果）
	if s.queue != nil {
		if _, err := s.queue.Enqueue(ctx, queue.JobExtractText, book.BookID); err != nil {
			s.logger.Warn("投递全文抽取任务失败", zap.String("book_id", book.BookID), zap.Error(err))
		}
	}

	recordAudit(ctx, s.audit, s.logger, AuditEntry{
		ActorID:    actor.UserID,
		Action:     AuditActionUploadBook,
		TargetType: "book",
		TargetID:   book.BookID,
		Details:    map[string]any{"title": book.Title, "pdf_path": key},
	})

	resp := toBookResponse(book)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *bookService) GetByID(ctx context.Context, id string) (*dto.BookResponse, error) {
	book, err := s.repo.Book.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	resp := toBookResponse(book)
	return &resp, nil
}

// ────────────────────── List / Search ──────────────────────

func (s *bookService) List(ctx context.Context, req *dto.BookListRequest) ([]dto.BookResponse, int64, error) {
	books, total, err := s.repo.Book.List(ctx, req.Status, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询教材列表失败", zap.Error(err))
		return nil, 0, err
	}
	return toBookResponses(books), total, nil
}

func (s *bookService) Search(ctx context.Context, req *dto.BookSearchRequest) ([]dto.BookResponse, int64, error) {
	q := strings.TrimSpace(req.Q)
	if len([]rune(q)) < 2 {
		ve := pkgerrors.NewValidationError()
		ve.Add("q", "至少 2 个字符")
		return nil, 0, ve
	}
	books, total, err := s.repo.Book.Search(ctx, q, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("检索教材失败", zap.String("q", q), zap.Error(err))
		return nil, 0, err
	}
	return toBookResponses(books), total, nil
}

// ────────────────────── FileURL ──────────────────────

func (s *bookService) FileURL(ctx context.Context, id string) (*dto.BookFileResponse, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	book, err := s.repo.Book.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		s.logger.Error("查询教材失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	ttl := s.cfg.Storage.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	url, err := s.store.PresignGet(ctx, book.PDFPath, ttl)
	if err != nil {
		s.logger.Error("生成下载地址失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &dto.BookFileResponse{
		URL:       url,
		ExpiresAt: s.now().Add(ttl).Format(timeLayout),
	}, nil
}

// ── 辅助函数 ──

func isPDF(f UploadFile) bool {
	if strings.EqualFold(path.Ext(f.Name), ".pdf") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(f.ContentType), "application/pdf")
}

func toBookResponse(b *model.Book) dto.BookResponse {
	return dto.BookResponse{
		ID:              b.BookID,
		Title:           b.Title,
		Authors:         b.Authors,
		Publisher:       b.Publisher,
		Edition:         b.Edition,
		SyllabusVersion: b.SyllabusVersion,
		PDFPath:         b.PDFPath,
		UploadedBy:      b.UploadedBy,
		UploadedAt:      b.UploadedAt.Format(timeLayout),
		Status:          b.Status,
	}
}

func toBookResponses(books []model.Book) []dto.BookResponse {
	list := make([]dto.BookResponse, 0, len(books))
	for i := range books {
		list = append(list, toBookResponse(&books[i]))
	}
	return list
}
