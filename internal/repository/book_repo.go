package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// BookRepository 教材数据访问接口
type BookRepository interface {
	Create(ctx context.Context, book *model.Book) error
	GetByID(ctx context.Context, id string) (*model.Book, error)
	List(ctx context.Context, status string, offset, limit int) ([]model.Book, int64, error)
	Search(ctx context.Context, keyword string, offset, limit int) ([]model.Book, int64, error)
	// UpdateStatus 条件更新状态（WHERE status = from），返回是否命中
	UpdateStatus(ctx context.Context, id, from, to, updatedBy string) (bool, error)
	UpsertText(ctx context.Context, text *model.BookText) error
	GetText(ctx context.Context, bookID string) (*model.BookText, error)
}

type bookRepo struct {
	db *gorm.DB
}

// NewBookRepo 创建 BookRepository 实例
func NewBookRepo(db *gorm.DB) BookRepository {
	return &bookRepo{db: db}
}

func (r *bookRepo) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepo) GetByID(ctx context.Context, id string) (*model.Book, error) {
	var book model.Book
	err := r.db.WithContext(ctx).
		Where("book_id = ?", id).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepo) List(ctx context.Context, status string, offset, limit int) ([]model.Book, int64, error) {
	var books []model.Book
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Book{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("uploaded_at DESC").
		Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// Search 按标题、作者与抽取全文模糊匹配
func (r *bookRepo) Search(ctx context.Context, keyword string, offset, limit int) ([]model.Book, int64, error) {
	var books []model.Book
	var total int64

	like := "%" + escapeLike(keyword) + "%"
	db := r.db.WithContext(ctx).Model(&model.Book{}).
		Joins("LEFT JOIN book_texts bt ON bt.book_id = books.book_id").
		Where(`books.title ILIKE ? ESCAPE '\' OR books.authors ILIKE ? ESCAPE '\' OR bt.content ILIKE ? ESCAPE '\'`, like, like, like)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Select("books.*").
		Offset(offset).Limit(limit).
		Order("books.uploaded_at DESC").
		Find(&books).Error; err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *bookRepo) UpdateStatus(ctx context.Context, id, from, to, updatedBy string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("book_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_by": updatedBy,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *bookRepo) UpsertText(ctx context.Context, text *model.BookText) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "book_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "page_count", "extracted_at"}),
		}).
		Create(text).Error
}

func (r *bookRepo) GetText(ctx context.Context, bookID string) (*model.BookText, error) {
	var text model.BookText
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		First(&text).Error
	if err != nil {
		return nil, err
	}
	return &text, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike 转义 LIKE 通配符，关键词按字面匹配
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
