package model

import "time"

// ── 教材状态 ──
//
// PENDING_REVIEW ──AssignReviewers──▶ UNDER_REVIEW ──全部分配完成──▶ REVIEW_COMPLETED
// REVIEW_COMPLETED ──RecordDecision──▶ APPROVED | REJECTED | NEEDS_REVISION（终态）

const (
	BookStatusPendingReview   = "PENDING_REVIEW"
	BookStatusUnderReview     = "UNDER_REVIEW"
	BookStatusReviewCompleted = "REVIEW_COMPLETED"
	BookStatusApproved        = "APPROVED"
	BookStatusRejected        = "REJECTED"
	BookStatusNeedsRevision   = "NEEDS_REVISION"
)

// Book 教材表，对应 books
// status 只能由分配、评审完成检查与委员会决议三个操作修改
type Book struct {
	BookID          string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"     json:"book_id"`
	Title           string    `gorm:"type:varchar(300);not null"                         json:"title"`
	Authors         string    `gorm:"type:varchar(500);not null"                         json:"authors"`
	Publisher       string    `gorm:"type:varchar(200);not null;default:''"              json:"publisher"`
	Edition         string    `gorm:"type:varchar(50);not null;default:''"               json:"edition"`
	SyllabusVersion string    `gorm:"type:varchar(50);not null;default:''"               json:"syllabus_version"`
	PDFPath         string    `gorm:"column:pdf_path;type:varchar(500);not null"         json:"pdf_path"`
	UploadedBy      string    `gorm:"type:uuid;not null"                                 json:"uploaded_by"`
	UploadedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"                 json:"uploaded_at"`
	Status          string    `gorm:"type:varchar(30);not null;default:'PENDING_REVIEW'" json:"status"`
	BaseModel

	// 关联
	Uploader *User `gorm:"foreignKey:UploadedBy;references:UserID" json:"uploader,omitempty"`
}

// TableName 指定表名
func (Book) TableName() string { return "books" }

// BookText 教材全文（后台任务抽取），对应 book_texts
type BookText struct {
	BookID      string    `gorm:"type:uuid;primaryKey"               json:"book_id"`
	Content     string    `gorm:"type:text;not null;default:''"      json:"content"`
	PageCount   int       `gorm:"not null;default:0"                 json:"page_count"`
	ExtractedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"extracted_at"`
}

// TableName 指定表名
func (BookText) TableName() string { return "book_texts" }
