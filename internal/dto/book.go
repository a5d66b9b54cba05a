package dto

// ── 教材模块 DTO ──

// UploadBookRequest 上传教材元数据（multipart 表单字段，文件字段名为 file）
type UploadBookRequest struct {
	Title           string `form:"title"            binding:"required,min=1,max=300"`
	Authors         string `form:"authors"          binding:"required,min=1,max=500"`
	Publisher       string `form:"publisher"        binding:"omitempty,max=200"`
	Edition         string `form:"edition"          binding:"omitempty,max=50"`
	SyllabusVersion string `form:"syllabus_version" binding:"omitempty,max=50"`
}

// BookListRequest 教材列表查询参数
type BookListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=PENDING_REVIEW UNDER_REVIEW REVIEW_COMPLETED APPROVED REJECTED NEEDS_REVISION"`
}

// BookSearchRequest 教材检索参数
type BookSearchRequest struct {
	PaginationRequest
	Q string `form:"q" binding:"required,min=2,max=100"`
}

// BookResponse 教材响应
type BookResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Authors         string `json:"authors"`
	Publisher       string `json:"publisher"`
	Edition         string `json:"edition"`
	SyllabusVersion string `json:"syllabus_version"`
	PDFPath         string `json:"pdf_path"`
	UploadedBy      string `json:"uploaded_by"`
	UploadedAt      string `json:"uploaded_at"`
	Status          string `json:"status"`
}

// BookFileResponse 教材下载地址
type BookFileResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
