package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

// BookHandler 教材模块 HTTP 处理器
type BookHandler struct {
	bookSvc service.BookService
}

// NewBookHandler 创建 BookHandler
func NewBookHandler(bookSvc service.BookService) *BookHandler {
	return &BookHandler{bookSvc: bookSvc}
}

// UploadBook 上传教材（multipart：元数据 + file）
// POST /api/v1/books
func (h *BookHandler) UploadBook(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	// 字段校验统一交给 Service，一次返回全部不合法字段
	req := dto.UploadBookRequest{
		Title:           c.PostForm("title"),
		Authors:         c.PostForm("authors"),
		Publisher:       c.PostForm("publisher"),
		Edition:         c.PostForm("edition"),
		SyllabusVersion: c.PostForm("syllabus_version"),
	}

	var file service.UploadFile
	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, 14001, "读取上传文件失败")
			return
		}
		defer f.Close()
		file = service.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      f,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart), errors.Is(err, multipart.ErrMessageTooLarge):
		// 缺少文件由 Service 校验
	default:
		response.BadRequest(c, 14001, "读取上传文件失败")
		return
	}

	book, err := h.bookSvc.Upload(c.Request.Context(), actor, &req, file)
	if err != nil {
		h.handleBookError(c, err)
		return
	}

	response.Created(c, book)
}

// ListBooks 教材列表
// GET /api/v1/books?status=
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.BookListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	list, total, err := h.bookSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleBookError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// SearchBooks 按标题、作者、正文检索
// GET /api/v1/books/search?q=
func (h *BookHandler) SearchBooks(c *gin.Context) {
	var req dto.BookSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	list, total, err := h.bookSvc.Search(c.Request.Context(), &req)
	if err != nil {
		h.handleBookError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetBook 教材详情
// GET /api/v1/books/:id
func (h *BookHandler) GetBook(c *gin.Context) {
	book, err := h.bookSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleBookError(c, err)
		return
	}
	response.OK(c, book)
}

// GetBookFile 获取 PDF 临时下载地址
// GET /api/v1/books/:id/file
func (h *BookHandler) GetBookFile(c *gin.Context) {
	file, err := h.bookSvc.FileURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleBookError(c, err)
		return
	}
	response.OK(c, file)
}

func (h *BookHandler) handleBookError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 14101, "教材不存在")
	case errors.Is(err, service.ErrBookFileUnsupported):
		response.BadRequest(c, 14102, "仅支持上传 PDF 文件")
	case errors.Is(err, service.ErrStorageUnavailable):
		response.ServiceUnavailable(c, 14103, "文件存储未配置")
	default:
		response.InternalError(c)
	}
}
