package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAggregate 导出最近一次评审汇总
// GET /api/v1/books/:id/aggregate/export
func (h *ExportHandler) ExportAggregate(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportAggregate(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.PathEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 14101, "教材不存在")
	case errors.Is(err, service.ErrAggregateNotFound):
		response.NotFound(c, 17102, "尚无评审汇总结果，请先计算汇总")
	default:
		response.InternalError(c)
	}
}
