package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

// NotificationHandler 站内通知与审计日志 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
	auditSvc        service.AuditService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService, auditSvc service.AuditService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc, auditSvc: auditSvc}
}

// ListNotifications 我的通知
// GET /api/v1/notifications?unread_only=true
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	list, total, err := h.notificationSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// MarkRead 标记已读
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), actor, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			response.NotFound(c, 19101, "通知不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// ListAuditLogs 审计日志
// GET /api/v1/audit-logs?target_type=&target_id=
func (h *NotificationHandler) ListAuditLogs(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	list, total, err := h.auditSvc.List(c.Request.Context(), actor, &req)
	if err != nil {
		if handleCommonError(c, err) {
			return
		}
		response.InternalError(c)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}
