package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	pkgerrors "github.com/Akash00404/Ayush-Textbook-Assesment/pkg/errors"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// mustGetActor 组装 Service 层使用的调用者身份
func mustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: role}, true
}

// handleCommonError 处理跨模块的通用错误，已写入响应时返回 true
//
//	ValidationError → 400 / 10001（data.fields 列出全部字段）
//	ErrForbidden    → 403 / 10003
//	ErrInvalidState → 409 / 10006
//	ErrOptimisticLock → 409 / 10007
func handleCommonError(c *gin.Context, err error) bool {
	if ve, ok := pkgerrors.AsValidationError(err); ok {
		response.ValidationFailed(c, ve)
		return true
	}
	switch {
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "无权限执行该操作")
	case errors.Is(err, service.ErrInvalidState):
		response.Conflict(c, 10006, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10007, "数据已被他人修改，请刷新后重试")
	default:
		return false
	}
	return true
}
