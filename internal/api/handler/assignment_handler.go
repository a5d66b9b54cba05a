package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

// AssignmentHandler 评审分配与利益冲突声明 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
	conflictSvc   service.ConflictService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService, conflictSvc service.ConflictService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc, conflictSvc: conflictSvc}
}

// AssignReviewers 为教材分配评审人
// POST /api/v1/books/:id/assign
func (h *AssignmentHandler) AssignReviewers(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.AssignReviewersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.assignmentSvc.AssignReviewers(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.Created(c, result)
}

// ListByBook 教材的全部分配
// GET /api/v1/books/:id/assignments
func (h *AssignmentHandler) ListByBook(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.ListByBook(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, list)
}

// UpdateAssignment 修改截止日期或状态
// PATCH /api/v1/assignments/:id
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.assignmentSvc.UpdateAssignment(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// ListMine 当前评审人的分配
// GET /api/v1/assignments/me
func (h *AssignmentHandler) ListMine(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.ListMine(c.Request.Context(), actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, list)
}

// ListOverdue 逾期分配报表
// GET /api/v1/assignments/overdue
func (h *AssignmentHandler) ListOverdue(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.ListOverdue(c.Request.Context(), actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, list)
}

// Calendar 评审截止日历订阅
// GET /api/v1/assignments/me/calendar.ics
func (h *AssignmentHandler) Calendar(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	data, err := h.assignmentSvc.Calendar(c.Request.Context(), actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="review-deadlines.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// DeclareConflict 评审人声明利益冲突
// POST /api/v1/assignments/:id/conflict
func (h *AssignmentHandler) DeclareConflict(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.DeclareConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.conflictSvc.Declare(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// ListConflicts 教材的利益冲突声明
// GET /api/v1/books/:id/conflicts
func (h *AssignmentHandler) ListConflicts(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	list, err := h.conflictSvc.ListByBook(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, list)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 14101, "教材不存在")
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 15101, "评审分配不存在")
	case errors.Is(err, service.ErrReviewersNotFound):
		response.BadRequest(c, 15102, "一个或多个评审人不存在或不是有效的评审人")
	default:
		response.InternalError(c)
	}
}
