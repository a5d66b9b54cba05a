package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

// DecisionHandler 委员会决议 HTTP 处理器
type DecisionHandler struct {
	decisionSvc service.DecisionService
}

// NewDecisionHandler 创建 DecisionHandler
func NewDecisionHandler(decisionSvc service.DecisionService) *DecisionHandler {
	return &DecisionHandler{decisionSvc: decisionSvc}
}

// RecordDecision 记录委员会决议
// POST /api/v1/books/:id/decision
func (h *DecisionHandler) RecordDecision(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.RecordDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.decisionSvc.RecordDecision(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleDecisionError(c, err)
		return
	}
	response.Created(c, result)
}

// GetDecision 查看教材的委员会决议
// GET /api/v1/books/:id/decision
func (h *DecisionHandler) GetDecision(c *gin.Context) {
	result, err := h.decisionSvc.GetDecision(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDecisionError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *DecisionHandler) handleDecisionError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 14101, "教材不存在")
	case errors.Is(err, service.ErrDecisionNotFound):
		response.NotFound(c, 18101, "尚无委员会决议")
	default:
		response.InternalError(c)
	}
}
