package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

// CriterionHandler 评审指标 HTTP 处理器
type CriterionHandler struct {
	criterionSvc service.CriterionService
}

// NewCriterionHandler 创建 CriterionHandler
func NewCriterionHandler(criterionSvc service.CriterionService) *CriterionHandler {
	return &CriterionHandler{criterionSvc: criterionSvc}
}

// ListCriteria 指标列表
// GET /api/v1/criteria
func (h *CriterionHandler) ListCriteria(c *gin.Context) {
	list, err := h.criterionSvc.List(c.Request.Context())
	if err != nil {
		h.handleCriterionError(c, err)
		return
	}
	response.OK(c, list)
}

// GetCriterion 指标详情
// GET /api/v1/criteria/:id
func (h *CriterionHandler) GetCriterion(c *gin.Context) {
	item, err := h.criterionSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleCriterionError(c, err)
		return
	}
	response.OK(c, item)
}

// CreateCriterion 创建指标
// POST /api/v1/criteria
func (h *CriterionHandler) CreateCriterion(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.criterionSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleCriterionError(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateCriterion 更新指标
// PUT /api/v1/criteria/:id
func (h *CriterionHandler) UpdateCriterion(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.criterionSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleCriterionError(c, err)
		return
	}
	response.OK(c, item)
}

// DeleteCriterion 删除指标
// DELETE /api/v1/criteria/:id
func (h *CriterionHandler) DeleteCriterion(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	if err := h.criterionSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleCriterionError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *CriterionHandler) handleCriterionError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrCriterionNotFound):
		response.NotFound(c, 13101, "评审指标不存在")
	case errors.Is(err, service.ErrCriterionCodeExists):
		response.Conflict(c, 13102, "指标编码已存在")
	case errors.Is(err, service.ErrCriterionInUse):
		response.Conflict(c, 13103, "指标已被正式评审引用，不可修改或删除")
	default:
		response.InternalError(c)
	}
}
