package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

// AggregateHandler 评审汇总与 AI 摘要 HTTP 处理器
type AggregateHandler struct {
	aggregateSvc service.AggregateService
	summarySvc   service.SummaryService
}

// NewAggregateHandler 创建 AggregateHandler
func NewAggregateHandler(aggregateSvc service.AggregateService, summarySvc service.SummaryService) *AggregateHandler {
	return &AggregateHandler{aggregateSvc: aggregateSvc, summarySvc: summarySvc}
}

// ComputeAggregate 计算并保存一次评审汇总
// GET /api/v1/books/:id/aggregate
func (h *AggregateHandler) ComputeAggregate(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.aggregateSvc.ComputeAggregate(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleAggregateError(c, err)
		return
	}
	response.OK(c, result)
}

// ListAggregates 历次汇总（新的在前）
// GET /api/v1/books/:id/aggregates
func (h *AggregateHandler) ListAggregates(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	list, err := h.aggregateSvc.ListAggregates(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleAggregateError(c, err)
		return
	}
	response.OK(c, list)
}

// GenerateSummary 基于最近一次汇总生成 AI 摘要
// POST /api/v1/books/:id/summary
func (h *AggregateHandler) GenerateSummary(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.summarySvc.GenerateSummary(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleAggregateError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *AggregateHandler) handleAggregateError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 14101, "教材不存在")
	case errors.Is(err, service.ErrNoCompletedReviews):
		response.Conflict(c, 17101, "没有已完成的评审，无法汇总")
	case errors.Is(err, service.ErrAggregateNotFound):
		response.NotFound(c, 17102, "尚无评审汇总结果")
	case errors.Is(err, service.ErrAIUnavailable):
		response.ServiceUnavailable(c, 17103, "AI 摘要功能未启用")
	case errors.Is(err, service.ErrAIGenerateFailed):
		response.Error(c, http.StatusBadGateway, 17104, "AI 摘要生成失败")
	default:
		response.InternalError(c)
	}
}
