package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
	"github.com/Akash00404/Ayush-Textbook-Assesment/pkg/response"
)

// ReviewHandler 评审意见 HTTP 处理器
type ReviewHandler struct {
	reviewSvc service.ReviewService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(reviewSvc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc}
}

// SubmitReview 提交评审（草稿或正式）
// POST /api/v1/reviews/:assignmentId/review
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.reviewSvc.SubmitReview(c.Request.Context(), actor, c.Param("assignmentId"), &req)
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, result)
}

// GetReview 查看评审意见
// GET /api/v1/reviews/:assignmentId/review
func (h *ReviewHandler) GetReview(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	result, err := h.reviewSvc.GetReview(c.Request.Context(), actor, c.Param("assignmentId"))
	if err != nil {
		h.handleReviewError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *ReviewHandler) handleReviewError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 15101, "评审分配不存在")
	case errors.Is(err, service.ErrReviewNotFound):
		response.NotFound(c, 16101, "评审意见不存在")
	case errors.Is(err, service.ErrBookNotFound):
		response.NotFound(c, 14101, "教材不存在")
	default:
		response.InternalError(c)
	}
}
