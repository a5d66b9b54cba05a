package handler

import (
	"github.com/Akash00404/Ayush-Textbook-Assesment/config"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Criterion    *CriterionHandler
	Book         *BookHandler
	Assignment   *AssignmentHandler
	Review       *ReviewHandler
	Aggregate    *AggregateHandler
	Decision     *DecisionHandler
	Export       *ExportHandler
	Notification *NotificationHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, cfg),
		User:         NewUserHandler(svc.User),
		Criterion:    NewCriterionHandler(svc.Criterion),
		Book:         NewBookHandler(svc.Book),
		Assignment:   NewAssignmentHandler(svc.Assignment, svc.Conflict),
		Review:       NewReviewHandler(svc.Review),
		Aggregate:    NewAggregateHandler(svc.Aggregate, svc.Summary),
		Decision:     NewDecisionHandler(svc.Decision),
		Export:       NewExportHandler(svc.Export),
		Notification: NewNotificationHandler(svc.Notification, svc.Audit),
	}
}
