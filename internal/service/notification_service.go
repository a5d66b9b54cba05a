package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/dto"
	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/repository"
)

var ErrNotificationNotFound = errors.New("通知不存在")

// NotificationService 站内通知业务接口
type NotificationService interface {
	List(ctx context.Context, actor Actor, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error)
	MarkRead(ctx context.Context, actor Actor, id string) error
}

type notificationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, logger: logger}
}

func (s *notificationService) List(ctx context.Context, actor Actor, req *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	list, total, err := s.repo.Notification.ListByUser(ctx, actor.UserID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		n := &list[i]
		item := dto.NotificationResponse{
			ID:        n.NotificationID,
			Type:      n.Type,
			Title:     n.Title,
			Content:   n.Content,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt.Format(timeLayout),
		}
		if n.RelatedType != nil {
			item.RelatedType = *n.RelatedType
		}
		if n.RelatedID != nil {
			item.RelatedID = *n.RelatedID
		}
		result = append(result, item)
	}
	return result, total, nil
}

// MarkRead 只能标记自己的通知
func (s *notificationService) MarkRead(ctx context.Context, actor Actor, id string) error {
	ok, err := s.repo.Notification.MarkRead(ctx, id, actor.UserID)
	if err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
