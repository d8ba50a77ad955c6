package notification

import (
	"context"
	"errors"

	"medbook/database"
	notificationRepo "medbook/database/repository/notification"
	"medbook/models"
	"medbook/utils"
)

// InboxService backs the in-app notification endpoints.
type InboxService struct {
	Repo notificationRepo.NotificationRepository
}

func (s *InboxService) List(ctx context.Context, userID string, limit int64) ([]models.Notification, error) {
	items, err := s.Repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.InternalError(err, "failed to list notifications")
	}
	return items, nil
}

func (s *InboxService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.Repo.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return utils.NotFoundError("notification not found")
		}
		return utils.InternalError(err, "failed to update notification")
	}
	return nil
}
