package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
)

// Service exposes the in-app inbox fed by the broker.
type Service struct {
	repo repository.NotificationRepository
}

func NewService(repo repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

// Record is a broker handler that persists one published notification.
func (s *Service) Record(ctx context.Context, payload []byte) error {
	var n model.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return fmt.Errorf("failed to decode notification: %w", err)
	}
	if n.UserID == uuid.Nil {
		return fmt.Errorf("notification %s has no recipient", n.ID)
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return s.repo.Create(ctx, &n)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, page model.Pagination) ([]*model.Notification, error) {
	return s.repo.ListByUser(ctx, userID, page)
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}
