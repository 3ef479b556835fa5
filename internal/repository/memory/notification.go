package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type NotificationRepository struct {
	s *Store
}

func (r *NotificationRepository) Create(_ context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.notifications[n.ID]; exists {
		return nil
	}
	cp := *n
	r.s.notifications[n.ID] = &cp
	return nil
}

func (r *NotificationRepository) ListByUser(_ context.Context, userID uuid.UUID, page model.Pagination) ([]*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Notification
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	page = page.Normalize()
	if page.Offset >= len(out) {
		return []*model.Notification{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[page.Offset:end], nil
}

func (r *NotificationRepository) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.NotFound("notification", nil)
	}
	n.Read = true
	return nil
}
