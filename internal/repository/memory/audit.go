package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
)

type AuditRepository struct {
	s *Store
}

func (r *AuditRepository) Create(_ context.Context, log *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *log
	r.s.audits = append(r.s.audits, &cp)
	return nil
}

func (r *AuditRepository) List(_ context.Context, filter model.AuditFilter) ([]*model.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.AuditLog
	for _, l := range r.s.audits {
		if filter.EntityType != "" && l.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != uuid.Nil && l.EntityID != filter.EntityID {
			continue
		}
		if filter.UserID != uuid.Nil && l.UserID != filter.UserID {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	page := filter.Pagination.Normalize()
	if page.Offset >= len(out) {
		return []*model.AuditLog{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[page.Offset:end], nil
}
