package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type DocumentRepository struct {
	s *Store
}

func (r *DocumentRepository) Create(_ context.Context, doc *model.UploadedDocument) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *doc
	r.s.documents[doc.ID] = &cp
	return nil
}

func (r *DocumentRepository) Get(_ context.Context, id uuid.UUID) (*model.UploadedDocument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.documents[id]
	if !ok {
		return nil, apperrors.NotFound("document", nil)
	}
	cp := *d
	return &cp, nil
}

func (r *DocumentRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*model.UploadedDocument, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.UploadedDocument
	for _, d := range r.s.documents {
		if d.OwnerID == ownerID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *DocumentRepository) ListTypesByOwner(_ context.Context, ownerID uuid.UUID) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, d := range r.s.documents {
		if d.OwnerID == ownerID {
			seen[d.DocumentType] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (r *DocumentRepository) UpdateStatus(_ context.Context, id uuid.UUID, status model.DocumentStatus, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.documents[id]
	if !ok {
		return apperrors.NotFound("document", nil)
	}
	d.Status = status
	d.UpdatedAt = at
	return nil
}
