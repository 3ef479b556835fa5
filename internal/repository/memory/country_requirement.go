package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type CountryRequirementRepository struct {
	s *Store
}

func cloneCountry(c *model.CountryRequirement) *model.CountryRequirement {
	cp := *c
	cp.RequiredDocuments = append(pq.StringArray(nil), c.RequiredDocuments...)
	return &cp
}

// activeCodeTaken must be called with the lock held.
func (r *CountryRequirementRepository) activeCodeTaken(code string, except uuid.UUID) bool {
	for id, c := range r.s.countries {
		if id != except && c.IsActive && c.CountryCode == code {
			return true
		}
	}
	return false
}

func (r *CountryRequirementRepository) Create(_ context.Context, req *model.CountryRequirement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if req.IsActive && r.activeCodeTaken(req.CountryCode, req.ID) {
		return apperrors.Conflict(fmt.Sprintf("an active requirement for %s already exists", req.CountryCode), nil)
	}
	r.s.countries[req.ID] = cloneCountry(req)
	return nil
}

func (r *CountryRequirementRepository) Update(_ context.Context, req *model.CountryRequirement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.countries[req.ID]
	if !ok {
		return apperrors.NotFound("country requirement", nil)
	}
	if cur.IsActive && r.activeCodeTaken(req.CountryCode, req.ID) {
		return apperrors.Conflict(fmt.Sprintf("an active requirement for %s already exists", req.CountryCode), nil)
	}
	next := cloneCountry(req)
	next.IsActive = cur.IsActive
	next.CreatedAt = cur.CreatedAt
	r.s.countries[req.ID] = next
	return nil
}

func (r *CountryRequirementRepository) Get(_ context.Context, id uuid.UUID) (*model.CountryRequirement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.countries[id]
	if !ok {
		return nil, apperrors.NotFound("country requirement", nil)
	}
	return cloneCountry(c), nil
}

func (r *CountryRequirementRepository) GetActiveByCode(_ context.Context, code string) (*model.CountryRequirement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.countries {
		if c.IsActive && c.CountryCode == code {
			return cloneCountry(c), nil
		}
	}
	return nil, apperrors.NotFound("country requirement", nil)
}

func (r *CountryRequirementRepository) List(_ context.Context, activeOnly bool) ([]*model.CountryRequirement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.CountryRequirement, 0, len(r.s.countries))
	for _, c := range r.s.countries {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, cloneCountry(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CountryName != out[j].CountryName {
			return out[i].CountryName < out[j].CountryName
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CountryRequirementRepository) Deactivate(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.countries[id]
	if !ok {
		return apperrors.NotFound("country requirement", nil)
	}
	c.IsActive = false
	c.UpdatedAt = at
	return nil
}
