package country

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	gocache "github.com/patrickmn/go-cache"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/checklist"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
)

const activeListKey = "active:list"

type CacheConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type Service struct {
	repo    repository.CountryRequirementRepository
	auditor *audit.Service
	cache   *gocache.Cache
	logger  *logger.Logger
	now     func() time.Time
}

func NewService(repo repository.CountryRequirementRepository, auditor *audit.Service, cacheCfg CacheConfig, log *logger.Logger) *Service {
	if cacheCfg.TTL <= 0 {
		cacheCfg.TTL = 5 * time.Minute
	}
	if cacheCfg.CleanupInterval <= 0 {
		cacheCfg.CleanupInterval = 10 * time.Minute
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:    repo,
		auditor: auditor,
		cache:   gocache.New(cacheCfg.TTL, cacheCfg.CleanupInterval),
		logger:  log,
		now:     time.Now,
	}
}

func codeKey(code string) string { return "active:code:" + code }

// NormalizeCode upper-cases and trims a country code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func (s *Service) validate(req *model.CountryRequirementRequest) (*model.CountryRequirement, error) {
	code := NormalizeCode(req.CountryCode)
	if !validCode(code) {
		return nil, apperrors.Validationf("country code must be exactly 2 letters, got %q", req.CountryCode)
	}
	if strings.TrimSpace(req.CountryName) == "" {
		return nil, apperrors.Validationf("country name is required")
	}
	if strings.TrimSpace(req.VisaType) == "" {
		return nil, apperrors.Validationf("visa type is required")
	}
	if req.Fee.IsNegative() {
		return nil, apperrors.Validationf("fee must not be negative")
	}
	if req.ProcessingDays <= 0 {
		return nil, apperrors.Validationf("processing days must be positive")
	}
	if req.ValidityDays <= 0 {
		return nil, apperrors.Validationf("validity days must be positive")
	}
	tags, err := checklist.Normalize(req.RequiredDocuments)
	if err != nil {
		return nil, err
	}

	return &model.CountryRequirement{
		CountryCode:       code,
		CountryName:       strings.TrimSpace(req.CountryName),
		VisaType:          strings.TrimSpace(req.VisaType),
		RequiredDocuments: pq.StringArray(tags),
		ProcessingDays:    req.ProcessingDays,
		ValidityDays:      req.ValidityDays,
		ExtensionAllowed:  req.ExtensionAllowed,
		Fee:               req.Fee.Round(2),
		Notes:             req.Notes,
	}, nil
}

func (s *Service) Create(ctx context.Context, actor model.Actor, req *model.CountryRequirementRequest) (*model.CountryRequirement, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	rec, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rec.ID = uuid.New()
	rec.IsActive = true
	rec.CreatedAt = now
	rec.UpdatedAt = now

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.invalidate()
	s.audit(ctx, actor, model.AuditActionCreate, rec.ID, rec)
	return rec, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.CountryRequirementRequest) (*model.CountryRequirement, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	next, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next.ID = cur.ID
	next.IsActive = cur.IsActive
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	s.invalidate()
	s.audit(ctx, actor, model.AuditActionUpdate, next.ID, map[string]interface{}{"before": cur, "after": next})
	return next, nil
}

// Deactivate hides a requirement from new intake. Existing applications keep
// their snapshot, so it is never blocked by them.
func (s *Service) Deactivate(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	if err := authz.RequireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id, s.now()); err != nil {
		return err
	}
	s.invalidate()
	s.audit(ctx, actor, model.AuditActionDeactivate, id, nil)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.CountryRequirement, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*model.CountryRequirement, error) {
	if !activeOnly {
		return s.repo.List(ctx, false)
	}
	if cached, ok := s.cache.Get(activeListKey); ok {
		return cached.([]*model.CountryRequirement), nil
	}
	list, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(activeListKey, list)
	return list, nil
}

// GetActive returns the active requirement for code.
func (s *Service) GetActive(ctx context.Context, code string) (*model.CountryRequirement, error) {
	code = NormalizeCode(code)
	if cached, ok := s.cache.Get(codeKey(code)); ok {
		return cached.(*model.CountryRequirement), nil
	}
	rec, err := s.repo.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(codeKey(code), rec)
	return rec, nil
}

func (s *Service) invalidate() {
	s.cache.Flush()
}

func (s *Service) audit(ctx context.Context, actor model.Actor, action string, id uuid.UUID, changes interface{}) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, actor.ID, action, model.AuditEntityCountry, id, changes); err != nil {
		s.logger.Error(err, "Failed to audit country requirement change", "id", id.String(), "action", action)
	}
}

// Seed creates each request unless an active requirement already holds its
// code. It returns the number created.
func (s *Service) Seed(ctx context.Context, actor model.Actor, reqs []model.CountryRequirementRequest) (int, error) {
	created := 0
	for i := range reqs {
		if _, err := s.GetActive(ctx, reqs[i].CountryCode); err == nil {
			continue
		} else if !apperrors.IsNotFound(err) {
			return created, err
		}
		if _, err := s.Create(ctx, actor, &reqs[i]); err != nil {
			return created, fmt.Errorf("failed to seed %s: %w", reqs[i].CountryCode, err)
		}
		created++
	}
	return created, nil
}
