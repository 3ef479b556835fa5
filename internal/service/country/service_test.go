package country

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/memory"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type CountryServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	svc   *Service
	admin model.Actor
}

func (s *CountryServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.svc = NewService(s.store.Countries(), audit.NewService(s.store.Audit()), CacheConfig{}, nil)
	s.admin = model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
}

func validRequest() *model.CountryRequirementRequest {
	return &model.CountryRequirementRequest{
		CountryCode:       "us",
		CountryName:       "United States",
		VisaType:          "medical",
		RequiredDocuments: []string{"passport", "passport_photo", "medical_reports"},
		ProcessingDays:    5,
		ValidityDays:      60,
		Fee:               decimal.RequireFromString("80.00"),
	}
}

func (s *CountryServiceSuite) TestCreateNormalizesAndAudits() {
	rec, err := s.svc.Create(s.ctx, s.admin, validRequest())
	s.Require().NoError(err)
	s.Equal("US", rec.CountryCode)
	s.True(rec.IsActive)

	logs, err := s.store.Audit().List(s.ctx, model.AuditFilter{EntityID: rec.ID})
	s.Require().NoError(err)
	s.Len(logs, 1)
	s.Equal(model.AuditActionCreate, logs[0].Action)
}

func (s *CountryServiceSuite) TestCreateValidation() {
	cases := map[string]func(r *model.CountryRequirementRequest){
		"three letter code": func(r *model.CountryRequirementRequest) { r.CountryCode = "USA" },
		"digit code":        func(r *model.CountryRequirementRequest) { r.CountryCode = "U1" },
		"negative fee":      func(r *model.CountryRequirementRequest) { r.Fee = decimal.NewFromInt(-1) },
		"zero processing":   func(r *model.CountryRequirementRequest) { r.ProcessingDays = 0 },
		"negative validity": func(r *model.CountryRequirementRequest) { r.ValidityDays = -3 },
		"unknown tag":       func(r *model.CountryRequirementRequest) { r.RequiredDocuments = []string{"selfie"} },
		"blank name":        func(r *model.CountryRequirementRequest) { r.CountryName = "  " },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			req := validRequest()
			mutate(req)
			_, err := s.svc.Create(s.ctx, s.admin, req)
			s.True(apperrors.IsValidation(err), "got %v", err)
		})
	}
}

func (s *CountryServiceSuite) TestMutationsRequireAdmin() {
	hospital := model.Actor{ID: uuid.New(), Role: model.RoleHospital}
	_, err := s.svc.Create(s.ctx, hospital, validRequest())
	s.True(apperrors.IsForbidden(err))

	err = s.svc.Deactivate(s.ctx, hospital, uuid.New())
	s.True(apperrors.IsForbidden(err))
}

func (s *CountryServiceSuite) TestDuplicateActiveCodeConflicts() {
	_, err := s.svc.Create(s.ctx, s.admin, validRequest())
	s.Require().NoError(err)

	_, err = s.svc.Create(s.ctx, s.admin, validRequest())
	s.True(apperrors.IsConflict(err))
}

func (s *CountryServiceSuite) TestDeactivateHidesFromActiveLookups() {
	rec, err := s.svc.Create(s.ctx, s.admin, validRequest())
	s.Require().NoError(err)

	got, err := s.svc.GetActive(s.ctx, "us")
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)

	active, err := s.svc.List(s.ctx, true)
	s.Require().NoError(err)
	s.Len(active, 1)

	s.Require().NoError(s.svc.Deactivate(s.ctx, s.admin, rec.ID))

	_, err = s.svc.GetActive(s.ctx, "US")
	s.True(apperrors.IsNotFound(err))

	active, err = s.svc.List(s.ctx, true)
	s.Require().NoError(err)
	s.Empty(active)

	all, err := s.svc.List(s.ctx, false)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *CountryServiceSuite) TestUpdateRefreshesCache() {
	rec, err := s.svc.Create(s.ctx, s.admin, validRequest())
	s.Require().NoError(err)
	_, err = s.svc.GetActive(s.ctx, "US")
	s.Require().NoError(err)

	req := validRequest()
	req.ProcessingDays = 9
	_, err = s.svc.Update(s.ctx, s.admin, rec.ID, req)
	s.Require().NoError(err)

	got, err := s.svc.GetActive(s.ctx, "US")
	s.Require().NoError(err)
	s.Equal(9, got.ProcessingDays)
}

func (s *CountryServiceSuite) TestSeedIsIdempotent() {
	n, err := s.svc.Seed(s.ctx, s.admin, Defaults())
	s.Require().NoError(err)
	s.Equal(len(Defaults()), n)

	n, err = s.svc.Seed(s.ctx, s.admin, Defaults())
	s.Require().NoError(err)
	s.Zero(n)
}

func TestCountryServiceSuite(t *testing.T) {
	suite.Run(t, new(CountryServiceSuite))
}

func TestDefaultsAreValid(t *testing.T) {
	svc := NewService(memory.NewStore().Countries(), nil, CacheConfig{}, nil)
	for _, d := range Defaults() {
		d := d
		_, err := svc.validate(&d)
		require.NoError(t, err, d.CountryCode)
	}
	assert.NotEmpty(t, Defaults())
}
