package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/memory"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/country"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

var usTags = []string{model.DocPassport, model.DocPassportPhoto, model.DocMedicalReports}

type WorkflowSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	countries *country.Service
	svc       *Service
	now       time.Time

	admin    model.Actor
	patient  model.Actor
	hospital model.Actor
}

func (s *WorkflowSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.admin = model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	s.patient = model.Actor{ID: uuid.New(), Role: model.RolePatient}
	s.hospital = model.Actor{ID: uuid.New(), Role: model.RoleHospital}
	s.store.AddBooking(model.Booking{ID: uuid.New(), PatientID: s.patient.ID, HospitalID: s.hospital.ID, Status: "confirmed"})

	auditor := audit.NewService(s.store.Audit())
	s.countries = country.NewService(s.store.Countries(), auditor, country.CacheConfig{}, nil)
	_, err := s.countries.Create(s.ctx, s.admin, &model.CountryRequirementRequest{
		CountryCode:       "US",
		CountryName:       "United States",
		VisaType:          "medical",
		RequiredDocuments: usTags,
		ProcessingDays:    5,
		ValidityDays:      60,
		Fee:               decimal.NewFromInt(80),
	})
	s.Require().NoError(err)

	s.svc = s.newService(s.store.Applications())
}

func (s *WorkflowSuite) newService(apps repository.ApplicationRepository) *Service {
	return NewService(apps, s.store.Documents(), s.countries,
		authz.NewAuthorizer(s.store.Bookings()), audit.NewService(s.store.Audit()),
		WithClock(func() time.Time { return s.now }))
}

func (s *WorkflowSuite) submitRequest(attendants int) *model.SubmitApplicationRequest {
	req := &model.SubmitApplicationRequest{
		CountryCode:           "us",
		PassportNumber:        "P1234567",
		PassportExpiry:        s.now.AddDate(5, 0, 0),
		EmergencyContactName:  "Jane Doe",
		EmergencyContactPhone: "+1 555 0100",
		EstimatedArrival:      s.now.AddDate(0, 1, 0),
		EstimatedDeparture:    s.now.AddDate(0, 2, 0),
		VisaType:              "medical",
		TreatmentDescription:  "Knee replacement",
	}
	for i := 0; i < attendants; i++ {
		req.Attendants = append(req.Attendants, model.AttendantRequest{
			FullName:       fmt.Sprintf("Attendant %d", i),
			Relationship:   "sibling",
			PassportNumber: fmt.Sprintf("A%07d", i),
			PassportExpiry: s.now.AddDate(3, 0, 0),
			DateOfBirth:    s.now.AddDate(-30, 0, 0),
			Nationality:    "US",
		})
	}
	return req
}

func (s *WorkflowSuite) upload(owner uuid.UUID, tags ...string) {
	for _, tag := range tags {
		s.Require().NoError(s.store.Documents().Create(s.ctx, &model.UploadedDocument{
			ID:           uuid.New(),
			OwnerID:      owner,
			DocumentType: tag,
			StorageURL:   "memory://blobs/" + tag,
			Status:       model.DocumentStatusPending,
			CreatedAt:    s.now,
			UpdatedAt:    s.now,
		}))
	}
}

// seed stores an application that already sits at stage.
func (s *WorkflowSuite) seed(stage model.WorkflowStage, letter model.LetterStatus) *model.VisaApplication {
	app := &model.VisaApplication{
		Base:               model.Base{ID: uuid.New(), CreatedAt: s.now, UpdatedAt: s.now},
		PatientID:          s.patient.ID,
		CountryCode:        "US",
		PassportNumber:     "P1234567",
		WorkflowStage:      stage,
		Status:             model.StatusFor(stage),
		LetterStatus:       letter,
		RequiredDocuments:  append([]string{}, usTags...),
		DestinationCountry: model.DestinationCountry,
		Version:            1,
	}
	entry := &model.WorkflowLogEntry{ID: uuid.New(), ApplicationID: app.ID, Stage: stage, Action: model.ActionApplicationSubmitted, PerformedBy: s.patient.ID, CreatedAt: s.now}
	s.Require().NoError(s.store.Applications().Create(s.ctx, app, nil, entry, nil))
	return app
}

func (s *WorkflowSuite) history(id uuid.UUID) []*model.WorkflowLogEntry {
	entries, err := s.store.Applications().ListLog(s.ctx, id)
	s.Require().NoError(err)
	return entries
}

func (s *WorkflowSuite) TestSubmitCreatesInitialState() {
	app, err := s.svc.Submit(s.ctx, s.patient, s.submitRequest(1))
	s.Require().NoError(err)

	s.Equal(model.StageDocumentsUploaded, app.WorkflowStage)
	s.Equal(model.ApplicationStatusPending, app.Status)
	s.Equal(model.LetterNotGenerated, app.LetterStatus)
	s.Equal("US", app.CountryCode)
	s.Equal(model.DestinationCountry, app.DestinationCountry)
	s.Equal(usTags, []string(app.RequiredDocuments))
	s.Equal(1, app.AttendantCount)

	entries := s.history(app.ID)
	s.Require().Len(entries, 1)
	s.Equal(model.ActionApplicationSubmitted, entries[0].Action)
	s.Equal(s.patient.ID, entries[0].PerformedBy)

	events := s.store.OutboxEvents()
	s.Require().Len(events, 1)
	s.Equal(model.EventApplicationSubmitted, events[0].EventType)

	detail, err := s.svc.Get(s.ctx, s.patient, app.ID)
	s.Require().NoError(err)
	s.Len(detail.Attendants, 1)
	s.False(detail.HospitalLetterVerified)
}

func (s *WorkflowSuite) TestSubmitValidation() {
	cases := map[string]func(r *model.SubmitApplicationRequest){
		"unknown country":        func(r *model.SubmitApplicationRequest) { r.CountryCode = "ZZ" },
		"expired passport":       func(r *model.SubmitApplicationRequest) { r.PassportExpiry = s.now.AddDate(0, 0, -1) },
		"departure before start": func(r *model.SubmitApplicationRequest) { r.EstimatedDeparture = r.EstimatedArrival.AddDate(0, 0, -1) },
		"missing passport":       func(r *model.SubmitApplicationRequest) { r.PassportNumber = "" },
		"unborn attendant":       func(r *model.SubmitApplicationRequest) { r.Attendants[0].DateOfBirth = s.now.AddDate(0, 0, 1) },
		"attendant no name":      func(r *model.SubmitApplicationRequest) { r.Attendants[0].FullName = "" },
	}
	for name, mutate := range cases {
		s.Run(name, func() {
			req := s.submitRequest(1)
			mutate(req)
			_, err := s.svc.Submit(s.ctx, s.patient, req)
			s.True(apperrors.IsValidation(err), "got %v", err)
		})
	}

	_, err := s.svc.Submit(s.ctx, s.hospital, s.submitRequest(0))
	s.True(apperrors.IsForbidden(err))
}

func (s *WorkflowSuite) TestAttendantCap() {
	for n := 0; n <= model.MaxAttendants; n++ {
		app, err := s.svc.Submit(s.ctx, s.patient, s.submitRequest(n))
		s.Require().NoError(err, "attendants=%d", n)
		s.Equal(n, app.AttendantCount)
	}

	_, err := s.svc.Submit(s.ctx, s.patient, s.submitRequest(model.MaxAttendants+1))
	s.True(apperrors.IsValidation(err))

	apps, err := s.svc.List(s.ctx, s.admin, model.ApplicationFilter{})
	s.Require().NoError(err)
	s.Len(apps, model.MaxAttendants+1)
}

func (s *WorkflowSuite) TestUSChecklistScenario() {
	app, err := s.svc.Submit(s.ctx, s.patient, s.submitRequest(0))
	s.Require().NoError(err)
	s.upload(s.patient.ID, model.DocPassport)

	status, err := s.svc.Checklist(s.ctx, s.patient, app.ID)
	s.Require().NoError(err)
	s.False(status.Complete)
	s.Equal([]string{model.DocPassportPhoto, model.DocMedicalReports}, status.Missing)

	_, err = s.svc.Advance(s.ctx, s.admin, app.ID, model.AdvanceRequest{TargetStage: model.StageAdminVerification})
	s.Require().True(apperrors.IsPrecondition(err), "got %v", err)
	s.Contains(err.Error(), "passport_photo, medical_reports")
	s.Len(s.history(app.ID), 1)

	s.upload(s.patient.ID, model.DocPassportPhoto, model.DocMedicalReports)
	advanced, err := s.svc.Advance(s.ctx, s.admin, app.ID, model.AdvanceRequest{TargetStage: model.StageAdminVerification})
	s.Require().NoError(err)
	s.Equal(model.StageAdminVerification, advanced.WorkflowStage)
	s.Len(s.history(app.ID), 2)
}

func (s *WorkflowSuite) TestTransitionGraphClosure() {
	s.upload(s.patient.ID, usTags...)
	for _, from := range model.AllStages() {
		for _, to := range model.AllStages() {
			app := s.seed(from, model.LetterVerified)
			_, err := s.svc.Advance(s.ctx, s.admin, app.ID, model.AdvanceRequest{TargetStage: to, Note: "closing check"})

			stored, getErr := s.store.Applications().Get(s.ctx, app.ID)
			s.Require().NoError(getErr)
			if model.CanTransition(from, to) {
				s.NoError(err, "%s -> %s", from, to)
				s.Equal(to, stored.WorkflowStage)
				s.Equal(model.StatusFor(to), stored.Status)
				continue
			}
			s.True(apperrors.IsIllegalTransition(err), "%s -> %s: got %v", from, to, err)
			s.Equal(from, stored.WorkflowStage, "%s -> %s must not move", from, to)
			s.Len(s.history(app.ID), 1)
		}
	}
}

func (s *WorkflowSuite) TestSelfTransitionIsIllegal() {
	for _, stage := range model.AllStages() {
		app := s.seed(stage, model.LetterVerified)
		_, err := s.svc.Advance(s.ctx, s.admin, app.ID, model.AdvanceRequest{TargetStage: stage, Note: "again"})
		s.True(apperrors.IsIllegalTransition(err), "stage %s", stage)
	}
}

func (s *WorkflowSuite) TestUnknownTargetIsValidationError() {
	app := s.seed(model.StageDocumentsUploaded, model.LetterNotGenerated)
	_, err := s.svc.Advance(s.ctx, s.admin, app.ID, model.AdvanceRequest{TargetStage: "archived"})
	s.True(apperrors.IsValidation(err))
}

func (s *WorkflowSuite) TestLetterPreconditionBlocksSupportApproval() {
	for _, letter := range []model.LetterStatus{model.LetterNotGenerated, model.LetterGenerated} {
		app := s.seed(model.StageHospitalLetterVerified, letter)
		_, err := s.svc.Advance(s.ctx, s.admin, app.ID, model.AdvanceRequest{TargetStage: model.StageVisaSupportApproved})
		s.True(apperrors.IsPrecondition(err), "letter %s", letter)

		stored, err := s.store.Applications().Get(s.ctx, app.ID)
		s.Require().NoError(err)
		s.Equal(model.StageHospitalLetterVerified, stored.WorkflowStage)
		s.Len(s.history(app.ID), 1)
	}
}

func (s *WorkflowSuite) TestFullWalkIsAudited() {
	app, err := s.svc.Submit(s.ctx, s.patient, s.submitRequest(2))
	s.Require().NoError(err)
	s.upload(s.patient.ID, usTags...)

	steps := []struct {
		actor  model.Actor
		target model.WorkflowStage
	}{
		{s.admin, model.StageAdminVerification},
		{s.hospital, model.StageHospitalLetterVerified},
	}
	for _, st := range steps {
		_, err := s.svc.Advance(s.ctx, st.actor, app.ID, model.AdvanceRequest{TargetStage: st.target})
		s.Require().NoError(err, st.target)
	}

	cur, err := s.store.Applications().Get(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Applications().UpdateLetter(s.ctx, &model.LetterTransition{
		ApplicationID:   app.ID,
		ExpectedStage:   cur.WorkflowStage,
		ExpectedVersion: cur.Version,
		From:            model.LetterNotGenerated,
		To:              model.LetterGenerated,
		At:              s.now,
	}))
	_, err = s.svc.VerifyLetter(s.ctx, s.hospital, app.ID)
	s.Require().NoError(err)

	for _, target := range []model.WorkflowStage{model.StageVisaSupportApproved, model.StageSentToEmbassy} {
		_, err := s.svc.Advance(s.ctx, s.admin, app.ID, model.AdvanceRequest{TargetStage: target, Note: "ok"})
		s.Require().NoError(err, target)
	}
	final, err := s.svc.Approve(s.ctx, s.admin, app.ID)
	s.Require().NoError(err)
	s.Equal(model.StageCompleted, final.WorkflowStage)
	s.Equal(model.ApplicationStatusApproved, final.Status)

	entries, err := s.svc.History(s.ctx, s.patient, app.ID)
	s.Require().NoError(err)
	s.Len(entries, 6, "one submission entry plus one per transition")

	stages := make([]model.WorkflowStage, 0, len(entries))
	for i, e := range entries {
		stages = append(stages, e.Stage)
		if i > 0 {
			s.Greater(e.Seq, entries[i-1].Seq)
		}
	}
	s.True(model.IsValidWalk(stages), "%v", stages)
	s.Equal(final.WorkflowStage, stages[len(stages)-1])
}

func (s *WorkflowSuite) TestRejectIsNotRepeatable() {
	app := s.seed(model.StageAdminVerification, model.LetterNotGenerated)

	_, err := s.svc.Reject(s.ctx, s.admin, app.ID, model.RejectRequest{Reason: "  "})
	s.True(apperrors.IsValidation(err))

	rejected, err := s.svc.Reject(s.ctx, s.hospital, app.ID, model.RejectRequest{Reason: "Incomplete medical history"})
	s.Require().NoError(err)
	s.Equal(model.StageRejected, rejected.WorkflowStage)
	s.Equal(model.ApplicationStatusRejected, rejected.Status)
	s.Require().NotNil(rejected.RejectionReason)
	s.Equal("Incomplete medical history", *rejected.RejectionReason)

	_, err = s.svc.Reject(s.ctx, s.admin, app.ID, model.RejectRequest{Reason: "again"})
	s.True(apperrors.IsIllegalTransition(err))

	entries := s.history(app.ID)
	s.Require().Len(entries, 2)
	s.Equal(model.ActionApplicationRejected, entries[1].Action)
	s.Equal("Incomplete medical history", entries[1].Note)
}

func (s *WorkflowSuite) TestAdvanceToRejectedNeedsNote() {
	app := s.seed(model.StageDocumentsUploaded, model.LetterNotGenerated)
	_, err := s.svc.Advance(s.ctx, s.admin, app.ID, model.AdvanceRequest{TargetStage: model.StageRejected})
	s.True(apperrors.IsValidation(err))
}

func (s *WorkflowSuite) TestRoleChecks() {
	app := s.seed(model.StageAdminVerification, model.LetterNotGenerated)
	stranger := model.Actor{ID: uuid.New(), Role: model.RoleHospital}

	_, err := s.svc.Advance(s.ctx, stranger, app.ID, model.AdvanceRequest{TargetStage: model.StageHospitalLetterVerified})
	s.True(apperrors.IsForbidden(err))

	_, err = s.svc.Advance(s.ctx, s.patient, app.ID, model.AdvanceRequest{TargetStage: model.StageHospitalLetterVerified})
	s.True(apperrors.IsForbidden(err))

	_, err = s.svc.Get(s.ctx, stranger, app.ID)
	s.True(apperrors.IsForbidden(err))

	sent := s.seed(model.StageSentToEmbassy, model.LetterVerified)
	_, err = s.svc.Approve(s.ctx, s.hospital, sent.ID)
	s.True(apperrors.IsForbidden(err))
}

func (s *WorkflowSuite) TestVerifyLetter() {
	app := s.seed(model.StageHospitalLetterVerified, model.LetterNotGenerated)
	_, err := s.svc.VerifyLetter(s.ctx, s.admin, app.ID)
	s.True(apperrors.IsPrecondition(err))

	generated := s.seed(model.StageHospitalLetterVerified, model.LetterGenerated)
	verified, err := s.svc.VerifyLetter(s.ctx, s.hospital, generated.ID)
	s.Require().NoError(err)
	s.True(verified.HospitalLetterVerified())

	_, err = s.svc.VerifyLetter(s.ctx, s.admin, generated.ID)
	s.True(apperrors.IsPrecondition(err))

	logs, err := s.store.Audit().List(s.ctx, model.AuditFilter{EntityID: generated.ID})
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(model.AuditActionLetterVerify, logs[0].Action)
	s.Len(s.history(generated.ID), 1)

	closed := s.seed(model.StageRejected, model.LetterGenerated)
	_, err = s.svc.VerifyLetter(s.ctx, s.admin, closed.ID)
	s.True(apperrors.IsIllegalTransition(err))
}

func (s *WorkflowSuite) TestListIsScopedByRole() {
	mine := s.seed(model.StageDocumentsUploaded, model.LetterNotGenerated)
	other := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	_, err := s.svc.Submit(s.ctx, other, s.submitRequest(0))
	s.Require().NoError(err)

	apps, err := s.svc.List(s.ctx, s.patient, model.ApplicationFilter{})
	s.Require().NoError(err)
	s.Require().Len(apps, 1)
	s.Equal(mine.ID, apps[0].ID)

	apps, err = s.svc.List(s.ctx, s.hospital, model.ApplicationFilter{})
	s.Require().NoError(err)
	s.Len(apps, 1)

	apps, err = s.svc.List(s.ctx, s.admin, model.ApplicationFilter{})
	s.Require().NoError(err)
	s.Len(apps, 2)

	_, err = s.svc.List(s.ctx, s.admin, model.ApplicationFilter{Stage: "bogus"})
	s.True(apperrors.IsValidation(err))
}

// barrierRepo holds every Get until all expected readers arrived, so each
// caller acts on the same snapshot.
type barrierRepo struct {
	repository.ApplicationRepository
	arrived sync.WaitGroup
}

func (r *barrierRepo) Get(ctx context.Context, id uuid.UUID) (*model.VisaApplication, error) {
	app, err := r.ApplicationRepository.Get(ctx, id)
	r.arrived.Done()
	r.arrived.Wait()
	return app, err
}

func (s *WorkflowSuite) TestConcurrentAdvanceHasOneWinner() {
	app := s.seed(model.StageAdminVerification, model.LetterNotGenerated)

	repo := &barrierRepo{ApplicationRepository: s.store.Applications()}
	repo.arrived.Add(2)
	svc := s.newService(repo)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, actor := range []model.Actor{s.admin, s.hospital} {
		wg.Add(1)
		go func(i int, actor model.Actor) {
			defer wg.Done()
			_, errs[i] = svc.Advance(s.ctx, actor, app.ID, model.AdvanceRequest{TargetStage: model.StageHospitalLetterVerified})
		}(i, actor)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.IsConflict(err):
			conflicts++
			s.True(apperrors.IsRetryable(err))
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, ok)
	s.Equal(1, conflicts)
	s.Len(s.history(app.ID), 2)

	stored, err := s.store.Applications().Get(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(model.StageHospitalLetterVerified, stored.WorkflowStage)
	s.Equal(app.Version+1, stored.Version)
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}
