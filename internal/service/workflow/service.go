// Package workflow drives a visa application through its stages. Every
// mutation is a conditional update that commits its workflow log entry and
// outbox event in the same unit of work.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/checklist"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/notification"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/validator"
)

// RequirementLookup resolves the active requirement of a country code.
type RequirementLookup interface {
	GetActive(ctx context.Context, code string) (*model.CountryRequirement, error)
}

type Service struct {
	apps         repository.ApplicationRepository
	documents    repository.DocumentRepository
	requirements RequirementLookup
	authz        *authz.Authorizer
	auditor      *audit.Service
	notifier     notification.Notifier
	validate     validator.Validator
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewService(
	apps repository.ApplicationRepository,
	documents repository.DocumentRepository,
	requirements RequirementLookup,
	az *authz.Authorizer,
	auditor *audit.Service,
	opts ...Option,
) *Service {
	s := &Service{
		apps:         apps,
		documents:    documents,
		requirements: requirements,
		authz:        az,
		auditor:      auditor,
		notifier:     notification.Nop{},
		validate:     validator.Default(),
		logger:       logger.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit creates an application in documents_uploaded for the calling
// patient, snapshotting the country's required document tags.
func (s *Service) Submit(ctx context.Context, actor model.Actor, req *model.SubmitApplicationRequest) (*model.VisaApplication, error) {
	if err := authz.RequirePatient(actor); err != nil {
		return nil, err
	}
	if len(req.Attendants) > model.MaxAttendants {
		return nil, apperrors.Validationf("at most %d attendants are allowed, got %d", model.MaxAttendants, len(req.Attendants))
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	now := s.now()
	if !req.PassportExpiry.After(now) {
		return nil, apperrors.Validationf("passport_expiry must be in the future")
	}
	for i, a := range req.Attendants {
		if !a.PassportExpiry.After(now) {
			return nil, apperrors.Validationf("attendants[%d].passport_expiry must be in the future", i)
		}
		if !a.DateOfBirth.Before(now) {
			return nil, apperrors.Validationf("attendants[%d].date_of_birth must be in the past", i)
		}
	}

	code := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	requirement, err := s.requirements.GetActive(ctx, code)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Validation(fmt.Sprintf("no active visa requirement for country %s", code), err)
		}
		return nil, err
	}

	app := &model.VisaApplication{
		Base:                  model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PatientID:             actor.ID,
		CountryCode:           code,
		PassportNumber:        strings.TrimSpace(req.PassportNumber),
		PassportExpiry:        req.PassportExpiry,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		EstimatedArrival:      req.EstimatedArrival,
		EstimatedDeparture:    req.EstimatedDeparture,
		VisaType:              req.VisaType,
		TreatmentDescription:  req.TreatmentDescription,
		AccommodationRequired: req.AccommodationRequired,
		AirportPickup:         req.AirportPickup,
		AttendantCount:        len(req.Attendants),
		WorkflowStage:         model.StageDocumentsUploaded,
		Status:                model.StatusFor(model.StageDocumentsUploaded),
		LetterStatus:          model.LetterNotGenerated,
		RequiredDocuments:     append([]string{}, requirement.RequiredDocuments...),
		DestinationCountry:    model.DestinationCountry,
		Version:               1,
	}

	attendants := make([]*model.Attendant, 0, len(req.Attendants))
	for _, a := range req.Attendants {
		attendants = append(attendants, &model.Attendant{
			ID:             uuid.New(),
			ApplicationID:  app.ID,
			FullName:       a.FullName,
			Relationship:   a.Relationship,
			PassportNumber: a.PassportNumber,
			PassportExpiry: a.PassportExpiry,
			DateOfBirth:    a.DateOfBirth,
			Nationality:    a.Nationality,
			CreatedAt:      now,
		})
	}

	entry := s.logEntry(app.ID, model.StageDocumentsUploaded, model.ActionApplicationSubmitted, "", actor, now)
	event, err := model.NewOutboxEvent(model.EventApplicationSubmitted, app.ID, model.WorkflowEvent{
		ApplicationID: app.ID,
		PatientID:     app.PatientID,
		ToStage:       app.WorkflowStage,
		PerformedBy:   actor.ID,
		OccurredAt:    now,
	}, now)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.apps.Create(ctx, app, attendants, entry, event); err != nil {
		s.metrics.ObserveTransition(string(model.StageDocumentsUploaded), "error")
		return nil, err
	}
	s.metrics.ObserveTransition(string(model.StageDocumentsUploaded), "success")

	s.notifier.Notify(ctx, notification.Submitted(app))
	s.logger.Info("Visa application submitted",
		"application_id", app.ID.String(),
		"patient_id", app.PatientID.String(),
		"country_code", app.CountryCode)
	return app, nil
}

// Advance moves an application to target. Rejection and completion are
// routed to Reject and Approve so their rules apply.
func (s *Service) Advance(ctx context.Context, actor model.Actor, id uuid.UUID, req model.AdvanceRequest) (*model.VisaApplication, error) {
	target := req.TargetStage
	if !target.Valid() {
		return nil, apperrors.Validationf("unknown workflow stage %q", target)
	}
	switch target {
	case model.StageRejected:
		return s.Reject(ctx, actor, id, model.RejectRequest{Reason: req.Note})
	case model.StageCompleted:
		return s.approve(ctx, actor, id, req.Note)
	}

	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanProcess(ctx, actor, app); err != nil {
		return nil, err
	}
	if !model.CanTransition(app.WorkflowStage, target) {
		s.metrics.ObserveTransition(string(target), "illegal")
		return nil, apperrors.IllegalTransition(string(app.WorkflowStage), string(target))
	}
	if err := s.checkPreconditions(ctx, app, target); err != nil {
		s.metrics.ObserveTransition(string(target), "precondition")
		return nil, err
	}

	return s.transition(ctx, actor, app, target, model.ActionStageAdvanced, model.EventApplicationAdvanced, strings.TrimSpace(req.Note), nil)
}

func (s *Service) checkPreconditions(ctx context.Context, app *model.VisaApplication, target model.WorkflowStage) error {
	switch target {
	case model.StageAdminVerification:
		uploaded, err := s.documents.ListTypesByOwner(ctx, app.PatientID)
		if err != nil {
			return err
		}
		if missing := checklist.Missing(app.RequiredDocuments, uploaded); len(missing) > 0 {
			return apperrors.Precondition("missing required documents: " + strings.Join(missing, ", "))
		}
	case model.StageVisaSupportApproved:
		if !app.HospitalLetterVerified() {
			return apperrors.Precondition("hospital invitation letter has not been verified")
		}
	}
	return nil
}

// Reject ends the application from any non-terminal stage.
func (s *Service) Reject(ctx context.Context, actor model.Actor, id uuid.UUID, req model.RejectRequest) (*model.VisaApplication, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperrors.Validationf("rejection reason is required")
	}

	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanProcess(ctx, actor, app); err != nil {
		return nil, err
	}
	if !model.CanTransition(app.WorkflowStage, model.StageRejected) {
		s.metrics.ObserveTransition(string(model.StageRejected), "illegal")
		return nil, apperrors.IllegalTransition(string(app.WorkflowStage), string(model.StageRejected))
	}

	return s.transition(ctx, actor, app, model.StageRejected, model.ActionApplicationRejected, model.EventApplicationRejected, reason, &reason)
}

// Approve completes an application that was sent to the embassy.
func (s *Service) Approve(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.VisaApplication, error) {
	return s.approve(ctx, actor, id, "")
}

func (s *Service) approve(ctx context.Context, actor model.Actor, id uuid.UUID, note string) (*model.VisaApplication, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(app.WorkflowStage, model.StageCompleted) {
		s.metrics.ObserveTransition(string(model.StageCompleted), "illegal")
		return nil, apperrors.IllegalTransition(string(app.WorkflowStage), string(model.StageCompleted))
	}
	return s.transition(ctx, actor, app, model.StageCompleted, model.ActionApplicationApproved, model.EventApplicationApproved, strings.TrimSpace(note), nil)
}

func (s *Service) transition(
	ctx context.Context,
	actor model.Actor,
	app *model.VisaApplication,
	target model.WorkflowStage,
	action, eventType, note string,
	reason *string,
) (*model.VisaApplication, error) {
	now := s.now()
	from := app.WorkflowStage

	event, err := model.NewOutboxEvent(eventType, app.ID, model.WorkflowEvent{
		ApplicationID: app.ID,
		PatientID:     app.PatientID,
		FromStage:     from,
		ToStage:       target,
		Note:          note,
		PerformedBy:   actor.ID,
		OccurredAt:    now,
	}, now)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	t := &model.StageTransition{
		ApplicationID:   app.ID,
		FromStage:       from,
		ExpectedVersion: app.Version,
		ToStage:         target,
		Status:          model.StatusFor(target),
		RejectionReason: reason,
		At:              now,
		Entry:           s.logEntry(app.ID, target, action, note, actor, now),
		Event:           event,
	}
	if err := s.apps.Transition(ctx, t); err != nil {
		result := "error"
		if apperrors.IsConflict(err) {
			result = "conflict"
		}
		s.metrics.ObserveTransition(string(target), result)
		return nil, err
	}
	s.metrics.ObserveTransition(string(target), "success")

	app.WorkflowStage = target
	app.Status = t.Status
	if reason != nil {
		app.RejectionReason = reason
	}
	app.Version++
	app.UpdatedAt = now

	s.notifier.Notify(ctx, notification.StageChanged(app, from, target))
	s.logger.Info("Visa application stage changed",
		"application_id", app.ID.String(),
		"from", string(from),
		"to", string(target),
		"actor_id", actor.ID.String())
	return app, nil
}

func (s *Service) logEntry(appID uuid.UUID, stage model.WorkflowStage, action, note string, actor model.Actor, at time.Time) *model.WorkflowLogEntry {
	return &model.WorkflowLogEntry{
		ID:            uuid.New(),
		ApplicationID: appID,
		Stage:         stage,
		Action:        action,
		Note:          note,
		PerformedBy:   actor.ID,
		CreatedAt:     at,
	}
}

// VerifyLetter confirms a generated invitation letter.
func (s *Service) VerifyLetter(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.VisaApplication, error) {
	app, err := s.verifyLetter(ctx, actor, id)
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.ObserveLetter("verify", result)
	return app, err
}

func (s *Service) verifyLetter(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.VisaApplication, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanProcess(ctx, actor, app); err != nil {
		return nil, err
	}
	if app.WorkflowStage.IsTerminal() {
		return nil, apperrors.IllegalTransition(string(app.LetterStatus), string(model.LetterVerified))
	}
	switch app.LetterStatus {
	case model.LetterGenerated:
	case model.LetterVerified:
		return nil, apperrors.Precondition("invitation letter is already verified")
	default:
		return nil, apperrors.Precondition("invitation letter has not been generated")
	}

	now := s.now()
	t := &model.LetterTransition{
		ApplicationID:   app.ID,
		ExpectedStage:   app.WorkflowStage,
		ExpectedVersion: app.Version,
		From:            model.LetterGenerated,
		To:              model.LetterVerified,
		At:              now,
	}
	if s.auditor != nil {
		t.Audit, err = s.auditor.Entry(actor.ID, model.AuditActionLetterVerify, model.AuditEntityApplication, app.ID, map[string]interface{}{
			"from": model.LetterGenerated,
			"to":   model.LetterVerified,
		})
		if err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	t.Event, err = model.NewOutboxEvent(model.EventLetterVerified, app.ID, model.LetterEvent{
		ApplicationID: app.ID,
		PatientID:     app.PatientID,
		LetterStatus:  model.LetterVerified,
		PerformedBy:   actor.ID,
		OccurredAt:    now,
	}, now)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.apps.UpdateLetter(ctx, t); err != nil {
		return nil, err
	}
	app.LetterStatus = model.LetterVerified
	app.Version++
	app.UpdatedAt = now

	s.notifier.Notify(ctx, notification.LetterReady(app, true))
	return app, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ApplicationDetail, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanView(ctx, actor, app); err != nil {
		return nil, err
	}
	attendants, err := s.apps.ListAttendants(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.ApplicationDetail{
		VisaApplication:        app,
		HospitalLetterVerified: app.HospitalLetterVerified(),
		Attendants:             attendants,
	}, nil
}

// List scopes filter to what actor may see: patients their own applications,
// hospitals those of patients they hold bookings for.
func (s *Service) List(ctx context.Context, actor model.Actor, filter model.ApplicationFilter) ([]*model.VisaApplication, error) {
	if filter.Stage != "" && !filter.Stage.Valid() {
		return nil, apperrors.Validationf("unknown workflow stage %q", filter.Stage)
	}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RolePatient:
		filter.PatientID = actor.ID
	case model.RoleHospital:
		filter.HospitalID = actor.ID
	default:
		return nil, apperrors.Forbidden("unknown role")
	}
	apps, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []*model.VisaApplication{}
	}
	return apps, nil
}

// History returns the workflow log in insertion order.
func (s *Service) History(ctx context.Context, actor model.Actor, id uuid.UUID) ([]*model.WorkflowLogEntry, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanView(ctx, actor, app); err != nil {
		return nil, err
	}
	return s.apps.ListLog(ctx, id)
}

// Checklist evaluates the patient's uploads against the application's
// required document snapshot.
func (s *Service) Checklist(ctx context.Context, actor model.Actor, id uuid.UUID) (checklist.Status, error) {
	app, err := s.apps.Get(ctx, id)
	if err != nil {
		return checklist.Status{}, err
	}
	if err := s.authz.CanView(ctx, actor, app); err != nil {
		return checklist.Status{}, err
	}
	uploaded, err := s.documents.ListTypesByOwner(ctx, app.PatientID)
	if err != nil {
		return checklist.Status{}, err
	}
	return checklist.Evaluate(app.RequiredDocuments, uploaded), nil
}
