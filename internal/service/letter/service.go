// Package letter renders and stores the hospital invitation letter a patient
// presents to the embassy.
package letter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/notification"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/blob"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
)

const (
	DefaultUploadTimeout = 30 * time.Second
	contentType          = "text/plain; charset=utf-8"
)

type GenerateLetterInput struct {
	ApplicationID     uuid.UUID `json:"-"`
	BookingID         uuid.UUID `json:"booking_id"`
	DoctorName        string    `json:"doctor_name"`
	Designation       string    `json:"designation"`
	Purpose           string    `json:"purpose"`
	TreatmentDuration string    `json:"treatment_duration"`
	StayDuration      string    `json:"stay_duration"`
	Notes             string    `json:"notes"`
}

func (in *GenerateLetterInput) validate() error {
	var missing []string
	if in.ApplicationID == uuid.Nil {
		missing = append(missing, "application_id")
	}
	if in.BookingID == uuid.Nil {
		missing = append(missing, "booking_id")
	}
	for name, v := range map[string]string{
		"doctor_name":        in.DoctorName,
		"designation":        in.Designation,
		"purpose":            in.Purpose,
		"treatment_duration": in.TreatmentDuration,
		"stay_duration":      in.StayDuration,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

type Service struct {
	apps          repository.ApplicationRepository
	bookings      repository.BookingRepository
	blobs         blob.Store
	auditor       *audit.Service
	notifier      notification.Notifier
	logger        *logger.Logger
	metrics       *metrics.Metrics
	uploadTimeout time.Duration
	now           func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithUploadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.uploadTimeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(apps repository.ApplicationRepository, bookings repository.BookingRepository, blobs blob.Store, auditor *audit.Service, notifier notification.Notifier, log *logger.Logger, opts ...Option) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		apps:          apps,
		bookings:      bookings,
		blobs:         blobs,
		auditor:       auditor,
		notifier:      notifier,
		logger:        log,
		uploadTimeout: DefaultUploadTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate renders the invitation letter, uploads it and marks the
// application's letter as generated. The document row is only written once
// the upload succeeded.
func (s *Service) Generate(ctx context.Context, actor model.Actor, in GenerateLetterInput) (*model.UploadedDocument, error) {
	doc, err := s.generate(ctx, actor, in)
	result := "success"
	if err != nil {
		result = "error"
	}
	s.metrics.ObserveLetter("generate", result)
	return doc, err
}

func (s *Service) generate(ctx context.Context, actor model.Actor, in GenerateLetterInput) (*model.UploadedDocument, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	app, err := s.apps.Get(ctx, in.ApplicationID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.Get(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (actor.Role != model.RoleHospital || actor.ID != booking.HospitalID) {
		return nil, apperrors.Forbidden("only the booked hospital may issue an invitation letter")
	}
	if booking.PatientID != app.PatientID {
		return nil, apperrors.Validationf("booking %s does not belong to the application's patient", booking.ID)
	}
	if app.WorkflowStage.IsTerminal() {
		return nil, apperrors.Precondition(fmt.Sprintf("application is %s", app.WorkflowStage))
	}
	if app.LetterStatus == model.LetterVerified {
		return nil, apperrors.Precondition("invitation letter is already verified")
	}

	now := s.now()
	content, err := render(letterData{
		Reference:         app.ID.String(),
		Date:              formatDate(now),
		CountryCode:       app.CountryCode,
		PassportNumber:    app.PassportNumber,
		BookingID:         booking.ID.String(),
		HospitalID:        booking.HospitalID.String(),
		Purpose:           strings.TrimSpace(in.Purpose),
		TreatmentDuration: strings.TrimSpace(in.TreatmentDuration),
		StayDuration:      strings.TrimSpace(in.StayDuration),
		Arrival:           formatDate(app.EstimatedArrival),
		Departure:         formatDate(app.EstimatedDeparture),
		AttendantCount:    app.AttendantCount,
		Notes:             strings.TrimSpace(in.Notes),
		DoctorName:        strings.TrimSpace(in.DoctorName),
		Designation:       strings.TrimSpace(in.Designation),
	})
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to render letter: %w", err))
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()
	key := blob.DocumentKey(model.DocVisaInvitationLetter, "invitation-letter-"+app.ID.String()+".txt")
	url, err := s.blobs.Upload(uploadCtx, app.PatientID, key, content, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload invitation letter: %w", err)
	}

	doc := &model.UploadedDocument{
		ID:           uuid.New(),
		OwnerID:      app.PatientID,
		DocumentType: model.DocVisaInvitationLetter,
		StorageURL:   url,
		Status:       model.DocumentStatusPending,
		Category:     "visa",
		Description:  "Hospital invitation letter for visa application " + app.ID.String(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	t := &model.LetterTransition{
		ApplicationID:   app.ID,
		ExpectedStage:   app.WorkflowStage,
		ExpectedVersion: app.Version,
		From:            app.LetterStatus,
		To:              model.LetterGenerated,
		At:              now,
		Document:        doc,
	}
	if s.auditor != nil {
		t.Audit, err = s.auditor.Entry(actor.ID, model.AuditActionLetterGenerate, model.AuditEntityApplication, app.ID, map[string]interface{}{
			"booking_id":  booking.ID,
			"document_id": doc.ID,
			"from":        app.LetterStatus,
			"to":          model.LetterGenerated,
		})
		if err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	t.Event, err = model.NewOutboxEvent(model.EventLetterGenerated, app.ID, model.LetterEvent{
		ApplicationID: app.ID,
		PatientID:     app.PatientID,
		DocumentID:    doc.ID,
		LetterStatus:  model.LetterGenerated,
		PerformedBy:   actor.ID,
		OccurredAt:    now,
	}, now)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if err := s.apps.UpdateLetter(ctx, t); err != nil {
		s.logger.Warn("Invitation letter uploaded but not recorded",
			"application_id", app.ID.String(),
			"url", url,
			"error", err.Error())
		return nil, err
	}

	app.LetterStatus = model.LetterGenerated
	s.notifier.Notify(ctx, notification.LetterReady(app, false))
	s.logger.Info("Invitation letter generated",
		"application_id", app.ID.String(),
		"document_id", doc.ID.String(),
		"actor_id", actor.ID.String())
	return doc, nil
}
