package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
)

// All repository interfaces in one file
type (
	CountryRequirementRepository interface {
		// Create fails with a conflict when another active row holds the code.
		Create(ctx context.Context, req *model.CountryRequirement) error
		Update(ctx context.Context, req *model.CountryRequirement) error
		Get(ctx context.Context, id uuid.UUID) (*model.CountryRequirement, error)
		GetActiveByCode(ctx context.Context, code string) (*model.CountryRequirement, error)
		List(ctx context.Context, activeOnly bool) ([]*model.CountryRequirement, error)
		Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	ApplicationRepository interface {
		// Create stores the application, its attendants, the initial log
		// entry and the submission event atomically.
		Create(ctx context.Context, app *model.VisaApplication, attendants []*model.Attendant, entry *model.WorkflowLogEntry, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.VisaApplication, error)
		List(ctx context.Context, filter model.ApplicationFilter) ([]*model.VisaApplication, error)
		ListAttendants(ctx context.Context, applicationID uuid.UUID) ([]*model.Attendant, error)
		// Transition applies t only if the stored stage and version still
		// match; otherwise it returns a conflict and writes nothing.
		Transition(ctx context.Context, t *model.StageTransition) error
		UpdateLetter(ctx context.Context, t *model.LetterTransition) error
		ListLog(ctx context.Context, applicationID uuid.UUID) ([]*model.WorkflowLogEntry, error)
	}

	DocumentRepository interface {
		Create(ctx context.Context, doc *model.UploadedDocument) error
		Get(ctx context.Context, id uuid.UUID) (*model.UploadedDocument, error)
		ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.UploadedDocument, error)
		// ListTypesByOwner returns the distinct document types the owner uploaded.
		ListTypesByOwner(ctx context.Context, ownerID uuid.UUID) ([]string, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus, at time.Time) error
	}

	BookingRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		HospitalServesPatient(ctx context.Context, hospitalID, patientID uuid.UUID) (bool, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending leases up to limit due events until leaseUntil.
		ClaimPending(ctx context.Context, limit int, leaseUntil time.Time) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
		MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, nextAttempt time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		ListByUser(ctx context.Context, userID uuid.UUID, page model.Pagination) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id, userID uuid.UUID) error
	}
)
