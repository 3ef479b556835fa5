package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

const applicationColumns = `
	id, patient_id, country_code, passport_number, passport_expiry,
	emergency_contact_name, emergency_contact_phone, estimated_arrival,
	estimated_departure, visa_type, treatment_description,
	accommodation_required, airport_pickup, attendant_count, workflow_stage,
	application_status, letter_status, required_documents, rejection_reason,
	destination_country, version, created_at, updated_at`

type applicationRepository struct {
	BaseRepository
}

func NewApplicationRepository(base BaseRepository) repository.ApplicationRepository {
	return &applicationRepository{base}
}

func (r *applicationRepository) Create(ctx context.Context, app *model.VisaApplication, attendants []*model.Attendant, entry *model.WorkflowLogEntry, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO visa_applications (` + applicationColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
				$16, $17, $18, $19, $20, $21, $22, $23)
		`
		_, err := tx.ExecContext(ctx, query,
			app.ID,
			app.PatientID,
			app.CountryCode,
			app.PassportNumber,
			app.PassportExpiry,
			app.EmergencyContactName,
			app.EmergencyContactPhone,
			app.EstimatedArrival,
			app.EstimatedDeparture,
			app.VisaType,
			app.TreatmentDescription,
			app.AccommodationRequired,
			app.AirportPickup,
			app.AttendantCount,
			app.WorkflowStage,
			app.Status,
			app.LetterStatus,
			app.RequiredDocuments,
			app.RejectionReason,
			app.DestinationCountry,
			app.Version,
			app.CreatedAt,
			app.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create visa application: %w", err)
		}

		for _, a := range attendants {
			if err := insertAttendant(ctx, tx, a); err != nil {
				return err
			}
		}

		if err := insertLogEntry(ctx, tx, entry); err != nil {
			return err
		}
		if event != nil {
			return insertOutboxEvent(ctx, tx, event)
		}
		return nil
	})
}

func insertAttendant(ctx context.Context, tx *sqlx.Tx, a *model.Attendant) error {
	query := `
		INSERT INTO visa_attendants (
			id, application_id, full_name, relationship, passport_number,
			passport_expiry, date_of_birth, nationality, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		a.ID,
		a.ApplicationID,
		a.FullName,
		a.Relationship,
		a.PassportNumber,
		a.PassportExpiry,
		a.DateOfBirth,
		a.Nationality,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create attendant: %w", err)
	}
	return nil
}

func insertLogEntry(ctx context.Context, tx *sqlx.Tx, e *model.WorkflowLogEntry) error {
	query := `
		INSERT INTO workflow_logs (id, application_id, stage, action, note, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`
	err := tx.QueryRowxContext(ctx, query,
		e.ID,
		e.ApplicationID,
		e.Stage,
		e.Action,
		e.Note,
		e.PerformedBy,
		e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return fmt.Errorf("failed to append workflow log: %w", err)
	}
	return nil
}

func (r *applicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.VisaApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM visa_applications WHERE id = $1`

	var app model.VisaApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, notFoundOr(err, "visa application", "get visa application")
	}
	return &app, nil
}

func (r *applicationRepository) List(ctx context.Context, filter model.ApplicationFilter) ([]*model.VisaApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM visa_applications WHERE 1=1`
	var args []interface{}

	if filter.PatientID != uuid.Nil {
		args = append(args, filter.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if filter.HospitalID != uuid.Nil {
		args = append(args, filter.HospitalID)
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.patient_id = visa_applications.patient_id AND b.hospital_id = $%d)`, len(args))
	}
	if filter.Stage != "" {
		args = append(args, filter.Stage)
		query += fmt.Sprintf(" AND workflow_stage = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND application_status = $%d", len(args))
	}

	page := filter.Pagination.Normalize()
	args = append(args, page.Limit, page.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var apps []*model.VisaApplication
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list visa applications: %w", err)
	}
	return apps, nil
}

func (r *applicationRepository) ListAttendants(ctx context.Context, applicationID uuid.UUID) ([]*model.Attendant, error) {
	query := `
		SELECT id, application_id, full_name, relationship, passport_number,
			passport_expiry, date_of_birth, nationality, created_at
		FROM visa_attendants
		WHERE application_id = $1
		ORDER BY created_at, id
	`
	var attendants []*model.Attendant
	if err := r.db.SelectContext(ctx, &attendants, query, applicationID); err != nil {
		return nil, fmt.Errorf("failed to list attendants: %w", err)
	}
	return attendants, nil
}

func (r *applicationRepository) Transition(ctx context.Context, t *model.StageTransition) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE visa_applications
			SET workflow_stage = $1,
				application_status = $2,
				rejection_reason = COALESCE($3, rejection_reason),
				version = version + 1,
				updated_at = $4
			WHERE id = $5 AND workflow_stage = $6 AND version = $7
		`
		res, err := tx.ExecContext(ctx, query,
			t.ToStage,
			t.Status,
			t.RejectionReason,
			t.At,
			t.ApplicationID,
			t.FromStage,
			t.ExpectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update workflow stage: %w", err)
		}
		if err := requireConditionalRow(res); err != nil {
			return err
		}

		if err := insertLogEntry(ctx, tx, t.Entry); err != nil {
			return err
		}
		if t.Event != nil {
			return insertOutboxEvent(ctx, tx, t.Event)
		}
		return nil
	})
}

func (r *applicationRepository) UpdateLetter(ctx context.Context, t *model.LetterTransition) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE visa_applications
			SET letter_status = $1, version = version + 1, updated_at = $2
			WHERE id = $3 AND workflow_stage = $4 AND letter_status = $5 AND version = $6
		`
		res, err := tx.ExecContext(ctx, query,
			t.To,
			t.At,
			t.ApplicationID,
			t.ExpectedStage,
			t.From,
			t.ExpectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update letter status: %w", err)
		}
		if err := requireConditionalRow(res); err != nil {
			return err
		}

		if t.Document != nil {
			if err := insertDocument(ctx, tx, t.Document); err != nil {
				return err
			}
		}
		if t.Audit != nil {
			if err := insertAuditLog(ctx, tx, t.Audit); err != nil {
				return err
			}
		}
		if t.Event != nil {
			return insertOutboxEvent(ctx, tx, t.Event)
		}
		return nil
	})
}

func (r *applicationRepository) ListLog(ctx context.Context, applicationID uuid.UUID) ([]*model.WorkflowLogEntry, error) {
	query := `
		SELECT seq, id, application_id, stage, action, note, performed_by, created_at
		FROM workflow_logs
		WHERE application_id = $1
		ORDER BY created_at, seq
	`
	var entries []*model.WorkflowLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, applicationID); err != nil {
		return nil, fmt.Errorf("failed to list workflow log: %w", err)
	}
	return entries, nil
}

func requireConditionalRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return apperrors.Conflict("application was modified concurrently", nil)
	}
	return nil
}
