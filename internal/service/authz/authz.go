// Package authz performs the role and ownership checks every workflow
// operation runs before it reads or mutates state.
package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type ctxKey struct{}

// WithActor stores the authenticated actor on ctx.
func WithActor(ctx context.Context, actor model.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor.
func ActorFrom(ctx context.Context) (model.Actor, bool) {
	actor, ok := ctx.Value(ctxKey{}).(model.Actor)
	return actor, ok && actor.ID != uuid.Nil
}

type Authorizer struct {
	bookings repository.BookingRepository
}

func NewAuthorizer(bookings repository.BookingRepository) *Authorizer {
	return &Authorizer{bookings: bookings}
}

func RequireAdmin(actor model.Actor) error {
	if actor.Role != model.RoleAdmin {
		return apperrors.Forbidden("administrator role required")
	}
	return nil
}

func RequirePatient(actor model.Actor) error {
	if actor.Role != model.RolePatient {
		return apperrors.Forbidden("patient role required")
	}
	return nil
}

// servesPatient reports whether a hospital actor holds a booking for patientID.
func (a *Authorizer) servesPatient(ctx context.Context, actor model.Actor, patientID uuid.UUID) (bool, error) {
	if actor.Role != model.RoleHospital {
		return false, nil
	}
	ok, err := a.bookings.HospitalServesPatient(ctx, actor.ID, patientID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve hospital link: %w", err)
	}
	return ok, nil
}

// CanViewPatient allows the patient, a hospital linked by booking, or an admin.
func (a *Authorizer) CanViewPatient(ctx context.Context, actor model.Actor, patientID uuid.UUID) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RolePatient:
		if actor.ID == patientID {
			return nil
		}
	case model.RoleHospital:
		ok, err := a.servesPatient(ctx, actor, patientID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return apperrors.Forbidden("not permitted to access this patient's records")
}

// CanView applies CanViewPatient to the application's owner.
func (a *Authorizer) CanView(ctx context.Context, actor model.Actor, app *model.VisaApplication) error {
	return a.CanViewPatient(ctx, actor, app.PatientID)
}

// CanProcess allows admins and hospitals linked to the application's patient
// to drive the workflow.
func (a *Authorizer) CanProcess(ctx context.Context, actor model.Actor, app *model.VisaApplication) error {
	if actor.Role == model.RoleAdmin {
		return nil
	}
	ok, err := a.servesPatient(ctx, actor, app.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Forbidden("not permitted to process this application")
	}
	return nil
}
