package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
)

type bookingRepository struct {
	BaseRepository
}

// NewBookingRepository reads the booking subsystem's table; it never writes.
func NewBookingRepository(base BaseRepository) repository.BookingRepository {
	return &bookingRepository{base}
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT id, patient_id, hospital_id, status FROM bookings WHERE id = $1`

	var b model.Booking
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		return nil, notFoundOr(err, "booking", "get booking")
	}
	return &b, nil
}

func (r *bookingRepository) HospitalServesPatient(ctx context.Context, hospitalID, patientID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM bookings WHERE hospital_id = $1 AND patient_id = $2)`

	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, hospitalID, patientID); err != nil {
		return false, fmt.Errorf("failed to check booking link: %w", err)
	}
	return ok, nil
}
