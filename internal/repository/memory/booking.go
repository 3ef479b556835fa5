package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type BookingRepository struct {
	s *Store
}

func (r *BookingRepository) Get(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking", nil)
	}
	cp := *b
	return &cp, nil
}

func (r *BookingRepository) HospitalServesPatient(_ context.Context, hospitalID, patientID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.bookings {
		if b.HospitalID == hospitalID && b.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}
