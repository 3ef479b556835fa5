package model

import "github.com/google/uuid"

// Booking is owned by the booking subsystem; the workflow only reads it.
type Booking struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Status     string    `db:"status" json:"status"`
}
