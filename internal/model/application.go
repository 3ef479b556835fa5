package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// MaxAttendants caps the companions travelling on one application.
const MaxAttendants = 3

type VisaApplication struct {
	Base
	PatientID             uuid.UUID         `db:"patient_id" json:"patient_id"`
	CountryCode           string            `db:"country_code" json:"country_code"`
	PassportNumber        string            `db:"passport_number" json:"passport_number"`
	PassportExpiry        time.Time         `db:"passport_expiry" json:"passport_expiry"`
	EmergencyContactName  string            `db:"emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactPhone string            `db:"emergency_contact_phone" json:"emergency_contact_phone"`
	EstimatedArrival      time.Time         `db:"estimated_arrival" json:"estimated_arrival"`
	EstimatedDeparture    time.Time         `db:"estimated_departure" json:"estimated_departure"`
	VisaType              string            `db:"visa_type" json:"visa_type"`
	TreatmentDescription  string            `db:"treatment_description" json:"treatment_description"`
	AccommodationRequired bool              `db:"accommodation_required" json:"accommodation_required"`
	AirportPickup         bool              `db:"airport_pickup" json:"airport_pickup"`
	AttendantCount        int               `db:"attendant_count" json:"attendant_count"`
	WorkflowStage         WorkflowStage     `db:"workflow_stage" json:"workflow_stage"`
	Status                ApplicationStatus `db:"application_status" json:"application_status"`
	LetterStatus          LetterStatus      `db:"letter_status" json:"letter_status"`
	RequiredDocuments     pq.StringArray    `db:"required_documents" json:"required_documents"`
	RejectionReason       *string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
	DestinationCountry    string            `db:"destination_country" json:"destination_country"`
	Version               int64             `db:"version" json:"version"`
}

// HospitalLetterVerified reports whether an administrator or hospital
// confirmed the generated invitation letter.
func (a *VisaApplication) HospitalLetterVerified() bool {
	return a.LetterStatus == LetterVerified
}

type AttendantRequest struct {
	FullName       string    `json:"full_name" validate:"required,max=200"`
	Relationship   string    `json:"relationship" validate:"required,max=100"`
	PassportNumber string    `json:"passport_number" validate:"required,min=5,max=20"`
	PassportExpiry time.Time `json:"passport_expiry" validate:"required"`
	DateOfBirth    time.Time `json:"date_of_birth" validate:"required"`
	Nationality    string    `json:"nationality" validate:"required,max=100"`
}

type SubmitApplicationRequest struct {
	CountryCode           string             `json:"country_code" validate:"required,len=2,alpha"`
	PassportNumber        string             `json:"passport_number" validate:"required,min=5,max=20"`
	PassportExpiry        time.Time          `json:"passport_expiry" validate:"required"`
	EmergencyContactName  string             `json:"emergency_contact_name" validate:"required,max=200"`
	EmergencyContactPhone string             `json:"emergency_contact_phone" validate:"required,max=30"`
	EstimatedArrival      time.Time          `json:"estimated_arrival" validate:"required"`
	EstimatedDeparture    time.Time          `json:"estimated_departure" validate:"required,gtfield=EstimatedArrival"`
	VisaType              string             `json:"visa_type" validate:"required,max=50"`
	TreatmentDescription  string             `json:"treatment_description" validate:"required,max=2000"`
	AccommodationRequired bool               `json:"accommodation_required"`
	AirportPickup         bool               `json:"airport_pickup"`
	Attendants            []AttendantRequest `json:"attendants" validate:"dive"`
}

type AdvanceRequest struct {
	TargetStage WorkflowStage `json:"target_stage" binding:"required"`
	Note        string        `json:"note"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ApplicationFilter struct {
	PatientID  uuid.UUID
	HospitalID uuid.UUID
	Stage      WorkflowStage
	Status     ApplicationStatus
	Pagination
}

// ApplicationDetail bundles an application with its sub-records.
type ApplicationDetail struct {
	*VisaApplication
	HospitalLetterVerified bool         `json:"hospital_letter_verified"`
	Attendants             []*Attendant `json:"attendants"`
}
