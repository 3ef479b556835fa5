package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentTag names a document type in the checklist vocabulary.
type DocumentTag = string

const (
	DocPassport           DocumentTag = "passport"
	DocPassportPhoto      DocumentTag = "passport_photo"
	DocMedicalReports     DocumentTag = "medical_reports"
	DocHospitalInvitation DocumentTag = "hospital_invitation"
	DocFinancialProof     DocumentTag = "financial_proof"
	DocTravelInsurance    DocumentTag = "travel_insurance"
	DocBankStatement      DocumentTag = "bank_statement"
	DocPoliceClearance    DocumentTag = "police_clearance"

	// DocVisaInvitationLetter is written by the letter generator only.
	DocVisaInvitationLetter DocumentTag = "visa_invitation_letter"
)

// ChecklistTags is the vocabulary country requirements may reference.
var ChecklistTags = []DocumentTag{
	DocPassport,
	DocPassportPhoto,
	DocMedicalReports,
	DocHospitalInvitation,
	DocFinancialProof,
	DocTravelInsurance,
	DocBankStatement,
	DocPoliceClearance,
}

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "pending"
	DocumentStatusVerified DocumentStatus = "verified"
	DocumentStatusRejected DocumentStatus = "rejected"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentStatusPending, DocumentStatusVerified, DocumentStatusRejected:
		return true
	}
	return false
}

type UploadedDocument struct {
	ID           uuid.UUID      `db:"id" json:"id"`
	OwnerID      uuid.UUID      `db:"owner_id" json:"owner_id"`
	DocumentType string         `db:"document_type" json:"document_type"`
	StorageURL   string         `db:"storage_url" json:"storage_url"`
	Status       DocumentStatus `db:"verification_status" json:"verification_status"`
	Category     string         `db:"category" json:"category"`
	Description  string         `db:"description" json:"description"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

type UploadDocumentInput struct {
	OwnerID      uuid.UUID
	DocumentType string `validate:"required"`
	Category     string `validate:"max=50"`
	Description  string `validate:"max=500"`
	FileName     string `validate:"required,max=255"`
	ContentType  string
	Content      []byte `validate:"required,min=1"`
}
