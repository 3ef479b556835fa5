package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionCreate         = "create"
	AuditActionUpdate         = "update"
	AuditActionDeactivate     = "deactivate"
	AuditActionLetterGenerate = "letter_generate"
	AuditActionLetterVerify   = "letter_verify"
	AuditActionDocumentStatus = "document_status"

	// Entity types
	AuditEntityApplication = "visa_application"
	AuditEntityCountry     = "country_requirement"
	AuditEntityDocument    = "document"
)

type AuditFilter struct {
	EntityType string
	EntityID   uuid.UUID
	UserID     uuid.UUID
	Pagination
}
