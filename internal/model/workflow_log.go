package model

import (
	"time"

	"github.com/google/uuid"
)

// Workflow log actions.
const (
	ActionApplicationSubmitted = "application_submitted"
	ActionStageAdvanced        = "stage_advanced"
	ActionApplicationRejected  = "application_rejected"
	ActionApplicationApproved  = "application_approved"
)

// WorkflowLogEntry is one append-only row of an application's history.
// Stage is the stage the application holds after the action.
type WorkflowLogEntry struct {
	Seq           int64         `db:"seq" json:"seq"`
	ID            uuid.UUID     `db:"id" json:"id"`
	ApplicationID uuid.UUID     `db:"application_id" json:"application_id"`
	Stage         WorkflowStage `db:"stage" json:"stage"`
	Action        string        `db:"action" json:"action"`
	Note          string        `db:"note" json:"note"`
	PerformedBy   uuid.UUID     `db:"performed_by" json:"performed_by"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// StageTransition describes one conditional stage update and the rows that
// must commit with it.
type StageTransition struct {
	ApplicationID   uuid.UUID
	FromStage       WorkflowStage
	ExpectedVersion int64
	ToStage         WorkflowStage
	Status          ApplicationStatus
	RejectionReason *string
	At              time.Time
	Entry           *WorkflowLogEntry
	Event           *OutboxEvent
}

// LetterTransition moves an application's letter status. Document is set
// when a newly generated letter must be recorded in the same unit of work.
type LetterTransition struct {
	ApplicationID   uuid.UUID
	ExpectedStage   WorkflowStage
	ExpectedVersion int64
	From            LetterStatus
	To              LetterStatus
	At              time.Time
	Document        *UploadedDocument
	Audit           *AuditLog
	Event           *OutboxEvent
}
