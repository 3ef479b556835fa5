package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types relayed from the outbox.
const (
	EventApplicationSubmitted = "visa.application.submitted"
	EventApplicationAdvanced  = "visa.application.advanced"
	EventApplicationRejected  = "visa.application.rejected"
	EventApplicationApproved  = "visa.application.approved"
	EventLetterGenerated      = "visa.letter.generated"
	EventLetterVerified       = "visa.letter.verified"
)

type OutboxEvent struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	AggregateID   uuid.UUID       `db:"aggregate_id" json:"aggregate_id"`
	EventType     string          `db:"event_type" json:"event_type"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	Status        OutboxStatus    `db:"status" json:"status"`
	ErrorMessage  *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount    int             `db:"retry_count" json:"retry_count"`
	NextAttemptAt time.Time       `db:"next_attempt_at" json:"next_attempt_at"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt   *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
}

// WorkflowEvent is the payload of every visa.application.* event.
type WorkflowEvent struct {
	ApplicationID uuid.UUID     `json:"application_id"`
	PatientID     uuid.UUID     `json:"patient_id"`
	FromStage     WorkflowStage `json:"from_stage,omitempty"`
	ToStage       WorkflowStage `json:"to_stage"`
	Note          string        `json:"note,omitempty"`
	PerformedBy   uuid.UUID     `json:"performed_by"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

// NewOutboxEvent marshals payload into a pending event.
func NewOutboxEvent(eventType string, aggregateID uuid.UUID, payload interface{}, now time.Time) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:            uuid.New(),
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
		Status:        OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}, nil
}

// LetterEvent is the payload of every visa.letter.* event.
type LetterEvent struct {
	ApplicationID uuid.UUID    `json:"application_id"`
	PatientID     uuid.UUID    `json:"patient_id"`
	DocumentID    uuid.UUID    `json:"document_id,omitempty"`
	LetterStatus  LetterStatus `json:"letter_status"`
	PerformedBy   uuid.UUID    `json:"performed_by"`
	OccurredAt    time.Time    `json:"occurred_at"`
}
