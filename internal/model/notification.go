package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationApplicationSubmitted NotificationType = "visa_application_submitted"
	NotificationStageChanged         NotificationType = "visa_stage_changed"
	NotificationApplicationRejected  NotificationType = "visa_application_rejected"
	NotificationApplicationApproved  NotificationType = "visa_application_approved"
	NotificationLetterReady          NotificationType = "visa_letter_ready"
)

// Notification is the message handed to the delivery sink.
type Notification struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	UserID    uuid.UUID        `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Link      string           `db:"link" json:"link"`
	Read      bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
