package model

import (
	"time"

	"github.com/google/uuid"
)

type Attendant struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ApplicationID  uuid.UUID `db:"application_id" json:"application_id"`
	FullName       string    `db:"full_name" json:"full_name"`
	Relationship   string    `db:"relationship" json:"relationship"`
	PassportNumber string    `db:"passport_number" json:"passport_number"`
	PassportExpiry time.Time `db:"passport_expiry" json:"passport_expiry"`
	DateOfBirth    time.Time `db:"date_of_birth" json:"date_of_birth"`
	Nationality    string    `db:"nationality" json:"nationality"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
