package model

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type CountryRequirement struct {
	Base
	CountryCode       string          `db:"country_code" json:"country_code"`
	CountryName       string          `db:"country_name" json:"country_name"`
	VisaType          string          `db:"visa_type" json:"visa_type"`
	RequiredDocuments pq.StringArray  `db:"required_documents" json:"required_documents"`
	ProcessingDays    int             `db:"processing_days" json:"processing_days"`
	ValidityDays      int             `db:"validity_days" json:"validity_days"`
	ExtensionAllowed  bool            `db:"extension_allowed" json:"extension_allowed"`
	Fee               decimal.Decimal `db:"fee_usd" json:"fee_usd"`
	Notes             string          `db:"notes" json:"notes"`
	IsActive          bool            `db:"is_active" json:"is_active"`
}

type CountryRequirementRequest struct {
	CountryCode       string          `json:"country_code" binding:"required"`
	CountryName       string          `json:"country_name" binding:"required"`
	VisaType          string          `json:"visa_type" binding:"required"`
	RequiredDocuments []string        `json:"required_documents"`
	ProcessingDays    int             `json:"processing_days"`
	ValidityDays      int             `json:"validity_days"`
	ExtensionAllowed  bool            `json:"extension_allowed"`
	Fee               decimal.Decimal `json:"fee_usd"`
	Notes             string          `json:"notes"`
}
