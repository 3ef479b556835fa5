package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

const countryColumns = `
	id, country_code, country_name, visa_type, required_documents,
	processing_days, validity_days, extension_allowed, fee_usd, notes,
	is_active, created_at, updated_at`

type countryRequirementRepository struct {
	BaseRepository
}

func NewCountryRequirementRepository(base BaseRepository) repository.CountryRequirementRepository {
	return &countryRequirementRepository{base}
}

func (r *countryRequirementRepository) Create(ctx context.Context, req *model.CountryRequirement) error {
	query := `
		INSERT INTO country_requirements (` + countryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.CountryCode,
		req.CountryName,
		req.VisaType,
		req.RequiredDocuments,
		req.ProcessingDays,
		req.ValidityDays,
		req.ExtensionAllowed,
		req.Fee,
		req.Notes,
		req.IsActive,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.Conflict(fmt.Sprintf("an active requirement for %s already exists", req.CountryCode), err)
	}
	if err != nil {
		return fmt.Errorf("failed to create country requirement: %w", err)
	}
	return nil
}

func (r *countryRequirementRepository) Update(ctx context.Context, req *model.CountryRequirement) error {
	query := `
		UPDATE country_requirements
		SET country_code = $1, country_name = $2, visa_type = $3, required_documents = $4,
			processing_days = $5, validity_days = $6, extension_allowed = $7, fee_usd = $8,
			notes = $9, updated_at = $10
		WHERE id = $11
	`
	res, err := r.db.ExecContext(ctx, query,
		req.CountryCode,
		req.CountryName,
		req.VisaType,
		req.RequiredDocuments,
		req.ProcessingDays,
		req.ValidityDays,
		req.ExtensionAllowed,
		req.Fee,
		req.Notes,
		req.UpdatedAt,
		req.ID,
	)
	if isUniqueViolation(err) {
		return apperrors.Conflict(fmt.Sprintf("an active requirement for %s already exists", req.CountryCode), err)
	}
	if err != nil {
		return fmt.Errorf("failed to update country requirement: %w", err)
	}
	return requireRow(res, "country requirement")
}

func (r *countryRequirementRepository) Get(ctx context.Context, id uuid.UUID) (*model.CountryRequirement, error) {
	query := `SELECT ` + countryColumns + ` FROM country_requirements WHERE id = $1`

	var req model.CountryRequirement
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, notFoundOr(err, "country requirement", "get country requirement")
	}
	return &req, nil
}

func (r *countryRequirementRepository) GetActiveByCode(ctx context.Context, code string) (*model.CountryRequirement, error) {
	query := `SELECT ` + countryColumns + ` FROM country_requirements WHERE country_code = $1 AND is_active`

	var req model.CountryRequirement
	if err := r.db.GetContext(ctx, &req, query, code); err != nil {
		return nil, notFoundOr(err, "country requirement", "get country requirement")
	}
	return &req, nil
}

func (r *countryRequirementRepository) List(ctx context.Context, activeOnly bool) ([]*model.CountryRequirement, error) {
	query := `SELECT ` + countryColumns + ` FROM country_requirements`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY country_name, created_at`

	var reqs []*model.CountryRequirement
	if err := r.db.SelectContext(ctx, &reqs, query); err != nil {
		return nil, fmt.Errorf("failed to list country requirements: %w", err)
	}
	return reqs, nil
}

func (r *countryRequirementRepository) Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE country_requirements
		SET is_active = FALSE, updated_at = $1
		WHERE id = $2
	`
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate country requirement: %w", err)
	}
	return requireRow(res, "country requirement")
}
