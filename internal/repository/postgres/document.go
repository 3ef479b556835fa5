package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
)

const documentColumns = `
	id, owner_id, document_type, storage_url, verification_status,
	category, description, created_at, updated_at`

type documentRepository struct {
	BaseRepository
}

func NewDocumentRepository(base BaseRepository) repository.DocumentRepository {
	return &documentRepository{base}
}

func insertDocument(ctx context.Context, exec sqlx.ExecerContext, doc *model.UploadedDocument) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := exec.ExecContext(ctx, query,
		doc.ID,
		doc.OwnerID,
		doc.DocumentType,
		doc.StorageURL,
		doc.Status,
		doc.Category,
		doc.Description,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *documentRepository) Create(ctx context.Context, doc *model.UploadedDocument) error {
	return insertDocument(ctx, r.db, doc)
}

func (r *documentRepository) Get(ctx context.Context, id uuid.UUID) (*model.UploadedDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	var doc model.UploadedDocument
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, notFoundOr(err, "document", "get document")
	}
	return &doc, nil
}

func (r *documentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*model.UploadedDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE owner_id = $1 ORDER BY created_at DESC`

	var docs []*model.UploadedDocument
	if err := r.db.SelectContext(ctx, &docs, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

func (r *documentRepository) ListTypesByOwner(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	query := `SELECT DISTINCT document_type FROM documents WHERE owner_id = $1 ORDER BY document_type`

	var types []string
	if err := r.db.SelectContext(ctx, &types, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list document types: %w", err)
	}
	return types, nil
}

func (r *documentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DocumentStatus, at time.Time) error {
	query := `UPDATE documents SET verification_status = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, status, at, id)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return requireRow(res, "document")
}
