package document

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/checklist"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/blob"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/validator"
)

const DefaultUploadTimeout = 30 * time.Second

type Service struct {
	repo          repository.DocumentRepository
	blobs         blob.Store
	authz         *authz.Authorizer
	auditor       *audit.Service
	validate      validator.Validator
	logger        *logger.Logger
	uploadTimeout time.Duration
	now           func() time.Time
}

func NewService(repo repository.DocumentRepository, blobs blob.Store, az *authz.Authorizer, auditor *audit.Service, uploadTimeout time.Duration, log *logger.Logger) *Service {
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:          repo,
		blobs:         blobs,
		authz:         az,
		auditor:       auditor,
		validate:      validator.Default(),
		logger:        log,
		uploadTimeout: uploadTimeout,
		now:           time.Now,
	}
}

// Upload stores the file in the blob store and then records it. Patients
// upload for themselves; admins may upload on a patient's behalf.
func (s *Service) Upload(ctx context.Context, actor model.Actor, in *model.UploadDocumentInput) (*model.UploadedDocument, error) {
	if in.OwnerID == uuid.Nil {
		in.OwnerID = actor.ID
	}
	if !actor.IsAdmin() && (actor.Role != model.RolePatient || actor.ID != in.OwnerID) {
		return nil, apperrors.Forbidden("documents can only be uploaded by their owner")
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	if !checklist.ValidTag(in.DocumentType) {
		return nil, apperrors.Validationf("unknown document type %q", in.DocumentType)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()
	url, err := s.blobs.Upload(uploadCtx, in.OwnerID, blob.DocumentKey(in.DocumentType, in.FileName), in.Content, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	now := s.now()
	doc := &model.UploadedDocument{
		ID:           uuid.New(),
		OwnerID:      in.OwnerID,
		DocumentType: in.DocumentType,
		StorageURL:   url,
		Status:       model.DocumentStatusPending,
		Category:     in.Category,
		Description:  in.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		// the blob stays behind; orphaned objects are harmless
		s.logger.Error(err, "Failed to record uploaded document", "owner_id", in.OwnerID.String(), "url", url)
		return nil, err
	}
	return doc, nil
}

func (s *Service) ListByOwner(ctx context.Context, actor model.Actor, ownerID uuid.UUID) ([]*model.UploadedDocument, error) {
	if err := s.authz.CanViewPatient(ctx, actor, ownerID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*model.UploadedDocument{}
	}
	return docs, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.UploadedDocument, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanViewPatient(ctx, actor, doc.OwnerID); err != nil {
		return nil, err
	}
	return doc, nil
}

// SetStatus records an administrator's verification decision.
func (s *Service) SetStatus(ctx context.Context, actor model.Actor, id uuid.UUID, status model.DocumentStatus) (*model.UploadedDocument, error) {
	if err := authz.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.Validationf("invalid document status %q", status)
	}
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := doc.Status
	now := s.now()
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		return nil, err
	}
	doc.Status = status
	doc.UpdatedAt = now

	if s.auditor != nil {
		changes := map[string]interface{}{"from": prev, "to": status}
		if err := s.auditor.Log(ctx, actor.ID, model.AuditActionDocumentStatus, model.AuditEntityDocument, id, changes); err != nil {
			s.logger.Error(err, "Failed to audit document status change", "document_id", id.String())
		}
	}
	return doc, nil
}
