package document

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/memory"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/audit"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/authz"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/blob"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/blob/mocks"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

func newService(store *memory.Store, blobs blob.Store) *Service {
	return NewService(store.Documents(), blobs, authz.NewAuthorizer(store.Bookings()), audit.NewService(store.Audit()), 0, nil)
}

func passportUpload(owner uuid.UUID) *model.UploadDocumentInput {
	return &model.UploadDocumentInput{
		OwnerID:      owner,
		DocumentType: model.DocPassport,
		FileName:     "passport.pdf",
		ContentType:  "application/pdf",
		Content:      []byte("%PDF-1.4"),
	}
}

func TestUploadStoresBlobThenRow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	blobs := blob.NewMemoryStore("")
	svc := newService(store, blobs)
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	doc, err := svc.Upload(ctx, patient, passportUpload(patient.ID))
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusPending, doc.Status)
	assert.Contains(t, doc.StorageURL, patient.ID.String())
	assert.Equal(t, 1, blobs.Len())

	types, err := store.Documents().ListTypesByOwner(ctx, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{model.DocPassport}, types)
}

func TestUploadFailureWritesNoRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	blobs := mocks.NewMockStore(ctrl)
	blobs.EXPECT().
		Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), "application/pdf").
		Return("", errors.New("bucket unavailable"))

	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store, blobs)
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	_, err := svc.Upload(ctx, patient, passportUpload(patient.ID))
	require.Error(t, err)

	docs, err := store.Documents().ListByOwner(ctx, patient.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUploadRejections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store, blob.NewMemoryStore(""))
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}

	in := passportUpload(uuid.New())
	_, err := svc.Upload(ctx, patient, in)
	assert.True(t, apperrors.IsForbidden(err))

	in = passportUpload(patient.ID)
	in.DocumentType = "selfie"
	_, err = svc.Upload(ctx, patient, in)
	assert.True(t, apperrors.IsValidation(err))

	in = passportUpload(patient.ID)
	in.DocumentType = model.DocVisaInvitationLetter
	_, err = svc.Upload(ctx, patient, in)
	assert.True(t, apperrors.IsValidation(err), "letters are only written by the generator")

	in = passportUpload(patient.ID)
	in.Content = nil
	_, err = svc.Upload(ctx, patient, in)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSetStatusRequiresAdminAndAudits(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store, blob.NewMemoryStore(""))
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	admin := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	doc, err := svc.Upload(ctx, patient, passportUpload(patient.ID))
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, patient, doc.ID, model.DocumentStatusVerified)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.SetStatus(ctx, admin, doc.ID, "approved")
	assert.True(t, apperrors.IsValidation(err))

	updated, err := svc.SetStatus(ctx, admin, doc.ID, model.DocumentStatusVerified)
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusVerified, updated.Status)

	logs, err := store.Audit().List(ctx, model.AuditFilter{EntityID: doc.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionDocumentStatus, logs[0].Action)
}

func TestListByOwnerScopesHospitals(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := newService(store, blob.NewMemoryStore(""))
	patient := model.Actor{ID: uuid.New(), Role: model.RolePatient}
	hospital := model.Actor{ID: uuid.New(), Role: model.RoleHospital}

	_, err := svc.Upload(ctx, patient, passportUpload(patient.ID))
	require.NoError(t, err)

	_, err = svc.ListByOwner(ctx, hospital, patient.ID)
	assert.True(t, apperrors.IsForbidden(err))

	store.AddBooking(model.Booking{ID: uuid.New(), PatientID: patient.ID, HospitalID: hospital.ID, Status: "confirmed"})
	docs, err := svc.ListByOwner(ctx, hospital, patient.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
