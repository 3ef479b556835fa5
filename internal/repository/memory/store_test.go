package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

var (
	_ repository.CountryRequirementRepository = (*CountryRequirementRepository)(nil)
	_ repository.ApplicationRepository        = (*ApplicationRepository)(nil)
	_ repository.DocumentRepository           = (*DocumentRepository)(nil)
	_ repository.BookingRepository            = (*BookingRepository)(nil)
	_ repository.OutboxRepository             = (*OutboxRepository)(nil)
	_ repository.AuditRepository              = (*AuditRepository)(nil)
	_ repository.NotificationRepository       = (*NotificationRepository)(nil)
)

func newApplication(now time.Time) *model.VisaApplication {
	return &model.VisaApplication{
		Base:          model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		PatientID:     uuid.New(),
		WorkflowStage: model.StageDocumentsUploaded,
		Status:        model.ApplicationStatusPending,
		LetterStatus:  model.LetterNotGenerated,
		Version:       1,
	}
}

func TestTransitionIsConditional(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := store.Applications()
	now := time.Now()
	app := newApplication(now)

	entry := &model.WorkflowLogEntry{ID: uuid.New(), ApplicationID: app.ID, Stage: model.StageDocumentsUploaded}
	require.NoError(t, repo.Create(ctx, app, nil, entry, nil))

	first := &model.StageTransition{
		ApplicationID:   app.ID,
		FromStage:       model.StageDocumentsUploaded,
		ExpectedVersion: 1,
		ToStage:         model.StageAdminVerification,
		Status:          model.ApplicationStatusPending,
		At:              now,
		Entry:           &model.WorkflowLogEntry{ID: uuid.New(), ApplicationID: app.ID, Stage: model.StageAdminVerification},
	}
	require.NoError(t, repo.Transition(ctx, first))

	stale := *first
	stale.ToStage = model.StageRejected
	stale.Entry = &model.WorkflowLogEntry{ID: uuid.New(), ApplicationID: app.ID, Stage: model.StageRejected}
	err := repo.Transition(ctx, &stale)
	assert.True(t, apperrors.IsConflict(err))

	got, err := repo.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StageAdminVerification, got.WorkflowStage)
	assert.Equal(t, int64(2), got.Version)

	entries, err := repo.ListLog(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Less(t, entries[0].Seq, entries[1].Seq)
}

func TestActiveCountryCodeIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Countries()

	us := &model.CountryRequirement{Base: model.Base{ID: uuid.New()}, CountryCode: "US", IsActive: true}
	require.NoError(t, repo.Create(ctx, us))

	dup := &model.CountryRequirement{Base: model.Base{ID: uuid.New()}, CountryCode: "US", IsActive: true}
	assert.True(t, apperrors.IsConflict(repo.Create(ctx, dup)))

	require.NoError(t, repo.Deactivate(ctx, us.ID, time.Now()))
	assert.NoError(t, repo.Create(ctx, dup))

	active, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, dup.ID, active[0].ID)
}

func TestClaimPendingLeasesEvents(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Outbox()
	now := time.Now()
	repo.Now = func() time.Time { return now }

	evt, err := model.NewOutboxEvent(model.EventApplicationSubmitted, uuid.New(), map[string]string{"k": "v"}, now.Add(-time.Second))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, evt))

	claimed, err := repo.ClaimPending(ctx, 10, now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	again, err := repo.ClaimPending(ctx, 10, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, repo.MarkProcessed(ctx, evt.ID, now))
	n, err := repo.DeleteProcessedBefore(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
