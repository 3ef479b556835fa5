package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/memory"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

func TestAuthorizerScopes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	patient := uuid.New()
	linked := uuid.New()
	store.AddBooking(model.Booking{ID: uuid.New(), PatientID: patient, HospitalID: linked})

	a := NewAuthorizer(store.Bookings())
	app := &model.VisaApplication{PatientID: patient}

	tests := []struct {
		name       string
		actor      model.Actor
		viewErr    bool
		processErr bool
	}{
		{"owner patient", model.Actor{ID: patient, Role: model.RolePatient}, false, true},
		{"other patient", model.Actor{ID: uuid.New(), Role: model.RolePatient}, true, true},
		{"linked hospital", model.Actor{ID: linked, Role: model.RoleHospital}, false, false},
		{"unlinked hospital", model.Actor{ID: uuid.New(), Role: model.RoleHospital}, true, true},
		{"admin", model.Actor{ID: uuid.New(), Role: model.RoleAdmin}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.CanView(ctx, tt.actor, app)
			assert.Equal(t, tt.viewErr, apperrors.IsForbidden(err))

			err = a.CanProcess(ctx, tt.actor, app)
			assert.Equal(t, tt.processErr, apperrors.IsForbidden(err))
		})
	}
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFrom(context.Background())
	assert.False(t, ok)

	actor := model.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	got, ok := ActorFrom(WithActor(context.Background(), actor))
	assert.True(t, ok)
	assert.Equal(t, actor, got)
}
