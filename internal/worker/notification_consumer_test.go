package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/memory"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/notification"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging"
)

func TestNotificationConsumerRecordsInbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := memory.NewStore()
	inbox := notification.NewService(store.Notifications())
	broker := messaging.NewInMemoryBroker(8)
	defer broker.Close()

	consumer := NewNotificationConsumer(messaging.NewBrokerAdapter(broker, nil), notification.DefaultChannel, inbox, nil)
	require.NoError(t, consumer.Start(ctx))

	userID := uuid.New()
	require.NoError(t, broker.Publish(ctx, notification.DefaultChannel, model.Notification{
		ID:     uuid.New(),
		UserID: userID,
		Type:   model.NotificationStageChanged,
		Title:  "Visa application updated",
	}))
	// a malformed payload is logged and skipped
	require.NoError(t, broker.Publish(ctx, notification.DefaultChannel, "not a notification"))

	assert.Eventually(t, func() bool {
		list, err := inbox.ListForUser(ctx, userID, model.Pagination{})
		return err == nil && len(list) == 1
	}, time.Second, 10*time.Millisecond)
}
