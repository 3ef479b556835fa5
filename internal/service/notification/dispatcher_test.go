package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/memory"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
)

type recordingPublisher struct {
	mu      sync.Mutex
	block   chan struct{}
	err     error
	channel string
	got     []model.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, message interface{}) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channel = channel
	p.got = append(p.got, message.(model.Notification))
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestDispatcherPublishesAndDrains(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, Config{Channel: "alerts", BufferSize: 4}, nil, metrics.New("test"))
	d.Start()

	user := uuid.New()
	d.Notify(context.Background(), model.Notification{UserID: user, Type: model.NotificationStageChanged})
	require.NoError(t, d.Close(context.Background()))

	require.Equal(t, 1, pub.count())
	assert.Equal(t, "alerts", pub.channel)
	assert.Equal(t, user, pub.got[0].UserID)
	assert.NotEqual(t, uuid.Nil, pub.got[0].ID)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	d := NewDispatcher(pub, Config{BufferSize: 1}, nil, nil)
	d.Start()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			d.Notify(context.Background(), model.Notification{UserID: uuid.New()})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	close(pub.block)
	require.NoError(t, d.Close(context.Background()))
	assert.LessOrEqual(t, pub.count(), 2)
}

func TestDispatcherSwallowsPublishErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(pub, Config{}, nil, nil)
	d.Start()

	d.Notify(context.Background(), model.Notification{UserID: uuid.New()})
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 1, pub.count())

	d.Notify(context.Background(), model.Notification{UserID: uuid.New()})
	assert.Equal(t, 1, pub.count())
}

func TestRecordPersistsBrokerPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := messaging.NewInMemoryBroker(8)
	svc := NewService(memory.NewStore().Notifications())
	adapter := messaging.NewBrokerAdapter(broker, nil)
	require.NoError(t, adapter.Subscribe(ctx, DefaultChannel, func(b []byte) error {
		return svc.Record(ctx, b)
	}))

	d := NewDispatcher(broker, Config{}, nil, nil)
	d.Start()
	user := uuid.New()
	d.Notify(ctx, model.Notification{UserID: user, Type: model.NotificationLetterReady, Title: "Invitation letter"})
	require.NoError(t, d.Close(ctx))

	require.Eventually(t, func() bool {
		list, err := svc.ListForUser(ctx, user, model.Pagination{})
		return err == nil && len(list) == 1
	}, time.Second, 10*time.Millisecond)

	list, err := svc.ListForUser(ctx, user, model.Pagination{})
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(ctx, list[0].ID, user))

	assert.Error(t, svc.Record(ctx, []byte(`{"title":"no recipient"}`)))
	raw, _ := json.Marshal(model.Notification{UserID: user})
	assert.NoError(t, svc.Record(ctx, raw))
}
