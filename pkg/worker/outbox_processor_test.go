package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository/memory"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
)

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	topics []string
}

func (p *fakePublisher) Publish(_ context.Context, channel string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, channel)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		LeaseDuration: 30 * time.Second,
	}
}

func setup(t *testing.T, pub *fakePublisher) (*memory.Store, *memory.OutboxRepository, *OutboxProcessor, *clock) {
	t.Helper()
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := memory.NewStore()
	repo := store.Outbox()
	repo.Now = clk.now

	p, err := NewOutboxProcessor(repo, pub, testConfig(), logger.NewNop(), metrics.New("test"))
	require.NoError(t, err)
	p.now = clk.now
	return store, repo, p, clk
}

func addEvent(t *testing.T, repo *memory.OutboxRepository, eventType string, at time.Time) *model.OutboxEvent {
	t.Helper()
	ev, err := model.NewOutboxEvent(eventType, uuid.New(), map[string]string{"k": "v"}, at)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), ev))
	return ev
}

func statusOf(store *memory.Store, id uuid.UUID) model.OutboxEvent {
	for _, e := range store.OutboxEvents() {
		if e.ID == id {
			return e
		}
	}
	return model.OutboxEvent{}
}

func TestNewOutboxProcessorRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LeaseDuration = 0
	_, err := NewOutboxProcessor(memory.NewStore().Outbox(), &fakePublisher{}, cfg, logger.NewNop(), metrics.New("test"))
	assert.Error(t, err)
}

func TestProcessOncePublishesByEventType(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	store, repo, p, clk := setup(t, pub)

	submitted := addEvent(t, repo, model.EventApplicationSubmitted, clk.t)
	advanced := addEvent(t, repo, model.EventApplicationAdvanced, clk.t.Add(time.Millisecond))

	n, err := p.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{model.EventApplicationSubmitted, model.EventApplicationAdvanced}, pub.topics)
	assert.Equal(t, model.OutboxStatusProcessed, statusOf(store, submitted.ID).Status)
	assert.Equal(t, model.OutboxStatusProcessed, statusOf(store, advanced.ID).Status)

	n, err = p.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessOnceRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	store, repo, p, clk := setup(t, pub)
	ev := addEvent(t, repo, model.EventLetterGenerated, clk.t)

	_, err := p.ProcessOnce(ctx)
	require.NoError(t, err)
	got := statusOf(store, ev.ID)
	assert.Equal(t, model.OutboxStatusPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	assert.Equal(t, clk.t.Add(time.Second), got.NextAttemptAt)

	n, err := p.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "not due before its backoff")

	clk.advance(time.Second)
	_, err = p.ProcessOnce(ctx)
	require.NoError(t, err)
	got = statusOf(store, ev.ID)
	assert.Equal(t, 2, got.RetryCount)
	assert.Equal(t, clk.t.Add(2*time.Second), got.NextAttemptAt)

	clk.advance(2 * time.Second)
	_, err = p.ProcessOnce(ctx)
	require.NoError(t, err)
	got = statusOf(store, ev.ID)
	assert.Equal(t, model.OutboxStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "broker down", *got.ErrorMessage)
}

func TestClaimLeaseHidesInFlightEvents(t *testing.T) {
	ctx := context.Background()
	_, repo, _, clk := setup(t, &fakePublisher{})
	addEvent(t, repo, model.EventApplicationApproved, clk.t)

	claimed, err := repo.ClaimPending(ctx, 10, clk.t.Add(30*time.Second))
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	again, err := repo.ClaimPending(ctx, 10, clk.t.Add(30*time.Second))
	require.NoError(t, err)
	assert.Empty(t, again)

	clk.advance(31 * time.Second)
	expired, err := repo.ClaimPending(ctx, 10, clk.t.Add(30*time.Second))
	require.NoError(t, err)
	assert.Len(t, expired, 1, "an abandoned lease becomes claimable again")
}

func TestOutboxCleanup(t *testing.T) {
	ctx := context.Background()
	store, repo, p, clk := setup(t, &fakePublisher{})
	addEvent(t, repo, model.EventApplicationSubmitted, clk.t)
	_, err := p.ProcessOnce(ctx)
	require.NoError(t, err)

	w := NewOutboxCleanupWorker(repo, time.Hour, time.Minute, nil)
	w.now = clk.now

	n, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.advance(2 * time.Hour)
	n, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Empty(t, store.OutboxEvents())
}
