package publisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "irdesk/pkg/platform/audit"
	"irdesk/pkg/platform/audit/store/memory"
)

type failingStore struct{ *memory.InMemoryStore }

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	err := pub.Emit(context.Background(), audit.Event{
		ApplicantID: "app-1",
		Action:      string(audit.EventApplicantRegistered),
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "app-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventApplicantRegistered), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category)
}

func TestPublisher_SyncModeReturnsStoreErrors(t *testing.T) {
	pub := NewPublisher(failingStore{})
	err := pub.Emit(context.Background(), audit.Event{ApplicantID: "app-1", Action: "x"})
	assert.EqualError(t, err, "disk full")
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			ApplicantID: "app-1",
			Action:      string(audit.EventCodeIssued),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByApplicant(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_AsyncNeverBlocks(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{ApplicantID: "app-1", Action: "x"})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_EmitAfterClose(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	pub.Close()
	pub.Close()
	assert.Error(t, pub.Emit(context.Background(), audit.Event{ApplicantID: "app-1"}))
}

func TestPublisher_CancelledContext(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.Emit(ctx, audit.Event{ApplicantID: "app-1"}), context.Canceled)
}

func TestPublisher_Timestamps(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)

	t.Run("sets missing timestamp", func(t *testing.T) {
		before := time.Now()
		require.NoError(t, pub.Emit(context.Background(), audit.Event{ApplicantID: "a", Action: "x"}))
		after := time.Now()

		events, err := pub.List(context.Background(), "a")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.Before(before))
		assert.False(t, events[0].Timestamp.After(after))
	})

	t.Run("preserves existing timestamp", func(t *testing.T) {
		custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, pub.Emit(context.Background(), audit.Event{ApplicantID: "b", Action: "x", Timestamp: custom}))

		events, err := pub.List(context.Background(), "b")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, custom, events[0].Timestamp)
	})
}

func TestEventCategory(t *testing.T) {
	assert.Equal(t, audit.CategorySecurity, audit.EventApplicantLocked.Category())
	assert.Equal(t, audit.CategoryOperations, audit.EventCodeIssued.Category())
	assert.Equal(t, audit.CategoryOperations, audit.AuditEvent("unknown").Category())
}
