package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "beamgate/pkg/platform/audit"
	"beamgate/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	event := audit.Event{
		ID:           uuid.New(),
		Timestamp:    time.Now(),
		BeamLineName: "i24",
		DetectorID:   58,
		Outcome:      "approved",
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "i24")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "approved", events[0].Outcome)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	for range 10 {
		event := audit.Event{
			ID:           uuid.New(),
			BeamLineName: "i24",
			Outcome:      "rejected",
			Violations:   2,
		}
		require.NoError(t, pub.Emit(context.Background(), event))
	}

	pub.Close()

	events, err := pub.List(context.Background(), "i24")
	require.NoError(t, err)
	assert.Len(t, events, 10)
}
