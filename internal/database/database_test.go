package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/scythe504/pp-backend/internal"
)

func mustStartPostgresContainer(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("journal tests need docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	dbContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pp"),
		postgres.WithUsername("pp"),
		postgres.WithPassword("pp"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := dbContainer.Terminate(context.Background()); err != nil {
			t.Logf("could not stop postgres container: %v", err)
		}
	})

	dsn, err := dbContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestJournal(t *testing.T) {
	dsn := mustStartPostgresContainer(t)
	ctx := context.Background()

	srv, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	// Running the migration twice must be harmless.
	again, err := New(ctx, dsn)
	require.NoError(t, err)
	again.Close()

	health := srv.Health(ctx)
	assert.Equal(t, "up", health["status"])

	room := internal.NewRoom("Sprint 42", nil).Next(1)
	require.NoError(t, srv.Record(ctx, room, []internal.LogEntry{internal.Info("User Alice joined")}))

	room = room.Next(2)
	require.NoError(t, srv.Record(ctx, room, []internal.LogEntry{
		internal.Chat("[Alice]: hi"),
		internal.Broadcast(`{"confetti":true}`),
	}))
	require.NoError(t, srv.Record(ctx, room, nil))
	require.NoError(t, srv.Record(ctx, internal.NewRoom("other", nil).Next(1), []internal.LogEntry{internal.Info("User Bob joined")}))

	events, err := srv.Events(ctx, "Sprint 42")
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, uint64(1), events[0].RoomVersion)
	assert.Equal(t, internal.LevelInfo, events[0].Level)
	assert.Equal(t, "User Alice joined", events[0].Message)

	assert.Equal(t, uint64(2), events[1].RoomVersion)
	assert.Equal(t, internal.LevelChat, events[1].Level)
	assert.Equal(t, internal.LevelClientBroadcast, events[2].Level)
	assert.WithinDuration(t, time.Now(), events[2].RecordedAt, time.Minute)
}

func TestJournalOrdersByVersion(t *testing.T) {
	dsn := mustStartPostgresContainer(t)
	ctx := context.Background()

	srv, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	// Journal writes run concurrently, a later version can land first.
	room := internal.NewRoom("late", nil)
	require.NoError(t, srv.Record(ctx, room.Next(2), []internal.LogEntry{internal.Chat("[Alice]: second")}))
	require.NoError(t, srv.Record(ctx, room.Next(1), []internal.LogEntry{
		internal.Info("User Alice joined"),
		internal.Chat("[Alice]: first"),
	}))

	events, err := srv.Events(ctx, "late")
	require.NoError(t, err)
	require.Len(t, events, 3)

	var messages []string
	for _, e := range events {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{"User Alice joined", "[Alice]: first", "[Alice]: second"}, messages)
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New(context.Background(), "not a url ://")
	require.Error(t, err)
}
