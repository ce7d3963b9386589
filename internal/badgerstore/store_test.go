package badgerstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sessionhub/internal/logger"
	"sessionhub/internal/storetest"
	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Options{InMemory: true}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SessionStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) interfaces.SessionStore {
		return openMemory(t)
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	store, err := Open(Options{Path: dir}, logger.Discard())
	require.NoError(t, err)
	session := storetest.NewSession("host-1", time.Now().UTC())
	require.NoError(t, store.CreateSession(ctx, session))
	_, err = store.SetParticipant(ctx, session.ID, "guest-1")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(Options{Path: dir}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, "guest-1", *got.ParticipantID)

	// The call id reservation survives too.
	dup := storetest.NewSession("host-2", time.Now().UTC())
	dup.CallID = session.CallID
	require.ErrorIs(t, reopened.CreateSession(ctx, dup), interfaces.ErrCallIDConflict)
}

func TestStore_UpdatedAtAdvances(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	completedAt := created.Add(time.Hour)
	store.now = func() time.Time { return completedAt }

	session := storetest.NewSession("host-1", created)
	require.NoError(t, store.CreateSession(ctx, session))

	done, err := store.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, done.Status)
	require.Equal(t, created, done.CreatedAt)
	require.Equal(t, completedAt, done.UpdatedAt)
}

func TestStore_ClosedStore(t *testing.T) {
	store, err := Open(Options{InMemory: true}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	require.ErrorIs(t, store.HealthCheck(context.Background()), interfaces.ErrStoreClosed)
}

func TestStore_HonoursContext(t *testing.T) {
	store := openMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.CreateSession(ctx, storetest.NewSession("host-1", time.Now())), context.Canceled)
	_, err := store.GetSession(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
	_, err = store.ListActiveSessions(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
}
