// Package storetest is the behavioural contract every interfaces.SessionStore
// backend must satisfy. Backend packages call Run from their tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

// Factory opens an empty store; cleanup is registered on t.
type Factory func(t *testing.T) interfaces.SessionStore

var base = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

// NewSession builds a valid active session hosted by hostID.
func NewSession(hostID string, createdAt time.Time) *types.Session {
	id := uuid.New().String()
	return &types.Session{
		ID:         id,
		CallID:     "session_" + id,
		Problem:    "Reverse a linked list",
		Difficulty: types.DifficultyMedium,
		Status:     types.StatusActive,
		HostID:     hostID,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

// Run executes the whole contract against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, open(t)) })
	t.Run("CallIDUnique", func(t *testing.T) { testCallIDUnique(t, open(t)) })
	t.Run("RejectsInvalidSession", func(t *testing.T) { testRejectsInvalid(t, open(t)) })
	t.Run("SetParticipant", func(t *testing.T) { testSetParticipant(t, open(t)) })
	t.Run("CompleteSession", func(t *testing.T) { testCompleteSession(t, open(t)) })
	t.Run("ListActive", func(t *testing.T) { testListActive(t, open(t)) })
	t.Run("ListCompletedForUser", func(t *testing.T) { testListCompleted(t, open(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("ConcurrentSetParticipant", func(t *testing.T) { testConcurrentSetParticipant(t, open(t)) })
	t.Run("HealthCheck", func(t *testing.T) {
		require.NoError(t, open(t).HealthCheck(context.Background()))
	})
}

func testCreateAndGet(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()
	session := NewSession("host-1", base)
	require.NoError(t, store.CreateSession(ctx, session))

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, session.ID, got.ID)
	require.Equal(t, session.CallID, got.CallID)
	require.Equal(t, session.Problem, got.Problem)
	require.Equal(t, session.Difficulty, got.Difficulty)
	require.Equal(t, types.StatusActive, got.Status)
	require.Equal(t, "host-1", got.HostID)
	require.Nil(t, got.ParticipantID)
	require.WithinDuration(t, base, got.CreatedAt, time.Second)

	_, err = store.GetSession(ctx, "missing")
	require.ErrorIs(t, err, interfaces.ErrSessionNotFound)
}

func testCallIDUnique(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()
	first := NewSession("host-1", base)
	require.NoError(t, store.CreateSession(ctx, first))

	dup := NewSession("host-2", base)
	dup.CallID = first.CallID
	require.ErrorIs(t, store.CreateSession(ctx, dup), interfaces.ErrCallIDConflict)

	_, err := store.GetSession(ctx, dup.ID)
	require.ErrorIs(t, err, interfaces.ErrSessionNotFound)
}

func testRejectsInvalid(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()

	noProblem := NewSession("host-1", base)
	noProblem.Problem = ""
	require.ErrorIs(t, store.CreateSession(ctx, noProblem), types.ErrInvalidProblem)

	badDifficulty := NewSession("host-1", base)
	badDifficulty.Difficulty = "impossible"
	require.ErrorIs(t, store.CreateSession(ctx, badDifficulty), types.ErrInvalidDifficulty)

	noHost := NewSession("", base)
	require.ErrorIs(t, store.CreateSession(ctx, noHost), types.ErrInvalidUserID)
}

func testSetParticipant(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()
	session := NewSession("host-1", base)
	require.NoError(t, store.CreateSession(ctx, session))

	_, err := store.SetParticipant(ctx, session.ID, "host-1")
	require.ErrorIs(t, err, interfaces.ErrPreconditionFailed)

	updated, err := store.SetParticipant(ctx, session.ID, "guest-1")
	require.NoError(t, err)
	require.Equal(t, "guest-1", *updated.ParticipantID)
	require.Equal(t, session.CallID, updated.CallID)
	require.Equal(t, "host-1", updated.HostID)

	_, err = store.SetParticipant(ctx, session.ID, "guest-2")
	require.ErrorIs(t, err, interfaces.ErrPreconditionFailed)

	got, err := store.GetSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, "guest-1", *got.ParticipantID)

	_, err = store.SetParticipant(ctx, "missing", "guest-1")
	require.ErrorIs(t, err, interfaces.ErrSessionNotFound)

	completed := NewSession("host-1", base)
	require.NoError(t, store.CreateSession(ctx, completed))
	_, err = store.CompleteSession(ctx, completed.ID)
	require.NoError(t, err)
	_, err = store.SetParticipant(ctx, completed.ID, "guest-1")
	require.ErrorIs(t, err, interfaces.ErrPreconditionFailed)
}

func testCompleteSession(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()
	session := NewSession("host-1", base)
	require.NoError(t, store.CreateSession(ctx, session))

	done, err := store.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, done.Status)
	require.False(t, done.UpdatedAt.Before(done.CreatedAt))

	_, err = store.CompleteSession(ctx, session.ID)
	require.ErrorIs(t, err, interfaces.ErrPreconditionFailed)

	_, err = store.CompleteSession(ctx, "missing")
	require.ErrorIs(t, err, interfaces.ErrSessionNotFound)
}

func testListActive(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		s := NewSession(fmt.Sprintf("host-%d", i), base.Add(time.Duration(i)*time.Minute))
		s.Problem = fmt.Sprintf("problem-%d", i)
		require.NoError(t, store.CreateSession(ctx, s))
		if i == 3 {
			_, err := store.CompleteSession(ctx, s.ID)
			require.NoError(t, err)
		}
	}

	active, err := store.ListActiveSessions(ctx, 4)
	require.NoError(t, err)
	require.Len(t, active, 4)
	require.Equal(t, []string{"problem-6", "problem-5", "problem-4", "problem-2"},
		[]string{active[0].Problem, active[1].Problem, active[2].Problem, active[3].Problem})

	all, err := store.ListActiveSessions(ctx, 100)
	require.NoError(t, err)
	require.Len(t, all, 6)
}

func testListCompleted(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()
	mk := func(host, participant string, at time.Duration, complete bool) *types.Session {
		s := NewSession(host, base.Add(at))
		require.NoError(t, store.CreateSession(ctx, s))
		if participant != "" {
			_, err := store.SetParticipant(ctx, s.ID, participant)
			require.NoError(t, err)
		}
		if complete {
			_, err := store.CompleteSession(ctx, s.ID)
			require.NoError(t, err)
		}
		return s
	}

	hosted := mk("alice", "bob", 0, true)
	joined := mk("carol", "alice", time.Minute, true)
	mk("alice", "", 2*time.Minute, false)
	mk("bob", "carol", 3*time.Minute, true)

	recent, err := store.ListCompletedSessionsForUser(ctx, "alice", 20)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, joined.ID, recent[0].ID)
	require.Equal(t, hosted.ID, recent[1].ID)

	limited, err := store.ListCompletedSessionsForUser(ctx, "alice", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	none, err := store.ListCompletedSessionsForUser(ctx, "dave", 20)
	require.NoError(t, err)
	require.Empty(t, none)
}

func testUsers(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()

	first, err := store.UpsertUser(ctx, &types.User{ExternalID: "ext_ada", Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "Ada", first.Name)

	again, err := store.UpsertUser(ctx, &types.User{ExternalID: "ext_ada", Name: "Ada L.", ProfileImage: "https://img/ada"})
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
	require.Equal(t, "Ada L.", again.Name)
	require.Equal(t, "https://img/ada", again.ProfileImage)
	require.WithinDuration(t, first.CreatedAt, again.CreatedAt, time.Second)

	other, err := store.UpsertUser(ctx, &types.User{ExternalID: "ext_bob", Name: "Bob"})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, other.ID)

	_, err = store.UpsertUser(ctx, &types.User{Name: "nobody"})
	require.ErrorIs(t, err, types.ErrInvalidExternalID)

	users, err := store.GetUsers(ctx, []string{first.ID, other.ID, first.ID, "", "unknown"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "Ada L.", users[first.ID].Name)
	require.Equal(t, "ext_bob", users[other.ID].ExternalID)

	empty, err := store.GetUsers(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func testConcurrentSetParticipant(t *testing.T, store interfaces.SessionStore) {
	ctx := context.Background()
	session := NewSession("host-1", base)
	require.NoError(t, store.CreateSession(ctx, session))

	const racers = 16
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
		errs    = make(chan error, racers)
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(participant string) {
			defer wg.Done()
			_, err := store.SetParticipant(ctx, session.ID, participant)
			if err != nil {
				errs <- err
				return
			}
			winners.Add(1)
		}(fmt.Sprintf("guest-%d", i))
	}
	wg.Wait()
	close(errs)

	require.EqualValues(t, 1, winners.Load())
	for err := range errs {
		require.ErrorIs(t, err, interfaces.ErrPreconditionFailed)
	}
}
