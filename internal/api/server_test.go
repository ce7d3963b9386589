package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sessionhub/internal/badgerstore"
	"sessionhub/internal/identity"
	"sessionhub/internal/logger"
	"sessionhub/internal/query"
	"sessionhub/internal/ratelimit"
	"sessionhub/internal/session"
	"sessionhub/mocks"
	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

type fakeChatTokens struct {
	issued []string
	err    error
}

func (f *fakeChatTokens) CreateUserToken(userID string, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.issued = append(f.issued, userID)
	return "chat-token-" + userID, nil
}

// fakeChatUsers records every user mirrored into the chat back-end
type fakeChatUsers struct {
	mu       sync.Mutex
	synced   []interfaces.ChatUser
	attempts int
	err      error
}

func (f *fakeChatUsers) UpsertUsers(_ context.Context, users []interfaces.ChatUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.err != nil {
		return f.err
	}
	f.synced = append(f.synced, users...)
	return nil
}

func (f *fakeChatUsers) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.synced))
	for _, u := range f.synced {
		ids = append(ids, u.ID)
	}
	return ids
}

func (f *fakeChatUsers) attempted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

func (f *fakeChatUsers) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type testServer struct {
	server   *Server
	store    interfaces.SessionStore
	calls    *mocks.MockCallService
	channels *mocks.MockChannelService
	verifier *identity.Verifier
	tokens   *fakeChatTokens
	users    *fakeChatUsers
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, func(*Deps) {})
}

// newTestServerWith lets a test adjust the dependencies before the router is built
func newTestServerWith(t *testing.T, adjust func(*Deps)) *testServer {
	t.Helper()
	log := logger.Discard()

	store, err := badgerstore.Open(badgerstore.Options{InMemory: true}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctrl := gomock.NewController(t)
	ts := &testServer{
		store:    store,
		calls:    mocks.NewMockCallService(ctrl),
		channels: mocks.NewMockChannelService(ctrl),
		verifier: identity.NewVerifier("test-secret", "", ""),
		tokens:   &fakeChatTokens{},
		users:    &fakeChatUsers{},
	}
	deps := Deps{
		Coordinator: session.NewCoordinator(store, ts.calls, ts.channels, session.Config{
			ExternalTimeout: time.Second,
			ChatUsers:       ts.users,
		}, log),
		Query:       query.NewService(store, log),
		Profiles:    store,
		Verifier:    ts.verifier,
		ChatTokens:  ts.tokens,
		ChatUsers:   ts.users,
		Log:         log,
	}
	adjust(&deps)
	ts.server = NewServer(deps)
	return ts
}

func (ts *testServer) token(t *testing.T, name string) string {
	t.Helper()
	token, err := ts.verifier.Issue(identity.Identity{
		ExternalID: "ext_" + name,
		Name:       strings.ToUpper(name[:1]) + name[1:],
		Email:      name + "@example.com",
		Image:      "https://img.example.com/" + name,
	}, time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, kind, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[ErrorResponse](t, rec)
	require.Equal(t, status, body.Code)
	require.Equal(t, kind, body.Kind)
	if message != "" {
		require.Equal(t, message, body.Message)
	}
}

func (ts *testServer) expectProvision() {
	ts.calls.EXPECT().GetOrCreateCall(gomock.Any(), gomock.Any(), gomock.Any()).Return(&interfaces.CallHandle{Created: true}, nil)
	ts.channels.EXPECT().CreateChannel(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(&interfaces.ChannelHandle{}, nil)
}

func (ts *testServer) createSession(t *testing.T, token string) *types.Session {
	t.Helper()
	ts.expectProvision()
	rec := ts.do(t, http.MethodPost, "/sessions", token, map[string]string{"problem": "Two Sum", "difficulty": "easy"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[SessionResponse](t, rec).Session
}

func TestServer_SessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice, bob, carol := ts.token(t, "alice"), ts.token(t, "bob"), ts.token(t, "carol")

	// A: create
	created := ts.createSession(t, alice)
	require.Equal(t, types.StatusActive, created.Status)
	require.True(t, strings.HasPrefix(created.CallID, "session_"))

	active := decode[ListSessionsResponse](t, ts.do(t, http.MethodGet, "/sessions/active", "", nil))
	require.Len(t, active.Sessions, 1)
	require.Equal(t, "Alice", active.Sessions[0].Host.Name)

	// C: host cannot join
	requireError(t, ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/join", alice, nil),
		http.StatusForbidden, "forbidden", "host cannot join their own session as participant")

	// B: join
	ts.channels.EXPECT().AddMembers(gomock.Any(), created.CallID, []string{"ext_bob"}).Return(nil)
	rec := ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/join", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	joined := decode[SessionResponse](t, rec).Session
	require.NotNil(t, joined.ParticipantID)

	// C: full
	requireError(t, ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/join", carol, nil),
		http.StatusConflict, "conflict", "session is already full")

	detail := decode[SessionDetailResponse](t, ts.do(t, http.MethodGet, "/sessions/"+created.ID, carol, nil))
	require.Equal(t, "Alice", detail.Session.Host.Name)
	require.Equal(t, "Bob", detail.Session.Participant.Name)

	// a participant cannot end the session
	requireError(t, ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/end", bob, nil),
		http.StatusForbidden, "forbidden", "only host can end the session")

	// D: end, then end again
	ts.calls.EXPECT().DeleteCall(gomock.Any(), created.CallID, true).Return(nil)
	ts.channels.EXPECT().DeleteChannel(gomock.Any(), created.CallID).Return(nil)
	rec = ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/end", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ended := decode[EndSessionResponse](t, rec)
	require.Equal(t, "Session ended successfully", ended.Message)
	require.Equal(t, types.StatusCompleted, ended.Session.Status)

	requireError(t, ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/end", alice, nil),
		http.StatusBadRequest, "conflict", "session is already completed")

	// E: completed sessions cannot be joined
	requireError(t, ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/join", carol, nil),
		http.StatusConflict, "conflict", "cannot join a completed session")

	active = decode[ListSessionsResponse](t, ts.do(t, http.MethodGet, "/sessions/active", "", nil))
	require.Empty(t, active.Sessions)

	for _, token := range []string{alice, bob} {
		recent := decode[ListSessionsResponse](t, ts.do(t, http.MethodGet, "/sessions/mine/recent", token, nil))
		require.Len(t, recent.Sessions, 1)
		require.Equal(t, created.ID, recent.Sessions[0].ID)
	}
	recent := decode[ListSessionsResponse](t, ts.do(t, http.MethodGet, "/sessions/mine/recent", carol, nil))
	require.Empty(t, recent.Sessions)
}

func TestServer_CreateValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")

	requireError(t, ts.do(t, http.MethodPost, "/sessions", alice, `{"problem":`),
		http.StatusBadRequest, kindBadRequest, "")
	requireError(t, ts.do(t, http.MethodPost, "/sessions", alice, map[string]string{"difficulty": "easy"}),
		http.StatusBadRequest, "validation", "problem and difficulty are required")
	requireError(t, ts.do(t, http.MethodPost, "/sessions", alice, map[string]string{"problem": "x", "difficulty": "brutal"}),
		http.StatusBadRequest, "validation", types.ErrInvalidDifficulty.Error())
}

func TestServer_ExternalFailureHidesCause(t *testing.T) {
	ts := newTestServer(t)
	alice := ts.token(t, "alice")

	ts.calls.EXPECT().GetOrCreateCall(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("upstream said: secret internal detail"))
	ts.calls.EXPECT().DeleteCall(gomock.Any(), gomock.Any(), true).Return(nil)
	ts.channels.EXPECT().DeleteChannel(gomock.Any(), gomock.Any()).Return(nil)

	rec := ts.do(t, http.MethodPost, "/sessions", alice, map[string]string{"problem": "Two Sum", "difficulty": "easy"})
	requireError(t, rec, http.StatusBadGateway, "external_service", session.ErrProvisioningFailed.Error())
	require.NotContains(t, rec.Body.String(), "secret internal detail")
}

func TestServer_Authentication(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing token", func(t *testing.T) {
		requireError(t, ts.do(t, http.MethodPost, "/sessions", "", nil), http.StatusUnauthorized, kindUnauthorized, "authentication required")
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		forged, err := identity.NewVerifier("other-secret", "", "").Issue(identity.Identity{ExternalID: "ext_mallory"}, time.Hour)
		require.NoError(t, err)
		requireError(t, ts.do(t, http.MethodGet, "/sessions/mine/recent", forged, nil), http.StatusUnauthorized, kindUnauthorized, "")
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := ts.verifier.Issue(identity.Identity{ExternalID: "ext_late"}, -time.Hour)
		require.NoError(t, err)
		requireError(t, ts.do(t, http.MethodGet, "/chat/token", expired, nil), http.StatusUnauthorized, kindUnauthorized, "")
	})

	t.Run("active listing is public", func(t *testing.T) {
		require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/sessions/active", "", nil).Code)
	})
}

func TestServer_GetUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	requireError(t, ts.do(t, http.MethodGet, "/sessions/nope", ts.token(t, "alice"), nil),
		http.StatusNotFound, "not_found", "session not found")
	requireError(t, ts.do(t, http.MethodPost, "/sessions/nope/join", ts.token(t, "bob"), nil),
		http.StatusNotFound, "not_found", "session not found")
	requireError(t, ts.do(t, http.MethodGet, "/no/such/route", "", nil),
		http.StatusNotFound, kindNotFound, "route not found")
}

func TestServer_ChatToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/chat/token", ts.token(t, "alice"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[ChatTokenResponse](t, rec)
	require.Equal(t, "chat-token-ext_alice", body.Token)
	require.Equal(t, "ext_alice", body.UserID)
	require.Equal(t, "Alice", body.UserName)
	require.Equal(t, "https://img.example.com/alice", body.UserImage)

	ts.tokens.err = errors.New("signing failed")
	requireError(t, ts.do(t, http.MethodGet, "/chat/token", ts.token(t, "alice"), nil),
		http.StatusInternalServerError, kindInternal, "failed to issue chat token")
}

func TestServer_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodGet, "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "healthy", decode[HealthResponse](t, rec).Status)
	})

	t.Run("store down", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockSessionStore(ctrl)
		store.EXPECT().HealthCheck(gomock.Any()).Return(interfaces.ErrStoreClosed)

		server := NewServer(Deps{Profiles: store, Log: logger.Discard()})
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "unhealthy", decode[HealthResponse](t, rec).Status)
	})
}

func TestServer_RequestIDAndCORS(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	require.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = ts.do(t, http.MethodGet, "/health", "", nil)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	preflight := httptest.NewRecorder()
	ts.server.ServeHTTP(preflight, httptest.NewRequest(http.MethodOptions, "/sessions", nil))
	require.Equal(t, http.StatusNoContent, preflight.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&session.Error{Kind: session.KindValidation, Reason: types.ErrMissingFields}, http.StatusBadRequest},
		{&session.Error{Kind: session.KindNotFound, Reason: session.ErrSessionNotFound}, http.StatusNotFound},
		{&session.Error{Kind: session.KindForbidden, Reason: session.ErrNotHost}, http.StatusForbidden},
		{&session.Error{Kind: session.KindConflict, Reason: session.ErrSessionFull}, http.StatusConflict},
		{&session.Error{Kind: session.KindConflict, Reason: session.ErrAlreadyCompleted}, http.StatusBadRequest},
		{&session.Error{Kind: session.KindExternalService, Reason: session.ErrTeardownFailed}, http.StatusBadGateway},
		{&session.Error{Kind: session.KindPersistence, Reason: session.ErrStoreUnavailable}, http.StatusInternalServerError},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.status, statusFor(tt.err), tt.err.Error())
	}
}

func TestServer_RateLimitsMutations(t *testing.T) {
	ts := newTestServerWith(t, func(d *Deps) {
		d.Limiter = ratelimit.New(1, time.Minute)
	})
	alice, bob := ts.token(t, "alice"), ts.token(t, "bob")

	created := ts.createSession(t, alice)

	rec := ts.do(t, http.MethodPost, "/sessions", alice, map[string]string{"problem": "Again", "difficulty": "easy"})
	requireError(t, rec, http.StatusTooManyRequests, kindRateLimited, "rate limit exceeded")

	rec = ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/end", alice, nil)
	requireError(t, rec, http.StatusTooManyRequests, kindRateLimited, "")

	// Reads are not limited, and the budget is per user.
	rec = ts.do(t, http.MethodGet, "/sessions/"+created.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ts.channels.EXPECT().AddMembers(gomock.Any(), created.CallID, []string{"ext_bob"}).Return(nil)
	rec = ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/join", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestServer_LiveFeedRoute(t *testing.T) {
	ts := newTestServerWith(t, func(d *Deps) {
		d.Lobby = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	})

	// Public, and not captured by /sessions/:id.
	rec := ts.do(t, http.MethodGet, "/sessions/live", "", nil)
	require.Equal(t, http.StatusTeapot, rec.Code)

	without := newTestServer(t)
	rec = without.do(t, http.MethodGet, "/sessions/live", "", nil)
	requireError(t, rec, http.StatusUnauthorized, kindUnauthorized, "")
}

func TestServer_SyncsChatUsers(t *testing.T) {
	ts := newTestServer(t)
	alice, bob := ts.token(t, "alice"), ts.token(t, "bob")

	created := ts.createSession(t, alice)
	require.Equal(t, []string{"ext_alice"}, ts.users.ids())
	require.Equal(t, interfaces.ChatUser{
		ID:    "ext_alice",
		Name:  "Alice",
		Image: "https://img.example.com/alice",
	}, ts.users.synced[0])

	ts.channels.EXPECT().AddMembers(gomock.Any(), created.CallID, []string{"ext_bob"}).Return(nil)
	rec := ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/join", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{"ext_alice", "ext_bob"}, ts.users.ids())

	// Reads and end never name a new channel member.
	rec = ts.do(t, http.MethodGet, "/sessions/"+created.ID, bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ts.calls.EXPECT().DeleteCall(gomock.Any(), created.CallID, true).Return(nil)
	ts.channels.EXPECT().DeleteChannel(gomock.Any(), created.CallID).Return(nil)
	rec = ts.do(t, http.MethodPost, "/sessions/"+created.ID+"/end", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, ts.users.ids(), 2)

	rec = ts.do(t, http.MethodGet, "/chat/token", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"ext_alice", "ext_bob", "ext_bob"}, ts.users.ids())
}

func TestServer_ChatUserSyncFailureStopsCreate(t *testing.T) {
	ts := newTestServer(t)
	ts.users.fail(errors.New("chat unavailable"))

	// No call or channel expectations: the coordinator must not be reached.
	rec := ts.do(t, http.MethodPost, "/sessions", ts.token(t, "alice"), map[string]string{"problem": "Two Sum", "difficulty": "easy"})
	requireError(t, rec, http.StatusBadGateway, string(session.KindExternalService), "failed to sync chat user")

	rec = ts.do(t, http.MethodGet, "/sessions/active", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, decode[ListSessionsResponse](t, rec).Sessions)
}

// FUNCTIONAL VALIDATION TEST: Local validation, state and role checks answer
// before the chat back-end is contacted
func TestServer_ChatUserSyncFollowsLocalChecks(t *testing.T) {
	ts := newTestServer(t)
	alice, bob, carol := ts.token(t, "alice"), ts.token(t, "bob"), ts.token(t, "carol")

	rec := ts.do(t, http.MethodPost, "/sessions", alice, map[string]string{"problem": "Two Sum"})
	requireError(t, rec, http.StatusBadRequest, string(session.KindValidation), "")
	require.Zero(t, ts.users.attempted())

	full := ts.createSession(t, alice)
	ts.channels.EXPECT().AddMembers(gomock.Any(), full.CallID, []string{"ext_bob"}).Return(nil)
	rec = ts.do(t, http.MethodPost, "/sessions/"+full.ID+"/join", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ended := ts.createSession(t, alice)
	ts.calls.EXPECT().DeleteCall(gomock.Any(), ended.CallID, true).Return(nil)
	ts.channels.EXPECT().DeleteChannel(gomock.Any(), ended.CallID).Return(nil)
	rec = ts.do(t, http.MethodPost, "/sessions/"+ended.ID+"/end", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ts.users.fail(errors.New("chat unavailable"))
	before := ts.users.attempted()

	rec = ts.do(t, http.MethodPost, "/sessions/does-not-exist/join", carol, nil)
	requireError(t, rec, http.StatusNotFound, string(session.KindNotFound), "session not found")

	rec = ts.do(t, http.MethodPost, "/sessions/"+ended.ID+"/join", carol, nil)
	requireError(t, rec, http.StatusConflict, string(session.KindConflict), "cannot join a completed session")

	rec = ts.do(t, http.MethodPost, "/sessions/"+full.ID+"/join", alice, nil)
	requireError(t, rec, http.StatusForbidden, string(session.KindForbidden), "host cannot join their own session as participant")

	rec = ts.do(t, http.MethodPost, "/sessions/"+full.ID+"/join", carol, nil)
	requireError(t, rec, http.StatusConflict, string(session.KindConflict), "session is already full")

	rec = ts.do(t, http.MethodPost, "/sessions", alice, map[string]string{"problem": "Two Sum", "difficulty": "extreme"})
	requireError(t, rec, http.StatusBadRequest, string(session.KindValidation), "")
	require.Equal(t, before, ts.users.attempted())

	// A joinable session reaches the sync, and its failure leaves the seat empty.
	open := ts.createSessionWithoutSync(t, alice)
	rec = ts.do(t, http.MethodPost, "/sessions/"+open.ID+"/join", carol, nil)
	requireError(t, rec, http.StatusBadGateway, string(session.KindExternalService), "failed to sync chat user")
	require.Equal(t, before+1, ts.users.attempted())

	rec = ts.do(t, http.MethodGet, "/sessions/"+open.ID, carol, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Nil(t, decode[SessionDetailResponse](t, rec).Session.ParticipantID)
}

// createSessionWithoutSync creates a session straight through the store, for
// tests that need one while the chat back-end is failing
func (ts *testServer) createSessionWithoutSync(t *testing.T, token string) *types.Session {
	t.Helper()
	host, err := ts.verifier.Verify(token)
	require.NoError(t, err)
	user, err := ts.store.UpsertUser(context.Background(), &types.User{ExternalID: host.ExternalID, Name: host.Name})
	require.NoError(t, err)

	now := time.Now().UTC()
	created := &types.Session{
		ID:         "open-session",
		CallID:     session.NewCallID(),
		Problem:    "Valid Parentheses",
		Difficulty: types.DifficultyEasy,
		Status:     types.StatusActive,
		HostID:     user.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, ts.store.CreateSession(context.Background(), created))
	return created
}
