package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

const (
	// DefaultExternalTimeout bounds each call and channel operation
	DefaultExternalTimeout = 10 * time.Second
	// DefaultCallIDAttempts is how many call ids are tried before create gives up
	DefaultCallIDAttempts = 3

	callIDPrefix = "session_"
)

// Config tunes the coordinator
type Config struct {
	ExternalTimeout time.Duration
	CallIDAttempts  int
	// NewCallID overrides call id generation, used in tests to force collisions
	NewCallID func() string
	Now       func() time.Time
	// Events receives committed transitions; nil discards them
	Events interfaces.SessionEvents
	// ChatUsers mirrors actors into the chat back-end before they are named
	// as a channel creator or member; nil skips the sync
	ChatUsers interfaces.ChatUserDirectory
}

// NewCallID returns a fresh call id; it doubles as the chat channel id
func NewCallID() string {
	return callIDPrefix + uuid.NewString()
}

// Coordinator drives the session lifecycle across the store and the
// external call and channel services.
type Coordinator struct {
	store     interfaces.SessionStore
	calls     interfaces.CallService
	channels  interfaces.ChannelService
	chatUsers interfaces.ChatUserDirectory
	events    interfaces.SessionEvents
	log       logrus.FieldLogger

	externalTimeout time.Duration
	callIDAttempts  int
	newCallID       func() string
	now             func() time.Time
}

var _ interfaces.SessionCoordinator = (*Coordinator)(nil)

// NewCoordinator creates a coordinator; zero Config fields take defaults
func NewCoordinator(store interfaces.SessionStore, calls interfaces.CallService, channels interfaces.ChannelService, cfg Config, log logrus.FieldLogger) *Coordinator {
	c := &Coordinator{
		store:           store,
		calls:           calls,
		channels:        channels,
		chatUsers:       cfg.ChatUsers,
		events:          cfg.Events,
		log:             log.WithField("component", "session_coordinator"),
		externalTimeout: cfg.ExternalTimeout,
		callIDAttempts:  cfg.CallIDAttempts,
		newCallID:       cfg.NewCallID,
		now:             cfg.Now,
	}
	if c.externalTimeout <= 0 {
		c.externalTimeout = DefaultExternalTimeout
	}
	if c.callIDAttempts <= 0 {
		c.callIDAttempts = DefaultCallIDAttempts
	}
	if c.newCallID == nil {
		c.newCallID = NewCallID
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	if c.events == nil {
		c.events = discardEvents{}
	}
	return c
}

type discardEvents struct{}

func (discardEvents) Publish(types.SessionEvent) {}

func (c *Coordinator) publish(eventType types.EventType, session *types.Session) {
	snapshot := *session
	c.events.Publish(types.SessionEvent{Type: eventType, Session: &snapshot, At: c.now()})
}

// CreateSession persists a new active session hosted by actor, then
// provisions its call and channel.
func (c *Coordinator) CreateSession(ctx context.Context, input types.CreateSessionInput, actor types.Actor) (*types.Session, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, newError(KindValidation, err, nil)
	}
	if err := actor.Validate(); err != nil {
		return nil, newError(KindValidation, err, nil)
	}
	if err := c.syncChatUser(ctx, actor); err != nil {
		return nil, err
	}

	now := c.now()
	session := &types.Session{
		ID:         uuid.New().String(),
		Problem:    input.Problem,
		Difficulty: types.Difficulty(input.Difficulty),
		Status:     types.StatusActive,
		HostID:     actor.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := c.insertWithFreshCallID(ctx, session); err != nil {
		return nil, err
	}

	log := c.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"call_id":    session.CallID,
		"host_id":    session.HostID,
	})

	if err := c.provision(ctx, session, actor); err != nil {
		log.WithError(err).Error("Failed to provision session resources")
		c.compensateCreate(ctx, session, log)
		return nil, newError(KindExternalService, ErrProvisioningFailed, err)
	}

	log.Info("Session created")
	c.publish(types.EventSessionCreated, session)
	return session, nil
}

// insertWithFreshCallID stores session, drawing a new call id each time the
// store reports the previous one as taken.
func (c *Coordinator) insertWithFreshCallID(ctx context.Context, session *types.Session) error {
	for attempt := 1; attempt <= c.callIDAttempts; attempt++ {
		session.CallID = c.newCallID()

		err := c.store.CreateSession(ctx, session)
		if err == nil {
			return nil
		}
		if !errors.Is(err, interfaces.ErrCallIDConflict) {
			return classifyStoreError(err)
		}
		c.log.WithFields(logrus.Fields{
			"call_id": session.CallID,
			"attempt": attempt,
		}).Warn("Call id already taken, regenerating")
	}
	return newError(KindPersistence, ErrCallIDSpaceExhausted, nil)
}

func (c *Coordinator) provision(ctx context.Context, session *types.Session, actor types.Actor) error {
	callCtx, cancel := context.WithTimeout(ctx, c.externalTimeout)
	defer cancel()

	_, err := c.calls.GetOrCreateCall(callCtx, session.CallID, interfaces.CallMetadata{
		CreatedByID: actor.ExternalID,
		Problem:     session.Problem,
		Difficulty:  string(session.Difficulty),
		SessionID:   session.ID,
	})
	if err != nil {
		return fmt.Errorf("create call: %w", err)
	}

	chanCtx, cancelChan := context.WithTimeout(ctx, c.externalTimeout)
	defer cancelChan()

	_, err = c.channels.CreateChannel(chanCtx, session.CallID, channelName(session.Problem), actor.ExternalID, []string{actor.ExternalID})
	if err != nil {
		return fmt.Errorf("create channel: %w", err)
	}
	return nil
}

// compensateCreate undoes a half-provisioned create. Both deletes are
// idempotent, so it does not matter which resource actually got created.
// The record is only completed once both are gone; otherwise it stays
// active and the log line is the reconciliation handle.
func (c *Coordinator) compensateCreate(ctx context.Context, session *types.Session, log logrus.FieldLogger) {
	ctx = context.WithoutCancel(ctx)

	if err := c.teardown(ctx, session); err != nil {
		log.WithError(err).Error("Compensation failed, session left active for reconciliation")
		return
	}
	if _, err := c.store.CompleteSession(ctx, session.ID); err != nil {
		log.WithError(err).Error("Compensation failed to complete session record")
		return
	}
	session.Status = types.StatusCompleted
	log.Warn("Compensated failed session create")
}

// JoinSession seats actor as the participant of an active session.
// The seated participant may repeat it; that only re-issues the channel
// membership, so a join whose channel update failed can be retried.
func (c *Coordinator) JoinSession(ctx context.Context, sessionID string, actor types.Actor) (*types.Session, error) {
	if err := actor.Validate(); err != nil {
		return nil, newError(KindValidation, err, nil)
	}

	session, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if isSeated(session, actor) {
		if err := c.syncChatUser(ctx, actor); err != nil {
			return nil, err
		}
		return c.addToChannel(ctx, session, actor, false)
	}
	if err := checkJoinable(session, actor); err != nil {
		return nil, err
	}
	if err := c.syncChatUser(ctx, actor); err != nil {
		return nil, err
	}

	updated, err := c.store.SetParticipant(ctx, sessionID, actor.UserID)
	if errors.Is(err, interfaces.ErrPreconditionFailed) {
		// Lost the race; report what the winner left behind.
		current, loadErr := c.load(ctx, sessionID)
		if loadErr != nil {
			return nil, loadErr
		}
		if isSeated(current, actor) {
			return c.addToChannel(ctx, current, actor, false)
		}
		if joinErr := checkJoinable(current, actor); joinErr != nil {
			return nil, joinErr
		}
		return nil, newError(KindConflict, ErrSessionFull, err)
	}
	if err != nil {
		return nil, classifyStoreError(err)
	}

	return c.addToChannel(ctx, updated, actor, true)
}

// addToChannel makes actor a channel member. Only the first seating is a
// lifecycle transition and gets published.
func (c *Coordinator) addToChannel(ctx context.Context, session *types.Session, actor types.Actor, firstSeat bool) (*types.Session, error) {
	log := c.log.WithFields(logrus.Fields{
		"session_id":     session.ID,
		"call_id":        session.CallID,
		"participant_id": actor.UserID,
	})

	chanCtx, cancel := context.WithTimeout(ctx, c.externalTimeout)
	defer cancel()

	if err := c.channels.AddMembers(chanCtx, session.CallID, []string{actor.ExternalID}); err != nil {
		log.WithError(err).Error("Participant recorded but channel membership failed")
		return nil, newError(KindExternalService, ErrMembershipFailed, err)
	}

	if !firstSeat {
		log.Info("Participant rejoined session")
		return session, nil
	}
	log.Info("Participant joined session")
	c.publish(types.EventSessionJoined, session)
	return session, nil
}

// syncChatUser upserts actor into the chat back-end, which rejects channel
// creators and members it does not know. It runs only after the local
// checks have passed.
func (c *Coordinator) syncChatUser(ctx context.Context, actor types.Actor) error {
	if c.chatUsers == nil {
		return nil
	}
	syncCtx, cancel := context.WithTimeout(ctx, c.externalTimeout)
	defer cancel()

	err := c.chatUsers.UpsertUsers(syncCtx, []interfaces.ChatUser{{
		ID:    actor.ExternalID,
		Name:  actor.Name,
		Image: actor.Image,
	}})
	if err != nil {
		c.log.WithError(err).WithField("external_id", actor.ExternalID).Error("Failed to sync chat user")
		return newError(KindExternalService, ErrChatUserSyncFailed, err)
	}
	return nil
}

// isSeated reports whether actor already holds the participant seat of an active session
func isSeated(session *types.Session, actor types.Actor) bool {
	return session.IsActive() && session.HasParticipant() && *session.ParticipantID == actor.UserID
}

func checkJoinable(session *types.Session, actor types.Actor) error {
	switch {
	case !session.IsActive():
		return newError(KindConflict, ErrSessionCompleted, nil)
	case session.HostID == actor.UserID:
		return newError(KindForbidden, ErrHostCannotJoin, nil)
	case session.HasParticipant():
		return newError(KindConflict, ErrSessionFull, nil)
	}
	return nil
}

// EndSession tears down the call and channel, then completes the record.
// Only the host may end a session.
func (c *Coordinator) EndSession(ctx context.Context, sessionID string, actor types.Actor) (*types.Session, error) {
	if err := actor.Validate(); err != nil {
		return nil, newError(KindValidation, err, nil)
	}

	session, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostID != actor.UserID {
		return nil, newError(KindForbidden, ErrNotHost, nil)
	}
	if !session.IsActive() {
		return nil, newError(KindConflict, ErrAlreadyCompleted, nil)
	}

	log := c.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"call_id":    session.CallID,
	})

	if err := c.teardown(ctx, session); err != nil {
		log.WithError(err).Error("Failed to tear down session resources")
		return nil, newError(KindExternalService, ErrTeardownFailed, err)
	}

	updated, err := c.store.CompleteSession(ctx, sessionID)
	if errors.Is(err, interfaces.ErrPreconditionFailed) {
		return nil, newError(KindConflict, ErrAlreadyCompleted, err)
	}
	if err != nil {
		return nil, classifyStoreError(err)
	}

	log.Info("Session ended")
	c.publish(types.EventSessionEnded, updated)
	return updated, nil
}

// teardown hard-deletes the call, then deletes the channel. Adapters treat
// an already-missing resource as success.
func (c *Coordinator) teardown(ctx context.Context, session *types.Session) error {
	callCtx, cancel := context.WithTimeout(ctx, c.externalTimeout)
	defer cancel()

	if err := c.calls.DeleteCall(callCtx, session.CallID, true); err != nil {
		return fmt.Errorf("delete call: %w", err)
	}

	chanCtx, cancelChan := context.WithTimeout(ctx, c.externalTimeout)
	defer cancelChan()

	if err := c.channels.DeleteChannel(chanCtx, session.CallID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

func (c *Coordinator) load(ctx context.Context, sessionID string) (*types.Session, error) {
	if sessionID == "" {
		return nil, newError(KindNotFound, ErrSessionNotFound, nil)
	}
	session, err := c.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return session, nil
}

// classifyStoreError maps store failures onto coordinator kinds
func classifyStoreError(err error) error {
	switch {
	case errors.Is(err, interfaces.ErrSessionNotFound):
		return newError(KindNotFound, ErrSessionNotFound, err)
	case errors.Is(err, types.ErrInvalidProblem),
		errors.Is(err, types.ErrInvalidDifficulty),
		errors.Is(err, types.ErrInvalidUserID),
		errors.Is(err, types.ErrMissingFields):
		return newError(KindValidation, err, nil)
	default:
		return newError(KindPersistence, ErrStoreUnavailable, err)
	}
}

func channelName(problem string) string {
	return problem + " Session"
}
