// Package query is the read side of sessions: listings and lookups with
// host and participant profiles resolved from the user cache.
package query

import (
	"context"
	"errors"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"sessionhub/internal/session"
	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

// Service implements interfaces.SessionQuery over a SessionStore
type Service struct {
	store interfaces.SessionStore
	limit int
	log   logrus.FieldLogger
}

var _ interfaces.SessionQuery = (*Service)(nil)

// NewService creates a query service capped at types.PageSize results per listing
func NewService(store interfaces.SessionStore, log logrus.FieldLogger) *Service {
	return &Service{
		store: store,
		limit: types.PageSize,
		log:   log.WithField("component", "session_query"),
	}
}

// ListActive returns the newest active sessions with their hosts
func (s *Service) ListActive(ctx context.Context) ([]*types.SessionDetail, error) {
	sessions, err := s.store.ListActiveSessions(ctx, s.limit)
	if err != nil {
		s.log.WithError(err).Error("Failed to list active sessions")
		return nil, &session.Error{Kind: session.KindPersistence, Reason: session.ErrStoreUnavailable, Cause: err}
	}
	return s.resolve(ctx, sessions)
}

// ListRecent returns the newest completed sessions userID hosted or joined
func (s *Service) ListRecent(ctx context.Context, userID string) ([]*types.SessionDetail, error) {
	sessions, err := s.store.ListCompletedSessionsForUser(ctx, userID, s.limit)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("Failed to list recent sessions")
		return nil, &session.Error{Kind: session.KindPersistence, Reason: session.ErrStoreUnavailable, Cause: err}
	}
	return s.resolve(ctx, sessions)
}

// Get returns one session with both profiles resolved
func (s *Service) Get(ctx context.Context, sessionID string) (*types.SessionDetail, error) {
	found, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, interfaces.ErrSessionNotFound) {
		return nil, &session.Error{Kind: session.KindNotFound, Reason: session.ErrSessionNotFound}
	}
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Error("Failed to load session")
		return nil, &session.Error{Kind: session.KindPersistence, Reason: session.ErrStoreUnavailable, Cause: err}
	}

	details, err := s.resolve(ctx, []*types.Session{found})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

// resolve attaches cached profiles in one batched lookup. A user missing from
// the cache leaves the profile nil rather than failing the listing.
func (s *Service) resolve(ctx context.Context, sessions []*types.Session) ([]*types.SessionDetail, error) {
	ids := lo.FlatMap(sessions, func(item *types.Session, _ int) []string {
		return []string{item.HostID, lo.FromPtr(item.ParticipantID)}
	})

	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		s.log.WithError(err).Error("Failed to resolve session profiles")
		return nil, &session.Error{Kind: session.KindPersistence, Reason: session.ErrStoreUnavailable, Cause: err}
	}

	profile := func(id string) *types.Profile {
		if user, ok := users[id]; ok {
			return user.ToProfile()
		}
		return nil
	}

	return lo.Map(sessions, func(item *types.Session, _ int) *types.SessionDetail {
		detail := &types.SessionDetail{Session: item, Host: profile(item.HostID)}
		if item.HasParticipant() {
			detail.Participant = profile(*item.ParticipantID)
		}
		return detail
	}), nil
}
