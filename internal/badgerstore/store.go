// Package badgerstore implements interfaces.SessionStore on an embedded BadgerDB.
//
// Keys:
//
//	session:<id>        JSON session record
//	callid:<callID>     owning session id, enforces call id uniqueness
//	user:<id>           JSON cached profile
//	user-ext:<extID>    internal user id for an external id
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"sessionhub/pkg/interfaces"
	"sessionhub/pkg/types"
)

const (
	sessionPrefix = "session:"
	callIDPrefix  = "callid:"
	userPrefix    = "user:"
	userExtPrefix = "user-ext:"

	// maxConflictRetries bounds re-runs of a transaction that lost an optimistic race
	maxConflictRetries = 5
)

// Options configures the Badger store.
type Options struct {
	Path     string
	InMemory bool
}

// Store is a SessionStore backed by BadgerDB
type Store struct {
	db  *badger.DB
	log logrus.FieldLogger
	now func() time.Time
}

var _ interfaces.SessionStore = (*Store)(nil)

// Open opens (or creates) the Badger database described by opts.
func Open(opts Options, log *logrus.Logger) (*Store, error) {
	entry := log.WithField("component", "badger")

	badgerOpts := badger.DefaultOptions(opts.Path).
		WithLogger(entry).
		WithLoggingLevel(badger.WARNING)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	return &Store{
		db:  db,
		log: entry,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// update runs fn in a read-write transaction, re-running it when Badger reports
// that a concurrent transaction committed a key fn had read.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.WithField("attempt", attempt+1).Debug("transaction conflict, retrying")
	}
	return fmt.Errorf("transaction kept conflicting: %w", err)
}

// CreateSession stores a new session and reserves its call id
func (s *Store) CreateSession(ctx context.Context, session *types.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := session.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return s.update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(callIDPrefix + session.CallID)); err == nil {
			return interfaces.ErrCallIDConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if _, err := txn.Get([]byte(sessionPrefix + session.ID)); err == nil {
			return interfaces.ErrCallIDConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set([]byte(callIDPrefix+session.CallID), []byte(session.ID)); err != nil {
			return err
		}
		return txn.Set([]byte(sessionPrefix+session.ID), data)
	})
}

// GetSession loads a session by id
func (s *Store) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var session *types.Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		session, err = getSession(txn, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SetParticipant seats the participant if the session is active and empty
func (s *Store) SetParticipant(ctx context.Context, sessionID, participantID string) (*types.Session, error) {
	return s.mutateSession(ctx, sessionID, func(session *types.Session) error {
		if !session.IsActive() || session.HasParticipant() || session.HostID == participantID {
			return interfaces.ErrPreconditionFailed
		}
		session.ParticipantID = lo.ToPtr(participantID)
		return nil
	})
}

// CompleteSession flips an active session to completed
func (s *Store) CompleteSession(ctx context.Context, sessionID string) (*types.Session, error) {
	return s.mutateSession(ctx, sessionID, func(session *types.Session) error {
		if !session.IsActive() {
			return interfaces.ErrPreconditionFailed
		}
		session.Status = types.StatusCompleted
		return nil
	})
}

// mutateSession is a read-check-write on a single session key.
// FUNCTIONAL DISCOVERY: The read registers the key in the transaction's read set,
// so a racing writer makes this commit fail with ErrConflict and the check re-runs
// against the winner's state
func (s *Store) mutateSession(ctx context.Context, sessionID string, mutate func(*types.Session) error) (*types.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var updated *types.Session
	err := s.update(func(txn *badger.Txn) error {
		session, err := getSession(txn, sessionID)
		if err != nil {
			return err
		}
		if err := mutate(session); err != nil {
			return err
		}
		session.UpdatedAt = s.now()
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		if err := txn.Set([]byte(sessionPrefix+sessionID), data); err != nil {
			return err
		}
		updated = session
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListActiveSessions returns active sessions newest first
func (s *Store) ListActiveSessions(ctx context.Context, limit int) ([]*types.Session, error) {
	return s.listSessions(ctx, limit, func(session *types.Session) bool {
		return session.IsActive()
	})
}

// ListCompletedSessionsForUser returns completed sessions the user took part in
func (s *Store) ListCompletedSessionsForUser(ctx context.Context, userID string, limit int) ([]*types.Session, error) {
	return s.listSessions(ctx, limit, func(session *types.Session) bool {
		return session.Status == types.StatusCompleted && session.IsMember(userID)
	})
}

// listSessions scans every session key; there is no secondary index.
func (s *Store) listSessions(ctx context.Context, limit int, keep func(*types.Session) bool) ([]*types.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sessions := make([]*types.Session, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(sessionPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var session types.Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			}); err != nil {
				return err
			}
			if keep(&session) {
				sessions = append(sessions, &session)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// UpsertUser creates or refreshes a cached profile keyed by external id
func (s *Store) UpsertUser(ctx context.Context, user *types.User) (*types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(user.ExternalID) == "" {
		return nil, types.ErrInvalidExternalID
	}

	var stored types.User
	err := s.update(func(txn *badger.Txn) error {
		now := s.now()
		stored = types.User{
			ID:           uuid.New().String(),
			ExternalID:   user.ExternalID,
			Name:         user.Name,
			Email:        user.Email,
			ProfileImage: user.ProfileImage,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		item, err := txn.Get([]byte(userExtPrefix + user.ExternalID))
		switch {
		case err == nil:
			existingID, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			existing, err := getUser(txn, string(existingID))
			if err != nil {
				return err
			}
			stored.ID = existing.ID
			stored.CreatedAt = existing.CreatedAt
		case errors.Is(err, badger.ErrKeyNotFound):
			if err := txn.Set([]byte(userExtPrefix+user.ExternalID), []byte(stored.ID)); err != nil {
				return err
			}
		default:
			return err
		}

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set([]byte(userPrefix+stored.ID), data)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetUsers resolves a set of internal user ids
func (s *Store) GetUsers(ctx context.Context, userIDs []string) (map[string]*types.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := lo.Uniq(lo.Compact(userIDs))
	users := make(map[string]*types.User, len(ids))

	err := s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			user, err := getUser(txn, id)
			if errors.Is(err, interfaces.ErrUserNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			users[id] = user
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// HealthCheck verifies the database is open and readable
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return interfaces.ErrStoreClosed
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// Close flushes and closes the database
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

func getSession(txn *badger.Txn, sessionID string) (*types.Session, error) {
	item, err := txn.Get([]byte(sessionPrefix + sessionID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, interfaces.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var session types.Session
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &session)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &session, nil
}

func getUser(txn *badger.Txn, userID string) (*types.User, error) {
	item, err := txn.Get([]byte(userPrefix + userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, interfaces.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	var user types.User
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &user)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", userID, err)
	}
	return &user, nil
}
