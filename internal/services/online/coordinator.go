package online

import (
	"log/slog"
	"sync"

	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/services/presence"
	"github.com/openbnet/presence/internal/services/registry"
)

// Session is a live connection bound to one game account. The concrete
// transport handle is opaque to this core; it is only passed through to
// the notifier.
type Session struct {
	GameAccountID model.GameAccountID
	Conn          any

	mu         sync.Mutex
	channel    model.EntityID
	hasChannel bool
}

// SetChannel records the channel the session currently occupies
func (s *Session) SetChannel(channel model.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = channel
	s.hasChannel = !channel.IsZero()
}

// Channel returns the session's current channel, if any
func (s *Session) Channel() (model.EntityID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel, s.hasChannel
}

// FriendRegistry lists the friends of an account. External collaborator,
// consulted read-only on every aggregate transition.
type FriendRegistry interface {
	FriendsOf(id model.AccountID) []model.AccountID
}

// Notifier delivers one presence update to one live session.
// Fire-and-forget: a failed delivery is logged and dropped.
type Notifier interface {
	DeliverTargeted(session *Session, target model.EntityID, op model.FieldOperation) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(session *Session, target model.EntityID, op model.FieldOperation) error

// DeliverTargeted calls the wrapped function
func (f NotifierFunc) DeliverTargeted(session *Session, target model.EntityID, op model.FieldOperation) error {
	return f(session, target, op)
}

// Coordinator tracks which game accounts have an attached session and
// aggregates that into a per-account online flag. When the aggregate
// flips it pushes a single-field update to every friend that is itself
// online. The state transition always completes before fan-out starts
// and is never rolled back by delivery failures.
type Coordinator struct {
	registry *registry.Service
	friends  FriendRegistry
	notifier Notifier
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[model.GameAccountID]*Session

	// one lock per owning account so transitions on unrelated accounts
	// never contend
	accountLocksMu sync.Mutex
	accountLocks   map[model.AccountID]*sync.Mutex
}

// Ensure the coordinator satisfies the presence engine's session view
var _ presence.SessionIndex = (*Coordinator)(nil)

// New creates a new online-state coordinator
func New(reg *registry.Service, friends FriendRegistry, notifier Notifier, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		registry:     reg,
		friends:      friends,
		notifier:     notifier,
		logger:       logger.With(slog.String("component", "online")),
		sessions:     make(map[model.GameAccountID]*Session),
		accountLocks: make(map[model.AccountID]*sync.Mutex),
	}
}

func (c *Coordinator) lockForAccount(id model.AccountID) *sync.Mutex {
	c.accountLocksMu.Lock()
	defer c.accountLocksMu.Unlock()
	mu, ok := c.accountLocks[id]
	if !ok {
		mu = &sync.Mutex{}
		c.accountLocks[id] = mu
	}
	return mu
}

// AttachSession binds a live session to a game account (login)
func (c *Coordinator) AttachSession(gameAccountID model.GameAccountID, conn any) (*Session, error) {
	gameAccount, ok := c.registry.GameAccountByID(gameAccountID)
	if !ok {
		return nil, model.ErrGameAccountNotFound
	}

	session := &Session{GameAccountID: gameAccountID, Conn: conn}

	mu := c.lockForAccount(gameAccount.OwnerID)
	mu.Lock()
	before := c.AccountOnline(gameAccount.OwnerID)
	c.mu.Lock()
	c.sessions[gameAccountID] = session
	c.mu.Unlock()
	after := c.AccountOnline(gameAccount.OwnerID)
	mu.Unlock()

	c.logger.Info("session attached",
		slog.Uint64("game_account_id", uint64(gameAccountID)))

	if before != after {
		c.notifyFriends(gameAccount.OwnerID, after)
	}
	return session, nil
}

// DetachSession unbinds the session of a game account (logout).
// Detaching an already-detached game account is a no-op and triggers no
// fan-out.
func (c *Coordinator) DetachSession(gameAccountID model.GameAccountID) {
	gameAccount, ok := c.registry.GameAccountByID(gameAccountID)
	if !ok {
		return
	}

	mu := c.lockForAccount(gameAccount.OwnerID)
	mu.Lock()
	c.mu.Lock()
	if _, live := c.sessions[gameAccountID]; !live {
		c.mu.Unlock()
		mu.Unlock()
		return
	}
	delete(c.sessions, gameAccountID)
	c.mu.Unlock()
	after := c.AccountOnline(gameAccount.OwnerID)
	mu.Unlock()

	c.logger.Info("session detached",
		slog.Uint64("game_account_id", uint64(gameAccountID)))

	// a live session existed, so the aggregate was true before
	if !after {
		c.notifyFriends(gameAccount.OwnerID, false)
	}
}

// SessionFor returns the live session of a game account, if any
func (c *Coordinator) SessionFor(gameAccountID model.GameAccountID) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	session, ok := c.sessions[gameAccountID]
	return session, ok
}

// IsOnline reports whether a game account has an attached session
func (c *Coordinator) IsOnline(gameAccountID model.GameAccountID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sessions[gameAccountID]
	return ok
}

// AccountOnline computes the aggregate online flag of an account: true
// iff at least one owned game account has an attached session. Never
// stored; recomputed on every read.
func (c *Coordinator) AccountOnline(accountID model.AccountID) bool {
	for _, ga := range c.registry.GameAccountsFor(accountID) {
		if c.IsOnline(ga.ID) {
			return true
		}
	}
	return false
}

// Channel returns the current channel of a game account's session
func (c *Coordinator) Channel(gameAccountID model.GameAccountID) (model.EntityID, bool) {
	session, ok := c.SessionFor(gameAccountID)
	if !ok {
		return model.EntityID{}, false
	}
	return session.Channel()
}

// SetChannel moves a game account's session into a channel. Reports
// false when the game account has no live session.
func (c *Coordinator) SetChannel(gameAccountID model.GameAccountID, channel model.EntityID) bool {
	session, ok := c.SessionFor(gameAccountID)
	if !ok {
		return false
	}
	session.SetChannel(channel)
	return true
}

// notifyFriends pushes the new aggregate flag to every friend that is
// itself online. Deliveries are dispatched concurrently and not
// awaited; one failed delivery never blocks the others.
func (c *Coordinator) notifyFriends(accountID model.AccountID, isOnline bool) {
	account, ok := c.registry.AccountByID(accountID)
	if !ok {
		return
	}

	friendIDs := c.friends.FriendsOf(accountID)
	if len(friendIDs) == 0 {
		return
	}

	op := model.SetOp(presence.KeyAccountOnline, model.BoolVariant(isOnline))

	for _, friendID := range friendIDs {
		for _, friendGameAccount := range c.registry.GameAccountsFor(friendID) {
			session, live := c.SessionFor(friendGameAccount.ID)
			if !live {
				continue
			}
			go func(session *Session) {
				if err := c.notifier.DeliverTargeted(session, account.EntityID, op); err != nil {
					c.logger.Warn("presence notification dropped",
						slog.Uint64("friend_game_account_id", uint64(session.GameAccountID)),
						slog.Uint64("account_id", uint64(accountID)),
						slog.String("error", err.Error()))
				}
			}(session)
		}
	}
}
