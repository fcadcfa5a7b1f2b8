package online

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/openbnet/presence/internal/dependencies/mocks"
	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/services/credential"
	"github.com/openbnet/presence/internal/services/presence"
	"github.com/openbnet/presence/internal/services/registry"
	"github.com/openbnet/presence/internal/storage/memory"
	"github.com/openbnet/presence/internal/testutil"
)

// recordingNotifier captures deliveries for assertions
type recordingNotifier struct {
	mu        sync.Mutex
	delivered []struct {
		Session *Session
		Target  model.EntityID
		Op      model.FieldOperation
	}
}

func (n *recordingNotifier) DeliverTargeted(session *Session, target model.EntityID, op model.FieldOperation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, struct {
		Session *Session
		Target  model.EntityID
		Op      model.FieldOperation
	}{session, target, op})
	return nil
}

func (n *recordingNotifier) deliveries() []struct {
	Session *Session
	Target  model.EntityID
	Op      model.FieldOperation
} {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]struct {
		Session *Session
		Target  model.EntityID
		Op      model.FieldOperation
	}, len(n.delivered))
	copy(result, n.delivered)
	return result
}

type CoordinatorSuite struct {
	suite.Suite
	registry    *registry.Service
	friends     *MemoryFriends
	notifier    *recordingNotifier
	coordinator *Coordinator
	ctx         context.Context

	account     *model.Account
	gameAccount *model.GameAccount
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	storage := memory.New()
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	creds := credential.New(mocks.NewMockRandom())
	s.registry = registry.New(storage, creds, clk, logger)
	s.friends = NewMemoryFriends()
	s.notifier = &recordingNotifier{}
	s.coordinator = New(s.registry, s.friends, s.notifier, logger)
	s.ctx = context.Background()

	s.account, s.gameAccount = s.createPlayer("Hero#1234", "a@b.com")
}

func (s *CoordinatorSuite) createPlayer(tag, email string) (*model.Account, *model.GameAccount) {
	account, err := s.registry.CreateAccount(s.ctx, email, "password1", tag, model.UserLevelUser)
	s.Require().NoError(err)
	gameAccount, err := s.registry.CreateGameAccount(s.ctx, account.ID)
	s.Require().NoError(err)
	return account, gameAccount
}

// addSecondGameAccount indexes an extra game account under the given
// owner, as rehydration from storage would
func (s *CoordinatorSuite) addSecondGameAccount(owner *model.Account, id model.GameAccountID) *model.GameAccount {
	gameAccount := &model.GameAccount{
		ID:       id,
		EntityID: model.GameAccountEntityID(id),
		OwnerID:  owner.ID,
		Program:  model.ProgramD3,
		Banner:   model.DefaultBanner(),
	}
	s.Require().NoError(s.registry.AddGameAccount(gameAccount))
	return gameAccount
}

func (s *CoordinatorSuite) TestAttachMakesGameAccountOnline() {
	conn := &struct{ name string }{"conn-1"}

	session, err := s.coordinator.AttachSession(s.gameAccount.ID, conn)
	s.Require().NoError(err)
	s.Equal(s.gameAccount.ID, session.GameAccountID)

	s.True(s.coordinator.IsOnline(s.gameAccount.ID))
	s.True(s.coordinator.AccountOnline(s.account.ID))

	got, ok := s.coordinator.SessionFor(s.gameAccount.ID)
	s.Require().True(ok)
	s.Same(session, got)
	s.Same(conn, got.Conn)
}

func (s *CoordinatorSuite) TestAttachUnknownGameAccount() {
	_, err := s.coordinator.AttachSession(model.GameAccountID(999), nil)
	s.ErrorIs(err, model.ErrGameAccountNotFound)
}

func (s *CoordinatorSuite) TestDetachMakesAccountOffline() {
	_, err := s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)

	s.coordinator.DetachSession(s.gameAccount.ID)

	s.False(s.coordinator.IsOnline(s.gameAccount.ID))
	s.False(s.coordinator.AccountOnline(s.account.ID))
	_, ok := s.coordinator.SessionFor(s.gameAccount.ID)
	s.False(ok)
}

func (s *CoordinatorSuite) TestAggregateSpansAllGameAccounts() {
	second := s.addSecondGameAccount(s.account, 777)

	_, err := s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)
	_, err = s.coordinator.AttachSession(second.ID, nil)
	s.Require().NoError(err)

	s.coordinator.DetachSession(s.gameAccount.ID)
	s.True(s.coordinator.AccountOnline(s.account.ID))

	s.coordinator.DetachSession(second.ID)
	s.False(s.coordinator.AccountOnline(s.account.ID))
}

func (s *CoordinatorSuite) TestFanOutReachesOnlineFriendsOnly() {
	friendOnline, friendOnlineGA := s.createPlayer("FriendOne#0001", "f1@b.com")
	friendOffline, _ := s.createPlayer("FriendTwo#0002", "f2@b.com")
	s.friends.AddFriend(s.account.ID, friendOnline.ID)
	s.friends.AddFriend(s.account.ID, friendOffline.ID)

	friendSession, err := s.coordinator.AttachSession(friendOnlineGA.ID, nil)
	s.Require().NoError(err)

	_, err = s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)

	s.Require().Eventually(func() bool {
		return len(s.notifier.deliveries()) == 1
	}, time.Second, 5*time.Millisecond)

	delivery := s.notifier.deliveries()[0]
	s.Same(friendSession, delivery.Session)
	s.Equal(s.account.EntityID, delivery.Target)
	s.Equal(presence.KeyAccountOnline, delivery.Op.Key)
	online, err := delivery.Op.Value.Bool()
	s.Require().NoError(err)
	s.True(online)
}

func (s *CoordinatorSuite) TestNoFanOutWithoutTransition() {
	friend, friendGA := s.createPlayer("FriendOne#0001", "f1@b.com")
	s.friends.AddFriend(s.account.ID, friend.ID)
	_, err := s.coordinator.AttachSession(friendGA.ID, nil)
	s.Require().NoError(err)

	second := s.addSecondGameAccount(s.account, 777)
	_, err = s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)
	s.Require().Eventually(func() bool {
		return len(s.notifier.deliveries()) == 1
	}, time.Second, 5*time.Millisecond)

	// a second session while already online is not a transition
	_, err = s.coordinator.AttachSession(second.ID, nil)
	s.Require().NoError(err)

	// nor is detaching one of two sessions
	s.coordinator.DetachSession(second.ID)

	s.Len(s.notifier.deliveries(), 1)
}

func (s *CoordinatorSuite) TestDetachFansOutOfflineFlag() {
	friend, friendGA := s.createPlayer("FriendOne#0001", "f1@b.com")
	s.friends.AddFriend(s.account.ID, friend.ID)
	_, err := s.coordinator.AttachSession(friendGA.ID, nil)
	s.Require().NoError(err)

	_, err = s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)
	s.coordinator.DetachSession(s.gameAccount.ID)

	s.Require().Eventually(func() bool {
		return len(s.notifier.deliveries()) == 2
	}, time.Second, 5*time.Millisecond)

	last := s.notifier.deliveries()[1]
	s.Equal(s.account.EntityID, last.Target)
	online, err := last.Op.Value.Bool()
	s.Require().NoError(err)
	s.False(online)
}

func (s *CoordinatorSuite) TestDetachIsIdempotent() {
	friend, friendGA := s.createPlayer("FriendOne#0001", "f1@b.com")
	s.friends.AddFriend(s.account.ID, friend.ID)
	_, err := s.coordinator.AttachSession(friendGA.ID, nil)
	s.Require().NoError(err)

	_, err = s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)
	s.coordinator.DetachSession(s.gameAccount.ID)
	s.Require().Eventually(func() bool {
		return len(s.notifier.deliveries()) == 2
	}, time.Second, 5*time.Millisecond)

	// already detached; no state change, no fan-out
	s.coordinator.DetachSession(s.gameAccount.ID)
	s.Len(s.notifier.deliveries(), 2)
}

func (s *CoordinatorSuite) TestDetachNeverAttachedIsNoOp() {
	s.coordinator.DetachSession(s.gameAccount.ID)
	s.Empty(s.notifier.deliveries())
}

func (s *CoordinatorSuite) TestNoFriendsMeansNoDeliveries() {
	_, err := s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)
	s.coordinator.DetachSession(s.gameAccount.ID)

	s.Empty(s.notifier.deliveries())
}

func (s *CoordinatorSuite) TestSetChannelRequiresLiveSession() {
	channel := model.ChannelEntityID(5)

	s.False(s.coordinator.SetChannel(s.gameAccount.ID, channel))

	_, err := s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)

	s.True(s.coordinator.SetChannel(s.gameAccount.ID, channel))
	got, ok := s.coordinator.Channel(s.gameAccount.ID)
	s.Require().True(ok)
	s.Equal(channel, got)
}

func (s *CoordinatorSuite) TestClearChannelWithZeroID() {
	_, err := s.coordinator.AttachSession(s.gameAccount.ID, nil)
	s.Require().NoError(err)
	s.True(s.coordinator.SetChannel(s.gameAccount.ID, model.ChannelEntityID(5)))

	s.True(s.coordinator.SetChannel(s.gameAccount.ID, model.EntityID{}))

	_, ok := s.coordinator.Channel(s.gameAccount.ID)
	s.False(ok)
}
