package online

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/openbnet/presence/internal/model"
)

type FriendsSuite struct {
	suite.Suite
	friends *MemoryFriends
}

func TestFriendsSuite(t *testing.T) {
	suite.Run(t, new(FriendsSuite))
}

func (s *FriendsSuite) SetupTest() {
	s.friends = NewMemoryFriends()
}

func (s *FriendsSuite) TestAddFriendIsMutual() {
	s.friends.AddFriend(1, 2)

	s.Equal([]model.AccountID{2}, s.friends.FriendsOf(1))
	s.Equal([]model.AccountID{1}, s.friends.FriendsOf(2))
}

func (s *FriendsSuite) TestAddFriendIsIdempotent() {
	s.friends.AddFriend(1, 2)
	s.friends.AddFriend(2, 1)

	s.Equal([]model.AccountID{2}, s.friends.FriendsOf(1))
}

func (s *FriendsSuite) TestFriendsOfIsSorted() {
	s.friends.AddFriend(1, 30)
	s.friends.AddFriend(1, 10)
	s.friends.AddFriend(1, 20)

	s.Equal([]model.AccountID{10, 20, 30}, s.friends.FriendsOf(1))
}

func (s *FriendsSuite) TestRemoveFriendIsMutual() {
	s.friends.AddFriend(1, 2)
	s.friends.AddFriend(1, 3)

	s.friends.RemoveFriend(2, 1)

	s.Equal([]model.AccountID{3}, s.friends.FriendsOf(1))
	s.Empty(s.friends.FriendsOf(2))
}

func (s *FriendsSuite) TestFriendsOfUnknownAccount() {
	s.Empty(s.friends.FriendsOf(99))
}
