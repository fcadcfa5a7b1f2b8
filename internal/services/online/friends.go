package online

import (
	"sort"
	"sync"

	"github.com/openbnet/presence/internal/model"
)

// MemoryFriends is an in-memory friend registry. The production friend
// system lives outside this subsystem; this implementation backs the
// coordinator in tests and single-process deployments.
type MemoryFriends struct {
	mu      sync.RWMutex
	friends map[model.AccountID]map[model.AccountID]struct{}
}

// Ensure MemoryFriends implements the registry interface
var _ FriendRegistry = (*MemoryFriends)(nil)

// NewMemoryFriends creates an empty friend registry
func NewMemoryFriends() *MemoryFriends {
	return &MemoryFriends{
		friends: make(map[model.AccountID]map[model.AccountID]struct{}),
	}
}

// AddFriend records a mutual friendship between two accounts
func (m *MemoryFriends) AddFriend(a, b model.AccountID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(a, b)
	m.addLocked(b, a)
}

func (m *MemoryFriends) addLocked(owner, friend model.AccountID) {
	set, ok := m.friends[owner]
	if !ok {
		set = make(map[model.AccountID]struct{})
		m.friends[owner] = set
	}
	set[friend] = struct{}{}
}

// RemoveFriend removes a mutual friendship
func (m *MemoryFriends) RemoveFriend(a, b model.AccountID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.friends[a], b)
	delete(m.friends[b], a)
}

// FriendsOf returns the friends of an account, ordered by id
func (m *MemoryFriends) FriendsOf(id model.AccountID) []model.AccountID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.friends[id]
	result := make([]model.AccountID, 0, len(set))
	for friend := range set {
		result = append(result, friend)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}
