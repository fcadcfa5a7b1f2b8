package memory

import (
	"context"
	"sync"

	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/storage"
)

// initialSequenceID is where sequential allocation starts for a store
// that has never handed out an id
const initialSequenceID = 1

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts     map[model.AccountID]*model.Account
	tagIndex     map[string]model.AccountID
	links        map[model.GameAccountID]model.AccountID
	linksByOwner map[model.AccountID][]model.GameAccountID
	sequence     uint64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:     make(map[model.AccountID]*model.Account),
		tagIndex:     make(map[string]model.AccountID),
		links:        make(map[model.GameAccountID]model.AccountID),
		linksByOwner: make(map[model.AccountID][]model.GameAccountID),
		sequence:     initialSequenceID,
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Account operations

func (s *Storage) InsertAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
	s.tagIndex[account.BattleTag()] = account.ID
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account, nil
}

func (s *Storage) GetAccountByTag(ctx context.Context, tag string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tagIndex[tag]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account, nil
}

func (s *Storage) UpdatePasswordVerifier(ctx context.Context, id model.AccountID, verifier []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.PasswordVerifier = verifier
	return nil
}

func (s *Storage) UpdateUserLevel(ctx context.Context, id model.AccountID, level model.UserLevel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.UserLevel = level
	return nil
}

// Game account link operations

func (s *Storage) InsertGameAccountLink(ctx context.Context, gameAccountID model.GameAccountID, accountID model.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[gameAccountID]; ok {
		return model.ErrGameAccountExists
	}
	s.links[gameAccountID] = accountID
	s.linksByOwner[accountID] = append(s.linksByOwner[accountID], gameAccountID)
	return nil
}

func (s *Storage) DeleteGameAccountLink(ctx context.Context, gameAccountID model.GameAccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	accountID, ok := s.links[gameAccountID]
	if !ok {
		return model.ErrGameAccountNotFound
	}
	delete(s.links, gameAccountID)
	owned := s.linksByOwner[accountID]
	for i, id := range owned {
		if id == gameAccountID {
			s.linksByOwner[accountID] = append(owned[:i], owned[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) GameAccountLinks(ctx context.Context, accountID model.AccountID) ([]model.GameAccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := s.linksByOwner[accountID]
	result := make([]model.GameAccountID, len(owned))
	copy(result, owned)
	return result, nil
}

// NextAvailableID returns the allocation watermark
func (s *Storage) NextAvailableID(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sequence, nil
}
