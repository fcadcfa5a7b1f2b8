package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/openbnet/presence/internal/dependencies/clock"
	"github.com/openbnet/presence/internal/identity"
	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/services/credential"
	"github.com/openbnet/presence/internal/storage"
)

const (
	// MinPasswordLength is the shortest password accepted at verification
	MinPasswordLength = 8
	// MaxPasswordLength is the longest password material used; longer
	// passwords are truncated at account creation, matching the wire
	// client's own limit.
	MaxPasswordLength = 16
)

// Service maintains the ownership graph: accounts, their game accounts
// and the toons owned by each game account, with reverse owner lookups.
// It is the synchronous in-memory index the rest of the core reads;
// persistence behind it is best-effort.
type Service struct {
	store  storage.Store
	creds  *credential.Service
	clock  clock.Clock
	logger *slog.Logger

	mu            sync.RWMutex
	accounts      map[model.AccountID]*model.Account
	accountsByTag map[string]model.AccountID
	gameAccounts  map[model.GameAccountID]*model.GameAccount
	byOwner       map[model.AccountID]map[model.GameAccountID]*model.GameAccount
	toons         map[model.ToonID]*model.Toon
	byGameAccount map[model.GameAccountID]map[model.ToonID]*model.Toon
}

// New creates a new registry service
func New(store storage.Store, creds *credential.Service, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		store:         store,
		creds:         creds,
		clock:         clk,
		logger:        logger.With(slog.String("component", "registry")),
		accounts:      make(map[model.AccountID]*model.Account),
		accountsByTag: make(map[string]model.AccountID),
		gameAccounts:  make(map[model.GameAccountID]*model.GameAccount),
		byOwner:       make(map[model.AccountID]map[model.GameAccountID]*model.GameAccount),
		toons:         make(map[model.ToonID]*model.Toon),
		byGameAccount: make(map[model.GameAccountID]map[model.ToonID]*model.Toon),
	}
}

// CreateAccount creates a fresh account: id derived from the tag, new
// salt and password verifier generated. The insert into the backing
// store is best-effort; a store failure is logged and the in-memory
// account kept.
func (s *Service) CreateAccount(ctx context.Context, email, password, tag string, level model.UserLevel) (*model.Account, error) {
	name, code, err := model.ParseBattleTag(tag)
	if err != nil {
		return nil, err
	}
	id, err := identity.DeriveAccountID(tag)
	if err != nil {
		return nil, err
	}

	if len(password) > MaxPasswordLength {
		password = password[:MaxPasswordLength]
	}

	salt := s.creds.RandomSalt()
	verifier := s.creds.DeriveVerifier(email, password, salt)

	account := &model.Account{
		ID:               id,
		EntityID:         model.AccountEntityID(id),
		Email:            email,
		Salt:             salt,
		PasswordVerifier: verifier,
		Name:             name,
		Code:             code,
		UserLevel:        level,
		CreatedAt:        s.clock.Now(),
	}

	s.mu.Lock()
	if _, taken := s.accounts[id]; taken {
		s.mu.Unlock()
		return nil, model.ErrTagTaken
	}
	s.accounts[id] = account
	s.accountsByTag[account.BattleTag()] = id
	s.mu.Unlock()

	if err := s.store.InsertAccount(ctx, account); err != nil {
		s.logger.Error("failed to persist account",
			slog.String("battle_tag", account.BattleTag()),
			slog.Uint64("account_id", uint64(id)),
			slog.String("error", err.Error()))
	}

	return account, nil
}

// AddAccount indexes an account rehydrated from storage
func (s *Service) AddAccount(account *model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
	s.accountsByTag[account.BattleTag()] = account.ID
}

// AccountByID returns an account by its persistent id
func (s *Service) AccountByID(id model.AccountID) (*model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	return account, ok
}

// AccountByTag returns an account by its battle tag
func (s *Service) AccountByTag(tag string) (*model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.accountsByTag[tag]
	if !ok {
		return nil, false
	}
	account, ok := s.accounts[id]
	return account, ok
}

// VerifyPassword checks a password against the account's stored
// verifier. Malformed passwords simply verify false; this never fails.
func (s *Service) VerifyPassword(account *model.Account, password string) bool {
	if password == "" {
		return false
	}
	if len(password) < MinPasswordLength || len(password) > MaxPasswordLength {
		return false
	}
	return s.creds.Compare(account.Email, password, account.Salt, account.PasswordVerifier)
}

// UpdatePassword re-derives the account's verifier from a new password.
// The store update is best-effort.
func (s *Service) UpdatePassword(ctx context.Context, account *model.Account, newPassword string) {
	if len(newPassword) > MaxPasswordLength {
		newPassword = newPassword[:MaxPasswordLength]
	}
	verifier := s.creds.DeriveVerifier(account.Email, newPassword, account.Salt)

	s.mu.Lock()
	account.PasswordVerifier = verifier
	s.mu.Unlock()

	if err := s.store.UpdatePasswordVerifier(ctx, account.ID, verifier); err != nil {
		s.logger.Error("failed to persist password verifier",
			slog.Uint64("account_id", uint64(account.ID)),
			slog.String("error", err.Error()))
	}
}

// UpdateUserLevel changes the account's privilege level.
// The store update is best-effort.
func (s *Service) UpdateUserLevel(ctx context.Context, account *model.Account, level model.UserLevel) {
	s.mu.Lock()
	account.UserLevel = level
	s.mu.Unlock()

	if err := s.store.UpdateUserLevel(ctx, account.ID, level); err != nil {
		s.logger.Error("failed to persist user level",
			slog.Uint64("account_id", uint64(account.ID)),
			slog.String("error", err.Error()))
	}
}

// CreateGameAccount creates a game account for an account. The new game
// account aliases its owner's low id; only the high component differs
// on the wire. The link insert into the backing store is best-effort.
func (s *Service) CreateGameAccount(ctx context.Context, accountID model.AccountID) (*model.GameAccount, error) {
	s.mu.Lock()
	account, ok := s.accounts[accountID]
	if !ok {
		s.mu.Unlock()
		return nil, model.ErrAccountNotFound
	}

	id := model.GameAccountID(account.ID)
	if _, exists := s.gameAccounts[id]; exists {
		s.mu.Unlock()
		return nil, model.ErrGameAccountExists
	}

	gameAccount := &model.GameAccount{
		ID:        id,
		EntityID:  model.GameAccountEntityID(id),
		OwnerID:   account.ID,
		Program:   model.ProgramD3,
		Banner:    model.DefaultBanner(),
		CreatedAt: s.clock.Now(),
	}
	s.indexGameAccountLocked(gameAccount)
	s.mu.Unlock()

	if err := s.store.InsertGameAccountLink(ctx, id, account.ID); err != nil {
		s.logger.Error("failed to persist game account link",
			slog.Uint64("game_account_id", uint64(id)),
			slog.Uint64("account_id", uint64(account.ID)),
			slog.String("error", err.Error()))
	}

	return gameAccount, nil
}

// AddGameAccount indexes a game account rehydrated from storage by its
// persistent id
func (s *Service) AddGameAccount(gameAccount *model.GameAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.gameAccounts[gameAccount.ID]; ok && existing.OwnerID != gameAccount.OwnerID {
		// a game account never appears under two accounts
		return model.ErrGameAccountExists
	}
	s.indexGameAccountLocked(gameAccount)
	return nil
}

func (s *Service) indexGameAccountLocked(gameAccount *model.GameAccount) {
	s.gameAccounts[gameAccount.ID] = gameAccount
	owned, ok := s.byOwner[gameAccount.OwnerID]
	if !ok {
		owned = make(map[model.GameAccountID]*model.GameAccount)
		s.byOwner[gameAccount.OwnerID] = owned
	}
	owned[gameAccount.ID] = gameAccount
}

// DeleteGameAccount removes a game account. The storage link is removed
// first; the in-memory index entry always goes so that subsequent
// lookups see the deletion immediately. Reports whether the game
// account existed.
func (s *Service) DeleteGameAccount(ctx context.Context, id model.GameAccountID) bool {
	s.mu.Lock()
	gameAccount, ok := s.gameAccounts[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.gameAccounts, id)
	delete(s.byOwner[gameAccount.OwnerID], id)
	delete(s.byGameAccount, id)
	s.mu.Unlock()

	if err := s.store.DeleteGameAccountLink(ctx, id); err != nil {
		s.logger.Error("failed to delete game account link",
			slog.Uint64("game_account_id", uint64(id)),
			slog.String("error", err.Error()))
	}
	return true
}

// GameAccountByID returns a game account by its persistent id
func (s *Service) GameAccountByID(id model.GameAccountID) (*model.GameAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gameAccount, ok := s.gameAccounts[id]
	return gameAccount, ok
}

// GameAccountsFor returns the game accounts owned by an account,
// ordered by low id for reproducible enumeration
func (s *Service) GameAccountsFor(accountID model.AccountID) []*model.GameAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := s.byOwner[accountID]
	result := make([]*model.GameAccount, 0, len(owned))
	for _, ga := range owned {
		result = append(result, ga)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// OwnerOf returns the owning account of a game account. This is a
// non-owning back-reference lookup, never an ownership relation.
func (s *Service) OwnerOf(gameAccount *model.GameAccount) (*model.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[gameAccount.OwnerID]
	return account, ok
}

// AddToon indexes a toon under its game account
func (s *Service) AddToon(toon *model.Toon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toons[toon.ID] = toon
	owned, ok := s.byGameAccount[toon.GameAccountID]
	if !ok {
		owned = make(map[model.ToonID]*model.Toon)
		s.byGameAccount[toon.GameAccountID] = owned
	}
	owned[toon.ID] = toon
}

// ToonsFor returns the toons owned by a game account, ordered by low id
func (s *Service) ToonsFor(gameAccountID model.GameAccountID) []*model.Toon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := s.byGameAccount[gameAccountID]
	result := make([]*model.Toon, 0, len(owned))
	for _, t := range owned {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ToonByEntityID returns a toon by its wire identity
func (s *Service) ToonByEntityID(id model.EntityID) (*model.Toon, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	toon, ok := s.toons[model.ToonID(id.Low)]
	return toon, ok
}

// ResolveLastPlayed returns the game account's most-recently-played
// toon. An unresolved reference resolves to the first owned toon once
// any exist; once resolved it is cached and only moves forward.
func (s *Service) ResolveLastPlayed(gameAccount *model.GameAccount) (model.EntityID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := gameAccount.LastPlayed.Get(); ok {
		return id, true
	}

	owned := s.byGameAccount[gameAccount.ID]
	if len(owned) == 0 {
		return model.EntityID{}, false
	}

	var first *model.Toon
	for _, t := range owned {
		if first == nil || t.ID < first.ID {
			first = t
		}
	}
	gameAccount.LastPlayed.Resolve(first.EntityID)
	return first.EntityID, true
}

// SetLastPlayed explicitly moves the last-played reference forward
func (s *Service) SetLastPlayed(gameAccount *model.GameAccount, toonID model.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gameAccount.LastPlayed.Resolve(toonID)
}
