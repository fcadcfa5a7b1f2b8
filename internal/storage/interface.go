package storage

import (
	"context"

	"github.com/openbnet/presence/internal/model"
)

// Store defines the interface for identity persistence.
//
// All writes are best-effort from the caller's point of view: the
// services log failures and keep their in-memory state, prioritising
// availability of live presence over strict durability.
type Store interface {
	// Account operations
	InsertAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error)
	GetAccountByTag(ctx context.Context, tag string) (*model.Account, error)
	UpdatePasswordVerifier(ctx context.Context, id model.AccountID, verifier []byte) error
	UpdateUserLevel(ctx context.Context, id model.AccountID, level model.UserLevel) error

	// Game account link operations
	InsertGameAccountLink(ctx context.Context, gameAccountID model.GameAccountID, accountID model.AccountID) error
	DeleteGameAccountLink(ctx context.Context, gameAccountID model.GameAccountID) error
	GameAccountLinks(ctx context.Context, accountID model.AccountID) ([]model.GameAccountID, error)

	// NextAvailableID returns the seed for the sequential id allocator
	NextAvailableID(ctx context.Context) (uint64, error)
}
