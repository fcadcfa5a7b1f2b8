package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/storage"
)

// initialSequenceID is the watermark reported by a store that has never
// handed out a sequential id
const initialSequenceID = 1

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// accountRecord is the stored shape of an account
type accountRecord struct {
	ID        uint64          `json:"id"`
	Email     string          `json:"email"`
	Salt      []byte          `json:"salt"`
	Verifier  []byte          `json:"verifier"`
	Name      string          `json:"name"`
	Code      int             `json:"code"`
	UserLevel model.UserLevel `json:"user_level"`
	CreatedAt time.Time       `json:"created_at"`
}

func recordFromAccount(a *model.Account) accountRecord {
	return accountRecord{
		ID:        uint64(a.ID),
		Email:     a.Email,
		Salt:      a.Salt,
		Verifier:  a.PasswordVerifier,
		Name:      a.Name,
		Code:      a.Code,
		UserLevel: a.UserLevel,
		CreatedAt: a.CreatedAt,
	}
}

func (r accountRecord) toAccount() *model.Account {
	id := model.AccountID(r.ID)
	return &model.Account{
		ID:               id,
		EntityID:         model.AccountEntityID(id),
		Email:            r.Email,
		Salt:             r.Salt,
		PasswordVerifier: r.Verifier,
		Name:             r.Name,
		Code:             r.Code,
		UserLevel:        r.UserLevel,
		CreatedAt:        r.CreatedAt,
	}
}

// Account operations

func (s *Storage) InsertAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(recordFromAccount(account))
	if err != nil {
		return err
	}

	// Pipeline for atomic record + index write
	pipe := s.client.Pipeline()
	pipe.Set(ctx, accountKey(account.ID), data, 0)
	pipe.Set(ctx, tagIndexKey(account.BattleTag()), strconv.FormatUint(uint64(account.ID), 10), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) getAccountByKey(ctx context.Context, key string) (*model.Account, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var record accountRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record.toAccount(), nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.AccountID) (*model.Account, error) {
	return s.getAccountByKey(ctx, accountKey(id))
}

func (s *Storage) GetAccountByTag(ctx context.Context, tag string) (*model.Account, error) {
	idStr, err := s.client.Get(ctx, tagIndexKey(tag)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return nil, err
	}
	return s.GetAccount(ctx, model.AccountID(id))
}

func (s *Storage) UpdatePasswordVerifier(ctx context.Context, id model.AccountID, verifier []byte) error {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	account.PasswordVerifier = verifier
	data, err := json.Marshal(recordFromAccount(account))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, accountKey(id), data, 0).Err()
}

func (s *Storage) UpdateUserLevel(ctx context.Context, id model.AccountID, level model.UserLevel) error {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	account.UserLevel = level
	data, err := json.Marshal(recordFromAccount(account))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, accountKey(id), data, 0).Err()
}

// Game account link operations

func (s *Storage) InsertGameAccountLink(ctx context.Context, gameAccountID model.GameAccountID, accountID model.AccountID) error {
	pipe := s.client.Pipeline()
	pipe.Set(ctx, linkKey(gameAccountID), strconv.FormatUint(uint64(accountID), 10), 0)
	pipe.SAdd(ctx, ownerLinksKey(accountID), strconv.FormatUint(uint64(gameAccountID), 10))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteGameAccountLink(ctx context.Context, gameAccountID model.GameAccountID) error {
	ownerStr, err := s.client.Get(ctx, linkKey(gameAccountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.ErrGameAccountNotFound
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, linkKey(gameAccountID))
	ownerID, parseErr := strconv.ParseUint(ownerStr, 10, 64)
	if parseErr == nil {
		pipe.SRem(ctx, ownerLinksKey(model.AccountID(ownerID)), strconv.FormatUint(uint64(gameAccountID), 10))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GameAccountLinks(ctx context.Context, accountID model.AccountID) ([]model.GameAccountID, error) {
	members, err := s.client.SMembers(ctx, ownerLinksKey(accountID)).Result()
	if err != nil {
		return nil, err
	}
	result := make([]model.GameAccountID, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		result = append(result, model.GameAccountID(id))
	}
	return result, nil
}

// NextAvailableID returns the persisted allocation watermark
func (s *Storage) NextAvailableID(ctx context.Context) (uint64, error) {
	val, err := s.client.Get(ctx, sequenceKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return initialSequenceID, nil
		}
		return 0, err
	}
	seq, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
