package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/openbnet/presence/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) account(id model.AccountID, tag string) *model.Account {
	name, code, err := model.ParseBattleTag(tag)
	s.Require().NoError(err)
	return &model.Account{
		ID:               id,
		EntityID:         model.AccountEntityID(id),
		Email:            "a@b.com",
		Salt:             []byte{0x01, 0x02},
		PasswordVerifier: []byte{0x03, 0x04},
		Name:             name,
		Code:             code,
		UserLevel:        model.UserLevelUser,
		CreatedAt:        time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Account tests

func (s *StorageSuite) TestInsertAndGetAccount() {
	account := s.account(42, "Hero#1234")

	err := s.storage.InsertAccount(s.ctx, account)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, 42)
	s.Require().NoError(err)
	s.Equal(account.ID, retrieved.ID)
	s.Equal(account.EntityID, retrieved.EntityID)
	s.Equal("Hero#1234", retrieved.BattleTag())
	s.Equal(account.Salt, retrieved.Salt)
	s.Equal(account.PasswordVerifier, retrieved.PasswordVerifier)
	s.True(account.CreatedAt.Equal(retrieved.CreatedAt))
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, 99)
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestGetAccountByTag() {
	account := s.account(42, "Hero#1234")
	s.Require().NoError(s.storage.InsertAccount(s.ctx, account))

	retrieved, err := s.storage.GetAccountByTag(s.ctx, "Hero#1234")
	s.Require().NoError(err)
	s.Equal(account.ID, retrieved.ID)

	_, err = s.storage.GetAccountByTag(s.ctx, "Hero#9999")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestUpdatePasswordVerifier() {
	account := s.account(42, "Hero#1234")
	s.Require().NoError(s.storage.InsertAccount(s.ctx, account))

	err := s.storage.UpdatePasswordVerifier(s.ctx, 42, []byte{0xFF})
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, 42)
	s.Require().NoError(err)
	s.Equal([]byte{0xFF}, retrieved.PasswordVerifier)
}

func (s *StorageSuite) TestUpdatePasswordVerifierNotFound() {
	err := s.storage.UpdatePasswordVerifier(s.ctx, 99, []byte{0xFF})
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestUpdateUserLevel() {
	account := s.account(42, "Hero#1234")
	s.Require().NoError(s.storage.InsertAccount(s.ctx, account))

	err := s.storage.UpdateUserLevel(s.ctx, 42, model.UserLevelAdmin)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, 42)
	s.Require().NoError(err)
	s.Equal(model.UserLevelAdmin, retrieved.UserLevel)
}

// Game account link tests

func (s *StorageSuite) TestInsertAndListGameAccountLinks() {
	err := s.storage.InsertGameAccountLink(s.ctx, 42, 42)
	s.Require().NoError(err)

	links, err := s.storage.GameAccountLinks(s.ctx, 42)
	s.Require().NoError(err)
	s.Equal([]model.GameAccountID{42}, links)
}

func (s *StorageSuite) TestGameAccountLinksEmpty() {
	links, err := s.storage.GameAccountLinks(s.ctx, 42)
	s.Require().NoError(err)
	s.Empty(links)
}

func (s *StorageSuite) TestDeleteGameAccountLink() {
	s.Require().NoError(s.storage.InsertGameAccountLink(s.ctx, 42, 42))

	err := s.storage.DeleteGameAccountLink(s.ctx, 42)
	s.Require().NoError(err)

	links, err := s.storage.GameAccountLinks(s.ctx, 42)
	s.Require().NoError(err)
	s.Empty(links)
}

func (s *StorageSuite) TestDeleteGameAccountLinkNotFound() {
	err := s.storage.DeleteGameAccountLink(s.ctx, 99)
	s.ErrorIs(err, model.ErrGameAccountNotFound)
}

// Sequence tests

func (s *StorageSuite) TestNextAvailableIDDefaultsToInitial() {
	seq, err := s.storage.NextAvailableID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(initialSequenceID), seq)
}

func (s *StorageSuite) TestNextAvailableIDReadsWatermark() {
	s.mini.Set(sequenceKey(), "500")

	seq, err := s.storage.NextAvailableID(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(500), seq)
}
