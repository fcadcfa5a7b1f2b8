package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/openbnet/presence/internal/model"
	"github.com/openbnet/presence/internal/storage/memory"
)

type IdentitySuite struct {
	suite.Suite
	ctx context.Context
}

func TestIdentitySuite(t *testing.T) {
	suite.Run(t, new(IdentitySuite))
}

func (s *IdentitySuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *IdentitySuite) TestDeriveAccountIDIsDeterministic() {
	first, err := DeriveAccountID("Hero#1234")
	s.Require().NoError(err)
	second, err := DeriveAccountID("Hero#1234")
	s.Require().NoError(err)

	s.Equal(first, second)
	s.NotZero(first)
}

func (s *IdentitySuite) TestDeriveAccountIDMatchesKnownValues() {
	// FNV-1a/64 over the canonical tag bytes. These constants are part
	// of the wire contract: an algorithm change must fail here, not in
	// production against persisted ids.
	id, err := DeriveAccountID("Hero#1234")
	s.Require().NoError(err)
	s.Equal(model.AccountID(0xdb0d38231a1ef9aa), id)

	id, err = DeriveAccountID("Hero#42")
	s.Require().NoError(err)
	s.Equal(model.AccountID(0x1412721a1cae8b44), id)
}

func (s *IdentitySuite) TestDeriveAccountIDDiffersPerTag() {
	a, err := DeriveAccountID("Hero#1234")
	s.Require().NoError(err)
	b, err := DeriveAccountID("Hero#1235")
	s.Require().NoError(err)
	c, err := DeriveAccountID("Villain#1234")
	s.Require().NoError(err)

	s.NotEqual(a, b)
	s.NotEqual(a, c)
}

func (s *IdentitySuite) TestDeriveAccountIDNormalizesCode() {
	// "Hero#42" and "Hero#0042" are the same canonical tag
	a, err := DeriveAccountID("Hero#42")
	s.Require().NoError(err)
	b, err := DeriveAccountID("Hero#0042")
	s.Require().NoError(err)

	s.Equal(a, b)
}

func (s *IdentitySuite) TestDeriveAccountIDRejectsMalformedTag() {
	_, err := DeriveAccountID("no-separator")
	s.ErrorIs(err, model.ErrMalformedTag)
}

func (s *IdentitySuite) TestAllocatorSeedsFromStore() {
	alloc := NewAllocator(memory.New())

	id, err := alloc.Next(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), id)
}

func (s *IdentitySuite) TestAllocatorIsMonotonic() {
	alloc := NewAllocator(memory.New())

	var prev uint64
	for i := 0; i < 10; i++ {
		id, err := alloc.Next(s.ctx)
		s.Require().NoError(err)
		s.Greater(id, prev)
		prev = id
	}
}

// failingSeeder fails a fixed number of times before succeeding
type failingSeeder struct {
	failures int
	seed     uint64
}

func (f *failingSeeder) NextAvailableID(ctx context.Context) (uint64, error) {
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("store unavailable")
	}
	return f.seed, nil
}

func (s *IdentitySuite) TestAllocatorRetriesSeedingOnFailure() {
	alloc := NewAllocator(&failingSeeder{failures: 1, seed: 100})

	_, err := alloc.Next(s.ctx)
	s.Require().Error(err)

	id, err := alloc.Next(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(101), id)
}
