package credential

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"

	"github.com/openbnet/presence/internal/dependencies/random"
)

const (
	// SaltLength is the length of generated account salts
	SaltLength = 32

	// verifierLength is the length of derived password verifiers
	verifierLength = 32

	// iterations is the PBKDF2 stretch count. Changing it invalidates
	// every stored verifier.
	iterations = 4096
)

// Service derives and compares password verifiers. Only the derivation
// contract lives here; the zero-knowledge proof exchange built on top of
// the verifier is handled by the authentication front end.
type Service struct {
	random random.Random
}

// New creates a new credential service
func New(rnd random.Random) *Service {
	return &Service{random: rnd}
}

// RandomSalt generates a fresh account salt
func (s *Service) RandomSalt() []byte {
	return s.random.Bytes(SaltLength)
}

// DeriveVerifier computes the password verifier for an identity,
// password and salt. Deterministic: the same inputs always produce the
// same verifier.
func (s *Service) DeriveVerifier(identity, password string, salt []byte) []byte {
	inner := sha256.Sum256([]byte(identity + ":" + password))
	return pbkdf2.Key(inner[:], salt, iterations, verifierLength, sha256.New)
}

// Compare reports whether the password derives the stored verifier
func (s *Service) Compare(identity, password string, salt, verifier []byte) bool {
	derived := s.DeriveVerifier(identity, password, salt)
	return subtle.ConstantTimeCompare(derived, verifier) == 1
}
