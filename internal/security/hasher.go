package security

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes secrets one way and verifies plaintext against a stored digest.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher hashes secrets with bcrypt.
type BcryptHasher struct {
	cost      int
	preDigest bool
}

// NewPasswordHasher returns a hasher for account passwords. Passwords are
// capped at 72 bytes by request validation, so they are hashed as is.
func NewPasswordHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

// NewTokenHasher returns a hasher for refresh tokens. JWTs exceed bcrypt's
// 72 byte input limit and share their header prefix, so the token is reduced
// to a SHA-256 digest before bcrypt sees it.
func NewTokenHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost, preDigest: true}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(h.input(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), h.input(plaintext)) == nil
}

func (h *BcryptHasher) input(plaintext string) []byte {
	if !h.preDigest {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
