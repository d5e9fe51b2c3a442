package service

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerification is the outcome of checking a password against a hash.
type PasswordVerification int

const (
	PasswordFailed PasswordVerification = iota
	PasswordSuccess
	// PasswordSuccessRehashNeeded is a successful match against a hash made
	// with a lower work factor than the current one.
	PasswordSuccessRehashNeeded
)

// OK reports whether the password matched.
func (v PasswordVerification) OK() bool {
	return v == PasswordSuccess || v == PasswordSuccessRehashNeeded
}

// PasswordService hashes and verifies student passwords with bcrypt.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService. Out-of-range costs fall
// back to bcrypt.DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordService{cost: cost}
}

// Hash returns a salted bcrypt digest of password.
func (s *PasswordService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), s.cost)
	return string(hash), err
}

// Verify checks password against digest.
func (s *PasswordService) Verify(digest, password string) PasswordVerification {
	err := bcrypt.CompareHashAndPassword([]byte(digest), prehash(password))
	if err != nil {
		return PasswordFailed
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return PasswordFailed
	}
	if cost < s.cost {
		return PasswordSuccessRehashNeeded
	}
	return PasswordSuccess
}

// prehash folds passwords of any length into 44 bytes, below bcrypt's
// 72-byte input limit.
func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}
