package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

// SessionClaims is the signed content of a session token. Beyond the
// registered claims it carries exactly the principal's four fields.
type SessionClaims struct {
	jwt.RegisteredClaims
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// Session is an issued or validated session.
type Session struct {
	ID        string
	Token     string
	Principal model.Principal
	IssuedAt  time.Time
	ExpiresAt time.Time
	// Renewed is set by Validate when the sliding window moved the expiry
	// and Token holds a freshly signed replacement.
	Renewed bool
}

// SessionService issues, validates, renews and revokes sessions.
type SessionService struct {
	store  repository.SessionStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService creates a SessionService.
func NewSessionService(cfg *config.Config, store repository.SessionStore) *SessionService {
	return &SessionService{
		store:  store,
		secret: []byte(cfg.SessionSecret),
		ttl:    cfg.SessionTTL,
		now:    time.Now,
	}
}

// TTL is the lifetime of a session from issuance or its last renewal.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}

// Issue registers a new session for p and returns its signed token.
func (s *SessionService) Issue(ctx context.Context, p model.Principal) (*Session, error) {
	if !p.Role.Valid() {
		return nil, fmt.Errorf("issue session: unknown role %q", p.Role)
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		Principal: p,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	token, err := s.sign(sess)
	if err != nil {
		return nil, err
	}
	sess.Token = token

	if err := s.store.Save(ctx, sess.ID, p, s.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Validate checks the token signature and expiry and that the session is
// still registered. Once less than half the lifetime remains, the expiry
// slides forward by a full TTL and Renewed is set.
func (s *SessionService) Validate(ctx context.Context, token string) (*Session, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrSessionInvalid
	}

	stored, err := s.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	// The role is fixed at issuance; a token claiming another role than the
	// registered session is rejected rather than reconciled.
	if stored.Role != claims.Role || stored.SubjectID != claims.Subject {
		return nil, ErrSessionInvalid
	}

	sess := &Session{
		ID:    claims.ID,
		Token: token,
		Principal: model.Principal{
			SubjectID:   claims.Subject,
			DisplayName: claims.Name,
			Email:       claims.Email,
			Role:        claims.Role,
		},
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}

	now := s.now()
	if sess.ExpiresAt.Sub(now) < s.ttl/2 {
		sess.IssuedAt = now
		sess.ExpiresAt = now.Add(s.ttl)
		renewed, err := s.sign(sess)
		if err != nil {
			return nil, err
		}
		if err := s.store.Touch(ctx, sess.ID, s.ttl); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrSessionInvalid
			}
			return nil, fmt.Errorf("renew session: %w", err)
		}
		sess.Token = renewed
		sess.Renewed = true
	}
	return sess, nil
}

// Revoke invalidates a session immediately.
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// CSRFToken returns the anti-forgery token bound to a session.
func (s *SessionService) CSRFToken(sessionID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte("csrf:" + sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCSRF reports whether token is the anti-forgery token of sessionID.
func (s *SessionService) VerifyCSRF(sessionID, token string) bool {
	if token == "" {
		return false
	}
	return hmac.Equal([]byte(s.CSRFToken(sessionID)), []byte(token))
}

func (s *SessionService) sign(sess *Session) (string, error) {
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.Principal.SubjectID,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		Name:  sess.Principal.DisplayName,
		Email: sess.Principal.Email,
		Role:  sess.Principal.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
