package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

// AccountService implements login, registration and logout on top of the
// credential check and the session issuer.
type AccountService struct {
	credentials *CredentialService
	sessions    *SessionService
	students    repository.StudentStore
	passwords   *PasswordService
	log         zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	credentials *CredentialService,
	sessions *SessionService,
	students repository.StudentStore,
	passwords *PasswordService,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		credentials: credentials,
		sessions:    sessions,
		students:    students,
		passwords:   passwords,
		log:         log.With().Str("component", "account_service").Logger(),
	}
}

// Login verifies credentials and issues a session for the resolved identity.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	identity, err := s.credentials.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if st, ok := identity.(StudentIdentity); ok && st.RehashNeeded {
		s.upgradeHash(ctx, st.Student.ID, password)
	}

	return s.sessions.Issue(ctx, identity.Principal())
}

// Register creates a student account and signs the student in.
func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest) (*model.Student, *Session, error) {
	fullName, err := requireText("full_name", req.FullName)
	if err != nil {
		return nil, nil, err
	}
	email := repository.NormalizeEmail(req.Email)

	_, err = s.students.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, nil, ErrEmailTaken
	case !errors.Is(err, repository.ErrNotFound):
		return nil, nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	student := &model.Student{
		FullName:     fullName,
		Email:        email,
		PasswordHash: hash,
	}
	// The unique index still rejects a concurrent registration that slipped
	// past the lookup above.
	if err := s.students.Create(ctx, student); err != nil {
		return nil, nil, mapStoreErr(err)
	}

	sess, err := s.sessions.Issue(ctx, StudentIdentity{Student: student}.Principal())
	if err != nil {
		return student, nil, err
	}
	return student, sess, nil
}

// Logout revokes the session immediately.
func (s *AccountService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *AccountService) upgradeHash(ctx context.Context, studentID int, password string) {
	hash, err := s.passwords.Hash(password)
	if err == nil {
		err = s.students.UpdatePasswordHash(ctx, studentID, hash)
	}
	if err != nil {
		s.log.Warn().Err(err).Int("student_id", studentID).Msg("Password rehash failed")
	}
}
