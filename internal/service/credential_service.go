package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stemsi/quizhub-backend/internal/config"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

// Identity is the result of a successful credential check. It is either an
// AdminIdentity or a StudentIdentity; nothing downstream of the session
// issuer needs to know which.
type Identity interface {
	Principal() model.Principal
	identity()
}

// AdminIdentity is the configuration-defined operator.
type AdminIdentity struct {
	Email       string
	DisplayName string
}

func (a AdminIdentity) Principal() model.Principal {
	return model.Principal{
		SubjectID:   model.AdminSubjectID,
		DisplayName: a.DisplayName,
		Email:       a.Email,
		Role:        model.RoleAdmin,
	}
}

func (AdminIdentity) identity() {}

// StudentIdentity is a persisted student whose password matched.
type StudentIdentity struct {
	Student *model.Student
	// RehashNeeded is set when the stored hash uses an outdated work factor.
	RehashNeeded bool
}

func (s StudentIdentity) Principal() model.Principal {
	return model.Principal{
		SubjectID:   strconv.Itoa(s.Student.ID),
		DisplayName: s.Student.FullName,
		Email:       s.Student.Email,
		Role:        model.RoleStudent,
	}
}

func (StudentIdentity) identity() {}

// CredentialService decides who a set of credentials belongs to. It is
// read-only and never touches session state.
type CredentialService struct {
	admin     config.AdminAccount
	students  repository.StudentStore
	passwords *PasswordService
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(admin config.AdminAccount, students repository.StudentStore, passwords *PasswordService) *CredentialService {
	return &CredentialService{admin: admin, students: students, passwords: passwords}
}

// Verify resolves credentials to an Identity. The admin account is checked
// first and wins over a student registered with the same email. Every
// rejection is reported as ErrInvalidCredentials.
func (s *CredentialService) Verify(ctx context.Context, email, password string) (Identity, error) {
	if s.admin.Enabled() &&
		strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(s.admin.Email)) &&
		subtle.ConstantTimeCompare([]byte(password), []byte(s.admin.Password)) == 1 {
		return AdminIdentity{Email: s.admin.Email, DisplayName: s.admin.DisplayName}, nil
	}

	student, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup student: %w", err)
	}

	result := s.passwords.Verify(student.PasswordHash, password)
	if !result.OK() {
		return nil, ErrInvalidCredentials
	}

	return StudentIdentity{
		Student:      student,
		RehashNeeded: result == PasswordSuccessRehashNeeded,
	}, nil
}
