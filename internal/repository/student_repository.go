package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// StudentStore is the persisted collection of student identities.
type StudentStore interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
	GetByEmail(ctx context.Context, email string) (*model.Student, error)
	Create(ctx context.Context, s *model.Student) error
	UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error
}

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, full_name, email, password_hash, created_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.FullName, &s.Email, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// GetByEmail retrieves a student by email, ignoring case.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, full_name, email, password_hash, created_at
		 FROM students WHERE lower(email) = $1`, NormalizeEmail(email),
	).Scan(&s.ID, &s.FullName, &s.Email, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return s, nil
}

// Create inserts a new student. A second registration with the same email
// (in any letter case) fails with ErrDuplicateEmail.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (full_name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		s.FullName, NormalizeEmail(s.Email), s.PasswordHash,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return translate(err)
	}
	s.Email = NormalizeEmail(s.Email)
	return nil
}

// UpdatePasswordHash replaces a student's stored hash.
func (r *StudentRepository) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE students SET password_hash = $1 WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
