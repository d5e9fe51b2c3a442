package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateEmail        = errors.New("student with this email already exists")
	ErrParentNotFound        = errors.New("referenced parent record does not exist")
	ErrCorrectOptionConflict = errors.New("question already has a correct option")
)

// Postgres error codes and constraint names the stores care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	studentsEmailIndex = "students_email_lower_key"
	oneCorrectIndex    = "one_correct_option_per_question"
)

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case studentsEmailIndex:
				return ErrDuplicateEmail
			case oneCorrectIndex:
				return ErrCorrectOptionConflict
			}
		case pgForeignKeyViolation:
			return ErrParentNotFound
		}
	}
	return err
}
