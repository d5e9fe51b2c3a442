package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizhub-backend/internal/model"
)

// ContentTx is the set of quiz content operations available both on the
// pool and inside a transaction.
type ContentTx interface {
	ListQuizzes(ctx context.Context) ([]model.Quiz, error)
	GetQuiz(ctx context.Context, id int) (*model.Quiz, error)
	CreateQuiz(ctx context.Context, q *model.Quiz) error
	UpdateQuiz(ctx context.Context, q *model.Quiz) error
	DeleteQuiz(ctx context.Context, id int) error

	ListQuestionsByQuizIDs(ctx context.Context, quizIDs []int) ([]model.Question, error)
	GetQuestion(ctx context.Context, id int) (*model.Question, error)
	LockQuestion(ctx context.Context, id int) (*model.Question, error)
	CreateQuestion(ctx context.Context, q *model.Question) error
	UpdateQuestion(ctx context.Context, q *model.Question) error
	DeleteQuestion(ctx context.Context, id int) error
	DeleteQuestionsByQuiz(ctx context.Context, quizID int) error

	ListOptionsByQuestionIDs(ctx context.Context, questionIDs []int) ([]model.Option, error)
	GetOption(ctx context.Context, id int) (*model.Option, error)
	CreateOption(ctx context.Context, o *model.Option) error
	UpdateOption(ctx context.Context, o *model.Option) error
	DeleteOption(ctx context.Context, id int) error
	DeleteOptionsByQuestionIDs(ctx context.Context, questionIDs []int) error
	ClearCorrectOptions(ctx context.Context, questionID, exceptOptionID int) (int64, error)
}

// ContentStore is the Quiz → Question → Option store. InTx runs fn in a
// single unit of work that either commits entirely or not at all.
type ContentStore interface {
	ContentTx
	InTx(ctx context.Context, fn func(tx ContentTx) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ContentRepository handles quiz, question and option data access.
type ContentRepository struct {
	pool *pgxpool.Pool
	db   querier
	inTx bool
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{pool: pool, db: pool}
}

// InTx runs fn inside a transaction. Nested calls reuse the outer transaction.
// Any error returned by fn, or a cancelled ctx, rolls everything back.
func (r *ContentRepository) InTx(ctx context.Context, fn func(tx ContentTx) error) error {
	if r.inTx {
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&ContentRepository{pool: r.pool, db: tx, inTx: true})
	})
}

// ─── Quizzes ───────────────────────────────────────────────────────────

// ListQuizzes returns every quiz ordered by id, without nested questions.
func (r *ContentRepository) ListQuizzes(ctx context.Context) ([]model.Quiz, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, created_at, updated_at FROM quizzes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []model.Quiz
	for rows.Next() {
		var q model.Quiz
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *ContentRepository) GetQuiz(ctx context.Context, id int) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, created_at, updated_at FROM quizzes WHERE id = $1`, id,
	).Scan(&q.ID, &q.Title, &q.Description, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return q, nil
}

func (r *ContentRepository) CreateQuiz(ctx context.Context, q *model.Quiz) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO quizzes (title, description) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Description,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return translate(err)
}

func (r *ContentRepository) UpdateQuiz(ctx context.Context, q *model.Quiz) error {
	err := r.db.QueryRow(ctx,
		`UPDATE quizzes SET title = $1, description = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING created_at, updated_at`,
		q.Title, q.Description, q.ID,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	return translate(err)
}

func (r *ContentRepository) DeleteQuiz(ctx context.Context, id int) error {
	return r.deleteByID(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
}

// ─── Questions ─────────────────────────────────────────────────────────

// ListQuestionsByQuizIDs returns the questions of the given quizzes ordered by id.
func (r *ContentRepository) ListQuestionsByQuizIDs(ctx context.Context, quizIDs []int) ([]model.Question, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, quiz_id, text, created_at, updated_at
		 FROM questions WHERE quiz_id = ANY($1)
		 ORDER BY id`, quizIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *ContentRepository) GetQuestion(ctx context.Context, id int) (*model.Question, error) {
	return r.getQuestion(ctx,
		`SELECT id, quiz_id, text, created_at, updated_at FROM questions WHERE id = $1`, id)
}

// LockQuestion reads a question and holds a row lock on it until the
// surrounding transaction ends. Concurrent writers on the same question's
// options serialize here.
func (r *ContentRepository) LockQuestion(ctx context.Context, id int) (*model.Question, error) {
	return r.getQuestion(ctx,
		`SELECT id, quiz_id, text, created_at, updated_at FROM questions WHERE id = $1 FOR UPDATE`, id)
}

func (r *ContentRepository) getQuestion(ctx context.Context, sql string, id int) (*model.Question, error) {
	q := &model.Question{}
	err := r.db.QueryRow(ctx, sql, id).Scan(&q.ID, &q.QuizID, &q.Text, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return q, nil
}

func (r *ContentRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO questions (quiz_id, text) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		q.QuizID, q.Text,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return translate(err)
}

func (r *ContentRepository) UpdateQuestion(ctx context.Context, q *model.Question) error {
	err := r.db.QueryRow(ctx,
		`UPDATE questions SET text = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING quiz_id, created_at, updated_at`,
		q.Text, q.ID,
	).Scan(&q.QuizID, &q.CreatedAt, &q.UpdatedAt)
	return translate(err)
}

func (r *ContentRepository) DeleteQuestion(ctx context.Context, id int) error {
	return r.deleteByID(ctx, `DELETE FROM questions WHERE id = $1`, id)
}

func (r *ContentRepository) DeleteQuestionsByQuiz(ctx context.Context, quizID int) error {
	_, err := r.db.Exec(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID)
	return err
}

// ─── Options ───────────────────────────────────────────────────────────

// ListOptionsByQuestionIDs returns the options of the given questions ordered by id.
func (r *ContentRepository) ListOptionsByQuestionIDs(ctx context.Context, questionIDs []int) ([]model.Option, error) {
	if len(questionIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, question_id, text, is_correct
		 FROM options WHERE question_id = ANY($1)
		 ORDER BY id`, questionIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []model.Option
	for rows.Next() {
		var o model.Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *ContentRepository) GetOption(ctx context.Context, id int) (*model.Option, error) {
	o := &model.Option{}
	err := r.db.QueryRow(ctx,
		`SELECT id, question_id, text, is_correct FROM options WHERE id = $1`, id,
	).Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect)
	if err != nil {
		return nil, translate(err)
	}
	return o, nil
}

func (r *ContentRepository) CreateOption(ctx context.Context, o *model.Option) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO options (question_id, text, is_correct) VALUES ($1, $2, $3)
		 RETURNING id`,
		o.QuestionID, o.Text, o.IsCorrect,
	).Scan(&o.ID)
	return translate(err)
}

func (r *ContentRepository) UpdateOption(ctx context.Context, o *model.Option) error {
	err := r.db.QueryRow(ctx,
		`UPDATE options SET text = $1, is_correct = $2
		 WHERE id = $3
		 RETURNING question_id`,
		o.Text, o.IsCorrect, o.ID,
	).Scan(&o.QuestionID)
	return translate(err)
}

func (r *ContentRepository) DeleteOption(ctx context.Context, id int) error {
	return r.deleteByID(ctx, `DELETE FROM options WHERE id = $1`, id)
}

func (r *ContentRepository) DeleteOptionsByQuestionIDs(ctx context.Context, questionIDs []int) error {
	if len(questionIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `DELETE FROM options WHERE question_id = ANY($1)`, questionIDs)
	return err
}

// ClearCorrectOptions unsets is_correct on every option of the question
// except exceptOptionID (0 excludes nothing). Returns the rows changed.
func (r *ContentRepository) ClearCorrectOptions(ctx context.Context, questionID, exceptOptionID int) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE options SET is_correct = FALSE
		 WHERE question_id = $1 AND id <> $2 AND is_correct`,
		questionID, exceptOptionID,
	)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

func (r *ContentRepository) deleteByID(ctx context.Context, sql string, id int) error {
	tag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
