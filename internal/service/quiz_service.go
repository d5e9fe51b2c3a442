package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

// QuizService manages quizzes and owns the cascading lifecycle of their
// questions and options.
type QuizService struct {
	store  repository.ContentStore
	events EventPublisher
	log    zerolog.Logger
}

// NewQuizService creates a new QuizService.
func NewQuizService(store repository.ContentStore, events EventPublisher, log zerolog.Logger) *QuizService {
	return &QuizService{
		store:  store,
		events: publisherOrNop(events),
		log:    log.With().Str("component", "quiz_service").Logger(),
	}
}

// List returns all quizzes with their questions and options attached.
// Nested collections are never nil.
func (s *QuizService) List(ctx context.Context) ([]model.Quiz, error) {
	quizzes, err := s.store.ListQuizzes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		return []model.Quiz{}, nil
	}

	ids := make([]int, len(quizzes))
	for i, q := range quizzes {
		ids[i] = q.ID
	}
	questions, err := s.store.ListQuestionsByQuizIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	if len(questions) > 0 {
		options, err := s.store.ListOptionsByQuestionIDs(ctx, questionIDs(questions))
		if err != nil {
			return nil, fmt.Errorf("list options: %w", err)
		}
		attachOptions(questions, options)
	}

	byQuiz := make(map[int][]model.Question, len(quizzes))
	for _, q := range questions {
		byQuiz[q.QuizID] = append(byQuiz[q.QuizID], q)
	}
	for i := range quizzes {
		quizzes[i].Questions = byQuiz[quizzes[i].ID]
		if quizzes[i].Questions == nil {
			quizzes[i].Questions = []model.Question{}
		}
	}
	return quizzes, nil
}

// Summaries returns the student-facing quiz list.
func (s *QuizService) Summaries(ctx context.Context) ([]model.QuizSummary, error) {
	quizzes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.QuizSummary, len(quizzes))
	for i, q := range quizzes {
		out[i] = model.QuizSummary{
			ID:            q.ID,
			Title:         q.Title,
			Description:   q.Description,
			QuestionCount: len(q.Questions),
		}
	}
	return out, nil
}

// Get returns a quiz with its questions and their options.
func (s *QuizService) Get(ctx context.Context, id int) (*model.Quiz, error) {
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	questions, err := loadQuestionTree(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return quiz, nil
}

func (s *QuizService) Create(ctx context.Context, req model.QuizRequest) (*model.Quiz, error) {
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	quiz := &model.Quiz{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Questions:   []model.Question{},
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", mapStoreErr(err))
	}
	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentCreated, Entity: model.EntityQuiz, ID: quiz.ID})
	return quiz, nil
}

func (s *QuizService) Update(ctx context.Context, id int, req model.QuizRequest) (*model.Quiz, error) {
	title, err := requireText("title", req.Title)
	if err != nil {
		return nil, err
	}
	quiz := &model.Quiz{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return nil, mapStoreErr(err)
	}
	if quiz.Questions, err = loadQuestionTree(ctx, s.store, id); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentUpdated, Entity: model.EntityQuiz, ID: quiz.ID})
	return quiz, nil
}

// Delete removes a quiz, every question it owns and every option of those
// questions in one unit of work.
func (s *QuizService) Delete(ctx context.Context, id int) error {
	err := s.store.InTx(ctx, func(tx repository.ContentTx) error {
		if _, err := tx.GetQuiz(ctx, id); err != nil {
			return err
		}
		questions, err := tx.ListQuestionsByQuizIDs(ctx, []int{id})
		if err != nil {
			return err
		}
		if err := tx.DeleteOptionsByQuestionIDs(ctx, questionIDs(questions)); err != nil {
			return err
		}
		if err := tx.DeleteQuestionsByQuiz(ctx, id); err != nil {
			return err
		}
		return tx.DeleteQuiz(ctx, id)
	})
	if err != nil {
		return mapStoreErr(err)
	}

	s.log.Info().Int("quiz_id", id).Msg("Quiz deleted")
	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentDeleted, Entity: model.EntityQuiz, ID: id})
	return nil
}

// loadQuestionTree returns the questions of a quiz with options attached.
func loadQuestionTree(ctx context.Context, store repository.ContentTx, quizID int) ([]model.Question, error) {
	questions, err := store.ListQuestionsByQuizIDs(ctx, []int{quizID})
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return []model.Question{}, nil
	}
	options, err := store.ListOptionsByQuestionIDs(ctx, questionIDs(questions))
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	attachOptions(questions, options)
	return questions, nil
}

func attachOptions(questions []model.Question, options []model.Option) {
	byQuestion := make(map[int][]model.Option, len(questions))
	for _, o := range options {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	for i := range questions {
		questions[i].Options = byQuestion[questions[i].ID]
		if questions[i].Options == nil {
			questions[i].Options = []model.Option{}
		}
	}
}

func questionIDs(questions []model.Question) []int {
	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}
