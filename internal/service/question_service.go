package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

// QuestionService manages the questions of a quiz.
type QuestionService struct {
	store  repository.ContentStore
	events EventPublisher
	log    zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(store repository.ContentStore, events EventPublisher, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		store:  store,
		events: publisherOrNop(events),
		log:    log.With().Str("component", "question_service").Logger(),
	}
}

// ListByQuiz returns the questions of a quiz with their options.
// A missing quiz yields ErrNotFound, an empty quiz an empty slice.
func (s *QuestionService) ListByQuiz(ctx context.Context, quizID int) ([]model.Question, error) {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, mapStoreErr(err)
	}
	return loadQuestionTree(ctx, s.store, quizID)
}

// Get returns a question with its options.
func (s *QuestionService) Get(ctx context.Context, id int) (*model.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	options, err := s.store.ListOptionsByQuestionIDs(ctx, []int{id})
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	q.Options = nonNilOptions(options)
	return q, nil
}

// Create adds a question to an existing quiz. A missing quiz yields
// ErrParentNotFound.
func (s *QuestionService) Create(ctx context.Context, quizID int, req model.QuestionRequest) (*model.Question, error) {
	text, err := requireText("text", req.Text)
	if err != nil {
		return nil, err
	}
	q := &model.Question{QuizID: quizID, Text: text, Options: []model.Option{}}

	err = s.store.InTx(ctx, func(tx repository.ContentTx) error {
		if _, err := tx.GetQuiz(ctx, quizID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return repository.ErrParentNotFound
			}
			return err
		}
		return tx.CreateQuestion(ctx, q)
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentCreated, Entity: model.EntityQuestion, ID: q.ID, ParentID: quizID})
	return q, nil
}

// Update edits a question's text. The owning quiz never changes.
func (s *QuestionService) Update(ctx context.Context, id int, req model.QuestionRequest) (*model.Question, error) {
	text, err := requireText("text", req.Text)
	if err != nil {
		return nil, err
	}
	q := &model.Question{ID: id, Text: text}
	if err := s.store.UpdateQuestion(ctx, q); err != nil {
		return nil, mapStoreErr(err)
	}
	options, err := s.store.ListOptionsByQuestionIDs(ctx, []int{id})
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	q.Options = nonNilOptions(options)
	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentUpdated, Entity: model.EntityQuestion, ID: q.ID, ParentID: q.QuizID})
	return q, nil
}

// Delete removes a question and its options, returning the removed
// question so callers know which quiz it belonged to.
func (s *QuestionService) Delete(ctx context.Context, id int) (*model.Question, error) {
	var removed *model.Question
	err := s.store.InTx(ctx, func(tx repository.ContentTx) error {
		q, err := tx.LockQuestion(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteOptionsByQuestionIDs(ctx, []int{id}); err != nil {
			return err
		}
		if err := tx.DeleteQuestion(ctx, id); err != nil {
			return err
		}
		removed = q
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentDeleted, Entity: model.EntityQuestion, ID: id, ParentID: removed.QuizID})
	return removed, nil
}

func nonNilOptions(options []model.Option) []model.Option {
	if options == nil {
		return []model.Option{}
	}
	return options
}
