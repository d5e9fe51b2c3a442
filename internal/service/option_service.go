package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/repository"
)

// OptionService manages answer options and keeps at most one option per
// question marked correct.
type OptionService struct {
	store  repository.ContentStore
	events EventPublisher
	log    zerolog.Logger
}

// NewOptionService creates a new OptionService.
func NewOptionService(store repository.ContentStore, events EventPublisher, log zerolog.Logger) *OptionService {
	return &OptionService{
		store:  store,
		events: publisherOrNop(events),
		log:    log.With().Str("component", "option_service").Logger(),
	}
}

func (s *OptionService) Get(ctx context.Context, id int) (*model.Option, error) {
	o, err := s.store.GetOption(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return o, nil
}

// Create adds an option to an existing question. A missing question yields
// ErrParentNotFound.
func (s *OptionService) Create(ctx context.Context, questionID int, req model.OptionRequest) (*model.Option, error) {
	text, err := requireText("text", req.Text)
	if err != nil {
		return nil, err
	}
	o := &model.Option{
		QuestionID: questionID,
		Text:       text,
		IsCorrect:  req.IsCorrect,
	}

	err = s.store.InTx(ctx, func(tx repository.ContentTx) error {
		if _, err := tx.LockQuestion(ctx, questionID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return repository.ErrParentNotFound
			}
			return err
		}
		if err := enforceSingleCorrect(ctx, tx, o); err != nil {
			return err
		}
		if err := tx.CreateOption(ctx, o); err != nil {
			return err
		}
		return verifySingleCorrect(ctx, tx, o)
	})
	if err != nil {
		return nil, s.writeErr(err, o)
	}

	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentCreated, Entity: model.EntityOption, ID: o.ID, ParentID: questionID})
	return o, nil
}

// Update edits an option's text and correctness. The owning question
// never changes.
func (s *OptionService) Update(ctx context.Context, id int, req model.OptionRequest) (*model.Option, error) {
	text, err := requireText("text", req.Text)
	if err != nil {
		return nil, err
	}
	o := &model.Option{
		ID:        id,
		Text:      text,
		IsCorrect: req.IsCorrect,
	}

	err = s.store.InTx(ctx, func(tx repository.ContentTx) error {
		current, err := tx.GetOption(ctx, id)
		if err != nil {
			return err
		}
		o.QuestionID = current.QuestionID

		if _, err := tx.LockQuestion(ctx, o.QuestionID); err != nil {
			return err
		}
		if err := enforceSingleCorrect(ctx, tx, o); err != nil {
			return err
		}
		if err := tx.UpdateOption(ctx, o); err != nil {
			return err
		}
		return verifySingleCorrect(ctx, tx, o)
	})
	if err != nil {
		return nil, s.writeErr(err, o)
	}

	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentUpdated, Entity: model.EntityOption, ID: o.ID, ParentID: o.QuestionID})
	return o, nil
}

// Delete removes an option, returning it so callers know its question.
func (s *OptionService) Delete(ctx context.Context, id int) (*model.Option, error) {
	var removed *model.Option
	err := s.store.InTx(ctx, func(tx repository.ContentTx) error {
		o, err := tx.GetOption(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.DeleteOption(ctx, id); err != nil {
			return err
		}
		removed = o
		return nil
	})
	if err != nil {
		return nil, mapStoreErr(err)
	}

	s.events.Publish(ctx, model.ContentEvent{Action: model.ContentDeleted, Entity: model.EntityOption, ID: id, ParentID: removed.QuestionID})
	return removed, nil
}

func (s *OptionService) writeErr(err error, o *model.Option) error {
	err = mapStoreErr(err)
	if errors.Is(err, ErrInvariantViolation) {
		s.log.Error().
			Int("question_id", o.QuestionID).
			Int("option_id", o.ID).
			Msg("Rejected write leaving more than one correct option")
	}
	return err
}

// enforceSingleCorrect clears the correct flag on every sibling of o when o
// is being marked correct. It must run inside the transaction that holds
// the question lock and that persists o, so the read-modify-write cannot
// interleave with another writer on the same question.
func enforceSingleCorrect(ctx context.Context, tx repository.ContentTx, o *model.Option) error {
	if !o.IsCorrect {
		return nil
	}
	if _, err := tx.ClearCorrectOptions(ctx, o.QuestionID, o.ID); err != nil {
		return fmt.Errorf("clear sibling options: %w", err)
	}
	return nil
}

// verifySingleCorrect rejects the unit of work if the question ends up with
// more than one correct option.
func verifySingleCorrect(ctx context.Context, tx repository.ContentTx, o *model.Option) error {
	if !o.IsCorrect {
		return nil
	}
	options, err := tx.ListOptionsByQuestionIDs(ctx, []int{o.QuestionID})
	if err != nil {
		return fmt.Errorf("verify options: %w", err)
	}
	correct := 0
	for _, opt := range options {
		if opt.IsCorrect {
			correct++
		}
	}
	if correct > 1 {
		return ErrInvariantViolation
	}
	return nil
}
