package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/service"
)

// Services consumed by the handlers. The concrete implementations live in
// the service package.
type (
	AccountService interface {
		Login(ctx context.Context, email, password string) (*service.Session, error)
		Register(ctx context.Context, req model.RegisterRequest) (*model.Student, *service.Session, error)
		Logout(ctx context.Context, sessionID string) error
	}

	CSRFIssuer interface {
		CSRFToken(sessionID string) string
	}

	QuizService interface {
		List(ctx context.Context) ([]model.Quiz, error)
		Summaries(ctx context.Context) ([]model.QuizSummary, error)
		Get(ctx context.Context, id int) (*model.Quiz, error)
		Create(ctx context.Context, req model.QuizRequest) (*model.Quiz, error)
		Update(ctx context.Context, id int, req model.QuizRequest) (*model.Quiz, error)
		Delete(ctx context.Context, id int) error
	}

	QuestionService interface {
		ListByQuiz(ctx context.Context, quizID int) ([]model.Question, error)
		Get(ctx context.Context, id int) (*model.Question, error)
		Create(ctx context.Context, quizID int, req model.QuestionRequest) (*model.Question, error)
		Update(ctx context.Context, id int, req model.QuestionRequest) (*model.Question, error)
		Delete(ctx context.Context, id int) (*model.Question, error)
	}

	OptionService interface {
		Get(ctx context.Context, id int) (*model.Option, error)
		Create(ctx context.Context, questionID int, req model.OptionRequest) (*model.Option, error)
		Update(ctx context.Context, id int, req model.OptionRequest) (*model.Option, error)
		Delete(ctx context.Context, id int) (*model.Option, error)
	}

	ContentFeed interface {
		Subscribe(ctx context.Context) <-chan model.ContentEvent
	}
)

// parseID reads a positive integer path parameter, answering 400 when it
// is malformed.
func parseID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// failContent maps content service errors onto the response envelope.
// Only unexpected errors are logged.
func failContent(c *gin.Context, log zerolog.Logger, err error) {
	if failField(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrParentNotFound):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrParentNotFound)
	case errors.Is(err, service.ErrInvariantViolation):
		response.Fail(c, http.StatusConflict, response.ErrInvariantViolation)
	default:
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Content operation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// failField writes a validation failure for a service-level field
// rejection and reports whether err was one.
func failField(c *gin.Context, err error) bool {
	var fe *service.FieldError
	if !errors.As(err, &fe) {
		return false
	}
	response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
		fe.Field: fe.Field + " " + fe.Message,
	})
	return true
}
