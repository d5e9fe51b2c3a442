package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/validator"
)

func questionListPath(quizID int) string {
	return fmt.Sprintf("/api/v1/admin/quizzes/%d/questions", quizID)
}

// QuestionHandler serves question authoring, scoped to a quiz.
type QuestionHandler struct {
	questions QuestionService
	log       zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		log:       log.With().Str("component", "question_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/admin/quizzes/:id/questions
// An unknown quiz is 404; a quiz without questions is an empty list.
func (h *QuestionHandler) List(c *gin.Context) {
	quizID, ok := parseID(c, "id")
	if !ok {
		return
	}
	questions, err := h.questions.ListByQuiz(c.Request.Context(), quizID)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz_id": quizID, "questions": questions})
}

// Get godoc
// GET /api/v1/admin/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	question, err := h.questions.Get(c.Request.Context(), id)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Create godoc
// POST /api/v1/admin/quizzes/:id/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	quizID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	question, err := h.questions.Create(c.Request.Context(), quizID, req)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"question":    question,
		"redirect_to": questionListPath(question.QuizID),
	})
}

// Update godoc
// PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.QuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	question, err := h.questions.Update(c.Request.Context(), id, req)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"question":    question,
		"redirect_to": questionListPath(question.QuizID),
	})
}

// Delete godoc
// DELETE /api/v1/admin/questions/:id
// Removes the question and its options.
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	question, err := h.questions.Delete(c.Request.Context(), id)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"redirect_to": questionListPath(question.QuizID)})
}
