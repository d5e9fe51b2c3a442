package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/response"
	"github.com/stemsi/quizhub-backend/internal/validator"
)

const quizListPath = "/api/v1/admin/quizzes"

// QuizHandler serves quiz authoring and the quiz catalogue.
type QuizHandler struct {
	quizzes QuizService
	log     zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizzes QuizService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizzes: quizzes,
		log:     log.With().Str("component", "quiz_handler").Logger(),
	}
}

// Catalogue godoc
// GET /api/v1/quizzes
// Lists quiz summaries for any signed-in user.
func (h *QuizHandler) Catalogue(c *gin.Context) {
	summaries, err := h.quizzes.Summaries(c.Request.Context())
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quizzes": summaries})
}

// List godoc
// GET /api/v1/admin/quizzes
// Lists every quiz with its questions nested.
func (h *QuizHandler) List(c *gin.Context) {
	quizzes, err := h.quizzes.List(c.Request.Context())
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// Get godoc
// GET /api/v1/admin/quizzes/:id
func (h *QuizHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	quiz, err := h.quizzes.Get(c.Request.Context(), id)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz})
}

// Create godoc
// POST /api/v1/admin/quizzes
func (h *QuizHandler) Create(c *gin.Context) {
	var req model.QuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	quiz, err := h.quizzes.Create(c.Request.Context(), req)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"quiz": quiz, "redirect_to": quizListPath})
}

// Update godoc
// PUT /api/v1/admin/quizzes/:id
func (h *QuizHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.QuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	quiz, err := h.quizzes.Update(c.Request.Context(), id, req)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": quiz, "redirect_to": quizListPath})
}

// Delete godoc
// DELETE /api/v1/admin/quizzes/:id
// Removes the quiz together with its questions and their options.
func (h *QuizHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.quizzes.Delete(c.Request.Context(), id); err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"redirect_to": quizListPath})
}
