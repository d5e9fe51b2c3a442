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

func questionDetailPath(questionID int) string {
	return fmt.Sprintf("/api/v1/admin/questions/%d", questionID)
}

// OptionHandler serves answer option authoring. Marking an option correct
// clears the flag on its siblings.
type OptionHandler struct {
	options OptionService
	log     zerolog.Logger
}

// NewOptionHandler creates a new OptionHandler.
func NewOptionHandler(options OptionService, log zerolog.Logger) *OptionHandler {
	return &OptionHandler{
		options: options,
		log:     log.With().Str("component", "option_handler").Logger(),
	}
}

// Get godoc
// GET /api/v1/admin/options/:id
func (h *OptionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	option, err := h.options.Get(c.Request.Context(), id)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"option": option})
}

// Create godoc
// POST /api/v1/admin/questions/:id/options
func (h *OptionHandler) Create(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.OptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	option, err := h.options.Create(c.Request.Context(), questionID, req)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"option":      option,
		"redirect_to": questionDetailPath(option.QuestionID),
	})
}

// Update godoc
// PUT /api/v1/admin/options/:id
func (h *OptionHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req model.OptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	option, err := h.options.Update(c.Request.Context(), id, req)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"option":      option,
		"redirect_to": questionDetailPath(option.QuestionID),
	})
}

// Delete godoc
// DELETE /api/v1/admin/options/:id
func (h *OptionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	option, err := h.options.Delete(c.Request.Context(), id)
	if err != nil {
		failContent(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"redirect_to": questionDetailPath(option.QuestionID)})
}
