package handlers

import (
	"net/http"
	"strconv"

	"buildtrack/internal/models"
	"buildtrack/internal/responses"
	"buildtrack/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type SuggestionHandler struct {
	suggestions *services.SuggestionService
	log         zerolog.Logger
}

func NewSuggestionHandler(suggestions *services.SuggestionService, log zerolog.Logger) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, log: log}
}

// ListSuggestions handles GET /api/v1/suggestions/:kind
func (h *SuggestionHandler) ListSuggestions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.suggestions.List(c.Request.Context(), c.Param("kind"), c.Query("q"), limit)
	if err != nil {
		respondError(c, h.log, "list suggestions", err)
		return
	}
	responses.Success(c, http.StatusOK, items, "")
}

// RecordSuggestion handles POST /api/v1/suggestions/:kind
func (h *SuggestionHandler) RecordSuggestion(c *gin.Context) {
	var sg models.Suggestion
	if err := c.ShouldBindJSON(&sg); err != nil {
		badRequest(c, err, "Invalid request body")
		return
	}
	if err := h.suggestions.Record(c.Request.Context(), c.Param("kind"), sg); err != nil {
		respondError(c, h.log, "record suggestion", err)
		return
	}
	responses.Success(c, http.StatusCreated, nil, "Suggestion saved")
}
