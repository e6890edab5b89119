package routes

import (
	"buildtrack/internal/handlers"

	"github.com/gin-gonic/gin"
)

type SuggestionRoutes struct {
	handler *handlers.SuggestionHandler
}

func NewSuggestionRoutes(handler *handlers.SuggestionHandler) *SuggestionRoutes {
	return &SuggestionRoutes{handler: handler}
}

func (r *SuggestionRoutes) RegisterRoutes(router *gin.RouterGroup) {
	suggestions := router.Group("/suggestions")
	{
		suggestions.GET("/:kind", r.handler.ListSuggestions)
		suggestions.POST("/:kind", r.handler.RecordSuggestion)
	}
}
